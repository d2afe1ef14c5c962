package mod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaop/modforge/internal/deferred"
	"github.com/zaop/modforge/internal/fixture"
	"github.com/zaop/modforge/internal/mission"
)

const expandTestSchema = `
[[table]]
name = "Objects"
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "name"
  type = "text"
  [[table.columns]]
  name = "type"
  type = "text"
  [[table.columns]]
  name = "nametag"
  type = "bool"

[[table]]
name = "RenderComponent"
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "shader_id"
  type = "i32"

[[table]]
name = "ItemComponent"
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "itemInfo"
  type = "i32"

[[table]]
name = "PhysicsComponent"
  [[table.columns]]
  name = "id"
  type = "i32"

[[table]]
name = "MinifigComponent"
  [[table.columns]]
  name = "id"
  type = "i32"

[[table]]
name = "MissionNPCComponent"
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "missionID"
  type = "text"
  [[table.columns]]
  name = "offersMission"
  type = "bool"
  [[table.columns]]
  name = "acceptsMission"
  type = "bool"

[[table]]
name = "InventoryComponent"
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "itemid"
  type = "text"

[[table]]
name = "ObjectSkills"
  [[table.columns]]
  name = "objectTemplate"
  type = "i32"
  [[table.columns]]
  name = "skillID"
  type = "i32"

[[table]]
name = "Icons"
  [[table.columns]]
  name = "IconID"
  type = "i32"
  [[table.columns]]
  name = "IconPath"
  type = "text"

[[table]]
name = "Missions"
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "reward_item1"
  type = "i32"

[[table]]
name = "MissionText"
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "turnInIconID"
  type = "i32"

[[table]]
name = "MissionTasks"
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "uid"
  type = "i32"
  [[table.columns]]
  name = "taskType"
  type = "i32"
  [[table.columns]]
  name = "target"
  type = "text"
  [[table.columns]]
  name = "targetGroup"
  type = "text"
`

func newExpandContext(t *testing.T) *Context {
	t.Helper()
	st, err := fixture.Load(expandTestSchema)
	require.NoError(t, err)
	return NewContext(st)
}

func TestExpandItemCreatesComponentsAndSkills(t *testing.T) {
	ctx := newExpandContext(t)
	m := NewMod()
	m.ID = "my-item"
	m.Kind = "item"
	m.Skills = []any{int64(100), int64(200)}
	m.RawValues["castOnType"] = int64(3)

	require.NoError(t, Expand(ctx, m))
	require.NoError(t, ctx.Push(m))

	var kinds []string
	for _, pushed := range ctx.Buffer {
		kinds = append(kinds, pushed.Kind)
	}
	assert.Contains(t, kinds, "ItemComponent")
	assert.Contains(t, kinds, "RenderComponent")
	assert.Contains(t, kinds, "ObjectSkills")
	assert.Contains(t, kinds, "item")

	assert.Equal(t, "Objects", m.TargetTable)
	assert.Contains(t, m.Components, "my-item:ItemComponent")
	assert.Contains(t, m.Components, "my-item:RenderComponent")

	typeVal, ok := m.OutputValues["type"]
	require.True(t, ok)
	assert.Equal(t, "Loot", typeVal.JSON())
}

func TestExpandNPCSharesFirstMissionComponentID(t *testing.T) {
	ctx := newExpandContext(t)
	m := NewMod()
	m.ID = "my-npc"
	m.Kind = "npc"
	m.Missions = append(m.Missions,
		mission.Offer{Mission: "mission-a", Accept: true, Offer: false},
		mission.Offer{Mission: "mission-b", Accept: false, Offer: true},
	)

	require.NoError(t, Expand(ctx, m))

	var npcComponents []*Mod
	for _, pushed := range ctx.Buffer {
		if pushed.Kind == "MissionNPCComponent" {
			npcComponents = append(npcComponents, pushed)
		}
	}
	require.Len(t, npcComponents, 2)
	assert.Equal(t, "my-npc:MissionNPCComponent:0", npcComponents[0].ID)
	assert.Equal(t, "my-npc:MissionNPCComponent:1", npcComponents[1].ID)

	firstIDVal := npcComponents[0].OutputValues["id"]
	secondIDVal := npcComponents[1].OutputValues["id"]
	assert.Equal(t, deferred.KindGenerateID, firstIDVal.Kind())
	assert.Equal(t, deferred.KindAwaitingID, secondIDVal.Kind())
	assert.Equal(t, "my-npc:MissionNPCComponent:0", secondIDVal.Sym())

	assert.Contains(t, m.Components, "my-npc:MissionNPCComponent:0")
}

func TestExpandMissionBuildsTextAndTasks(t *testing.T) {
	ctx := newExpandContext(t)
	m := NewMod()
	m.ID = "my-mission"
	m.Kind = "mission"
	m.Locale["en_US"] = "My Mission"
	m.RawValues["icon-turn-in"] = "ASSET:icons/done.dds"
	m.RawValues["chat_accept"] = map[string]any{"en_US": "Ready?"}
	m.Tasks = append(m.Tasks, mission.Task{
		Type:   "Location",
		Target: int64(0),
		Count:  1,
		Group:  []any{int64(1), int64(2)},
	})

	require.NoError(t, Expand(ctx, m))

	var missionText, task *Mod
	var icon *Mod
	for _, pushed := range ctx.Buffer {
		switch pushed.Kind {
		case "MissionText":
			missionText = pushed
		case "MissionTasks":
			task = pushed
		case "Icons":
			icon = pushed
		}
	}
	require.NotNil(t, missionText)
	require.NotNil(t, task)
	require.NotNil(t, icon)

	turnInVal, ok := missionText.OutputValues["turnInIconID"]
	require.True(t, ok)
	assert.Equal(t, icon.ID, turnInVal.Sym())

	targetGroupVal := task.OutputValues["targetGroup"]
	assert.Equal(t, "1,2", targetGroupVal.JSON())

	require.Len(t, m.CollectedPhrases, 2) // Missions_{}_name + chat_accept
}
