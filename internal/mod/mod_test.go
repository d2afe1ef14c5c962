package mod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaop/modforge/internal/deferred"
	"github.com/zaop/modforge/internal/errs"
	"github.com/zaop/modforge/internal/fixture"
)

const testSchema = `
[[table]]
name = "Objects"
buckets = 4
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "name"
  type = "text"
  [[table.columns]]
  name = "type"
  type = "text"

[[table]]
name = "RenderComponent"
buckets = 2
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "render_asset"
  type = "text"

[[table]]
name = "ItemComponent"
buckets = 2
  [[table.columns]]
  name = "id"
  type = "i32"
  [[table.columns]]
  name = "itemInfo"
  type = "i32"

[[table]]
name = "Icons"
buckets = 2
  [[table.columns]]
  name = "IconID"
  type = "i32"
  [[table.columns]]
  name = "IconPath"
  type = "text"
`

func newTestContext(t *testing.T) *Context {
	t.Helper()
	st, err := fixture.Load(testSchema)
	require.NoError(t, err)
	return NewContext(st)
}

func TestDecodeModsSplitsKnownAndRawFields(t *testing.T) {
	data := []byte(`[{
		"id": "my-item",
		"type": "item",
		"components": ["foo"],
		"locale": {"en_US": "My Item"},
		"nametag": true,
		"someCustomValue": 42
	}]`)

	mods, err := DecodeMods(data)
	require.NoError(t, err)
	require.Len(t, mods, 1)

	m := mods[0]
	assert.Equal(t, "my-item", m.ID)
	assert.Equal(t, "item", m.Kind)
	assert.Equal(t, "add", m.Action)
	assert.Equal(t, []string{"foo"}, m.Components)
	assert.Equal(t, "My Item", m.Locale["en_US"])

	_, hasNametagRaw := m.RawValues["nametag"]
	assert.True(t, hasNametagRaw)
	_, hasCustomRaw := m.RawValues["someCustomValue"]
	assert.True(t, hasCustomRaw)

	v, ok := m.OutputValues["nametag"]
	require.True(t, ok)
	assert.Equal(t, deferred.KindFromJSON, v.Kind())
}

func TestDecodeModsTasksPreserveNumbers(t *testing.T) {
	data := []byte(`[{
		"id": "m1",
		"type": "mission",
		"tasks": [{"type": "Location", "target": 12345, "count": 1, "group": [1, 2, 3]}]
	}]`)

	mods, err := DecodeMods(data)
	require.NoError(t, err)
	require.Len(t, mods[0].Tasks, 1)
	assert.Equal(t, int32(1), mods[0].Tasks[0].Count)
	assert.Len(t, mods[0].Tasks[0].Group, 3)
}

func TestContextPushRejectsDuplicateID(t *testing.T) {
	ctx := newTestContext(t)
	m1 := NewMod()
	m1.ID = "dup"
	m2 := NewMod()
	m2.ID = "dup"

	require.NoError(t, ctx.Push(m1))
	err := ctx.Push(m2)
	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindDuplicateModID, kind)
}

func TestFinalizeUnknownTableFails(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMod()
	m.ID = "x"
	m.Kind = "NoSuchTable"

	err := finalize(ctx, m)
	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindTableNotFound, kind)
}

func TestAddComponentInheritsParentRawValues(t *testing.T) {
	ctx := newTestContext(t)
	parent := NewMod()
	parent.ID = "parent"
	parent.Kind = "item"
	parent.RawValues["render_asset"] = "models\\foo.nif"
	parent.initOutputValues()

	child, err := addComponent(ctx, parent, "RenderComponent")
	require.NoError(t, err)
	assert.Equal(t, "parent:RenderComponent", child.ID)
	assert.Contains(t, parent.Components, "parent:RenderComponent")

	v, ok := child.OutputValues["render_asset"]
	require.True(t, ok)
	assert.Equal(t, "models\\foo.nif", v.JSON())

	require.Len(t, ctx.Buffer, 1)
	assert.Equal(t, "RenderComponent", ctx.Buffer[0].TargetTable)
}

func TestAddLocaleCollectsPhraseOnlyWhenLocalePresent(t *testing.T) {
	m := NewMod()
	m.ID = "obj-1"
	m.addLocale("Objects_{}_name")
	assert.Empty(t, m.CollectedPhrases)

	m.Locale["en_US"] = "Hello"
	m.addLocale("Objects_{}_name")
	require.Len(t, m.CollectedPhrases, 1)
	assert.Equal(t, "obj-1", m.CollectedPhrases[0].OwnerModID)

	resolved := m.CollectedPhrases[0].Template.Resolve(7)
	assert.Equal(t, "Objects_7_name", resolved.ID)
}

func TestAddLocaleFromValueSkipsNonStringEntries(t *testing.T) {
	m := NewMod()
	m.ID = "mission-1"
	m.RawValues["chat_accept"] = map[string]any{"en_US": "Accept?", "bad": 5}

	m.addLocaleFromValue("MissionText_{}_accept_chat_bubble", "chat_accept")
	require.Len(t, m.CollectedPhrases, 1)
	assert.Equal(t, "Accept?", m.CollectedPhrases[0].Template.Translations["en_US"])
	_, hasBad := m.CollectedPhrases[0].Template.Translations["bad"]
	assert.False(t, hasBad)
}
