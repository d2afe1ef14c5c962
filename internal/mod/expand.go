package mod

import (
	"fmt"

	"github.com/zaop/modforge/internal/mission"
	"github.com/zaop/modforge/internal/sqlmod"
)

// Expand dispatches m to its kind-specific expander, mutating m in place
// and pushing every generated child mod (components, icons, mission text
// and tasks, object skills) into ctx's buffer. It does not push m itself —
// the caller pushes the top-level mod once expansion returns, the same
// order apply_mod_file uses in the original tool.
func Expand(ctx *Context, m *Mod) error {
	switch m.Kind {
	case "item":
		return expandItem(ctx, m)
	case "sql":
		return expandSQL(ctx, m)
	case "environmental":
		return expandEnvironmental(ctx, m)
	case "mission":
		return expandMission(ctx, m)
	case "npc":
		return expandNPC(ctx, m)
	case "enemy":
		return expandEnemy(ctx, m)
	case "object":
		return applyObjectMod(ctx, m)
	default:
		return applyRawMod(ctx, m)
	}
}

// applyRawMod handles a mod authored with a raw table name or a bare
// component type name as its kind: reserve an id and finalize, with no
// further expansion.
func applyRawMod(ctx *Context, m *Mod) error {
	m.setGenerate("id")
	return finalize(ctx, m)
}

func expandSQL(ctx *Context, m *Mod) error {
	raw := m.RawValues["sql"]
	resolved, err := sqlmod.ResolveValue(m.Dir, raw, m.ID)
	if err != nil {
		return err
	}
	m.RawValues["sql"] = resolved
	m.setValue("sql", resolved)
	return nil
}

func expandItem(ctx *Context, m *Mod) error {
	m.setDefault("nametag", false)
	m.setDefault("localize", true)
	m.setDefault("locStatus", 2)
	m.setDefault("offsetGroupID", 78)
	m.setDefault("itemInfo", 0)
	m.setDefault("fade", true)
	m.setDefault("fadeInTime", 1)
	m.setDefault("shader_id", 23)
	m.setDefault("audioEquipMetaEventSet", "Weapon_Hammer_Generic")
	m.setValue("type", "Loot")

	if _, err := addComponent(ctx, m, "ItemComponent"); err != nil {
		return err
	}
	if _, err := addComponent(ctx, m, "RenderComponent"); err != nil {
		return err
	}

	if err := linkSkills(ctx, m); err != nil {
		return err
	}

	return applyObjectMod(ctx, m)
}

func expandEnvironmental(ctx *Context, m *Mod) error {
	m.setDefault("static", 1)
	m.setDefault("shader_id", 1)
	m.setValue("type", "Environmental")

	if _, err := addComponent(ctx, m, "RenderComponent"); err != nil {
		return err
	}
	if _, err := addComponent(ctx, m, "SimplePhysicsComponent"); err != nil {
		return err
	}

	return applyObjectMod(ctx, m)
}

func expandNPC(ctx *Context, m *Mod) error {
	m.setDefault("render_asset", `animations\\minifig\\mf_ambient.kfm`)
	m.setDefault("animationGroupIDs", "93")
	m.setDefault("shader_id", 14)
	m.setDefault("static", 1)
	m.setDefault("jump", 0)
	m.setDefault("doublejump", 0)
	m.setDefault("speed", 5)
	m.setDefault("rotSpeed", 360)
	m.setDefault("playerHeight", 4.4)
	m.setDefault("playerRadius", 1)
	m.setDefault("pcShapeType", 2)
	m.setDefault("collisionGroup", 3)
	m.setDefault("airSpeed", 5)
	m.setDefault("jumpAirSpeed", 25)
	m.setDefault("interactionDistance", nil)

	m.setDefault("chatBubbleOffset", nil)
	m.setDefault("fade", true)
	m.setDefault("fadeInTime", 1)
	m.setDefault("billboardHeight", nil)
	m.setDefault("AudioMetaEventSet", "Emotes_Non_Player")
	m.setDefault("usedropshadow", false)
	m.setDefault("preloadAnimations", false)
	m.setDefault("ignoreCameraCollision", false)
	m.setDefault("gradualSnap", false)
	m.setDefault("staticBillboard", false)
	m.setDefault("attachIndicatorsToNode", false)

	m.setDefault("npcTemplateID", 14)
	m.setDefault("nametag", true)
	m.setDefault("placeable", true)
	m.setDefault("localize", true)
	m.setDefault("locStatus", 2)

	m.setValue("type", "UserGeneratedNPCs")

	for _, componentType := range []string{"SimplePhysicsComponent", "RenderComponent", "MinifigComponent"} {
		if _, err := addComponent(ctx, m, componentType); err != nil {
			return err
		}
	}

	if err := linkMissionNPCComponents(ctx, m); err != nil {
		return err
	}
	if err := linkInventoryComponents(ctx, m); err != nil {
		return err
	}

	return applyObjectMod(ctx, m)
}

func expandEnemy(ctx *Context, m *Mod) error {
	// Controller
	m.setDefault("physics_asset", `miscellaneous\standard_enemy.hkx`)
	m.setDefault("static", 0)
	m.setDefault("jump", 4)
	m.setDefault("doublejump", 0)
	m.setDefault("speed", 8)
	m.setDefault("rotSpeed", 720)
	m.setDefault("playerHeight", 4.4)
	m.setDefault("playerRadius", 1.7)
	m.setDefault("pcShapeType", 0)
	m.setDefault("collisionGroup", 12)
	m.setDefault("airSpeed", 5)
	m.setDefault("jumpAirSpeed", 25)

	// Render
	m.setDefault("render_asset", `animations\creatures\cre_strombie.kfm`)
	m.setDefault("animationGroupIDs", "513,535")
	m.setDefault("shader_id", 66)
	m.setDefault("interactionDistance", nil)
	m.setDefault("chatBubbleOffset", nil)
	m.setDefault("fade", true)
	m.setDefault("fadeInTime", 0.1)
	m.setDefault("billboardHeight", nil)
	m.setDefault("AudioMetaEventSet", nil)
	m.setDefault("usedropshadow", false)
	m.setDefault("preloadAnimations", false)
	m.setDefault("ignoreCameraCollision", false)
	m.setDefault("gradualSnap", false)
	m.setDefault("staticBillboard", false)
	m.setDefault("attachIndicatorsToNode", false)

	// Destroyable
	m.setDefault("life", 1)
	m.setDefault("armor", 0)
	m.setDefault("imagination", 0)
	m.setDefault("level", 1)
	m.setDefault("faction", 4)
	m.setDefault("factionList", "4")
	m.setDefault("isnpc", true)
	m.setDefault("isSmashable", true)
	m.setDefault("attack_priority", 1)
	m.setDefault("death_behavior", 2)
	m.setDefault("CurrencyIndex", 1)
	m.setDefault("LootMatrixIndex", 160)
	m.setDefault("difficultyLevel", nil)

	// Movement
	m.setDefault("MovementType", "Wander")
	m.setDefault("WanderChance", 90)
	m.setDefault("WanderDelayMin", 3)
	m.setDefault("WanderDelayMax", 6)
	m.setDefault("WanderSpeed", 0.5)
	m.setDefault("WanderRadius", 8)
	m.setDefault("attachedPath", nil)

	// BaseCombatAI
	m.setDefault("behaviorType", 1)
	m.setDefault("minRoundLength", 3)
	m.setDefault("maxRoundLength", 5)
	m.setDefault("pursuitSpeed", 2)
	m.setDefault("spawnTimer", 1)
	m.setDefault("tetherSpeed", 4)
	m.setDefault("softTetherRadius", 25)
	m.setDefault("hardTetherRadius", 101)
	m.setDefault("tetherEffectID", 6270)
	m.setDefault("combatRoundLength", 4)
	m.setDefault("combatRole", 5)
	m.setDefault("combatStartDelay", 1.5)
	m.setDefault("aggroRadius", 25)
	m.setDefault("ignoreMediator", true)
	m.setDefault("ignoreStatReset", false)
	m.setDefault("ignoreParent", false)

	// Object
	m.setDefault("npcTemplateID", nil)
	m.setDefault("nametag", true)
	m.setDefault("placeable", true)
	m.setDefault("localize", true)
	m.setDefault("locStatus", 2)

	m.setValue("type", "Enemies")

	for _, componentType := range []string{
		"ControllablePhysicsComponent",
		"RenderComponent",
		"DestructibleComponent",
		"SkillComponent",
		"MovementAIComponent",
		"BaseCombatAIComponent",
	} {
		if _, err := addComponent(ctx, m, componentType); err != nil {
			return err
		}
	}

	if err := linkSkills(ctx, m); err != nil {
		return err
	}

	return applyObjectMod(ctx, m)
}

// linkMissionNPCComponents creates one MissionNPCComponent row per offer in
// m.Missions. Every row after the first awaits the first row's generated
// id instead of reserving its own — the table's primary key column is
// shared across an npc's whole mission list, matching one physical
// MissionNPCComponent id standing for the group.
func linkMissionNPCComponents(ctx *Context, m *Mod) error {
	if len(m.Missions) == 0 {
		return nil
	}
	firstID := m.ID + ":MissionNPCComponent:0"
	for i, offer := range m.Missions {
		componentID := firstID
		if i != 0 {
			componentID = fmt.Sprintf("%s:MissionNPCComponent:%d", m.ID, i)
		}
		child := NewMod()
		child.ID = componentID
		child.Kind = "MissionNPCComponent"
		child.Dir = m.Dir
		child.OutputValues = cloneValueMap(m.OutputValues)

		if i == 0 {
			child.setGenerate("id")
		} else {
			child.setAwaiting("id", firstID)
		}
		child.setValue("missionID", offer.Mission)
		child.setValue("offersMission", offer.Offer)
		child.setValue("acceptsMission", offer.Accept)

		if err := finalize(ctx, child); err != nil {
			return err
		}
		if err := ctx.Push(child); err != nil {
			return err
		}
	}
	m.Components = append(m.Components, firstID)
	return nil
}

// linkInventoryComponents creates one InventoryComponent row per item in
// m.Items, with the same shared-first-id pattern as mission components.
func linkInventoryComponents(ctx *Context, m *Mod) error {
	if len(m.Items) == 0 {
		return nil
	}
	firstID := m.ID + ":InventoryComponent:0"
	for i, item := range m.Items {
		componentID := firstID
		if i != 0 {
			componentID = fmt.Sprintf("%s:InventoryComponent:%d", m.ID, i)
		}
		child := NewMod()
		child.ID = componentID
		child.Kind = "InventoryComponent"
		child.Dir = m.Dir
		child.OutputValues = cloneValueMap(m.OutputValues)

		if i == 0 {
			child.setGenerate("id")
		} else {
			child.setAwaiting("id", firstID)
		}
		child.setValue("count", 1)
		child.setValue("equip", true)
		child.setValue("itemid", item)

		if err := finalize(ctx, child); err != nil {
			return err
		}
		if err := ctx.Push(child); err != nil {
			return err
		}
	}
	m.Components = append(m.Components, firstID)
	return nil
}

func expandMission(ctx *Context, m *Mod) error {
	m.setDefault("locStatus", 2)
	m.setDefault("UIPrereqID", nil)
	m.setDefault("localize", true)
	m.setDefault("isMission", true)
	m.setDefault("isChoiceReward", false)
	m.setDefault("missionIconID", nil)
	m.setDefault("time_limit", nil)
	m.setDefault("reward_item1", -1)
	m.setDefault("reward_item2", -1)
	m.setDefault("reward_item3", -1)
	m.setDefault("reward_item4", -1)
	m.setDefault("reward_item1_repeatable", -1)
	m.setDefault("reward_item2_repeatable", -1)
	m.setDefault("reward_item3_repeatable", -1)
	m.setDefault("reward_item4_repeatable", -1)
	m.setDefault("reward_emote", -1)
	m.setDefault("reward_emote2", -1)
	m.setDefault("reward_emote3", -1)
	m.setDefault("reward_emote4", -1)
	m.setDefault("reward_maxwallet", 0)
	m.setDefault("reward_reputation", 0)
	m.setDefault("reward_currency_repeatable", 0)
	m.setGenerate("id")

	if err := finalize(ctx, m); err != nil {
		return err
	}

	m.addLocale("Missions_{}_name")
	m.addLocaleFromValue("MissionText_{}_accept_chat_bubble", "accept_chat_bubble")
	m.addLocaleFromValue("MissionText_{}_accept_chat_bubble", "chat_accept")
	m.addLocaleFromValue("MissionText_{}_chat_state_1", "chat_state_1")
	m.addLocaleFromValue("MissionText_{}_chat_state_2", "chat_state_2")
	m.addLocaleFromValue("MissionText_{}_chat_state_3", "chat_state_3")
	m.addLocaleFromValue("MissionText_{}_chat_state_4", "chat_state_4")
	m.addLocaleFromValue("MissionText_{}_chat_state_1", "chat_available")
	m.addLocaleFromValue("MissionText_{}_chat_state_2", "chat_active")
	m.addLocaleFromValue("MissionText_{}_chat_state_3", "chat_ready_to_complete")
	m.addLocaleFromValue("MissionText_{}_chat_state_4", "chat_complete")
	m.addLocaleFromValue("MissionText_{}_completion_succeed_tip", "completion_succeed_tip")
	m.addLocaleFromValue("MissionText_{}_in_progress", "in_progress")
	m.addLocaleFromValue("MissionText_{}_offer", "offer")
	m.addLocaleFromValue("MissionText_{}_ready_to_complete", "ready_to_complete")

	missionText := NewMod()
	missionText.ID = m.ID + ":MissionText"
	missionText.Kind = "MissionText"
	missionText.Dir = m.Dir
	missionText.setValue("localize", true)
	missionText.setValue("locStatus", 2)
	missionText.setAwaiting("id", m.ID)

	if iconPath, ok := m.RawValues["icon"].(string); ok {
		iconID, err := addIcon(ctx, m, iconPath, "icon")
		if err != nil {
			return err
		}
		m.setAwaiting("missionIconID", iconID)
	}
	if err := finalize(ctx, m); err != nil {
		return err
	}
	if iconPath, ok := m.RawValues["icon-turn-in"].(string); ok {
		iconID, err := addIcon(ctx, m, iconPath, "icon-turn-in")
		if err != nil {
			return err
		}
		missionText.setAwaiting("turnInIconID", iconID)
	}

	if err := finalize(ctx, missionText); err != nil {
		return err
	}
	if err := ctx.Push(missionText); err != nil {
		return err
	}

	for i, task := range m.Tasks {
		if err := expandMissionTask(ctx, m, task, i); err != nil {
			return err
		}
	}

	return nil
}

func expandMissionTask(ctx *Context, m *Mod, task mission.Task, index int) error {
	taskType, err := mission.TaskTypeCode(task.Type)
	if err != nil {
		return err
	}

	taskMod := NewMod()
	taskMod.ID = fmt.Sprintf("%s:tasks:%d", m.ID, index)
	taskMod.Kind = "MissionTasks"
	taskMod.Locale = cloneStringMap(task.Locale)
	taskMod.Dir = m.Dir
	taskMod.OutputValues = cloneValueMap(m.OutputValues)

	taskMod.setValue("taskType", taskType)
	taskMod.setValue("target", task.Target)
	taskMod.setValue("targetValue", task.Count)
	taskMod.setValue("localize", true)
	taskMod.setAwaiting("id", m.ID)
	taskMod.setGenerate("uid")

	if task.TargetGroupString != nil {
		taskMod.setValue("targetGroup", *task.TargetGroupString)
	} else {
		taskMod.setValue("targetGroup", joinGroup(task.Group))
	}

	if task.Icon != "" {
		iconID, err := addIcon(ctx, taskMod, task.Icon, "task-icon-large")
		if err != nil {
			return err
		}
		taskMod.setAwaiting("largeTaskIconID", iconID)
	}
	if task.SmallIcon != "" {
		iconID, err := addIcon(ctx, taskMod, task.SmallIcon, "task-icon-small")
		if err != nil {
			return err
		}
		taskMod.setAwaiting("IconID", iconID)
	}

	if err := finalize(ctx, taskMod); err != nil {
		return err
	}
	taskMod.addLocale("MissionTasks_{}_description")

	return ctx.Push(taskMod)
}
