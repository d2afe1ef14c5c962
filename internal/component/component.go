// Package component holds the fixed enumeration of component types and the
// rules for mapping a mod kind or component type name to its target table.
package component

import "github.com/zaop/modforge/internal/errs"

// codeByName is the closed bidirectional name↔code table for component
// types, as carried by the game client/server content database.
var codeByName = map[string]int32{
	"ControllablePhysicsComponent":     1,
	"RenderComponent":                  2,
	"SimplePhysicsComponent":           3,
	"CharacterComponent":               4,
	"ScriptComponent":                  5,
	"BouncerComponent":                 6,
	"DestructibleComponent":            7,
	"GhostComponent":                   8,
	"SkillComponent":                   9,
	"SpawnerComponent":                 10,
	"ItemComponent":                    11,
	"RebuildComponent":                 12,
	"RebuildStartComponent":            13,
	"RebuildActivatorComponent":        14,
	"IconOnlyComponent":                15,
	"VendorComponent":                  16,
	"InventoryComponent":               17,
	"ProjectilePhysicsComponent":       18,
	"ShootingGalleryComponent":         19,
	"RigidBodyPhantomPhysicsComponent": 20,
	"DropEffectComponent":              21,
	"ChestComponent":                   22,
	"CollectibleComponent":             23,
	"BlueprintComponent":               24,
	"MovingPlatformComponent":          25,
	"PetComponent":                     26,
	"PlatformBoundaryComponent":        27,
	"ModuleComponent":                  28,
	"ArcadeComponent":                  29,
	"VehiclePhysicsComponent":          30,
	"MovementAIComponent":              31,
	"ExhibitComponent":                 32,
	"OverheadIconComponent":            33,
	"PetControlComponent":              34,
	"MinifigComponent":                 35,
	"PropertyComponent":                36,
	"PetCreatorComponent":              37,
	"ModelBuilderComponent":            38,
	"ScriptedActivityComponent":        39,
	"PhantomPhysicsComponent":          40,
	"SpringpadComponent":               41,
	"B3BehaviorsComponent":             42,
	"PropertyEntranceComponent":        43,
	"FXComponent":                      44,
	"PropertyManagementComponent":      45,
	"SecondVehiclePhysicsComponent":    46,
	"PhysicsSystemComponent":           47,
	"QuickBuildComponent":              48,
	"SwitchComponent":                  49,
	"MinigameComponent":                50,
	"ChanglingComponent":               51,
	"ChoiceBuildComponent":             52,
	"PackageComponent":                 53,
	"SoundRepeaterComponent":           54,
	"SoundAmbient2DComponent":          55,
	"SoundAmbient3DComponent":          56,
	"PreconditionComponent":            57,
	"PlayerFlagsComponent":             58,
	"CustomBuildAssemblyComponent":     59,
	"BaseCombatAIComponent":            60,
	"ModuleAssemblyComponent":          61,
	"ShowcaseModelHandlerComponent":    62,
	"RacingModuleComponent":            63,
	"GenericActivatorComponent":        64,
	"PropertyVendorComponent":          65,
	"HFLightDirectionGadgetComponent":  66,
	"RocketLaunchComponent":            67,
	"RocketLandingComponent":           68,
	"TriggerComponent":                 69,
	"DroppedLootComponent":             70,
	"RacingControlComponent":           71,
	"FactionTriggerComponent":          72,
	"MissionNPCComponent":              73,
	"RacingStatsComponent":             74,
	"LUPExhibitComponent":              75,
	"BBBComponent":                     76,
	"SoundTriggerComponent":            77,
	"ProximityMonitorComponent":        78,
	"RacingSoundTriggerComponent":      79,
	"ChatComponent":                    80,
	"FriendsListComponent":             81,
	"GuildComponent":                   82,
	"LocalSystemComponent":             83,
	"MissionComponent":                 84,
	"MutableModelBehaviorsComponent":   85,
	"PathfindingControlComponent":      86,
	"PetTamingControlComponent":        87,
	"PropertyEditorComponent":          88,
	"SkinnedRenderComponent":           89,
	"SlashCommandComponent":            90,
	"StatusEffectComponent":            91,
	"TeamsComponent":                   92,
	"TextEffectComponent":              93,
	"TradeComponent":                   94,
	"UserControlComponent":             95,
	"IgnoreListComponent":              96,
	"LUPLaunchpadComponent":            97,
	"InteractionManagerComponent":      98,
	"DonationVendorComponent":          100,
	"CombatMediatorComponent":          101,
	"Component107":                     107,
	"Possesable":                       108,
}

// CodeOf returns the component type code for a component type name. Unknown
// names are fatal with kind UnknownComponent.
func CodeOf(name string) (int32, error) {
	code, ok := codeByName[name]
	if !ok {
		return 0, errs.Newf(errs.KindUnknownComponent, "%s", name)
	}
	return code, nil
}

// TableNameFor resolves a mod kind or component type name to its target
// table, per spec.md §4.1:
//   - npc, item, object alias to Objects
//   - mission aliases to Missions
//   - names ending in PhysicsComponent alias to PhysicsComponent
//   - otherwise the name is the table name verbatim (raw table-name kind,
//     or any other component type name).
func TableNameFor(kind string) string {
	switch kind {
	case "npc", "item", "object":
		return "Objects"
	case "mission":
		return "Missions"
	}
	if hasSuffix(kind, "PhysicsComponent") {
		return "PhysicsComponent"
	}
	return kind
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
