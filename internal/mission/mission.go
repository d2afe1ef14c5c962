// Package mission holds the mission-task-type vocabulary and the JSON-facing
// shapes a mission mod's task list and an npc mod's mission list decode into.
package mission

import "github.com/zaop/modforge/internal/errs"

// taskTypeByName is the closed mission task type table (spec.md §4.8).
var taskTypeByName = map[string]int32{
	"Smash":                 0,
	"Script":                1,
	"Activity":              2,
	"Environment":           3,
	"MissionInteraction":    4,
	"Emote":                 5,
	"Food":                  9,
	"Skill":                 10,
	"ItemCollection":        11,
	"Location":              12,
	"Minigame":              14,
	"NonMissionInteraction": 15,
	"MissionComplete":       16,
	"Powerup":               21,
	"PetTaming":             22,
	"Racing":                23,
	"PlayerFlag":            24,
	"VisitProperty":         30,
}

// TaskTypeCode resolves a task type name to its numeric code.
func TaskTypeCode(name string) (int32, error) {
	code, ok := taskTypeByName[name]
	if !ok {
		return 0, errs.Newf(errs.KindUnknownMissionTaskType, "%s", name)
	}
	return code, nil
}

// Task is one entry of a mission's task list, as authored in a mod's JSON.
// Target and Group carry raw JSON values rather than a fixed Go type since
// target may be an id string, a symbol, or a number depending on task type,
// and group is joined into a comma-separated string verbatim.
type Task struct {
	Type              string            `json:"type"`
	Target            any               `json:"target"`
	Count             int32             `json:"count"`
	Group             []any             `json:"group,omitempty"`
	TargetGroupString *string           `json:"location,omitempty"`
	// Parameters is accepted and stored but never emitted to any output
	// table; kept for forward JSON compatibility with the authoring format.
	Parameters *string           `json:"parameters,omitempty"`
	Icon       string            `json:"icon,omitempty"`
	SmallIcon  string            `json:"small-icon,omitempty"`
	Locale     map[string]string `json:"locale,omitempty"`
}

// Offer is one entry of an npc mod's missions list: the mission it refers
// to and whether the npc offers and/or accepts it.
type Offer struct {
	Mission string `json:"mission"`
	Accept  bool   `json:"accept"`
	Offer   bool   `json:"offer"`
}
