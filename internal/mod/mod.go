// Package mod holds the Mod intermediate representation and the per-kind
// expanders that turn an authored mod entry into one or more finalized
// output rows, grounded directly in original_source/src/lu_mod.rs's
// Mod/OutputValue/apply_*_mod family. A Mod's output cells stay
// DeferredValues (internal/deferred) until the allocator resolves them;
// this package only ever builds and finalizes rows, it never assigns ids.
package mod

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/zaop/modforge/internal/asset"
	"github.com/zaop/modforge/internal/component"
	"github.com/zaop/modforge/internal/deferred"
	"github.com/zaop/modforge/internal/errs"
	"github.com/zaop/modforge/internal/field"
	"github.com/zaop/modforge/internal/locale"
	"github.com/zaop/modforge/internal/mission"
	"github.com/zaop/modforge/internal/schema"
)

// Phrase pairs a locale template with the mod whose allocated id resolves
// its placeholder. The expanders always record the mod that collected the
// phrase as its owner: mission-text phrases are collected on the mission mod
// itself and so take the mission's id, and a task's description phrase
// takes the task mod's own id.
type Phrase struct {
	OwnerModID string
	Template   locale.Template
}

// Mod is one authored or generated mod entry. Authored entries come from
// DecodeMods; generated entries (components, icons, mission text/tasks,
// object skills) are built directly by the expanders below.
type Mod struct {
	ID           string
	Kind         string
	Action       string
	ShowDefaults *bool
	Components   []string
	// Table is accepted for JSON round-trip fidelity but never consulted —
	// a mod's target table is always derived from Kind (component.TableNameFor).
	Table string
	Dir   string

	Items    []any
	Skills   []any
	Tasks    []mission.Task
	Missions []mission.Offer
	Locale   map[string]string

	// RawValues holds every authored property that this struct doesn't
	// have a named field for — the mod's raw_values.
	RawValues map[string]any

	OutputValues map[string]deferred.Value
	OutputRow    []deferred.Value
	TargetTable  string

	CollectedPhrases []Phrase
}

// NewMod builds a Mod with its maps initialized and Action defaulted to
// "add", matching lu_mod.rs's Default impl.
func NewMod() *Mod {
	return &Mod{
		Action:       "add",
		Locale:       make(map[string]string),
		RawValues:    make(map[string]any),
		OutputValues: make(map[string]deferred.Value),
	}
}

// Context carries the stock schema and the ordered buffer of every mod
// produced during expansion (authored and generated alike) — the Go
// analogue of the Rust tool's ModContext.mods list.
type Context struct {
	Store  schema.Store
	Buffer []*Mod
	seen   map[string]bool
}

// NewContext builds an expansion context over the given stock schema.
func NewContext(store schema.Store) *Context {
	return &Context{Store: store, seen: make(map[string]bool)}
}

// Push appends m to the buffer, rejecting a second mod with the same id.
func (ctx *Context) Push(m *Mod) error {
	if ctx.seen[m.ID] {
		return errs.Newf(errs.KindDuplicateModID, "duplicate mod id %q", m.ID).WithMod(m.ID)
	}
	ctx.seen[m.ID] = true
	ctx.Buffer = append(ctx.Buffer, m)
	return nil
}

// DecodeMods parses a mod file's JSON array into Mod entries. Numbers are
// decoded as json.Number throughout (including inside raw_values, tasks,
// and missions) so integer and floating-point authoring stay
// distinguishable all the way to coercion.
func DecodeMods(data []byte) ([]*Mod, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var entries []map[string]any
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("mod: decode mod file: %w", err)
	}

	mods := make([]*Mod, 0, len(entries))
	for _, raw := range entries {
		m, err := modFromMap(raw)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

func modFromMap(raw map[string]any) (*Mod, error) {
	m := NewMod()

	id, _ := raw["id"].(string)
	m.ID = id
	delete(raw, "id")

	if kind, ok := raw["type"].(string); ok {
		m.Kind = kind
	}
	delete(raw, "type")

	if action, ok := raw["action"].(string); ok {
		m.Action = action
	}
	delete(raw, "action")

	if sd, ok := raw["show-defaults"].(bool); ok {
		m.ShowDefaults = &sd
	}
	delete(raw, "show-defaults")

	if comps, ok := raw["components"].([]any); ok {
		for _, c := range comps {
			if s, ok := c.(string); ok {
				m.Components = append(m.Components, s)
			}
		}
	}
	delete(raw, "components")

	if table, ok := raw["table"].(string); ok {
		m.Table = table
	}
	delete(raw, "table")

	if items, ok := raw["items"].([]any); ok {
		m.Items = items
	}
	delete(raw, "items")

	if skills, ok := raw["skills"].([]any); ok {
		m.Skills = skills
	}
	delete(raw, "skills")

	if tasksRaw, ok := raw["tasks"]; ok {
		var tasks []mission.Task
		if err := decodeSub(tasksRaw, &tasks); err != nil {
			return nil, errs.Wrap(errs.KindTypeMismatch, "tasks", err).WithMod(id)
		}
		m.Tasks = tasks
	}
	delete(raw, "tasks")

	if missionsRaw, ok := raw["missions"]; ok {
		var missions []mission.Offer
		if err := decodeSub(missionsRaw, &missions); err != nil {
			return nil, errs.Wrap(errs.KindTypeMismatch, "missions", err).WithMod(id)
		}
		m.Missions = missions
	}
	delete(raw, "missions")

	if localeRaw, ok := raw["locale"].(map[string]any); ok {
		for k, v := range localeRaw {
			if s, ok := v.(string); ok {
				m.Locale[k] = s
			}
		}
	}
	delete(raw, "locale")

	m.RawValues = raw
	m.initOutputValues()
	return m, nil
}

// decodeSub re-decodes a generic JSON value (already parsed with
// UseNumber) into a concrete Go type, preserving json.Number in any `any`
// fields the target still carries (MissionTask.Target, MissionTask.Group).
func decodeSub(raw any, target any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(target)
}

func (m *Mod) initOutputValues() {
	for k, v := range m.RawValues {
		m.OutputValues[k] = deferred.FromJSON(v)
	}
}

// clone deep-copies every field of m, matching lu_mod.rs's `..self.clone()`
// struct-update pattern: a new component or child mod starts out carrying
// its parent's entire authored value set, so that the parent's raw_values
// become candidate cells for whichever columns the child's own target
// table declares.
func (m *Mod) clone() *Mod {
	c := *m
	c.Components = append([]string(nil), m.Components...)
	c.Items = append([]any(nil), m.Items...)
	c.Skills = append([]any(nil), m.Skills...)
	c.Tasks = append([]mission.Task(nil), m.Tasks...)
	c.Missions = append([]mission.Offer(nil), m.Missions...)
	c.Locale = cloneStringMap(m.Locale)
	c.RawValues = cloneAnyMap(m.RawValues)
	c.OutputValues = cloneValueMap(m.OutputValues)
	c.OutputRow = nil
	c.TargetTable = ""
	c.CollectedPhrases = nil
	return &c
}

func cloneStringMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneAnyMap(m map[string]any) map[string]any {
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneValueMap(m map[string]deferred.Value) map[string]deferred.Value {
	c := make(map[string]deferred.Value, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// jsonLiteral converts a Go-native literal authored directly in this
// package's expander code (plain int/float constants) into the json.Number
// shape deferred.Coerce expects; values that already arrived as decoded
// JSON (json.Number, string, bool, nil, or nested any) pass through as-is.
func jsonLiteral(v any) any {
	switch n := v.(type) {
	case int:
		return json.Number(strconv.Itoa(n))
	case int32:
		return json.Number(strconv.FormatInt(int64(n), 10))
	case int64:
		return json.Number(strconv.FormatInt(n, 10))
	case float64:
		return json.Number(strconv.FormatFloat(n, 'f', -1, 64))
	case float32:
		return json.Number(strconv.FormatFloat(float64(n), 'f', -1, 32))
	default:
		return v
	}
}

// setDefault sets key only if the author didn't already author it.
func (m *Mod) setDefault(key string, value any) {
	if _, ok := m.RawValues[key]; ok {
		return
	}
	m.OutputValues[key] = deferred.FromJSON(jsonLiteral(value))
}

// setValue force-overrides key regardless of any authored value.
func (m *Mod) setValue(key string, value any) {
	m.OutputValues[key] = deferred.FromJSON(jsonLiteral(value))
}

// setGenerate marks key as reserving a new id for this mod at allocation
// time.
func (m *Mod) setGenerate(key string) {
	m.OutputValues[key] = deferred.GenerateID()
}

// setAwaiting marks key as substituting another mod's allocated id at
// resolution time.
func (m *Mod) setAwaiting(key, sym string) {
	m.OutputValues[key] = deferred.AwaitingID(sym)
}

// addLocale collects a phrase from this mod's own locale map, if it
// authored one. template carries exactly one "{}" placeholder.
func (m *Mod) addLocale(template string) {
	if tpl, ok := locale.NewTemplate(template, cloneStringMap(m.Locale)); ok {
		m.CollectedPhrases = append(m.CollectedPhrases, Phrase{OwnerModID: m.ID, Template: tpl})
	}
}

// addLocaleFromValue collects a phrase from a nested {locale: text} object
// authored under raw_values[key], as mission mods do for chat-bubble and
// chat-state text.
func (m *Mod) addLocaleFromValue(template, key string) {
	raw, ok := m.RawValues[key].(map[string]any)
	if !ok {
		return
	}
	translations := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			translations[k] = s
		}
	}
	if tpl, ok := locale.NewTemplate(template, translations); ok {
		m.CollectedPhrases = append(m.CollectedPhrases, Phrase{OwnerModID: m.ID, Template: tpl})
	}
}

// finalize builds m.OutputRow from m.OutputValues against m's target
// table's column layout. It only selects cells; coercion (JSON literal to
// typed Field, symbol to Field) and asset-path rewriting happen later, in
// the resolver's pass over every mod's OutputRow.
func finalize(ctx *Context, m *Mod) error {
	tableName := component.TableNameFor(m.Kind)
	tbl, ok := ctx.Store.TableNamed(tableName)
	if !ok {
		return errs.Newf(errs.KindTableNotFound, "%s", tableName).WithMod(m.ID)
	}

	row := make([]deferred.Value, len(tbl.Columns))
	for i, col := range tbl.Columns {
		if v, ok := m.OutputValues[col.Name]; ok {
			row[i] = v
		} else {
			row[i] = deferred.Known(field.NothingField)
		}
	}
	m.OutputRow = row
	m.TargetTable = tableName
	return nil
}

// addComponent creates a component mod attached to parent, clones parent's
// whole value set into it (see clone's doc comment), reserves it a new id,
// and finalizes and pushes it into ctx's buffer.
func addComponent(ctx *Context, parent *Mod, componentType string) (*Mod, error) {
	id := parent.ID + ":" + componentType
	child := parent.clone()
	child.ID = id
	child.Kind = componentType
	parent.Components = append(parent.Components, id)

	if err := applyComponentMod(ctx, child); err != nil {
		return nil, err
	}
	if err := ctx.Push(child); err != nil {
		return nil, err
	}
	return child, nil
}

func applyComponentMod(ctx *Context, m *Mod) error {
	m.setGenerate("id")
	return finalize(ctx, m)
}

// applyObjectMod is the common tail of every object-like mod kind: emit
// the object's own name phrase, reserve its row id, and finalize.
func applyObjectMod(ctx *Context, m *Mod) error {
	m.addLocale("Objects_{}_name")
	m.setGenerate("id")
	return finalize(ctx, m)
}

// addIcon creates and pushes an Icons-table mod for path, returning its id
// so the caller can awaiting-id reference it from an icon-id column.
func addIcon(ctx *Context, base *Mod, path, idSuffix string) (string, error) {
	icon := NewMod()
	icon.ID = base.ID + ":icon:" + idSuffix
	icon.Kind = "Icons"
	icon.Dir = base.Dir
	icon.setGenerate("IconID")
	icon.setValue("IconPath", asset.AsIconPath(path))

	if err := finalize(ctx, icon); err != nil {
		return "", err
	}
	if err := ctx.Push(icon); err != nil {
		return "", err
	}
	return icon.ID, nil
}

// linkSkills creates one ObjectSkills mod per entry in m.Skills, used by
// both the item and enemy expanders.
func linkSkills(ctx *Context, m *Mod) error {
	for i, skill := range m.Skills {
		child := NewMod()
		child.ID = fmt.Sprintf("%s:skills:%d", m.ID, i)
		child.Kind = "ObjectSkills"
		child.Dir = m.Dir

		castOnType := m.RawValues["castOnType"]
		if castOnType == nil {
			castOnType = 0
		}
		child.setValue("castOnType", castOnType)
		child.setValue("AICombatWeight", 0)
		child.setAwaiting("objectTemplate", m.ID)
		child.setValue("skillID", skill)

		if err := finalize(ctx, child); err != nil {
			return err
		}
		if err := ctx.Push(child); err != nil {
			return err
		}
	}
	return nil
}

// joinGroup renders a task's location-group ids as a comma-separated
// string, matching MissionTask.group's wire shape.
func joinGroup(group []any) string {
	parts := make([]string, len(group))
	for i, g := range group {
		parts[i] = fmt.Sprint(g)
	}
	return strings.Join(parts, ",")
}
