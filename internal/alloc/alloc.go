// Package alloc implements the three-pass id allocator and resolver that
// runs once expansion (internal/mod) is complete: allocate primary keys
// for every GenerateId cell, resolve every deferred cell against the
// stock schema's declared column types, and build the component registry
// linking every object-kind mod to its attached components.
package alloc

import (
	"github.com/zaop/modforge/internal/asset"
	"github.com/zaop/modforge/internal/component"
	"github.com/zaop/modforge/internal/deferred"
	"github.com/zaop/modforge/internal/errs"
	"github.com/zaop/modforge/internal/field"
	mod "github.com/zaop/modforge/internal/mod"
	"github.com/zaop/modforge/internal/schema"
)

// SymbolTable binds every mod id (and generated-child id) that received an
// allocated primary key to its integer value. It satisfies
// deferred.Resolver.
type SymbolTable struct {
	ids map[string]int32
}

// Resolve looks up sym's allocated id.
func (s *SymbolTable) Resolve(sym string) (int32, bool) {
	id, ok := s.ids[sym]
	return id, ok
}

// AllocateIDs runs Pass 1: every mod whose first output cell is GenerateId
// is grouped by target table, and each group is assigned the lowest
// integer primary keys not already used in the stock table, in the order
// groups were first encountered — except the Objects group, which always
// goes first so object ids stay the lowest available ones, per spec.md
// §4.6. Unlike the original tool's Objects-specific id.pop() (which hands
// out the *highest* available id to the first object processed), every
// group here is assigned in plain ascending order — the distilled
// contract is explicit that allocation is uniform across every group.
func AllocateIDs(store schema.Store, mods []*mod.Mod) (*SymbolTable, error) {
	groups := make(map[string][]*mod.Mod)
	var tableOrder []string
	seen := make(map[string]bool)

	for _, m := range mods {
		if len(m.OutputRow) == 0 || m.OutputRow[0].Kind() != deferred.KindGenerateID {
			continue
		}
		table := m.TargetTable
		if !seen[table] {
			seen[table] = true
			tableOrder = append(tableOrder, table)
		}
		groups[table] = append(groups[table], m)
	}

	sym := &SymbolTable{ids: make(map[string]int32)}
	for _, table := range objectsFirst(tableOrder) {
		group := groups[table]
		used, err := usedPrimaryKeys(store, table)
		if err != nil {
			return nil, err
		}
		for i, id := range nextFreeIDs(used, len(group)) {
			sym.ids[group[i].ID] = id
		}
	}
	return sym, nil
}

func objectsFirst(tables []string) []string {
	ordered := make([]string, 0, len(tables))
	hasObjects := false
	for _, t := range tables {
		if t == "Objects" {
			hasObjects = true
			break
		}
	}
	if hasObjects {
		ordered = append(ordered, "Objects")
	}
	for _, t := range tables {
		if t != "Objects" {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

func usedPrimaryKeys(store schema.Store, table string) (map[int32]bool, error) {
	rows, err := store.Rows(table)
	if err != nil {
		return nil, err
	}

	used := make(map[int32]bool)
	for _, bucket := range rows {
		for _, row := range bucket {
			if len(row.Fields) == 0 {
				continue
			}
			pk, ok := row.Fields[0].PrimaryKeyInt()
			if !ok {
				return nil, errs.Newf(errs.KindNonIntegerPrimaryKey, "table %s", table)
			}
			used[int32(pk)] = true
		}
	}
	return used, nil
}

// nextFreeIDs walks 1, 2, 3, … and returns the first count integers not in
// used, in ascending order; the enumerator never revisits a value.
func nextFreeIDs(used map[int32]bool, count int) []int32 {
	ids := make([]int32, 0, count)
	candidate := int32(1)
	for len(ids) < count {
		if !used[candidate] {
			ids = append(ids, candidate)
		}
		candidate++
	}
	return ids
}

// ResolvedMod is one mod's output row after Pass 2: every cell is now a
// concrete Field, with any resulting Text cell already asset-path
// rewritten. Source.OutputRow is left untouched for debugging/inspection.
type ResolvedMod struct {
	Source *mod.Mod
	Row    []field.Field
}

// Resolve runs Pass 2 over every mod's output row, in the order mods were
// produced. GenerateId cells resolve against the mod's own id in sym;
// AwaitingId cells resolve against their referenced symbol; FromJson cells
// coerce per the target column's declared type; every resulting Text cell
// is run through the asset-path rewriter relative to the mod's package
// directory.
func Resolve(store schema.Store, mods []*mod.Mod, sym *SymbolTable) ([]ResolvedMod, error) {
	resolved := make([]ResolvedMod, 0, len(mods))
	for _, m := range mods {
		if len(m.OutputRow) == 0 {
			resolved = append(resolved, ResolvedMod{Source: m})
			continue
		}

		tbl, ok := store.TableNamed(m.TargetTable)
		if !ok {
			return nil, errs.Newf(errs.KindTableNotFound, "%s", m.TargetTable).WithMod(m.ID)
		}

		row := make([]field.Field, len(m.OutputRow))
		for i, cell := range m.OutputRow {
			declared := tbl.Columns[i].Type
			f, err := deferred.Coerce(declared, cell, m.ID, tbl.Columns[i].Name, sym)
			if err != nil {
				return nil, attachModID(err, m.ID)
			}
			if f.Type() == field.Text {
				f = f.WithText(asset.Rewrite(m.Dir, f.Text()))
			}
			row[i] = f
		}
		resolved = append(resolved, ResolvedMod{Source: m, Row: row})
	}
	return resolved, nil
}

func attachModID(err error, modID string) error {
	if e, ok := err.(*errs.Error); ok {
		return e.WithMod(modID)
	}
	return err
}

// RegistryEntry is one row of the synthetic ComponentsRegistry table.
type RegistryEntry struct {
	ObjectPK      int32
	ComponentType int32
	ComponentPK   int32
}

// BuildComponentRegistry runs Pass 3: for every mod whose row landed in
// the Objects table, walk its linked component ids and emit one registry
// entry per link.
func BuildComponentRegistry(resolved []ResolvedMod) ([]RegistryEntry, error) {
	byID := make(map[string]*ResolvedMod, len(resolved))
	for i := range resolved {
		byID[resolved[i].Source.ID] = &resolved[i]
	}

	var entries []RegistryEntry
	for _, rm := range resolved {
		if rm.Source.TargetTable != "Objects" || len(rm.Row) == 0 {
			continue
		}
		objectPK, ok := rm.Row[0].PrimaryKeyInt()
		if !ok {
			return nil, errs.Newf(errs.KindNonIntegerPrimaryKey, "object %s", rm.Source.ID).WithMod(rm.Source.ID)
		}

		for _, childID := range rm.Source.Components {
			child, ok := byID[childID]
			if !ok || len(child.Row) == 0 {
				return nil, errs.Newf(errs.KindUnresolvedSymbol, "%s", childID).WithMod(rm.Source.ID)
			}
			code, err := component.CodeOf(child.Source.Kind)
			if err != nil {
				return nil, attachModID(err, rm.Source.ID)
			}
			childPK, ok := child.Row[0].PrimaryKeyInt()
			if !ok {
				return nil, errs.Newf(errs.KindNonIntegerPrimaryKey, "component %s", childID).WithMod(childID)
			}
			entries = append(entries, RegistryEntry{
				ObjectPK:      int32(objectPK),
				ComponentType: code,
				ComponentPK:   int32(childPK),
			})
		}
	}
	return entries, nil
}
