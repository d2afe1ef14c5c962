// Package deferred implements DeferredValue: the symbolic value every
// output cell holds until the ID allocator and resolver have run. A Value
// is one of Known, FromJSON, GenerateID, or AwaitingID, matching spec.md
// §3's DeferredValue union exactly.
package deferred

import (
	"encoding/json"
	"fmt"

	"github.com/zaop/modforge/internal/errs"
	"github.com/zaop/modforge/internal/field"
)

// Kind tags which of the four DeferredValue variants a Value holds.
type Kind int

const (
	KindKnown Kind = iota
	KindFromJSON
	KindGenerateID
	KindAwaitingID
)

// Value is one output cell prior to (or after) resolution.
type Value struct {
	kind  Kind
	known field.Field
	json  any
	sym   string
}

// Known wraps an already-resolved Field.
func Known(f field.Field) Value { return Value{kind: KindKnown, known: f} }

// FromJSON wraps an author-supplied JSON value awaiting coercion. v should
// come from a json.Decoder configured with UseNumber, so integer and
// floating-point literals stay distinguishable.
func FromJSON(v any) Value { return Value{kind: KindFromJSON, json: v} }

// GenerateID marks a cell that reserves a new primary-key value at
// allocation time.
func GenerateID() Value { return Value{kind: KindGenerateID} }

// AwaitingID marks a cell that substitutes a symbol's bound integer id at
// resolution time.
func AwaitingID(sym string) Value { return Value{kind: KindAwaitingID, sym: sym} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) JSON() any    { return v.json }
func (v Value) Sym() string  { return v.sym }
func (v Value) Field() field.Field {
	return v.known
}

// Resolver looks up a symbol's allocated primary-key value. It is satisfied
// by the ID allocator's symbol table (internal/alloc).
type Resolver interface {
	Resolve(sym string) (int32, bool)
}

// Coerce materializes v into a Field against declared, the cell's column
// declared type. ownerModID is the id of the mod this cell belongs to —
// used to resolve a GenerateID cell, which always binds against its own
// mod's symbol per spec.md §4.6 Pass 2.
func Coerce(declared field.ValueType, v Value, ownerModID string, columnName string, resolve Resolver) (field.Field, error) {
	switch v.kind {
	case KindKnown:
		return v.known, nil

	case KindGenerateID:
		id, ok := resolve.Resolve(ownerModID)
		if !ok {
			return field.Field{}, errs.Newf(errs.KindUnresolvedSymbol, "no allocated id for %q", ownerModID)
		}
		return field.NewI32(id), nil

	case KindAwaitingID:
		id, ok := resolve.Resolve(v.sym)
		if !ok {
			return field.Field{}, errs.Newf(errs.KindUnresolvedSymbol, "%s", v.sym)
		}
		return field.NewI32(id), nil

	case KindFromJSON:
		return coerceJSON(declared, v.json, columnName, resolve)

	default:
		return field.Field{}, fmt.Errorf("deferred: invalid Value kind %d", v.kind)
	}
}

func coerceJSON(declared field.ValueType, raw any, columnName string, resolve Resolver) (field.Field, error) {
	if raw == nil {
		return field.NothingField, nil
	}

	switch declared {
	case field.Nothing:
		return field.NothingField, nil

	case field.Bool:
		b, ok := raw.(bool)
		if !ok {
			return field.Field{}, mismatch(columnName, declared, raw)
		}
		return field.NewBool(b), nil

	case field.I32:
		switch n := raw.(type) {
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return field.Field{}, mismatch(columnName, declared, raw)
			}
			if i < -(1<<31) || i > (1<<31-1) {
				return field.Field{}, mismatch(columnName, declared, raw)
			}
			return field.NewI32(int32(i)), nil
		case string:
			// A JSON string in an integer column is an unresolved symbolic
			// reference, never a parse error — driven by declared type, not
			// by the JSON value's shape.
			id, ok := resolve.Resolve(n)
			if !ok {
				return field.Field{}, errs.Newf(errs.KindUnresolvedSymbol, "%s", n)
			}
			return field.NewI32(id), nil
		default:
			return field.Field{}, mismatch(columnName, declared, raw)
		}

	case field.I64:
		n, ok := raw.(json.Number)
		if !ok {
			return field.Field{}, mismatch(columnName, declared, raw)
		}
		i, err := n.Int64()
		if err != nil {
			return field.Field{}, mismatch(columnName, declared, raw)
		}
		return field.NewI64(i), nil

	case field.F32:
		n, ok := raw.(json.Number)
		if !ok {
			return field.Field{}, mismatch(columnName, declared, raw)
		}
		f, err := n.Float64()
		if err != nil {
			return field.Field{}, mismatch(columnName, declared, raw)
		}
		return field.NewF32(float32(f)), nil

	case field.Text, field.VarText:
		s, ok := raw.(string)
		if !ok {
			return field.Field{}, mismatch(columnName, declared, raw)
		}
		return field.NewText(s), nil

	default:
		return field.Field{}, fmt.Errorf("deferred: unknown declared type %v", declared)
	}
}

func mismatch(column string, declared field.ValueType, found any) error {
	return errs.Newf(errs.KindTypeMismatch, "column %q: declared %s, found %T(%v)", column, declared, found, found)
}
