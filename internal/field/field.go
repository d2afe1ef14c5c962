// Package field contains the typed cell representation shared by the
// stock database reader, the mod expanders, and the row writers.
package field

import "fmt"

// ValueType is a column's declared storage type, as reported by the schema
// adapter over the stock database.
type ValueType int

const (
	Nothing ValueType = iota
	Bool
	I32
	I64
	F32
	Text
	// VarText is coerced to Text uniformly by the schema adapter; it exists
	// here only so callers can report the original declared type in errors.
	VarText
)

// String returns the declared type's name, used in TypeMismatch error text.
func (t ValueType) String() string {
	switch t {
	case Nothing:
		return "Nothing"
	case Bool:
		return "Bool"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case F32:
		return "F32"
	case Text:
		return "Text"
	case VarText:
		return "VarText"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Field is a fully resolved, typed cell value.
type Field struct {
	typ  ValueType
	b    bool
	i32  int32
	i64  int64
	f32  float32
	text string
}

// NothingField is the null cell, valid for any declared column type.
var NothingField = Field{typ: Nothing}

func NewBool(b bool) Field    { return Field{typ: Bool, b: b} }
func NewI32(n int32) Field    { return Field{typ: I32, i32: n} }
func NewI64(n int64) Field    { return Field{typ: I64, i64: n} }
func NewF32(x float32) Field  { return Field{typ: F32, f32: x} }
func NewText(s string) Field  { return Field{typ: Text, text: s} }

// Type reports the field's runtime tag.
func (f Field) Type() ValueType { return f.typ }

// Bool returns the boolean payload; valid only when Type() == Bool.
func (f Field) Bool() bool { return f.b }

// I32 returns the int32 payload; valid only when Type() == I32.
func (f Field) I32() int32 { return f.i32 }

// I64 returns the int64 payload; valid only when Type() == I64.
func (f Field) I64() int64 { return f.i64 }

// F32 returns the float32 payload; valid only when Type() == F32.
func (f Field) F32() float32 { return f.f32 }

// Text returns the string payload; valid only when Type() == Text.
func (f Field) Text() string { return f.text }

// WithText returns a copy of f with its text payload replaced. Used by the
// asset-path rewriter, which only ever touches Text cells post-coercion.
func (f Field) WithText(s string) Field {
	f.text = s
	return f
}

// IsNothing reports whether f is the null cell.
func (f Field) IsNothing() bool { return f.typ == Nothing }

// PrimaryKeyInt returns f's value as an int, for use as a bucket-hash or
// allocation key. Returns ok=false for Bool/F32/Text/Nothing fields, mirroring
// spec.md's "NonIntegerPrimaryKey" error condition.
func (f Field) PrimaryKeyInt() (int, bool) {
	switch f.typ {
	case I32:
		return int(f.i32), true
	case I64:
		return int(f.i64), true
	default:
		return 0, false
	}
}

func (f Field) String() string {
	switch f.typ {
	case Nothing:
		return "Nothing"
	case Bool:
		return fmt.Sprintf("Bool(%v)", f.b)
	case I32:
		return fmt.Sprintf("I32(%d)", f.i32)
	case I64:
		return fmt.Sprintf("I64(%d)", f.i64)
	case F32:
		return fmt.Sprintf("F32(%g)", f.f32)
	case Text:
		return fmt.Sprintf("Text(%q)", f.text)
	default:
		return "<invalid field>"
	}
}
