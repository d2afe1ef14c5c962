// Package fixture builds an in-memory stock database from a TOML
// declaration, for use in tests that need a schema.Store without a real
// packed database file on disk. Reusing BurntSushi/toml (the teacher's
// schema-DSL parser dependency) as a plain data format, rather than adding a
// second config-file library just for test fixtures.
package fixture

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/zaop/modforge/internal/field"
	"github.com/zaop/modforge/internal/packeddb"
	"github.com/zaop/modforge/internal/schema"
)

type document struct {
	Table []tableDecl `toml:"table"`
}

type tableDecl struct {
	Name    string        `toml:"name"`
	Columns []columnDecl  `toml:"columns"`
	Rows    [][]any       `toml:"rows"`
	Buckets int           `toml:"buckets"`
}

type columnDecl struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Load parses a TOML fixture document into a packeddb.Store. Each table's
// rows are hashed into buckets by the first column's integer value modulo
// the declared bucket count (or modulo 1 if buckets is unset), matching how
// the real pipeline buckets rows by primary key.
func Load(doc string) (*packeddb.Store, error) {
	var d document
	if _, err := toml.Decode(doc, &d); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}

	tables := make([]packeddb.OutputTable, 0, len(d.Table))
	for _, td := range d.Table {
		columns := make([]schema.Column, len(td.Columns))
		for i, c := range td.Columns {
			typ, err := parseType(c.Type)
			if err != nil {
				return nil, fmt.Errorf("fixture: table %s column %s: %w", td.Name, c.Name, err)
			}
			columns[i] = schema.Column{Name: c.Name, Type: typ}
		}

		bucketCount := td.Buckets
		if bucketCount <= 0 {
			bucketCount = 1
		}
		buckets := make([][]schema.Row, bucketCount)

		for _, rawRow := range td.Rows {
			row, err := buildRow(columns, rawRow)
			if err != nil {
				return nil, fmt.Errorf("fixture: table %s: %w", td.Name, err)
			}
			pk, ok := row.Fields[0].PrimaryKeyInt()
			bucket := 0
			if ok {
				bucket = ((pk % bucketCount) + bucketCount) % bucketCount
			}
			buckets[bucket] = append(buckets[bucket], row)
		}

		tables = append(tables, packeddb.OutputTable{Name: td.Name, Columns: columns, Buckets: buckets})
	}

	return packeddb.NewStore(tables), nil
}

func parseType(name string) (field.ValueType, error) {
	switch name {
	case "bool":
		return field.Bool, nil
	case "i32":
		return field.I32, nil
	case "i64":
		return field.I64, nil
	case "f32":
		return field.F32, nil
	case "text":
		return field.Text, nil
	case "vartext":
		return field.VarText, nil
	default:
		return field.Nothing, fmt.Errorf("unknown column type %q", name)
	}
}

func buildRow(columns []schema.Column, raw []any) (schema.Row, error) {
	if len(raw) != len(columns) {
		return schema.Row{}, fmt.Errorf("row has %d values, table declares %d columns", len(raw), len(columns))
	}
	fields := make([]field.Field, len(columns))
	for i, col := range columns {
		f, err := buildField(col.Type, raw[i])
		if err != nil {
			return schema.Row{}, fmt.Errorf("column %s: %w", col.Name, err)
		}
		fields[i] = f
	}
	return schema.Row{Fields: fields}, nil
}

func buildField(typ field.ValueType, raw any) (field.Field, error) {
	if raw == nil {
		return field.NothingField, nil
	}
	switch typ {
	case field.Bool:
		b, ok := raw.(bool)
		if !ok {
			return field.Field{}, fmt.Errorf("expected bool, got %T", raw)
		}
		return field.NewBool(b), nil
	case field.I32:
		n, ok := raw.(int64)
		if !ok {
			return field.Field{}, fmt.Errorf("expected integer, got %T", raw)
		}
		return field.NewI32(int32(n)), nil
	case field.I64:
		n, ok := raw.(int64)
		if !ok {
			return field.Field{}, fmt.Errorf("expected integer, got %T", raw)
		}
		return field.NewI64(n), nil
	case field.F32:
		switch n := raw.(type) {
		case float64:
			return field.NewF32(float32(n)), nil
		case int64:
			return field.NewF32(float32(n)), nil
		default:
			return field.Field{}, fmt.Errorf("expected float, got %T", raw)
		}
	case field.Text, field.VarText:
		s, ok := raw.(string)
		if !ok {
			return field.Field{}, fmt.Errorf("expected string, got %T", raw)
		}
		return field.NewText(s), nil
	default:
		return field.Field{}, fmt.Errorf("unsupported column type %v", typ)
	}
}
