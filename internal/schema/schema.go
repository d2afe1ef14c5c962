// Package schema exposes read-only accessors over the stock content
// database: table names, each table's declared column types, and row
// enumeration. It is the contract the mod expansion and resolution core is
// written against; internal/packeddb is the concrete adapter that satisfies
// it for the packed tabular file format.
package schema

import "github.com/zaop/modforge/internal/field"

// Column describes one column of a table: its name and its declared
// storage type. The first column of every table is that table's primary
// key.
type Column struct {
	Name string
	Type field.ValueType
}

// Table is the column layout and row primary-key space of one logical
// table in the stock database.
type Table struct {
	Name    string
	Columns []Column
	// BucketCount is the stock table's current bucket count, used by the
	// row materializer to size the output table.
	BucketCount int
}

// ColumnNamed returns the column with the given name, if present.
func (t *Table) ColumnNamed(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Row is one ordered, fully-typed record from the stock database.
type Row struct {
	Fields []field.Field
}

// Store is the read-only contract over the stock content database:
// enumerate tables, and enumerate a table's rows in bucket order.
type Store interface {
	// Tables returns every table's metadata, in the store's declared order.
	Tables() []*Table

	// TableNamed returns one table's metadata by name.
	TableNamed(name string) (*Table, bool)

	// Rows returns a table's rows grouped by bucket index; the outer slice
	// has length Table.BucketCount. Rows within a bucket preserve insertion
	// order.
	Rows(tableName string) ([][]Row, error)
}
