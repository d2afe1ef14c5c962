package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zaop/modforge/internal/field"
)

func TestColumnNamed(t *testing.T) {
	tbl := &Table{
		Name: "Objects",
		Columns: []Column{
			{Name: "id", Type: field.I32},
			{Name: "name", Type: field.Text},
		},
	}

	col, ok := tbl.ColumnNamed("name")
	assert.True(t, ok)
	assert.Equal(t, field.Text, col.Type)

	_, ok = tbl.ColumnNamed("missing")
	assert.False(t, ok)
}
