package packeddb

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaop/modforge/internal/field"
	"github.com/zaop/modforge/internal/schema"
)

func sampleTables() []OutputTable {
	return []OutputTable{
		{
			Name: "Objects",
			Columns: []schema.Column{
				{Name: "id", Type: field.I32},
				{Name: "name", Type: field.Text},
			},
			Buckets: [][]schema.Row{
				{
					{Fields: []field.Field{field.NewI32(1), field.NewText("Thing")}},
				},
				nil,
			},
		},
		{
			Name: "Missions",
			Columns: []schema.Column{
				{Name: "id", Type: field.I32},
				{Name: "defined_in_locale", Type: field.Bool},
			},
			Buckets: [][]schema.Row{
				{{Fields: []field.Field{field.NewI32(7), field.NothingField}}},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, sampleTables()))

	st, err := decode(buf.Bytes())
	require.NoError(t, err)

	tbl, ok := st.TableNamed("Objects")
	require.True(t, ok)
	assert.Equal(t, 2, tbl.BucketCount)

	rows, err := st.Rows("Objects")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 1)
	assert.Equal(t, int32(1), rows[0][0].Fields[0].I32())
	assert.Equal(t, "Thing", rows[0][0].Fields[1].Text())
	assert.Empty(t, rows[1])

	missionRows, err := st.Rows("Missions")
	require.NoError(t, err)
	assert.True(t, missionRows[0][0].Fields[1].IsNothing())
}

func TestWriteFileThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mfdb")
	require.NoError(t, WriteFile(path, sampleTables()))

	st, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, st.Tables(), 2)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestRowsForUnknownTable(t *testing.T) {
	st := &Store{order: nil, tables: map[string]*schema.Table{}, rows: map[string][][]schema.Row{}}
	_, err := st.Rows("Nope")
	assert.Error(t, err)
}
