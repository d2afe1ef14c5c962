package sqlmod

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaop/modforge/internal/errs"
)

func TestResolveValueMissing(t *testing.T) {
	_, err := ResolveValue(".", nil, "mod-1")
	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindSQLValueMissing, kind)
}

func TestResolveValueWrongType(t *testing.T) {
	_, err := ResolveValue(".", 5, "mod-1")
	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindSQLValueWrongType, kind)
}

func TestResolveValuePlainString(t *testing.T) {
	s, err := ResolveValue(".", "UPDATE Objects SET name='x';", "mod-1")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE Objects SET name='x';", s)
}

func TestResolveValueInclude(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "patch.sql"), []byte("UPDATE Objects SET name='y';"), 0o644))

	s, err := ResolveValue(dir, "INCLUDE:patch.sql", "mod-1")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE Objects SET name='y';", s)
}

func TestResolveValueIncludeMissingFile(t *testing.T) {
	_, err := ResolveValue(t.TempDir(), "INCLUDE:nope.sql", "mod-1")
	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindIncludeIOError, kind)
}

func TestStripTransactionMarkers(t *testing.T) {
	in := "BEGIN TRANSACTION;\nUPDATE Objects SET a=1;\nBEGIN TRANSACTION;\nUPDATE Objects SET b=2;\nCOMMIT;\nCOMMIT;"
	out := StripTransactionMarkers(in)
	assert.NotContains(t, out, "BEGIN TRANSACTION;")
	assert.NotContains(t, out, "COMMIT;")
	assert.Contains(t, out, "UPDATE Objects SET a=1;")
	assert.Contains(t, out, "UPDATE Objects SET b=2;")
}

func TestSplitStatementsFallsBackToSemicolonSplit(t *testing.T) {
	statements := SplitStatements("not real sql; still not real sql;")
	require.Len(t, statements, 2)
	assert.Equal(t, "not real sql", statements[0])
}

func TestSplitStatementsUsesParserForValidSQL(t *testing.T) {
	statements := SplitStatements("UPDATE Objects SET name = 'a' WHERE id = 1; UPDATE Objects SET name = 'b' WHERE id = 2;")
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "UPDATE")
}

func TestSplitStatementsEmpty(t *testing.T) {
	assert.Nil(t, SplitStatements("   "))
}
