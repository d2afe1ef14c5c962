package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesContext(t *testing.T) {
	e := Newf(KindUnknownComponent, "%s", "FooComponent").WithMod("mod-1").WithStage("expand")
	msg := e.Error()
	assert.Contains(t, msg, "expand")
	assert.Contains(t, msg, "mod-1")
	assert.Contains(t, msg, "UnknownComponent")
	assert.Contains(t, msg, "FooComponent")
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	base := New(KindUnresolvedSymbol, "")
	wrapped := Wrap(KindUnresolvedSymbol, "lookup failed", errors.New("boom")).WithMod("m")

	assert.True(t, errors.Is(wrapped, base))
	assert.False(t, errors.Is(wrapped, New(KindTypeMismatch, "")))
}

func TestOfExtractsKindThroughWrapping(t *testing.T) {
	inner := New(KindSQLValueMissing, "sql not set")
	outer := Wrap(KindOutputIOError, "writing output", inner)

	kind, ok := Of(outer)
	require.True(t, ok)
	assert.Equal(t, KindOutputIOError, kind)

	kind, ok = Of(inner)
	require.True(t, ok)
	assert.Equal(t, KindSQLValueMissing, kind)

	_, ok = Of(errors.New("plain"))
	assert.False(t, ok)
}

func TestWithModAndWithStageDoNotMutateOriginal(t *testing.T) {
	base := New(KindDuplicateModID, "dup")
	derived := base.WithMod("abc")

	assert.Empty(t, base.ModID)
	assert.Equal(t, "abc", derived.ModID)
}
