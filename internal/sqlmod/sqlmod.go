// Package sqlmod implements the "sql" mod kind: resolving the author's
// authored sql value (inlining INCLUDE: files) and splitting a patch body
// into individual statements before it is applied to the relational output.
// Statement splitting reuses the TiDB parser the way
// internal/apply/analyzer.go's splitStatementsUsingTiDBParser does in the
// teacher repo, restoring each parsed node back to text rather than
// splitting on literal semicolons (which breaks on semicolons inside string
// literals or statement bodies).
package sqlmod

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/zaop/modforge/internal/errs"
)

const includePrefix = "INCLUDE:"

// ResolveValue examines a sql mod's raw_values["sql"] entry. A string
// starting with INCLUDE: is read from disk relative to dir and its contents
// become the resolved value; any other string passes through unchanged.
// A missing or non-string value is fatal.
func ResolveValue(dir string, raw any, modID string) (string, error) {
	if raw == nil {
		return "", errs.New(errs.KindSQLValueMissing, "sql not set").WithMod(modID)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errs.New(errs.KindSQLValueWrongType, "sql value must be a string").WithMod(modID)
	}

	path, ok := strings.CutPrefix(s, includePrefix)
	if !ok {
		return s, nil
	}

	contents, err := os.ReadFile(filepath.Join(dir, path))
	if err != nil {
		return "", errs.Wrap(errs.KindIncludeIOError, path, err).WithMod(modID)
	}
	return string(contents), nil
}

// StripTransactionMarkers removes nested BEGIN TRANSACTION;/COMMIT; literals
// from patch SQL, mirroring the original tool's plain string replacement —
// transactions cannot be nested inside the single outer transaction the
// relational writer already runs every SQL mod in.
func StripTransactionMarkers(sql string) string {
	sql = strings.ReplaceAll(sql, "BEGIN TRANSACTION;", "")
	sql = strings.ReplaceAll(sql, "COMMIT;", "")
	return sql
}

// SplitStatements parses sql with the TiDB parser and restores each
// top-level statement back to text, falling back to a plain semicolon split
// if the parser cannot make sense of the input (e.g. dialect-specific
// syntax the parser doesn't recognize).
func SplitStatements(sql string) []string {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil
	}

	if statements := splitWithParser(sql); len(statements) > 0 {
		return statements
	}
	return splitBySemicolon(sql)
}

func splitWithParser(sql string) []string {
	p := parser.New()
	stmtNodes, _, err := p.Parse(sql, "", "")
	if err != nil || len(stmtNodes) == 0 {
		return nil
	}

	statements := make([]string, 0, len(stmtNodes))
	for _, node := range stmtNodes {
		if node == nil {
			continue
		}
		var sb strings.Builder
		ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
		if err := node.Restore(ctx); err != nil {
			continue
		}
		if stmt := strings.TrimSpace(sb.String()); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	if len(statements) == 0 {
		return nil
	}
	return statements
}

func splitBySemicolon(sql string) []string {
	parts := strings.Split(sql, ";")
	statements := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
