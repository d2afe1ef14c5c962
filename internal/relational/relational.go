// Package relational writes the merged output tables to a SQLite file: the
// "equivalent relational database for the server" spec.md §6 asks the
// pipeline to emit alongside the packed database. Grounded in
// original_source/src/main.rs's dest_sqlite loop (CREATE TABLE + prepared
// INSERT per table, one outer transaction, SQL-mod patches applied last).
package relational

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/zaop/modforge/internal/errs"
	"github.com/zaop/modforge/internal/field"
	"github.com/zaop/modforge/internal/packeddb"
	"github.com/zaop/modforge/internal/sqlmod"
)

// Write deletes any existing file at path, opens a fresh SQLite database,
// and writes tables inside one transaction: one CREATE TABLE and one batch
// of INSERTs per table, in tables' declaration order, followed by every
// sql-mod patch in patches (INCLUDE: already resolved), applied in mod
// order after its transaction markers are stripped and it is split into
// statements.
func Write(path string, tables []packeddb.OutputTable, patches []string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return errs.Wrap(errs.KindOutputIOError, "removing existing relational database", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errs.Wrap(errs.KindOutputIOError, "opening relational database", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return errs.Wrap(errs.KindOutputIOError, "beginning relational transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, tbl := range tables {
		if err := writeTable(tx, tbl); err != nil {
			return err
		}
	}

	for _, patch := range patches {
		for _, stmt := range sqlmod.SplitStatements(sqlmod.StripTransactionMarkers(patch)) {
			if _, err := tx.Exec(stmt); err != nil {
				return errs.Wrap(errs.KindOutputIOError, "applying sql mod", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindOutputIOError, "committing relational database", err)
	}
	committed = true
	return nil
}

func writeTable(tx *sql.Tx, tbl packeddb.OutputTable) error {
	if _, err := tx.Exec(createTableSQL(tbl)); err != nil {
		return errs.Wrap(errs.KindOutputIOError, fmt.Sprintf("creating table %s", tbl.Name), err)
	}

	insertSQL := insertStatementSQL(tbl)
	for _, bucket := range tbl.Buckets {
		for _, row := range bucket {
			args := make([]any, len(row.Fields))
			for i, f := range row.Fields {
				args[i] = sqlValue(f)
			}
			if _, err := tx.Exec(insertSQL, args...); err != nil {
				return errs.Wrap(errs.KindOutputIOError, fmt.Sprintf("inserting into %s", tbl.Name), err)
			}
		}
	}
	return nil
}

func createTableSQL(tbl packeddb.OutputTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE \"%s\" (\n", tbl.Name)
	for i, col := range tbl.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "    \"%s\" %s", col.Name, sqliteType(col.Type))
	}
	b.WriteString("\n);")
	return b.String()
}

func insertStatementSQL(tbl packeddb.OutputTable) string {
	var cols, placeholders strings.Builder
	for i, col := range tbl.Columns {
		if i > 0 {
			cols.WriteString(", ")
			placeholders.WriteString(", ")
		}
		fmt.Fprintf(&cols, "\"%s\"", col.Name)
		placeholders.WriteString("?")
	}
	return fmt.Sprintf("INSERT INTO \"%s\" (%s) VALUES (%s);", tbl.Name, cols.String(), placeholders.String())
}

// sqliteType translates a declared column type to its SQLite storage
// class, per spec.md §6's relational-output type table. The declared type
// governs the column definition even though a Nothing cell can still be
// inserted into any column.
func sqliteType(t field.ValueType) string {
	switch t {
	case field.Bool, field.I32, field.I64:
		return "INTEGER"
	case field.F32:
		return "REAL"
	case field.Text, field.VarText:
		return "TEXT"
	default:
		return "NULL"
	}
}

func sqlValue(f field.Field) any {
	switch f.Type() {
	case field.Nothing:
		return nil
	case field.Bool:
		if f.Bool() {
			return int64(1)
		}
		return int64(0)
	case field.I32:
		return int64(f.I32())
	case field.I64:
		return f.I64()
	case field.F32:
		return float64(f.F32())
	case field.Text, field.VarText:
		return f.Text()
	default:
		return nil
	}
}
