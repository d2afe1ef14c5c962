// Package writer implements the row materializer: merging the stock
// database's unchanged rows with every resolved mod row (plus the
// component registry) into output tables, ready to hand to the packed-file
// encoder and the relational writer. Grounded directly in
// original_source/src/main.rs's merge loop ("Building output database...").
package writer

import (
	"hash/fnv"

	"github.com/zaop/modforge/internal/alloc"
	"github.com/zaop/modforge/internal/errs"
	"github.com/zaop/modforge/internal/field"
	"github.com/zaop/modforge/internal/packeddb"
	"github.com/zaop/modforge/internal/schema"
)

// Materialize builds one packeddb.OutputTable per stock table. Every
// resolved mod row is routed to the output table named by its
// TargetTable; ComponentsRegistry is special-cased to be filled from
// registry instead of the resolved-mod set, since no mod ever targets it
// directly.
func Materialize(store schema.Store, resolved []alloc.ResolvedMod, registry []alloc.RegistryEntry) ([]packeddb.OutputTable, error) {
	byTable := make(map[string][][]field.Field)
	for _, rm := range resolved {
		if len(rm.Row) == 0 {
			continue
		}
		byTable[rm.Source.TargetTable] = append(byTable[rm.Source.TargetTable], rm.Row)
	}

	tables := store.Tables()
	out := make([]packeddb.OutputTable, 0, len(tables))
	for _, tbl := range tables {
		newRows := byTable[tbl.Name]
		if tbl.Name == "ComponentsRegistry" {
			rows, err := registryRows(tbl, registry)
			if err != nil {
				return nil, err
			}
			newRows = rows
		}

		materialized, err := materializeTable(store, tbl, newRows)
		if err != nil {
			return nil, err
		}
		out = append(out, materialized)
	}
	return out, nil
}

func registryRows(tbl *schema.Table, registry []alloc.RegistryEntry) ([][]field.Field, error) {
	if len(registry) == 0 {
		return nil, nil
	}
	if len(tbl.Columns) != 3 {
		return nil, errs.Newf(errs.KindTableNotFound, "ComponentsRegistry: expected 3 columns, found %d", len(tbl.Columns))
	}

	rows := make([][]field.Field, len(registry))
	for i, e := range registry {
		rows[i] = []field.Field{
			field.NewI32(e.ObjectPK),
			field.NewI32(e.ComponentType),
			field.NewI32(e.ComponentPK),
		}
	}
	return rows, nil
}

func materializeTable(store schema.Store, tbl *schema.Table, newRows [][]field.Field) (packeddb.OutputTable, error) {
	stockBuckets, err := store.Rows(tbl.Name)
	if err != nil {
		return packeddb.OutputTable{}, err
	}

	bucketCount := nextBucketCount(tbl.BucketCount, len(newRows))
	buckets := make([][]schema.Row, bucketCount)

	if bucketCount > 0 {
		for _, bucket := range stockBuckets {
			for _, row := range bucket {
				idx, err := bucketIndex(row.Fields, bucketCount)
				if err != nil {
					return packeddb.OutputTable{}, errs.Newf(errs.KindNonIntegerPrimaryKey, "table %s: %v", tbl.Name, err)
				}
				buckets[idx] = append(buckets[idx], row)
			}
		}
		for _, row := range newRows {
			idx, err := bucketIndex(row, bucketCount)
			if err != nil {
				return packeddb.OutputTable{}, errs.Newf(errs.KindNonIntegerPrimaryKey, "table %s: %v", tbl.Name, err)
			}
			buckets[idx] = append(buckets[idx], schema.Row{Fields: row})
		}
	}

	return packeddb.OutputTable{Name: tbl.Name, Columns: tbl.Columns, Buckets: buckets}, nil
}

// nextBucketCount mirrors the original tool's sizing rule exactly: the
// "unique key count" it powers-of-two's is newRowCount plus the stock
// table's existing *bucket* count, not its row count.
func nextBucketCount(stockBucketCount, newRowCount int) int {
	total := stockBucketCount + newRowCount
	if total == 0 {
		return 0
	}
	return nextPowerOfTwo(total)
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// bucketIndex hashes a row's primary key (its first field) into a bucket
// slot: integer keys mod bucketCount directly, text keys through a 32-bit
// hash first. Every row, stock or synthesized, is rehashed against the
// output table's bucket count rather than reusing its old slot.
func bucketIndex(fields []field.Field, bucketCount int) (int, error) {
	if len(fields) == 0 {
		return 0, errs.New(errs.KindNonIntegerPrimaryKey, "row has no fields")
	}
	pk := fields[0]
	switch pk.Type() {
	case field.I32:
		return int(uint32(pk.I32()) % uint32(bucketCount)), nil
	case field.I64:
		return int(uint64(pk.I64()) % uint64(bucketCount)), nil
	case field.Text, field.VarText:
		h := fnv.New32a()
		_, _ = h.Write([]byte(pk.Text()))
		return int(h.Sum32() % uint32(bucketCount)), nil
	default:
		return 0, errs.New(errs.KindNonIntegerPrimaryKey, "primary key is neither integer nor text")
	}
}
