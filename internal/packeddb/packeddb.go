// Package packeddb implements this repository's own packed tabular file
// format: a minimal stand-in for the real external packed-table database
// the spec references only by its read contract (tables made of buckets of
// rows, each column carrying one declared type). It is read into an
// immutable in-memory Store and, on the output side, written back out by a
// single streaming pass — no partial or incremental writes, matching the
// "delete and rebuild every run" contract the spec gives every output
// artifact.
//
// The on-disk layout, little-endian throughout:
//
//	magic     [4]byte  "MFDB"
//	version   uint32   1
//	tableCount uint32
//	for each table:
//	  name       string (uint16 length prefix)
//	  bucketCount uint32
//	  columnCount uint16
//	  for each column:
//	    name string (uint16 length prefix)
//	    declaredType byte
//	  for each bucket (bucketCount times):
//	    rowCount uint32
//	    for each row:
//	      for each column:
//	        cellType byte
//	        payload (type-dependent, see writeField/readField)
package packeddb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/zaop/modforge/internal/errs"
	"github.com/zaop/modforge/internal/field"
	"github.com/zaop/modforge/internal/schema"
)

var magic = [4]byte{'M', 'F', 'D', 'B'}

const formatVersion = 1

// Store is an immutable, fully in-memory packed database, loaded once and
// held for the lifetime of a pipeline run.
type Store struct {
	order  []string
	tables map[string]*schema.Table
	rows   map[string][][]schema.Row
}

// Load reads path in full and parses it into a Store. The returned Store
// never mutates its backing data.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindStockDatabaseIOError, "reading stock database", err)
	}
	st, err := decode(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindStockDatabaseIOError, "parsing stock database", err)
	}
	return st, nil
}

// NewStore builds an in-memory Store directly from OutputTables, bypassing
// the binary encoding — used by tests and by internal/fixture to stand in
// for a stock database without round-tripping through disk.
func NewStore(tables []OutputTable) *Store {
	st := &Store{
		order:  make([]string, 0, len(tables)),
		tables: make(map[string]*schema.Table, len(tables)),
		rows:   make(map[string][][]schema.Row, len(tables)),
	}
	for _, t := range tables {
		st.order = append(st.order, t.Name)
		st.tables[t.Name] = &schema.Table{Name: t.Name, Columns: t.Columns, BucketCount: len(t.Buckets)}
		st.rows[t.Name] = t.Buckets
	}
	return st
}

func (s *Store) Tables() []*schema.Table {
	out := make([]*schema.Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

func (s *Store) TableNamed(name string) (*schema.Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

func (s *Store) Rows(tableName string) ([][]schema.Row, error) {
	rows, ok := s.rows[tableName]
	if !ok {
		return nil, errs.Newf(errs.KindTableNotFound, "%s", tableName)
	}
	return rows, nil
}

// OutputTable is one table's full materialized content, ready to be
// streamed to disk.
type OutputTable struct {
	Name    string
	Columns []schema.Column
	Buckets [][]schema.Row
}

// WriteFile serializes tables to path in declaration order, overwriting any
// existing file.
func WriteFile(path string, tables []OutputTable) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.KindOutputIOError, "creating packed output file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := encode(w, tables); err != nil {
		return errs.Wrap(errs.KindOutputIOError, "writing packed output file", err)
	}
	return w.Flush()
}

func decode(data []byte) (*Store, error) {
	r := &byteReader{buf: data}

	var gotMagic [4]byte
	if err := r.readFull(gotMagic[:]); err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("packeddb: bad magic %q", gotMagic)
	}
	version, err := r.readU32()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("packeddb: unsupported version %d", version)
	}
	tableCount, err := r.readU32()
	if err != nil {
		return nil, err
	}

	st := &Store{
		order:  make([]string, 0, tableCount),
		tables: make(map[string]*schema.Table, tableCount),
		rows:   make(map[string][][]schema.Row, tableCount),
	}

	for i := uint32(0); i < tableCount; i++ {
		name, err := r.readString()
		if err != nil {
			return nil, err
		}
		bucketCount, err := r.readU32()
		if err != nil {
			return nil, err
		}
		columnCount, err := r.readU16()
		if err != nil {
			return nil, err
		}

		columns := make([]schema.Column, columnCount)
		for c := range columns {
			colName, err := r.readString()
			if err != nil {
				return nil, err
			}
			typByte, err := r.readByte()
			if err != nil {
				return nil, err
			}
			columns[c] = schema.Column{Name: colName, Type: field.ValueType(typByte)}
		}

		table := &schema.Table{Name: name, Columns: columns, BucketCount: int(bucketCount)}
		buckets := make([][]schema.Row, bucketCount)

		for b := uint32(0); b < bucketCount; b++ {
			rowCount, err := r.readU32()
			if err != nil {
				return nil, err
			}
			bucket := make([]schema.Row, rowCount)
			for ri := range bucket {
				fields := make([]field.Field, columnCount)
				for c := range fields {
					f, err := r.readField()
					if err != nil {
						return nil, err
					}
					fields[c] = f
				}
				bucket[ri] = schema.Row{Fields: fields}
			}
			buckets[b] = bucket
		}

		st.order = append(st.order, name)
		st.tables[name] = table
		st.rows[name] = buckets
	}

	return st, nil
}

func encode(w io.Writer, tables []OutputTable) error {
	bw := &byteWriter{w: w}

	if err := bw.writeFull(magic[:]); err != nil {
		return err
	}
	if err := bw.writeU32(formatVersion); err != nil {
		return err
	}
	if err := bw.writeU32(uint32(len(tables))); err != nil {
		return err
	}

	for _, table := range tables {
		if err := bw.writeString(table.Name); err != nil {
			return err
		}
		if err := bw.writeU32(uint32(len(table.Buckets))); err != nil {
			return err
		}
		if err := bw.writeU16(uint16(len(table.Columns))); err != nil {
			return err
		}
		for _, col := range table.Columns {
			if err := bw.writeString(col.Name); err != nil {
				return err
			}
			if err := bw.writeByte(byte(col.Type)); err != nil {
				return err
			}
		}
		for _, bucket := range table.Buckets {
			if err := bw.writeU32(uint32(len(bucket))); err != nil {
				return err
			}
			for _, row := range bucket {
				for _, f := range row.Fields {
					if err := bw.writeField(f); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func math32FromBits(n uint32) float32 { return math.Float32frombits(n) }

func math32Bits(f float32) uint32 { return math.Float32bits(f) }

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) readFull(dst []byte) error {
	if r.pos+len(dst) > len(r.buf) {
		return io.ErrUnexpectedEOF
	}
	copy(dst, r.buf[r.pos:r.pos+len(dst)])
	r.pos += len(dst)
	return nil
}

func (r *byteReader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readU16() (uint16, error) {
	var tmp [2]byte
	if err := r.readFull(tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(tmp[:]), nil
}

func (r *byteReader) readU32() (uint32, error) {
	var tmp [4]byte
	if err := r.readFull(tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func (r *byteReader) readU64() (uint64, error) {
	var tmp [8]byte
	if err := r.readFull(tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(tmp[:]), nil
}

func (r *byteReader) readString() (string, error) {
	n, err := r.readU16()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (r *byteReader) readField() (field.Field, error) {
	typByte, err := r.readByte()
	if err != nil {
		return field.Field{}, err
	}
	switch field.ValueType(typByte) {
	case field.Nothing:
		return field.NothingField, nil
	case field.Bool:
		b, err := r.readByte()
		if err != nil {
			return field.Field{}, err
		}
		return field.NewBool(b != 0), nil
	case field.I32:
		n, err := r.readU32()
		if err != nil {
			return field.Field{}, err
		}
		return field.NewI32(int32(n)), nil
	case field.I64:
		n, err := r.readU64()
		if err != nil {
			return field.Field{}, err
		}
		return field.NewI64(int64(n)), nil
	case field.F32:
		n, err := r.readU32()
		if err != nil {
			return field.Field{}, err
		}
		return field.NewF32(math32FromBits(n)), nil
	case field.Text, field.VarText:
		n, err := r.readU32()
		if err != nil {
			return field.Field{}, err
		}
		buf := make([]byte, n)
		if err := r.readFull(buf); err != nil {
			return field.Field{}, err
		}
		return field.NewText(string(buf)), nil
	default:
		return field.Field{}, fmt.Errorf("packeddb: unknown field type tag %d", typByte)
	}
}

type byteWriter struct {
	w io.Writer
}

func (w *byteWriter) writeFull(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

func (w *byteWriter) writeByte(b byte) error {
	return w.writeFull([]byte{b})
}

func (w *byteWriter) writeU16(n uint16) error {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], n)
	return w.writeFull(tmp[:])
}

func (w *byteWriter) writeU32(n uint32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], n)
	return w.writeFull(tmp[:])
}

func (w *byteWriter) writeU64(n uint64) error {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], n)
	return w.writeFull(tmp[:])
}

func (w *byteWriter) writeString(s string) error {
	if err := w.writeU16(uint16(len(s))); err != nil {
		return err
	}
	return w.writeFull([]byte(s))
}

func (w *byteWriter) writeField(f field.Field) error {
	if err := w.writeByte(byte(f.Type())); err != nil {
		return err
	}
	switch f.Type() {
	case field.Nothing:
		return nil
	case field.Bool:
		var b byte
		if f.Bool() {
			b = 1
		}
		return w.writeByte(b)
	case field.I32:
		return w.writeU32(uint32(f.I32()))
	case field.I64:
		return w.writeU64(uint64(f.I64()))
	case field.F32:
		return w.writeU32(math32Bits(f.F32()))
	case field.Text, field.VarText:
		s := f.Text()
		if err := w.writeU32(uint32(len(s))); err != nil {
			return err
		}
		return w.writeFull([]byte(s))
	default:
		return fmt.Errorf("packeddb: cannot encode field type %v", f.Type())
	}
}
