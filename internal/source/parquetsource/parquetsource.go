// Package parquetsource implements the Parquet row-group scan source: a
// DataTable that partitions a file's row groups round-robin across
// requested partitions, each partition scanning only the row groups it was
// assigned, reading through segmentio/parquet-go.
package parquetsource

import (
	"context"
	"io"
	"os"

	"github.com/segmentio/parquet-go"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/source"
)

const batchSize = 2048

// DataTable is a Parquet file opened for scanning, partitioned on row
// groups: with N partitions requested, row group i is read by partition
// i % N, exactly mirroring the reference row-group-partitioned table.
type DataTable struct {
	path   string
	file   *parquet.File
	closer io.Closer
	schema []bullet.StructField
}

// Open opens a Parquet file and reads its schema without scanning any rows.
func Open(path string) (*DataTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, enginerr.WrapIo(err, "open parquet file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, enginerr.WrapIo(err, "stat parquet file")
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, enginerr.WrapIo(err, "open parquet file metadata")
	}

	schema, err := fieldsFromParquetSchema(pf.Schema())
	if err != nil {
		f.Close()
		return nil, err
	}

	return &DataTable{path: path, file: pf, closer: f, schema: schema}, nil
}

func (d *DataTable) Close() error { return d.closer.Close() }

func (d *DataTable) Schema() []bullet.StructField { return d.schema }

// Scan partitions this file's row groups round-robin across numPartitions,
// one DataTableScan per partition, each responsible for a disjoint set of
// row groups.
func (d *DataTable) Scan(ctx context.Context, numPartitions int) ([]source.DataTableScan, error) {
	rowGroups := d.file.RowGroups()
	stripes := source.FixedStripes(len(rowGroups), numPartitions)

	scans := make([]source.DataTableScan, numPartitions)
	for p, assigned := range stripes {
		scans[p] = &rowGroupScan{
			rowGroups: rowGroups,
			indices:   assigned,
			schema:    d.schema,
		}
	}
	return scans, nil
}

type rowGroupScan struct {
	rowGroups []parquet.RowGroup
	indices   []int
	schema    []bullet.StructField

	cur    parquet.Rows
	curIdx int // index into d.indices of the row group cur is reading
}

func (s *rowGroupScan) Pull(ctx context.Context) (*bullet.Batch, error) {
	for {
		if s.cur == nil {
			if s.curIdx >= len(s.indices) {
				return nil, nil
			}
			s.cur = s.rowGroups[s.indices[s.curIdx]].Rows()
		}

		rows := make([]parquet.Row, batchSize)
		n, err := s.cur.ReadRows(rows)
		if n > 0 {
			batch, convErr := rowsToBatch(rows[:n], s.schema)
			if convErr != nil {
				return nil, convErr
			}
			if err != nil && err != io.EOF {
				s.cur.Close()
				s.cur = nil
				s.curIdx++
				return batch, enginerr.WrapIo(err, "read parquet row group")
			}
			if err == io.EOF {
				s.cur.Close()
				s.cur = nil
				s.curIdx++
			}
			return batch, nil
		}

		s.cur.Close()
		s.cur = nil
		s.curIdx++
		if err != nil && err != io.EOF {
			return nil, enginerr.WrapIo(err, "read parquet row group")
		}
	}
}

func fieldsFromParquetSchema(schema *parquet.Schema) ([]bullet.StructField, error) {
	fields := schema.Fields()
	out := make([]bullet.StructField, len(fields))
	for i, f := range fields {
		out[i] = bullet.StructField{Name: f.Name(), Type: parquetKindToBullet(f.Type().Kind())}
	}
	return out, nil
}

func parquetKindToBullet(kind parquet.Kind) bullet.DataType {
	switch kind {
	case parquet.Boolean:
		return bullet.Simple(bullet.KindBoolean)
	case parquet.Int32:
		return bullet.Simple(bullet.KindInt32)
	case parquet.Int64:
		return bullet.Simple(bullet.KindInt64)
	case parquet.Float:
		return bullet.Simple(bullet.KindFloat32)
	case parquet.Double:
		return bullet.Simple(bullet.KindFloat64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return bullet.Simple(bullet.KindUtf8)
	default:
		return bullet.Simple(bullet.KindUtf8)
	}
}

// rowsToBatch converts a slice of parquet.Row (each a flat slice of
// per-leaf-column parquet.Value) into a bullet.Batch, one array builder
// per schema field addressed by that value's Column() index.
func rowsToBatch(rows []parquet.Row, schema []bullet.StructField) (*bullet.Batch, error) {
	numCols := len(schema)
	builders := make([]columnBuilder, numCols)
	for i, f := range schema {
		builders[i] = newColumnBuilder(f.Type, len(rows))
	}

	for _, row := range rows {
		seen := make([]bool, numCols)
		for _, v := range row {
			col := v.Column()
			if col < 0 || col >= numCols {
				continue
			}
			builders[col].append(v)
			seen[col] = true
		}
		for i, ok := range seen {
			if !ok {
				builders[i].appendNull()
			}
		}
	}

	cols := make([]bullet.Array, numCols)
	for i, b := range builders {
		cols[i] = b.finish()
	}
	return bullet.NewBatch(cols)
}

// columnBuilder accumulates parquet values into one bullet.Array, the
// minimal builder shape every typed scan source (Parquet here, a future
// CSV/Arrow-IPC source later) needs to go from row-oriented decode output
// to columnar storage.
type columnBuilder interface {
	append(v parquet.Value)
	appendNull()
	finish() bullet.Array
}

func newColumnBuilder(t bullet.DataType, capacity int) columnBuilder {
	switch t.Kind {
	case bullet.KindBoolean:
		return &boolBuilder{valid: make([]bool, 0, capacity), values: make([]bool, 0, capacity)}
	case bullet.KindInt32:
		return &primBuilder[int32]{dtype: t, valid: make([]bool, 0, capacity), values: make([]int32, 0, capacity), read: func(v parquet.Value) int32 { return v.Int32() }}
	case bullet.KindInt64:
		return &primBuilder[int64]{dtype: t, valid: make([]bool, 0, capacity), values: make([]int64, 0, capacity), read: func(v parquet.Value) int64 { return v.Int64() }}
	case bullet.KindFloat32:
		return &primBuilder[float32]{dtype: t, valid: make([]bool, 0, capacity), values: make([]float32, 0, capacity), read: func(v parquet.Value) float32 { return v.Float() }}
	case bullet.KindFloat64:
		return &primBuilder[float64]{dtype: t, valid: make([]bool, 0, capacity), values: make([]float64, 0, capacity), read: func(v parquet.Value) float64 { return v.Double() }}
	default:
		return &utf8Builder{valid: make([]bool, 0, capacity), values: make([][]byte, 0, capacity)}
	}
}

type boolBuilder struct {
	valid  []bool
	values []bool
}

func (b *boolBuilder) append(v parquet.Value) {
	b.valid = append(b.valid, !v.IsNull())
	b.values = append(b.values, v.Boolean())
}
func (b *boolBuilder) appendNull() {
	b.valid = append(b.valid, false)
	b.values = append(b.values, false)
}
func (b *boolBuilder) finish() bullet.Array {
	return bullet.NewBooleanArray(b.values, bullet.NewValidityFromBools(b.valid))
}

type primBuilder[T bullet.PrimitiveValue] struct {
	dtype  bullet.DataType
	valid  []bool
	values []T
	read   func(parquet.Value) T
}

func (b *primBuilder[T]) append(v parquet.Value) {
	b.valid = append(b.valid, !v.IsNull())
	if v.IsNull() {
		var zero T
		b.values = append(b.values, zero)
		return
	}
	b.values = append(b.values, b.read(v))
}
func (b *primBuilder[T]) appendNull() {
	var zero T
	b.valid = append(b.valid, false)
	b.values = append(b.values, zero)
}
func (b *primBuilder[T]) finish() bullet.Array {
	return bullet.NewPrimitiveArray(b.dtype, b.values, bullet.NewValidityFromBools(b.valid))
}

type utf8Builder struct {
	valid  []bool
	values [][]byte
}

func (b *utf8Builder) append(v parquet.Value) {
	b.valid = append(b.valid, !v.IsNull())
	if v.IsNull() {
		b.values = append(b.values, nil)
		return
	}
	raw := v.ByteArray()
	cp := make([]byte, len(raw))
	copy(cp, raw)
	b.values = append(b.values, cp)
}
func (b *utf8Builder) appendNull() {
	b.valid = append(b.valid, false)
	b.values = append(b.values, nil)
}
func (b *utf8Builder) finish() bullet.Array {
	data, offsets := bullet.BuildVarlenOffsets32(b.values)
	return bullet.NewVarlenArray(bullet.Simple(bullet.KindUtf8), data, offsets, bullet.NewValidityFromBools(b.valid))
}
