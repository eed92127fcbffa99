package catalog

import (
	"context"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/planner"
	"github.com/bulletdb/bulletdb/internal/source"
	"github.com/bulletdb/bulletdb/internal/source/pgsource"
)

// PostgresTableSource resolves every planned base table against one live
// Postgres connection, and binds read_parquet/read_postgres table
// functions fresh at physical-plan time (the planner only needed their
// schema; opening the real scan is physplan's job, not the planner's).
type PostgresTableSource struct {
	ctx        context.Context
	connString string
}

func NewPostgresTableSource(ctx context.Context, connString string) *PostgresTableSource {
	return &PostgresTableSource{ctx: ctx, connString: connString}
}

func (t *PostgresTableSource) OpenTable(table *planner.TableReference) (source.DataTable, error) {
	schema := table.Schema
	if schema == "" {
		schema = "public"
	}
	return pgsource.Open(t.ctx, t.connString, schema, table.Table)
}

func (t *PostgresTableSource) OpenTableFunction(name string, args []planner.LogicalExpression) (source.DataTable, error) {
	switch name {
	case "read_parquet":
		f := NewReadParquet()
		if _, err := f.Bind(args); err != nil {
			return nil, err
		}
		return f.Table(), nil
	case "read_postgres":
		f := NewReadPostgres(t.ctx)
		if _, err := f.Bind(args); err != nil {
			return nil, err
		}
		return f.Table(), nil
	default:
		return nil, enginerr.Lookupf("unknown table function: %s", name)
	}
}

// MemTableSource backs MemCatalog for tests and the no-Postgres demo path:
// every base table is a fixed, pre-materialized batch.
type MemTableSource struct {
	tables map[string]*bullet.Batch
}

func NewMemTableSource() *MemTableSource {
	return &MemTableSource{tables: map[string]*bullet.Batch{}}
}

func (t *MemTableSource) AddTable(name string, batch *bullet.Batch) {
	t.tables[name] = batch
}

func (t *MemTableSource) OpenTable(table *planner.TableReference) (source.DataTable, error) {
	batch, ok := t.tables[table.Table]
	if !ok {
		return nil, enginerr.Lookupf("no in-memory data registered for table: %s", table.Table)
	}
	return &memDataTable{batch: batch}, nil
}

func (t *MemTableSource) OpenTableFunction(name string, args []planner.LogicalExpression) (source.DataTable, error) {
	return nil, enginerr.NotImplementedf("table functions are not available against the in-memory table source")
}

type memDataTable struct{ batch *bullet.Batch }

func (m *memDataTable) Schema() []bullet.StructField {
	fields := make([]bullet.StructField, m.batch.NumColumns())
	for i := 0; i < m.batch.NumColumns(); i++ {
		fields[i] = bullet.StructField{Type: m.batch.Column(i).DataType()}
	}
	return fields
}

func (m *memDataTable) Scan(ctx context.Context, numPartitions int) ([]source.DataTableScan, error) {
	return source.SingleProducerEmptyTail(numPartitions, &memScan{batch: m.batch}), nil
}

type memScan struct {
	batch *bullet.Batch
	done  bool
}

func (s *memScan) Pull(ctx context.Context) (*bullet.Batch, error) {
	if s.done {
		return nil, nil
	}
	s.done = true
	return s.batch, nil
}
