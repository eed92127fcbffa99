package catalog

import (
	"context"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/planner"
	"github.com/bulletdb/bulletdb/internal/source"
	"github.com/bulletdb/bulletdb/internal/source/parquetsource"
	"github.com/bulletdb/bulletdb/internal/source/pgsource"
)

// ReadParquet binds read_parquet('path'): a single string-literal argument
// naming a local file, schema taken directly from the file's footer.
type ReadParquet struct {
	table *parquetsource.DataTable
}

func NewReadParquet() *ReadParquet { return &ReadParquet{} }

func (f *ReadParquet) Bind(args []planner.LogicalExpression) ([]bullet.StructField, error) {
	path, err := stringArg(args, 0, "read_parquet")
	if err != nil {
		return nil, err
	}
	table, err := parquetsource.Open(path)
	if err != nil {
		return nil, err
	}
	f.table = table
	return table.Schema(), nil
}

func (f *ReadParquet) Table() source.DataTable { return f.table }

// ReadPostgres binds read_postgres('connection_string', 'schema', 'table'):
// three string-literal arguments naming a live Postgres table scanned via
// binary COPY.
type ReadPostgres struct {
	ctx   context.Context
	table *pgsource.DataTable
}

func NewReadPostgres(ctx context.Context) *ReadPostgres {
	return &ReadPostgres{ctx: ctx}
}

func (f *ReadPostgres) Bind(args []planner.LogicalExpression) ([]bullet.StructField, error) {
	connString, err := stringArg(args, 0, "read_postgres")
	if err != nil {
		return nil, err
	}
	schema, err := stringArg(args, 1, "read_postgres")
	if err != nil {
		return nil, err
	}
	table, err := stringArg(args, 2, "read_postgres")
	if err != nil {
		return nil, err
	}

	dt, err := pgsource.Open(f.ctx, connString, schema, table)
	if err != nil {
		return nil, err
	}
	f.table = dt
	return dt.Schema(), nil
}

func (f *ReadPostgres) Table() source.DataTable { return f.table }

func stringArg(args []planner.LogicalExpression, idx int, fn string) (string, error) {
	if idx >= len(args) {
		return "", enginerr.InvalidArgumentf("%s requires at least %d arguments", fn, idx+1)
	}
	lit, ok := args[idx].(planner.LiteralExpr)
	if !ok {
		return "", enginerr.InvalidArgumentf("%s argument %d must be a constant", fn, idx)
	}
	arr, ok := lit.Value.(*bullet.VarlenArray[int32])
	if !ok || arr.Len() != 1 {
		return "", enginerr.InvalidArgumentf("%s argument %d must be a string literal", fn, idx)
	}
	return string(arr.Value(0)), nil
}
