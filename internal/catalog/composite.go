package catalog

import (
	"context"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/planner"
	"github.com/bulletdb/bulletdb/internal/planner/ast"
)

// CompositeResolver resolves base tables against a live Postgres catalog
// (richcatalog.Catalog, or any other planner.Resolver) and table functions
// (read_parquet, read_postgres) against the fixed built-in set - the two
// concerns MemCatalog bundles together for tests, split apart here because
// a real deployment's table catalog and its table-function set come from
// different places.
type CompositeResolver struct {
	Tables planner.Resolver
	ctx    context.Context
}

func NewCompositeResolver(ctx context.Context, tables planner.Resolver) *CompositeResolver {
	return &CompositeResolver{Tables: tables, ctx: ctx}
}

func (c *CompositeResolver) ResolveTable(ref ast.ObjectReference) (*planner.TableReference, []bullet.StructField, error) {
	return c.Tables.ResolveTable(ref)
}

func (c *CompositeResolver) ResolveTableFunction(name string) (planner.TableFunctionBinder, error) {
	switch name {
	case "read_parquet":
		return NewReadParquet(), nil
	case "read_postgres":
		return NewReadPostgres(c.ctx), nil
	default:
		return c.Tables.ResolveTableFunction(name)
	}
}
