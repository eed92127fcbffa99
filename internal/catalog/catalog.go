// Package catalog is the planner's view onto table and table-function
// metadata: what columns a table has, and what a table function binds to
// given constant arguments. internal/catalog/richcatalog introspects a live
// Postgres database for this; MemCatalog below backs tests and the
// zero-dependency demo path with a fixed schema.
package catalog

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/planner"
	"github.com/bulletdb/bulletdb/internal/planner/ast"
)

// TableFunctionFactory builds a planner.TableFunctionBinder for a named
// table function (read_parquet, read_postgres, ...).
type TableFunctionFactory func() planner.TableFunctionBinder

// MemCatalog is a fixed, in-memory implementation of planner.Resolver,
// naming a static set of tables and table functions - the catalog the
// exectest and planner test suites plan against without a live Postgres
// connection.
type MemCatalog struct {
	tables          map[string][]bullet.StructField
	tableFunctions map[string]TableFunctionFactory
}

func NewMemCatalog() *MemCatalog {
	return &MemCatalog{
		tables:         map[string][]bullet.StructField{},
		tableFunctions: map[string]TableFunctionFactory{},
	}
}

// AddTable registers a table's schema under its unqualified name.
func (c *MemCatalog) AddTable(name string, fields []bullet.StructField) {
	c.tables[name] = fields
}

// AddTableFunction registers a table function factory under its SQL name.
func (c *MemCatalog) AddTableFunction(name string, factory TableFunctionFactory) {
	c.tableFunctions[name] = factory
}

func (c *MemCatalog) ResolveTable(ref ast.ObjectReference) (*planner.TableReference, []bullet.StructField, error) {
	name := ref.Parts[len(ref.Parts)-1]
	fields, ok := c.tables[name]
	if !ok {
		return nil, nil, enginerr.Lookupf("unknown table: %s", ref)
	}
	tableRef := &planner.TableReference{Table: name}
	if len(ref.Parts) > 1 {
		tableRef.Schema = ref.Parts[len(ref.Parts)-2]
	}
	return tableRef, fields, nil
}

func (c *MemCatalog) ResolveTableFunction(name string) (planner.TableFunctionBinder, error) {
	factory, ok := c.tableFunctions[name]
	if !ok {
		return nil, enginerr.Lookupf("unknown table function: %s", name)
	}
	return factory(), nil
}
