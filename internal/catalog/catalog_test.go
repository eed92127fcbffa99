package catalog

import (
	"context"
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/planner"
	"github.com/bulletdb/bulletdb/internal/planner/ast"
)

func TestMemCatalogResolveTable(t *testing.T) {
	cat := NewMemCatalog()
	cat.AddTable("widgets", []bullet.StructField{{Name: "id", Type: bullet.Simple(bullet.KindInt64)}})

	ref, fields, err := cat.ResolveTable(ast.ObjectReference{Parts: []string{"widgets"}})
	if err != nil {
		t.Fatalf("ResolveTable: %v", err)
	}
	if ref.Table != "widgets" || ref.Schema != "" {
		t.Fatalf("ref = %+v, want Table=widgets Schema=\"\"", ref)
	}
	if len(fields) != 1 || fields[0].Name != "id" {
		t.Fatalf("fields = %+v", fields)
	}

	ref, _, err = cat.ResolveTable(ast.ObjectReference{Parts: []string{"public", "widgets"}})
	if err != nil {
		t.Fatalf("ResolveTable qualified: %v", err)
	}
	if ref.Schema != "public" {
		t.Fatalf("ref.Schema = %q, want public", ref.Schema)
	}
}

func TestMemCatalogResolveTableUnknown(t *testing.T) {
	cat := NewMemCatalog()
	if _, _, err := cat.ResolveTable(ast.ObjectReference{Parts: []string{"missing"}}); err == nil {
		t.Fatalf("expected error for unknown table")
	}
}

func TestMemCatalogResolveTableFunction(t *testing.T) {
	cat := NewMemCatalog()
	called := false
	cat.AddTableFunction("my_func", func() planner.TableFunctionBinder {
		called = true
		return NewReadParquet()
	})

	binder, err := cat.ResolveTableFunction("my_func")
	if err != nil {
		t.Fatalf("ResolveTableFunction: %v", err)
	}
	if binder == nil || !called {
		t.Fatalf("factory was not invoked")
	}

	if _, err := cat.ResolveTableFunction("unknown_func"); err == nil {
		t.Fatalf("expected error for unknown table function")
	}
}

// TestCompositeResolverBuiltinsOverrideDelegate confirms read_parquet and
// read_postgres resolve to the fixed built-in set even when the delegate
// resolver also happens to register a function under those names, and that
// any other name falls through to the delegate.
func TestCompositeResolverBuiltinsOverrideDelegate(t *testing.T) {
	delegate := NewMemCatalog()
	delegateCalled := false
	delegate.AddTableFunction("custom_func", func() planner.TableFunctionBinder {
		delegateCalled = true
		return NewReadParquet()
	})

	composite := NewCompositeResolver(context.Background(), delegate)

	if _, err := composite.ResolveTableFunction("read_parquet"); err != nil {
		t.Fatalf("ResolveTableFunction(read_parquet): %v", err)
	}
	if _, err := composite.ResolveTableFunction("read_postgres"); err != nil {
		t.Fatalf("ResolveTableFunction(read_postgres): %v", err)
	}

	if _, err := composite.ResolveTableFunction("custom_func"); err != nil {
		t.Fatalf("ResolveTableFunction(custom_func): %v", err)
	}
	if !delegateCalled {
		t.Fatalf("expected delegate to be consulted for a non-builtin name")
	}
}

func literalStringArg(s string) planner.LogicalExpression {
	data, offsets := bullet.BuildVarlenOffsets32([][]byte{[]byte(s)})
	return planner.LiteralExpr{Value: bullet.NewVarlenArray(bullet.Simple(bullet.KindUtf8), data, offsets, nil)}
}

func TestReadParquetBindRequiresStringLiteralArg(t *testing.T) {
	f := NewReadParquet()

	if _, err := f.Bind(nil); err == nil {
		t.Fatalf("expected error for missing argument")
	}

	nonConst := planner.ColumnRefExpr{Ref: planner.ColumnRef{ScopeLevel: 0, ItemIdx: 0}}
	if _, err := f.Bind([]planner.LogicalExpression{nonConst}); err == nil {
		t.Fatalf("expected error for non-constant argument")
	}

	intArg := planner.LiteralExpr{Value: bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{1}, nil)}
	if _, err := f.Bind([]planner.LogicalExpression{intArg}); err == nil {
		t.Fatalf("expected error for non-string argument")
	}

	// A string-literal path that does not exist on disk should fail at
	// Open, not before - confirming Bind actually reaches parquetsource.Open
	// rather than silently swallowing a bad path.
	if _, err := f.Bind([]planner.LogicalExpression{literalStringArg("/nonexistent/path/does/not/exist.parquet")}); err == nil {
		t.Fatalf("expected error opening a nonexistent parquet file")
	}
}
