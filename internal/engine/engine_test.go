package engine

import (
	"context"
	"reflect"
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/catalog"
)

func TestPlanNoFromTracksNoTables(t *testing.T) {
	resolver := catalog.NewMemCatalog()
	query, tables, err := Plan("SELECT 1 + 1", resolver)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(tables) != 0 {
		t.Fatalf("scanned tables = %v, want none", tables)
	}
	if got := OutputNames(query); !reflect.DeepEqual(got, []string{"?column?"}) {
		t.Fatalf("OutputNames = %v, want [?column?]", got)
	}
}

func TestPlanTracksScannedTable(t *testing.T) {
	resolver := catalog.NewMemCatalog()
	resolver.AddTable("widgets", []bullet.StructField{
		{Name: "id", Type: bullet.Simple(bullet.KindInt64)},
	})

	_, tables, err := Plan("SELECT id FROM widgets WHERE id > 1", resolver)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !reflect.DeepEqual(tables, []string{"public.widgets"}) {
		t.Fatalf("scanned tables = %v, want [public.widgets]", tables)
	}
}

// TestCompileAndRunValuesEndToEnd exercises the full engine.Plan ->
// engine.Compile -> engine.RunToCompletion path a real request drives,
// without a TableSource since a VALUES-only query never opens one.
func TestCompileAndRunValuesEndToEnd(t *testing.T) {
	resolver := catalog.NewMemCatalog()
	query, _, err := Plan("SELECT * FROM (VALUES (1), (2), (3)) AS v(n)", resolver)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	pipelines, closer, err := Compile(context.Background(), query, 2, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer closer()

	batches, err := RunToCompletion(context.Background(), pipelines)
	if err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}

	var got []int64
	for _, b := range batches {
		if b.NumColumns() == 0 {
			continue
		}
		pa := b.Column(0).(*bullet.PrimitiveArray[int64])
		got = append(got, pa.Values()...)
	}
	if !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
}
