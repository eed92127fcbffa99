// Package engine is the single path from SQL text to running pipelines:
// parse, plan, lower to physical operators, run. internal/api and
// internal/reactive both go through it rather than each re-deriving the
// parse-plan-lower sequence.
package engine

import (
	"context"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/exec/driver"
	"github.com/bulletdb/bulletdb/internal/exec/physplan"
	"github.com/bulletdb/bulletdb/internal/planner"
	"github.com/bulletdb/bulletdb/internal/planner/pgast"
)

// Plan parses sql and lowers it into a logical plan against resolver,
// also returning the fully-qualified ("schema.table") names of every base
// table it scans - the set a WAL consumer needs to know whether a change
// should trigger a rerun.
func Plan(sql string, resolver planner.Resolver) (*planner.LogicalQuery, []string, error) {
	stmt, err := pgast.Parse(sql)
	if err != nil {
		return nil, nil, err
	}
	query, err := planner.NewPlanContext(resolver).PlanStatement(stmt)
	if err != nil {
		return nil, nil, err
	}
	return query, scannedTables(query.Root), nil
}

func scannedTables(op planner.LogicalOperator) []string {
	var tables []string
	seen := map[string]bool{}
	var walk func(planner.LogicalOperator)
	walk = func(op planner.LogicalOperator) {
		switch n := op.(type) {
		case planner.Scan:
			if n.Source.Table != nil {
				schema := n.Source.Table.Schema
				if schema == "" {
					schema = "public"
				}
				fq := schema + "." + n.Source.Table.Table
				if !seen[fq] {
					seen[fq] = true
					tables = append(tables, fq)
				}
			}
		case planner.Filter:
			walk(n.Input)
		case planner.Projection:
			walk(n.Input)
		}
	}
	walk(op)
	return tables
}

// OutputNames returns the output column names of a planned query, in
// projection order, for labeling a result set.
func OutputNames(query *planner.LogicalQuery) []string {
	names := make([]string, len(query.Scope.Items))
	for i, item := range query.Scope.Items {
		names[i] = item.Column
	}
	return names
}

// Compile lowers a logical plan into per-partition pipelines ready to run.
func Compile(ctx context.Context, query *planner.LogicalQuery, numPartitions int, tables physplan.TableSource) ([]driver.Pipeline, func(), error) {
	return physplan.Build(ctx, query, numPartitions, tables)
}

// RunToCompletion drives pipelines to exhaustion and collects every batch,
// for the one-shot query path (HTTP request/response, not a live
// subscription). The caller provides ctx cancellation for timeouts.
func RunToCompletion(ctx context.Context, pipelines []driver.Pipeline) ([]*bullet.Batch, error) {
	d := driver.New(pipelines)
	var batches []*bullet.Batch
	for result := range d.Run(ctx) {
		if result.Err != nil {
			return nil, result.Err
		}
		batches = append(batches, result.Batch)
	}
	return batches, nil
}
