// Package physplan lowers a logical plan (internal/planner) into a set of
// per-partition physical pipelines (internal/exec/driver) ready to run: it
// is the glue the planner and broadcast/driver packages need but that
// nothing in the retrieved reference sources spells out directly (the pack
// carries the operator contract and the broadcast channel, not a pipeline
// executor), built straight from those two contracts.
package physplan

import (
	"context"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/bullet/compute"
	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/exec/driver"
	"github.com/bulletdb/bulletdb/internal/exec/operators"
	"github.com/bulletdb/bulletdb/internal/planner"
	"github.com/bulletdb/bulletdb/internal/source"
)

// TableSource resolves a planned table or table function reference to the
// source.DataTable that actually produces its rows. internal/catalog's
// Resolver answers schema questions; this answers "what scans this".
type TableSource interface {
	OpenTable(table *planner.TableReference) (source.DataTable, error)
	OpenTableFunction(name string, args []planner.LogicalExpression) (source.DataTable, error)
}

// Build lowers one logical query into numPartitions physical pipelines.
// The returned closer releases every Scan operator's background goroutine;
// callers must call it once the pipelines are fully drained.
func Build(ctx context.Context, query *planner.LogicalQuery, numPartitions int, tables TableSource) ([]driver.Pipeline, func(), error) {
	b := &builder{ctx: ctx, tables: tables, numPartitions: numPartitions}
	stagesPerPartition, err := b.lowerRoot(query.Root)
	if err != nil {
		b.closeAll()
		return nil, b.closeAll, err
	}

	pipelines := make([]driver.Pipeline, numPartitions)
	for p := 0; p < numPartitions; p++ {
		pipelines[p] = &chain{stages: stagesPerPartition[p]}
	}
	return pipelines, b.closeAll, nil
}

type builder struct {
	ctx           context.Context
	tables        TableSource
	numPartitions int
	scans         []*operators.Scan
}

func (b *builder) closeAll() {
	for _, s := range b.scans {
		s.Close()
	}
}

// lowerRoot returns, per partition, the ordered operator chain (source
// first, transforms after) that partition's pipeline drives.
func (b *builder) lowerRoot(op planner.LogicalOperator) ([][]exec.Operator, error) {
	switch node := op.(type) {
	case planner.Empty:
		return b.broadcastSource(operators.NewEmpty())

	case planner.ExpressionList:
		batch, err := evalExpressionList(node.Rows)
		if err != nil {
			return nil, err
		}
		return b.broadcastSource(operators.NewValues([]*bullet.Batch{batch}))

	case planner.Scan:
		return b.lowerScan(node)

	case planner.Filter:
		upstream, err := b.lowerRoot(node.Input)
		if err != nil {
			return nil, err
		}
		pred, err := lowerExpr(node.Predicate)
		if err != nil {
			return nil, err
		}
		return appendStage(upstream, func() exec.Operator { return operators.NewFilter(pred) }), nil

	case planner.Projection:
		upstream, err := b.lowerRoot(node.Input)
		if err != nil {
			return nil, err
		}
		exprs := make([]operators.PhysicalExpr, len(node.Exprs))
		for i, e := range node.Exprs {
			pe, err := lowerExpr(e)
			if err != nil {
				return nil, err
			}
			exprs[i] = pe
		}
		return appendStage(upstream, func() exec.Operator { return operators.NewProjection(exprs) }), nil

	default:
		return nil, enginerr.NotImplementedf("physical lowering for logical operator %T", op)
	}
}

// broadcastSource wraps a single already-built operator (a source that has
// no real partitioning, e.g. Values/Empty) so the same batch-producing
// operator instance backs partition 0 and every other partition gets an
// already-exhausted stand-in, mirroring source.SingleProducerEmptyTail.
func (b *builder) broadcastSource(first exec.Operator) ([][]exec.Operator, error) {
	out := make([][]exec.Operator, b.numPartitions)
	out[0] = []exec.Operator{first}
	for p := 1; p < b.numPartitions; p++ {
		out[p] = []exec.Operator{operators.NewValues(nil)}
	}
	return out, nil
}

func (b *builder) lowerScan(node planner.Scan) ([][]exec.Operator, error) {
	var table source.DataTable
	var err error
	if node.Source.TableFunction != "" {
		table, err = b.tables.OpenTableFunction(node.Source.TableFunction, node.Source.FunctionArgs)
	} else {
		table, err = b.tables.OpenTable(node.Source.Table)
	}
	if err != nil {
		return nil, err
	}

	scans, err := table.Scan(b.ctx, b.numPartitions)
	if err != nil {
		return nil, err
	}

	out := make([][]exec.Operator, b.numPartitions)
	for p, s := range scans {
		op := operators.NewScan(b.ctx, s)
		b.scans = append(b.scans, op)
		out[p] = []exec.Operator{op}
	}
	return out, nil
}

// appendStage adds one more operator to the end of every partition's chain,
// built fresh per partition since operators carry per-partition state.
func appendStage(upstream [][]exec.Operator, newStage func() exec.Operator) [][]exec.Operator {
	out := make([][]exec.Operator, len(upstream))
	for p, stages := range upstream {
		out[p] = append(append([]exec.Operator(nil), stages...), newStage())
	}
	return out
}

func evalExpressionList(rows [][]planner.LogicalExpression) (*bullet.Batch, error) {
	if len(rows) == 0 {
		return bullet.NewEmptyBatch(0), nil
	}
	numCols := len(rows[0])

	// VALUES rows are all literals by construction (planner.planValues only
	// ever lowers constant expressions), so each row evaluates independently
	// against a single-row batch; multi-row VALUES concatenate the results.
	batches := make([]*bullet.Batch, len(rows))
	for r, row := range rows {
		rowCols := make([]bullet.Array, numCols)
		one := bullet.NewEmptyBatch(1)
		for i, e := range row {
			pe, err := lowerExpr(e)
			if err != nil {
				return nil, err
			}
			col, err := pe.Eval(one)
			if err != nil {
				return nil, err
			}
			rowCols[i] = col
		}
		batch, err := bullet.NewBatch(rowCols)
		if err != nil {
			return nil, err
		}
		batches[r] = batch
	}

	if len(batches) == 1 {
		return batches[0], nil
	}
	return compute.ConcatBatches(batches)
}

func lowerExpr(e planner.LogicalExpression) (operators.PhysicalExpr, error) {
	switch expr := e.(type) {
	case planner.LiteralExpr:
		return &operators.Literal{Value: expr.Value}, nil
	case planner.ColumnRefExpr:
		if expr.Ref.ScopeLevel != 0 {
			return nil, enginerr.NotImplementedf("correlated column references are not supported in physical execution")
		}
		return &operators.ColumnRef{Index: expr.Ref.ItemIdx}, nil
	case planner.BinaryOpExpr:
		left, err := lowerExpr(expr.Left)
		if err != nil {
			return nil, err
		}
		right, err := lowerExpr(expr.Right)
		if err != nil {
			return nil, err
		}
		return &operators.BinaryOp{Op: expr.Op, Left: left, Right: right}, nil
	case planner.FunctionCallExpr:
		switch expr.Name {
		case "ascii", "acos", "atan":
			if len(expr.Args) != 1 {
				return nil, enginerr.InvalidArgumentf("%s takes exactly one argument", expr.Name)
			}
			arg, err := lowerExpr(expr.Args[0])
			if err != nil {
				return nil, err
			}
			return &operators.UnaryFunc{Name: expr.Name, Arg: arg}, nil
		default:
			return nil, enginerr.NotImplementedf("function call %s has no physical lowering", expr.Name)
		}
	default:
		return nil, enginerr.NotImplementedf("physical lowering for logical expression %T", e)
	}
}
