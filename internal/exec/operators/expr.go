package operators

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
)

// PhysicalExpr is a compiled scalar expression ready to evaluate against a
// batch: the physical counterpart to a planner expression, stripped of
// everything but what's needed to produce a column.
type PhysicalExpr interface {
	Eval(batch *bullet.Batch) (bullet.Array, error)
	ResultType() bullet.DataType
}

// ColumnRef reads one column straight out of the input batch by position,
// the form every resolved column reference lowers to by the time it
// reaches a physical operator.
type ColumnRef struct {
	Index int
	Type  bullet.DataType
}

func (c *ColumnRef) Eval(batch *bullet.Batch) (bullet.Array, error) {
	if c.Index >= batch.NumColumns() {
		return nil, enginerr.Lookupf("column index %d out of range for batch with %d columns", c.Index, batch.NumColumns())
	}
	return batch.Column(c.Index), nil
}

func (c *ColumnRef) ResultType() bullet.DataType { return c.Type }

// Literal is a scalar value broadcast to every row of the batch.
type Literal struct {
	Value bullet.Array // length-1 array; Eval repeats it to batch length
}

func (l *Literal) Eval(batch *bullet.Batch) (bullet.Array, error) {
	return broadcastScalar(l.Value, batch.NumRows())
}

func (l *Literal) ResultType() bullet.DataType { return l.Value.DataType() }

func broadcastScalar(scalar bullet.Array, n int) (bullet.Array, error) {
	switch v := scalar.(type) {
	case *bullet.PrimitiveArray[int64]:
		vals := make([]int64, n)
		val := v.Value(0)
		for i := range vals {
			vals[i] = val
		}
		return bullet.NewPrimitiveArray(v.DataType(), vals, nil), nil
	case *bullet.PrimitiveArray[float64]:
		vals := make([]float64, n)
		val := v.Value(0)
		for i := range vals {
			vals[i] = val
		}
		return bullet.NewPrimitiveArray(v.DataType(), vals, nil), nil
	case *bullet.BooleanArray:
		vals := make([]bool, n)
		val := v.Value(0)
		for i := range vals {
			vals[i] = val
		}
		return bullet.NewBooleanArray(vals, nil), nil
	case *bullet.VarlenArray[int32]:
		rows := make([][]byte, n)
		val := v.Value(0)
		for i := range rows {
			rows[i] = val
		}
		data, offsets := bullet.BuildVarlenOffsets32(rows)
		return bullet.NewVarlenArray(v.DataType(), data, offsets, nil), nil
	default:
		return nil, enginerr.NotImplementedf("broadcast scalar of type %s", scalar.DataType())
	}
}
