package operators

import (
	"bytes"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/bullet/compute"
	"github.com/bulletdb/bulletdb/internal/enginerr"
)

// BinaryOp evaluates a two-argument scalar operator elementwise over its
// operands' result arrays: comparisons ("=", "<>", "<", "<=", ">", ">="),
// boolean connectives ("AND", "OR"), and numeric arithmetic ("+", "-", "*",
// "/"). Each row is null if either operand is null at that row - every case
// below delegates to compute.BinaryExecute for that validity propagation
// rather than re-deriving it per operator.
type BinaryOp struct {
	Op          string
	Left, Right PhysicalExpr
}

func (b *BinaryOp) ResultType() bullet.DataType {
	switch b.Op {
	case "=", "<>", "<", "<=", ">", ">=", "AND", "OR":
		return bullet.Simple(bullet.KindBoolean)
	default:
		return b.Left.ResultType()
	}
}

func (b *BinaryOp) Eval(batch *bullet.Batch) (bullet.Array, error) {
	left, err := b.Left.Eval(batch)
	if err != nil {
		return nil, err
	}
	right, err := b.Right.Eval(batch)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case "AND", "OR":
		return evalBoolConnective(b.Op, left, right)
	case "=", "<>", "<", "<=", ">", ">=":
		return evalComparison(b.Op, left, right)
	case "+", "-", "*", "/":
		return evalArithmetic(b.Op, left, right)
	default:
		return nil, enginerr.NotImplementedf("unsupported binary operator %q", b.Op)
	}
}

func evalBoolConnective(op string, left, right bullet.Array) (bullet.Array, error) {
	l, ok := left.(*bullet.BooleanArray)
	r, ok2 := right.(*bullet.BooleanArray)
	if !ok || !ok2 {
		return nil, enginerr.TypeMismatchf("%s requires boolean operands", op)
	}
	fn := func(lv, rv bool) bool { return lv && rv }
	if op == "OR" {
		fn = func(lv, rv bool) bool { return lv || rv }
	}
	out, validity := compute.BinaryExecute[bool, bool, bool](l, r, fn)
	return bullet.NewBooleanArray(out, validity), nil
}

func evalComparison(op string, left, right bullet.Array) (bullet.Array, error) {
	if right.Len() != left.Len() {
		return nil, enginerr.SchemaMismatchf("comparison operands have different lengths: %d vs %d", left.Len(), right.Len())
	}

	switch l := left.(type) {
	case *bullet.PrimitiveArray[int64]:
		r, ok := right.(*bullet.PrimitiveArray[int64])
		if !ok {
			return nil, enginerr.TypeMismatchf("cannot compare int64 to %s", right.DataType())
		}
		out, validity := compute.BinaryExecute[int64, int64, bool](l, r, func(lv, rv int64) bool { return compareOrdered(op, lv, rv) })
		return bullet.NewBooleanArray(out, validity), nil
	case *bullet.PrimitiveArray[float64]:
		r, ok := right.(*bullet.PrimitiveArray[float64])
		if !ok {
			return nil, enginerr.TypeMismatchf("cannot compare float64 to %s", right.DataType())
		}
		out, validity := compute.BinaryExecute[float64, float64, bool](l, r, func(lv, rv float64) bool { return compareOrdered(op, lv, rv) })
		return bullet.NewBooleanArray(out, validity), nil
	case *bullet.VarlenArray[int32]:
		r, ok := right.(*bullet.VarlenArray[int32])
		if !ok {
			return nil, enginerr.TypeMismatchf("cannot compare %s to %s", left.DataType(), right.DataType())
		}
		out, validity := compute.BinaryExecute[[]byte, []byte, bool](l, r, func(lv, rv []byte) bool { return compareBytes(op, lv, rv) })
		return bullet.NewBooleanArray(out, validity), nil
	case *bullet.BooleanArray:
		r, ok := right.(*bullet.BooleanArray)
		if !ok {
			return nil, enginerr.TypeMismatchf("cannot compare boolean to %s", right.DataType())
		}
		out, validity := compute.BinaryExecute[bool, bool, bool](l, r, func(lv, rv bool) bool { return compareBool(op, lv, rv) })
		return bullet.NewBooleanArray(out, validity), nil
	default:
		return nil, enginerr.NotImplementedf("comparison over %s is not supported", left.DataType())
	}
}

type numeric interface{ ~int64 | ~float64 }

func compareOrdered[T numeric](op string, l, r T) bool {
	switch op {
	case "=":
		return l == r
	case "<>":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}

func compareBytes(op string, l, r []byte) bool {
	c := bytes.Compare(l, r)
	switch op {
	case "=":
		return c == 0
	case "<>":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func compareBool(op string, l, r bool) bool {
	switch op {
	case "=":
		return l == r
	case "<>":
		return l != r
	default:
		return false
	}
}

func evalArithmetic(op string, left, right bullet.Array) (bullet.Array, error) {
	switch l := left.(type) {
	case *bullet.PrimitiveArray[int64]:
		r, ok := right.(*bullet.PrimitiveArray[int64])
		if !ok {
			return nil, enginerr.TypeMismatchf("cannot apply %s between int64 and %s", op, right.DataType())
		}
		out, validity := compute.BinaryExecute[int64, int64, int64](l, r, func(lv, rv int64) int64 { return arithOrdered(op, lv, rv) })
		return bullet.NewPrimitiveArray(l.DataType(), out, validity), nil
	case *bullet.PrimitiveArray[float64]:
		r, ok := right.(*bullet.PrimitiveArray[float64])
		if !ok {
			return nil, enginerr.TypeMismatchf("cannot apply %s between float64 and %s", op, right.DataType())
		}
		out, validity := compute.BinaryExecute[float64, float64, float64](l, r, func(lv, rv float64) float64 { return arithOrdered(op, lv, rv) })
		return bullet.NewPrimitiveArray(l.DataType(), out, validity), nil
	default:
		return nil, enginerr.NotImplementedf("arithmetic over %s is not supported", left.DataType())
	}
}

func arithOrdered[T numeric](op string, l, r T) T {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		if r == 0 {
			return 0
		}
		return l / r
	}
	return 0
}
