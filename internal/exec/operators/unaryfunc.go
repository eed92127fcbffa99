package operators

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/bullet/compute"
	"github.com/bulletdb/bulletdb/internal/enginerr"
)

// UnaryFunc evaluates a single-argument scalar function over its operand's
// result array, delegating to the shared unary-executor kernels in
// internal/bullet/compute (ascii, acos, atan) rather than hand-rolling its
// own validity-propagation loop per function.
type UnaryFunc struct {
	Name string
	Arg  PhysicalExpr
}

func (u *UnaryFunc) ResultType() bullet.DataType {
	switch u.Name {
	case "ascii":
		return bullet.Simple(bullet.KindInt32)
	case "acos", "atan":
		return bullet.Simple(bullet.KindFloat64)
	default:
		return u.Arg.ResultType()
	}
}

func (u *UnaryFunc) Eval(batch *bullet.Batch) (bullet.Array, error) {
	arg, err := u.Arg.Eval(batch)
	if err != nil {
		return nil, err
	}
	switch u.Name {
	case "ascii":
		return compute.Ascii(arg)
	case "acos":
		return compute.Acos(arg)
	case "atan":
		return compute.Atan(arg)
	default:
		return nil, enginerr.NotImplementedf("unsupported scalar function %s", u.Name)
	}
}
