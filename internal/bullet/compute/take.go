package compute

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
)

// Take gathers the rows named by indices out of arr, in order, producing a
// new array of len(indices) rows. It is the kernel Filter and any future
// row-reordering operator (sort, join probe) builds its output from.
func Take(arr bullet.Array, indices []int) (bullet.Array, error) {
	switch a := arr.(type) {
	case *bullet.NullArray:
		return bullet.NewNullArray(len(indices)), nil

	case *bullet.BooleanArray:
		vals := make([]bool, len(indices))
		validity := takeValidity(a.Validity(), indices)
		for i, idx := range indices {
			vals[i] = a.Value(idx)
		}
		return bullet.NewBooleanArray(vals, validity), nil

	case *bullet.PrimitiveArray[int8]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[int16]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[int32]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[int64]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[uint8]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[uint16]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[uint32]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[uint64]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[float32]:
		return takePrimitive(a, indices)
	case *bullet.PrimitiveArray[float64]:
		return takePrimitive(a, indices)

	case *bullet.VarlenArray[int32]:
		return takeVarlen32(a, indices)
	case *bullet.VarlenArray[int64]:
		return takeVarlen64(a, indices)

	default:
		return nil, enginerr.NotImplementedf("take for %s", arr.DataType())
	}
}

func takeValidity(v *bullet.Validity, indices []int) *bullet.Validity {
	if v == nil {
		return nil
	}
	out := bullet.NewValidity(len(indices))
	for i, idx := range indices {
		out.SetValid(i, v.IsValid(idx))
	}
	return out
}

func takePrimitive[T bullet.PrimitiveValue](a *bullet.PrimitiveArray[T], indices []int) (bullet.Array, error) {
	vals := make([]T, len(indices))
	for i, idx := range indices {
		vals[i] = a.Value(idx)
	}
	validity := takeValidity(a.Validity(), indices)
	return bullet.NewPrimitiveArray(a.DataType(), vals, validity), nil
}

func takeVarlen32(a *bullet.VarlenArray[int32], indices []int) (bullet.Array, error) {
	rows := make([][]byte, len(indices))
	for i, idx := range indices {
		rows[i] = a.Value(idx)
	}
	validity := takeValidity(a.Validity(), indices)
	data, offsets := bullet.BuildVarlenOffsets32(rows)
	return bullet.NewVarlenArray(a.DataType(), data, offsets, validity), nil
}

func takeVarlen64(a *bullet.VarlenArray[int64], indices []int) (bullet.Array, error) {
	rows := make([][]byte, len(indices))
	for i, idx := range indices {
		rows[i] = a.Value(idx)
	}
	validity := takeValidity(a.Validity(), indices)
	data, offsets := bullet.BuildVarlenOffsets64(rows)
	return bullet.NewVarlenArray(a.DataType(), data, offsets, validity), nil
}
