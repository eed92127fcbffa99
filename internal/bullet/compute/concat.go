// Package compute holds the pure, allocation-producing functions over
// bullet arrays and batches: concat, filter/take, and a handful of scalar
// kernels. Every kernel here is a plain function from inputs to a new
// Array/Batch - no operator state, no polling, so they compose directly
// into the physical operators in internal/exec.
package compute

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
)

// ConcatBatches concatenates batches column-wise into one batch. All
// batches must share the same column count and per-column types.
func ConcatBatches(batches []*bullet.Batch) (*bullet.Batch, error) {
	if len(batches) == 0 {
		return bullet.NewEmptyBatch(0), nil
	}

	numCols := batches[0].NumColumns()
	cols := make([]bullet.Array, numCols)

	for colIdx := 0; colIdx < numCols; colIdx++ {
		parts := make([]bullet.Array, len(batches))
		for i, b := range batches {
			if b.NumColumns() != numCols {
				return nil, enginerr.SchemaMismatchf("batch %d has %d columns, batch 0 has %d", i, b.NumColumns(), numCols)
			}
			parts[i] = b.Column(colIdx)
		}
		concatted, err := Concat(parts)
		if err != nil {
			return nil, err
		}
		cols[colIdx] = concatted
	}

	batch, err := bullet.NewBatch(cols)
	if err != nil {
		return nil, enginerr.Wrap(err, "concat batches")
	}
	return batch, nil
}

// Concat concatenates multiple arrays of the same type into one array.
func Concat(arrays []bullet.Array) (bullet.Array, error) {
	if len(arrays) == 0 {
		return nil, enginerr.InvalidArgumentf("cannot concat zero arrays")
	}

	dtype := arrays[0].DataType()
	for i, a := range arrays {
		if !a.DataType().Equal(dtype) {
			return nil, enginerr.TypeMismatchf("concat array %d has type %s, array 0 has type %s", i, a.DataType(), dtype)
		}
	}

	switch dtype.Kind {
	case bullet.KindNull:
		total := 0
		for _, a := range arrays {
			total += a.Len()
		}
		return bullet.NewNullArray(total), nil

	case bullet.KindBoolean:
		return concatBoolean(arrays)

	case bullet.KindInt8:
		return concatPrimitiveCast[int8](arrays, dtype)
	case bullet.KindInt16:
		return concatPrimitiveCast[int16](arrays, dtype)
	case bullet.KindInt32, bullet.KindDate32:
		return concatPrimitiveCast[int32](arrays, dtype)
	case bullet.KindInt64, bullet.KindDate64:
		return concatPrimitiveCast[int64](arrays, dtype)
	case bullet.KindUInt8:
		return concatPrimitiveCast[uint8](arrays, dtype)
	case bullet.KindUInt16:
		return concatPrimitiveCast[uint16](arrays, dtype)
	case bullet.KindUInt32:
		return concatPrimitiveCast[uint32](arrays, dtype)
	case bullet.KindUInt64:
		return concatPrimitiveCast[uint64](arrays, dtype)
	case bullet.KindFloat32:
		return concatPrimitiveCast[float32](arrays, dtype)
	case bullet.KindFloat64:
		return concatPrimitiveCast[float64](arrays, dtype)

	case bullet.KindDecimal64:
		arr, err := concatPrimitiveCast[int64](arrays, dtype)
		if err != nil {
			return nil, err
		}
		return &bullet.Decimal64Array{PrimitiveArray: arr}, nil

	case bullet.KindTimestamp:
		arr, err := concatPrimitiveCast[int64](arrays, dtype)
		if err != nil {
			return nil, err
		}
		return &bullet.TimestampArray{PrimitiveArray: arr}, nil

	case bullet.KindUtf8, bullet.KindBinary:
		return concatVarlen32(arrays, dtype)
	case bullet.KindLargeUtf8, bullet.KindLargeBinary:
		return concatVarlen64(arrays, dtype)

	case bullet.KindList:
		return concatList(arrays, dtype)

	case bullet.KindStruct:
		return nil, enginerr.NotImplementedf("struct concat")

	case bullet.KindDecimal128:
		return concatDecimal128(arrays, dtype)

	case bullet.KindInt128, bullet.KindUInt128:
		return nil, enginerr.NotImplementedf("concat for %s", dtype)

	default:
		return nil, enginerr.NotImplementedf("concat for %s", dtype)
	}
}

func validityBlocks(arrays []bullet.Array) []bullet.ValidityBlock {
	blocks := make([]bullet.ValidityBlock, len(arrays))
	for i, a := range arrays {
		blocks[i] = bullet.ValidityBlock{Length: a.Len(), Validity: a.Validity()}
	}
	return blocks
}

func concatBoolean(arrays []bullet.Array) (bullet.Array, error) {
	validity := bullet.ConcatValidities(validityBlocks(arrays))
	var values []bool
	for _, a := range arrays {
		ba, ok := a.(*bullet.BooleanArray)
		if !ok {
			return nil, enginerr.TypeMismatchf("expected BooleanArray, got %T", a)
		}
		for i := 0; i < ba.Len(); i++ {
			values = append(values, ba.Value(i))
		}
	}
	return bullet.NewBooleanArray(values, validity), nil
}

// primitiveArrayLike is satisfied by *bullet.PrimitiveArray[T] and lets
// concatPrimitiveCast stay generic over the backing Go type while the
// caller supplies the logical DataType (Int32 vs Date32, etc. share a Go
// type but are different columns).
func concatPrimitiveCast[T bullet.PrimitiveValue](arrays []bullet.Array, dtype bullet.DataType) (*bullet.PrimitiveArray[T], error) {
	validity := bullet.ConcatValidities(validityBlocks(arrays))
	var values []T
	for _, a := range arrays {
		pa, ok := a.(*bullet.PrimitiveArray[T])
		if !ok {
			return nil, enginerr.TypeMismatchf("expected PrimitiveArray, got %T", a)
		}
		values = append(values, pa.Values()...)
	}
	return bullet.NewPrimitiveArray(dtype, values, validity), nil
}

func concatDecimal128(arrays []bullet.Array, dtype bullet.DataType) (bullet.Array, error) {
	validity := bullet.ConcatValidities(validityBlocks(arrays))
	var values []bullet.Int128
	for _, a := range arrays {
		da, ok := a.(*bullet.Decimal128Array)
		if !ok {
			return nil, enginerr.TypeMismatchf("expected Decimal128Array, got %T", a)
		}
		for i := 0; i < da.Len(); i++ {
			values = append(values, da.Value(i))
		}
	}
	return bullet.NewDecimal128Array(dtype.Decimal.Precision, dtype.Decimal.Scale, values, validity), nil
}

func concatVarlen32(arrays []bullet.Array, dtype bullet.DataType) (bullet.Array, error) {
	validity := bullet.ConcatValidities(validityBlocks(arrays))
	var rows [][]byte
	for _, a := range arrays {
		va, ok := a.(*bullet.VarlenArray32)
		if !ok {
			return nil, enginerr.TypeMismatchf("expected VarlenArray32, got %T", a)
		}
		for i := 0; i < va.Len(); i++ {
			rows = append(rows, va.Value(i))
		}
	}
	data, offsets := bullet.BuildVarlenOffsets32(rows)
	return bullet.NewVarlenArray(dtype, data, offsets, validity), nil
}

func concatVarlen64(arrays []bullet.Array, dtype bullet.DataType) (bullet.Array, error) {
	validity := bullet.ConcatValidities(validityBlocks(arrays))
	var rows [][]byte
	for _, a := range arrays {
		va, ok := a.(*bullet.VarlenArray64)
		if !ok {
			return nil, enginerr.TypeMismatchf("expected VarlenArray64, got %T", a)
		}
		for i := 0; i < va.Len(); i++ {
			rows = append(rows, va.Value(i))
		}
	}
	data, offsets := bullet.BuildVarlenOffsets64(rows)
	return bullet.NewVarlenArray(dtype, data, offsets, validity), nil
}

// concatList concatenates list arrays by recursively concatenating their
// child arrays, then rewriting offsets so each source array's span is
// shifted by the running total of elements already emitted - mirroring the
// offset-stitching the reference implementation does (always skip the
// first offset, which is every array's redundant leading 0).
func concatList(arrays []bullet.Array, dtype bullet.DataType) (bullet.Array, error) {
	validity := bullet.ConcatValidities(validityBlocks(arrays))

	children := make([]bullet.Array, len(arrays))
	for i, a := range arrays {
		la, ok := a.(*bullet.ListArray)
		if !ok {
			return nil, enginerr.TypeMismatchf("expected ListArray, got %T", a)
		}
		children[i] = la.Child()
	}
	concattedChild, err := Concat(children)
	if err != nil {
		return nil, err
	}

	newOffsets := []int64{0}
	base := int64(0)
	for _, a := range arrays {
		la := a.(*bullet.ListArray)
		if la.Len() == 0 {
			continue
		}
		first, _ := la.Span(0)
		for i := 0; i < la.Len(); i++ {
			_, end := la.Span(i)
			newOffsets = append(newOffsets, end-first+base)
		}
		_, last := la.Span(la.Len() - 1)
		base += last - first
	}

	childType := *dtype.Child
	return bullet.NewListArray(childType, concattedChild, newOffsets, validity), nil
}
