package bullet

// PrimitiveValue is the set of Go types backing a PrimitiveArray.
type PrimitiveValue interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// PrimitiveArray is a fixed-width column: a flat Go slice of values plus a
// validity mask, and the DataType it was constructed with (so Int32 and
// Date32, both backed by int32, stay distinct columns).
type PrimitiveArray[T PrimitiveValue] struct {
	dtype    DataType
	values   []T
	validity *Validity
}

// NewPrimitiveArray builds a PrimitiveArray of the given logical dtype over
// values, with validity nil meaning "all valid".
func NewPrimitiveArray[T PrimitiveValue](dtype DataType, values []T, validity *Validity) *PrimitiveArray[T] {
	return &PrimitiveArray[T]{dtype: dtype, values: values, validity: validity}
}

func (a *PrimitiveArray[T]) DataType() DataType  { return a.dtype }
func (a *PrimitiveArray[T]) Len() int            { return len(a.values) }
func (a *PrimitiveArray[T]) Validity() *Validity { return a.validity }
func (a *PrimitiveArray[T]) Value(i int) T       { return a.values[i] }
func (a *PrimitiveArray[T]) Values() []T         { return a.values }

// Int128 and UInt128 have no native Go word type; represent them as two
// 64-bit halves, matching the widest integer width the type system names
// without pulling in a bignum dependency for a column kind no kernel in
// this build materializes arithmetic over.
type Int128 struct {
	Hi int64
	Lo uint64
}

type UInt128 struct {
	Hi uint64
	Lo uint64
}

// Decimal64Array and Decimal128Array store the unscaled integer
// representation; Precision/Scale live on the DataType, not per value.
type Decimal64Array struct {
	*PrimitiveArray[int64]
}

func NewDecimal64Array(precision, scale uint8, values []int64, validity *Validity) *Decimal64Array {
	return &Decimal64Array{NewPrimitiveArray(Decimal(KindDecimal64, precision, scale), values, validity)}
}

type Decimal128Array struct {
	dtype    DataType
	values   []Int128
	validity *Validity
}

func NewDecimal128Array(precision, scale uint8, values []Int128, validity *Validity) *Decimal128Array {
	return &Decimal128Array{dtype: Decimal(KindDecimal128, precision, scale), values: values, validity: validity}
}

func (a *Decimal128Array) DataType() DataType  { return a.dtype }
func (a *Decimal128Array) Len() int            { return len(a.values) }
func (a *Decimal128Array) Validity() *Validity { return a.validity }
func (a *Decimal128Array) Value(i int) Int128  { return a.values[i] }

// TimestampArray stores epoch ticks at its Unit's resolution as int64.
type TimestampArray struct {
	*PrimitiveArray[int64]
}

func NewTimestampArray(unit TimeUnit, values []int64, validity *Validity) *TimestampArray {
	return &TimestampArray{NewPrimitiveArray(Timestamp(unit), values, validity)}
}
