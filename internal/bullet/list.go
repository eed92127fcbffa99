package bullet

// ListArray is a nested column: a child Array holding every element across
// all rows, an int64 offsets buffer of len(rows)+1 marking each row's
// [start, end) span into the child, and this array's own validity mask
// (independent of the child's - a valid, empty list is not the same as a
// null list).
//
// Offsets are always int64 here regardless of the child's own offset width;
// see the design notes on why this library does not expose a 32-bit list
// offset variant.
type ListArray struct {
	dtype    DataType
	child    Array
	offsets  []int64
	validity *Validity
}

func NewListArray(child DataType, elements Array, offsets []int64, validity *Validity) *ListArray {
	return &ListArray{dtype: List(child), child: elements, offsets: offsets, validity: validity}
}

func (a *ListArray) DataType() DataType  { return a.dtype }
func (a *ListArray) Len() int            { return len(a.offsets) - 1 }
func (a *ListArray) Validity() *Validity { return a.validity }
func (a *ListArray) Child() Array        { return a.child }

// Span returns row i's [start, end) range into Child().
func (a *ListArray) Span(i int) (start, end int64) {
	return a.offsets[i], a.offsets[i+1]
}

// StructArray is a nested column of fixed named fields: each field is a
// full-length child Array aligned row-for-row with this array's own
// validity mask (a null struct row does not imply its fields are null).
type StructArray struct {
	dtype    DataType
	fields   []Array
	n        int
	validity *Validity
}

func NewStructArray(fields []StructField, values []Array, n int, validity *Validity) *StructArray {
	return &StructArray{dtype: Struct(fields), fields: values, n: n, validity: validity}
}

func (a *StructArray) DataType() DataType  { return a.dtype }
func (a *StructArray) Len() int            { return a.n }
func (a *StructArray) Validity() *Validity { return a.validity }
func (a *StructArray) Field(i int) Array   { return a.fields[i] }
