package bullet

// VarlenOffset is the integer width backing a variable-length array's offset
// buffer. Utf8/Binary use 32-bit offsets; LargeUtf8/LargeBinary use 64-bit,
// for columns that can individually exceed 2^31 bytes of data.
type VarlenOffset interface {
	~int32 | ~int64
}

// VarlenArray is a variable-length byte column: one flat data buffer, an
// offsets buffer of len(values)+1 marking each row's [start, end) span, and
// a validity mask. Utf8 and Binary share this layout; only the DataType
// distinguishes string-valid bytes from opaque bytes.
type VarlenArray[O VarlenOffset] struct {
	dtype    DataType
	data     []byte
	offsets  []O
	validity *Validity
}

// NewVarlenArray builds a VarlenArray from offsets already laid out as
// len(rows)+1 entries (offsets[0] == 0, offsets[i+1]-offsets[i] is row i's
// length).
func NewVarlenArray[O VarlenOffset](dtype DataType, data []byte, offsets []O, validity *Validity) *VarlenArray[O] {
	return &VarlenArray[O]{dtype: dtype, data: data, offsets: offsets, validity: validity}
}

// VarlenArray32 and VarlenArray64 name the two offset widths the planner and
// scan sources construct directly; Utf8/Binary always use the 32-bit form,
// LargeUtf8/LargeBinary the 64-bit form. List offsets are always int64 (see
// design notes) and do not reuse this type.
type VarlenArray32 = VarlenArray[int32]
type VarlenArray64 = VarlenArray[int64]

func (a *VarlenArray[O]) DataType() DataType  { return a.dtype }
func (a *VarlenArray[O]) Len() int            { return len(a.offsets) - 1 }
func (a *VarlenArray[O]) Validity() *Validity { return a.validity }

// Value returns row i's raw bytes. Callers needing a string do
// string(a.Value(i)); for Utf8 columns the bytes are guaranteed valid UTF-8
// by whatever produced the array.
func (a *VarlenArray[O]) Value(i int) []byte {
	return a.data[a.offsets[i]:a.offsets[i+1]]
}

// BuildVarlenOffsets lays out an offsets buffer and flat data buffer from a
// sequence of row values, the shape every varlen-producing kernel and scan
// source starts from before wrapping the result in a VarlenArray.
func BuildVarlenOffsets32(rows [][]byte) (data []byte, offsets []int32) {
	offsets = make([]int32, len(rows)+1)
	total := 0
	for _, r := range rows {
		total += len(r)
	}
	data = make([]byte, 0, total)
	for i, r := range rows {
		data = append(data, r...)
		offsets[i+1] = int32(len(data))
	}
	return data, offsets
}

func BuildVarlenOffsets64(rows [][]byte) (data []byte, offsets []int64) {
	offsets = make([]int64, len(rows)+1)
	total := 0
	for _, r := range rows {
		total += len(r)
	}
	data = make([]byte, 0, total)
	for i, r := range rows {
		data = append(data, r...)
		offsets[i+1] = int64(len(data))
	}
	return data, offsets
}
