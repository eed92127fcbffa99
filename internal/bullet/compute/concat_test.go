package compute

import (
	"reflect"
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

func int64Array(values []int64, validity *bullet.Validity) *bullet.PrimitiveArray[int64] {
	return bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), values, validity)
}

func utf8Array(rows []string, validity *bullet.Validity) *bullet.VarlenArray[int32] {
	byteRows := make([][]byte, len(rows))
	for i, r := range rows {
		byteRows[i] = []byte(r)
	}
	data, offsets := bullet.BuildVarlenOffsets32(byteRows)
	return bullet.NewVarlenArray(bullet.Simple(bullet.KindUtf8), data, offsets, validity)
}

func utf8ListArray(rows [][]string) *bullet.ListArray {
	var flat []string
	offsets := make([]int64, len(rows)+1)
	for i, row := range rows {
		flat = append(flat, row...)
		offsets[i+1] = offsets[i] + int64(len(row))
	}
	child := utf8Array(flat, nil)
	return bullet.NewListArray(bullet.Simple(bullet.KindUtf8), child, offsets, nil)
}

func utf8Values(a bullet.Array) []string {
	va := a.(*bullet.VarlenArray[int32])
	out := make([]string, va.Len())
	for i := range out {
		out[i] = string(va.Value(i))
	}
	return out
}

// TestConcatInt64 is the spec's "Int64 concat" scenario: [[1]], [[2,3]],
// [[4,5,6]] -> [1,2,3,4,5,6].
func TestConcatInt64(t *testing.T) {
	a := int64Array([]int64{1}, nil)
	b := int64Array([]int64{2, 3}, nil)
	c := int64Array([]int64{4, 5, 6}, nil)

	got, err := Concat([]bullet.Array{a, b, c})
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	pa := got.(*bullet.PrimitiveArray[int64])
	if !reflect.DeepEqual(pa.Values(), []int64{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("got %v", pa.Values())
	}
	if pa.Len() != 6 {
		t.Fatalf("invariant 1 violated: len(concat) = %d, want 6", pa.Len())
	}

	// Concat of a single array equals that array (invariant 1).
	single, err := Concat([]bullet.Array{b})
	if err != nil {
		t.Fatalf("Concat single: %v", err)
	}
	if !reflect.DeepEqual(single.(*bullet.PrimitiveArray[int64]).Values(), []int64{2, 3}) {
		t.Fatalf("concat of a single array changed its values: %v", single)
	}
}

// TestConcatUtf8 is the spec's "Utf8 concat" scenario: ["a"], ["bb","ccc"],
// ["dddd","eeeee","ffffff"] -> the six strings in order with offsets
// [0,1,3,6,10,15,21].
func TestConcatUtf8(t *testing.T) {
	a := utf8Array([]string{"a"}, nil)
	b := utf8Array([]string{"bb", "ccc"}, nil)
	c := utf8Array([]string{"dddd", "eeeee", "ffffff"}, nil)

	got, err := Concat([]bullet.Array{a, b, c})
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	want := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff"}
	if !reflect.DeepEqual(utf8Values(got), want) {
		t.Fatalf("got %v, want %v", utf8Values(got), want)
	}

	va := got.(*bullet.VarlenArray[int32])
	wantOffsets := []int32{0, 1, 3, 6, 10, 15, 21}
	gotOffsets := make([]int32, va.Len()+1)
	for i := 0; i < va.Len(); i++ {
		gotOffsets[i+1] = gotOffsets[i] + int32(len(va.Value(i)))
	}
	if !reflect.DeepEqual(gotOffsets, wantOffsets) {
		t.Fatalf("offsets = %v, want %v", gotOffsets, wantOffsets)
	}
}

// TestConcatListUniformLengths is the spec's "List concat, uniform lengths"
// scenario.
func TestConcatListUniformLengths(t *testing.T) {
	a := utf8ListArray([][]string{{"a", "b", "c"}})
	b := utf8ListArray([][]string{{"d", "e", "f"}})
	c := utf8ListArray([][]string{{"g", "h", "i"}})

	got, err := Concat([]bullet.Array{a, b, c})
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	la := got.(*bullet.ListArray)

	wantChild := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	if !reflect.DeepEqual(utf8Values(la.Child()), wantChild) {
		t.Fatalf("child = %v, want %v", utf8Values(la.Child()), wantChild)
	}
	assertListOffsets(t, la, []int64{0, 3, 6, 9})
}

// TestConcatListVaryingLengths is the spec's "List concat, varying lengths"
// scenario.
func TestConcatListVaryingLengths(t *testing.T) {
	a := utf8ListArray([][]string{{"a", "c"}})
	b := utf8ListArray([][]string{{"f"}})
	c := utf8ListArray([][]string{{"g", "h", "i"}})

	got, err := Concat([]bullet.Array{a, b, c})
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	la := got.(*bullet.ListArray)

	wantChild := []string{"a", "c", "f", "g", "h", "i"}
	if !reflect.DeepEqual(utf8Values(la.Child()), wantChild) {
		t.Fatalf("child = %v, want %v", utf8Values(la.Child()), wantChild)
	}
	assertListOffsets(t, la, []int64{0, 2, 3, 6})
}

func assertListOffsets(t *testing.T, la *bullet.ListArray, want []int64) {
	t.Helper()
	if la.Len() != len(want)-1 {
		t.Fatalf("list len = %d, want %d", la.Len(), len(want)-1)
	}
	got := make([]int64, la.Len()+1)
	got[0] = 0
	for i := 0; i < la.Len(); i++ {
		_, end := la.Span(i)
		got[i+1] = end
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("offsets = %v, want %v", got, want)
	}
	// Invariant 3: offsets are monotonic non-decreasing, start at 0, end at
	// total child length.
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("offsets not monotonic at %d: %v", i, got)
		}
	}
	if got[0] != 0 {
		t.Fatalf("offsets must start at 0, got %d", got[0])
	}
}

// TestConcatAssociativity is invariant 2: concat(A, concat(B, C)) ==
// concat(concat(A, B), C) == concat(A, B, C).
func TestConcatAssociativity(t *testing.T) {
	a := int64Array([]int64{1, 2}, nil)
	b := int64Array([]int64{3}, nil)
	c := int64Array([]int64{4, 5, 6}, nil)

	abc, err := Concat([]bullet.Array{a, b, c})
	if err != nil {
		t.Fatalf("concat(a,b,c): %v", err)
	}

	bc, err := Concat([]bullet.Array{b, c})
	if err != nil {
		t.Fatalf("concat(b,c): %v", err)
	}
	aBC, err := Concat([]bullet.Array{a, bc})
	if err != nil {
		t.Fatalf("concat(a, concat(b,c)): %v", err)
	}

	ab, err := Concat([]bullet.Array{a, b})
	if err != nil {
		t.Fatalf("concat(a,b): %v", err)
	}
	abC, err := Concat([]bullet.Array{ab, c})
	if err != nil {
		t.Fatalf("concat(concat(a,b), c): %v", err)
	}

	want := abc.(*bullet.PrimitiveArray[int64]).Values()
	if !reflect.DeepEqual(aBC.(*bullet.PrimitiveArray[int64]).Values(), want) {
		t.Fatalf("concat(a, concat(b,c)) = %v, want %v", aBC.(*bullet.PrimitiveArray[int64]).Values(), want)
	}
	if !reflect.DeepEqual(abC.(*bullet.PrimitiveArray[int64]).Values(), want) {
		t.Fatalf("concat(concat(a,b), c) = %v, want %v", abC.(*bullet.PrimitiveArray[int64]).Values(), want)
	}
}

// TestConcatValidityRules is invariant 4: absent validity everywhere stays
// absent; a present mask survives at its offset; an absent mask among
// present ones becomes all-valid at its own length.
func TestConcatValidityRules(t *testing.T) {
	t.Run("all absent stays absent", func(t *testing.T) {
		a := int64Array([]int64{1, 2}, nil)
		b := int64Array([]int64{3}, nil)
		got, err := Concat([]bullet.Array{a, b})
		if err != nil {
			t.Fatalf("Concat: %v", err)
		}
		if got.Validity() != nil {
			t.Fatalf("expected absent validity, got %v", got.Validity())
		}
	})

	t.Run("mixed present and absent", func(t *testing.T) {
		aValidity := bullet.NewValidityFromBools([]bool{true, false})
		a := int64Array([]int64{1, 2}, aValidity)
		b := int64Array([]int64{3, 4}, nil) // absent -> all-valid

		got, err := Concat([]bullet.Array{a, b})
		if err != nil {
			t.Fatalf("Concat: %v", err)
		}
		v := got.Validity()
		if v == nil {
			t.Fatalf("expected present validity")
		}
		want := []bool{true, false, true, true}
		for i, w := range want {
			if v.IsValid(i) != w {
				t.Fatalf("validity[%d] = %v, want %v", i, v.IsValid(i), w)
			}
		}
	})
}

// TestConcatBatchesEmpty is the spec's "Empty concat batches" scenario.
func TestConcatBatchesEmpty(t *testing.T) {
	got, err := ConcatBatches(nil)
	if err != nil {
		t.Fatalf("ConcatBatches(nil): %v", err)
	}
	if got.NumColumns() != 0 || got.NumRows() != 0 {
		t.Fatalf("expected empty batch, got %d cols / %d rows", got.NumColumns(), got.NumRows())
	}

	zeroA := bullet.NewEmptyBatch(0)
	zeroB := bullet.NewEmptyBatch(0)
	got, err = ConcatBatches([]*bullet.Batch{zeroA, zeroB})
	if err != nil {
		t.Fatalf("ConcatBatches(zero-col batches): %v", err)
	}
	if got.NumColumns() != 0 {
		t.Fatalf("expected 0 columns, got %d", got.NumColumns())
	}
}
