package compute

import (
	"math"
	"reflect"
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

// TestAsciiKernel is the spec's "Ascii kernel" scenario: ["a","bb",""] ->
// [97, 98, 0], validity preserved.
func TestAsciiKernel(t *testing.T) {
	in := utf8Array([]string{"a", "bb", ""}, nil)

	got, err := Ascii(in)
	if err != nil {
		t.Fatalf("Ascii: %v", err)
	}
	pa, ok := got.(*bullet.PrimitiveArray[int32])
	if !ok {
		t.Fatalf("Ascii returned %T, want *PrimitiveArray[int32]", got)
	}
	want := []int32{97, 98, 0}
	if !reflect.DeepEqual(pa.Values(), want) {
		t.Fatalf("values = %v, want %v", pa.Values(), want)
	}
	// Invariant 5: len(out) == len(in); every row is valid here since the
	// input had no validity mask.
	if pa.Len() != in.Len() {
		t.Fatalf("len(out) = %d, want %d", pa.Len(), in.Len())
	}
	for i := 0; i < pa.Len(); i++ {
		if !pa.Validity().IsValid(i) {
			t.Fatalf("row %d unexpectedly invalid", i)
		}
	}
}

// TestAsciiPreservesValidity covers invariant 5's validity-propagation half:
// a null input row stays null in the output, regardless of its (unevaluated)
// byte content.
func TestAsciiPreservesValidity(t *testing.T) {
	validity := bullet.NewValidityFromBools([]bool{true, false, true})
	in := utf8Array([]string{"x", "y", "z"}, validity)

	got, err := Ascii(in)
	if err != nil {
		t.Fatalf("Ascii: %v", err)
	}
	pa := got.(*bullet.PrimitiveArray[int32])
	if pa.Len() != 3 {
		t.Fatalf("len(out) = %d, want 3", pa.Len())
	}
	wantValid := []bool{true, false, true}
	for i, w := range wantValid {
		if pa.Validity().IsValid(i) != w {
			t.Fatalf("row %d valid = %v, want %v", i, pa.Validity().IsValid(i), w)
		}
	}
}

// TestAsciiMultibyteRune confirms Ascii decodes the first Unicode code
// point, not the first raw byte, for multi-byte UTF-8 input.
func TestAsciiMultibyteRune(t *testing.T) {
	in := utf8Array([]string{"école"}, nil) // é = U+00E9, 2 UTF-8 bytes
	got, err := Ascii(in)
	if err != nil {
		t.Fatalf("Ascii: %v", err)
	}
	pa := got.(*bullet.PrimitiveArray[int32])
	if pa.Value(0) != 0xe9 {
		t.Fatalf("Ascii(%q) = %d, want %d", "école", pa.Value(0), 0xe9)
	}
}

func float64Array(values []float64, validity *bullet.Validity) *bullet.PrimitiveArray[float64] {
	return bullet.NewPrimitiveArray(bullet.Simple(bullet.KindFloat64), values, validity)
}

func TestAcos(t *testing.T) {
	in := float64Array([]float64{1, 0, -1}, nil)
	got, err := Acos(in)
	if err != nil {
		t.Fatalf("Acos: %v", err)
	}
	pa := got.(*bullet.PrimitiveArray[float64])
	want := []float64{math.Acos(1), math.Acos(0), math.Acos(-1)}
	if !reflect.DeepEqual(pa.Values(), want) {
		t.Fatalf("values = %v, want %v", pa.Values(), want)
	}
}

func TestAtan(t *testing.T) {
	in := float64Array([]float64{0, 1}, nil)
	got, err := Atan(in)
	if err != nil {
		t.Fatalf("Atan: %v", err)
	}
	pa := got.(*bullet.PrimitiveArray[float64])
	want := []float64{math.Atan(0), math.Atan(1)}
	if !reflect.DeepEqual(pa.Values(), want) {
		t.Fatalf("values = %v, want %v", pa.Values(), want)
	}
}

func TestAsciiWrongType(t *testing.T) {
	in := float64Array([]float64{1}, nil)
	if _, err := Ascii(in); err == nil {
		t.Fatalf("expected type mismatch error for float64 operand")
	}
}
