package compute

import (
	"math"
	"unicode/utf8"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
)

// Ascii returns the Unicode code point of each row's first character, 0
// for an empty string, built on UnaryExecute over a Utf8 VarlenArray[int32]
// selector - the exemplar varlen-to-primitive unary kernel named in
// spec.md §4.1.
func Ascii(arr bullet.Array) (bullet.Array, error) {
	sel, ok := arr.(*bullet.VarlenArray[int32])
	if !ok {
		return nil, enginerr.TypeMismatchf("ascii requires a utf8 operand, got %s", arr.DataType())
	}
	values, validity := UnaryExecute[[]byte, int32](sel, func(b []byte) int32 {
		if len(b) == 0 {
			return 0
		}
		r, _ := utf8.DecodeRune(b)
		return int32(r)
	})
	return bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt32), values, validity), nil
}

// Acos is the elementwise arc-cosine kernel, the exemplar primitive-to-
// primitive unary kernel over a PrimitiveArray[float64] selector.
func Acos(arr bullet.Array) (bullet.Array, error) {
	sel, ok := arr.(*bullet.PrimitiveArray[float64])
	if !ok {
		return nil, enginerr.TypeMismatchf("acos requires a float64 operand, got %s", arr.DataType())
	}
	values, validity := UnaryExecute[float64, float64](sel, math.Acos)
	return bullet.NewPrimitiveArray(bullet.Simple(bullet.KindFloat64), values, validity), nil
}

// Atan is the elementwise arc-tangent kernel, same shape as Acos.
func Atan(arr bullet.Array) (bullet.Array, error) {
	sel, ok := arr.(*bullet.PrimitiveArray[float64])
	if !ok {
		return nil, enginerr.TypeMismatchf("atan requires a float64 operand, got %s", arr.DataType())
	}
	values, validity := UnaryExecute[float64, float64](sel, math.Atan)
	return bullet.NewPrimitiveArray(bullet.Simple(bullet.KindFloat64), values, validity), nil
}
