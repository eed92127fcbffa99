package compute

import "github.com/bulletdb/bulletdb/internal/bullet"

// Selector is the typed physical-storage view a unary/binary executor reads
// from (spec §4.1's "typed physical-storage selector S"): any array variant
// exposing Len, Value(i), and Validity satisfies it without an adapter, so
// callers pass a *bullet.PrimitiveArray[T] or *bullet.VarlenArray[O]
// directly.
type Selector[T any] interface {
	Len() int
	Value(i int) T
	Validity() *bullet.Validity
}

// UnaryExecute walks sel once, writing fn(sel.Value(i)) into a preallocated
// output buffer of length sel.Len() for every valid row; output row i is
// valid iff input row i is valid. The caller wraps the returned
// (values, validity) pair in whichever Array constructor matches the
// kernel's result type.
func UnaryExecute[IN any, OUT any](sel Selector[IN], fn func(IN) OUT) ([]OUT, *bullet.Validity) {
	n := sel.Len()
	out := make([]OUT, n)
	valid := make([]bool, n)
	validity := sel.Validity()
	for i := 0; i < n; i++ {
		ok := validity == nil || validity.IsValid(i)
		valid[i] = ok
		if ok {
			out[i] = fn(sel.Value(i))
		}
	}
	return out, bullet.NewValidityFromBools(valid)
}

// BinaryExecute walks left and right in lockstep - both must report the
// same Len() - writing fn(left.Value(i), right.Value(i)) for every row
// where both operands are valid; output row i is valid iff both input
// rows i are valid. This is the one piece of validity-propagation logic
// every binary operator shares instead of re-deriving it at each call
// site.
func BinaryExecute[L, R, OUT any](left Selector[L], right Selector[R], fn func(L, R) OUT) ([]OUT, *bullet.Validity) {
	n := left.Len()
	out := make([]OUT, n)
	valid := make([]bool, n)
	lv, rv := left.Validity(), right.Validity()
	for i := 0; i < n; i++ {
		ok := (lv == nil || lv.IsValid(i)) && (rv == nil || rv.IsValid(i))
		valid[i] = ok
		if ok {
			out[i] = fn(left.Value(i), right.Value(i))
		}
	}
	return out, bullet.NewValidityFromBools(valid)
}
