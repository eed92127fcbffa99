package bullet

// Validity is a packed-bit presence mask, one bit per row. A missing
// Validity (a nil *Validity held by an array) means "all valid" - that is
// the only representation-independent contract the spec names, and a
// packed-bit buffer is the typical choice for it.
type Validity struct {
	bits []byte
	n    int
}

// NewValidity builds a Validity of length n with every bit set to valid.
func NewValidity(n int) *Validity {
	v := &Validity{bits: make([]byte, (n+7)/8), n: n}
	for i := range v.bits {
		v.bits[i] = 0xFF
	}
	v.clearTrailingBits()
	return v
}

// NewValidityFromBools builds a Validity from an explicit bool slice.
func NewValidityFromBools(valid []bool) *Validity {
	v := &Validity{bits: make([]byte, (len(valid)+7)/8), n: len(valid)}
	for i, ok := range valid {
		if ok {
			v.bits[i/8] |= 1 << uint(i%8)
		}
	}
	return v
}

func (v *Validity) clearTrailingBits() {
	if v.n%8 == 0 {
		return
	}
	last := len(v.bits) - 1
	validBitsInLast := uint(v.n % 8)
	v.bits[last] &= (1 << validBitsInLast) - 1
}

// Len returns the number of rows this mask covers.
func (v *Validity) Len() int { return v.n }

// IsValid reports whether row i is present. A nil Validity is "all valid".
func (v *Validity) IsValid(i int) bool {
	if v == nil {
		return true
	}
	return v.bits[i/8]&(1<<uint(i%8)) != 0
}

// SetValid explicitly marks row i valid or invalid.
func (v *Validity) SetValid(i int, valid bool) {
	if valid {
		v.bits[i/8] |= 1 << uint(i%8)
	} else {
		v.bits[i/8] &^= 1 << uint(i%8)
	}
}

// CountValid returns the number of valid rows. O(n); used by tests and
// diagnostics, not on any hot kernel path.
func (v *Validity) CountValid() int {
	if v == nil {
		return 0
	}
	n := 0
	for i := 0; i < v.n; i++ {
		if v.IsValid(i) {
			n++
		}
	}
	return n
}

// ValidityBlock pairs a block's length with its (possibly absent) Validity,
// the unit ConcatValidities operates over.
type ValidityBlock struct {
	Length   int
	Validity *Validity
}

// ConcatValidities implements §4.1's validity concat rule: if every input's
// validity is absent, the result's validity is absent too; otherwise each
// block contributes its own mask, or an all-valid mask of its length if it
// had none.
func ConcatValidities(blocks []ValidityBlock) *Validity {
	anyPresent := false
	for _, b := range blocks {
		if b.Validity != nil {
			anyPresent = true
			break
		}
	}
	if !anyPresent {
		return nil
	}

	total := 0
	for _, b := range blocks {
		total += b.Length
	}
	out := NewValidity(total)
	pos := 0
	for _, b := range blocks {
		for i := 0; i < b.Length; i++ {
			out.SetValid(pos+i, b.Validity.IsValid(i))
		}
		pos += b.Length
	}
	return out
}
