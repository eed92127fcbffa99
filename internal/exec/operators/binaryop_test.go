package operators

import (
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

func i64Batch(t *testing.T, cols ...[]int64) *bullet.Batch {
	t.Helper()
	arrays := make([]bullet.Array, len(cols))
	for i, c := range cols {
		arrays[i] = bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), c, nil)
	}
	b, err := bullet.NewBatch(arrays)
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	return b
}

func colRef(idx int) *ColumnRef {
	return &ColumnRef{Index: idx, Type: bullet.Simple(bullet.KindInt64)}
}

func boolValues(t *testing.T, a bullet.Array) []bool {
	t.Helper()
	ba, ok := a.(*bullet.BooleanArray)
	if !ok {
		t.Fatalf("expected BooleanArray, got %T", a)
	}
	out := make([]bool, ba.Len())
	for i := range out {
		out[i] = ba.Value(i)
	}
	return out
}

func TestBinaryOpComparison(t *testing.T) {
	batch := i64Batch(t, []int64{1, 2, 3}, []int64{3, 2, 1})
	op := &BinaryOp{Op: "<", Left: colRef(0), Right: colRef(1)}

	out, err := op.Eval(batch)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []bool{true, false, false}
	got := boolValues(t, out)
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("row %d = %v, want %v", i, got[i], w)
		}
	}
}

func TestBinaryOpArithmetic(t *testing.T) {
	batch := i64Batch(t, []int64{10, 20}, []int64{3, 4})
	op := &BinaryOp{Op: "+", Left: colRef(0), Right: colRef(1)}

	out, err := op.Eval(batch)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	pa := out.(*bullet.PrimitiveArray[int64])
	want := []int64{13, 24}
	for i, w := range want {
		if pa.Value(i) != w {
			t.Fatalf("row %d = %d, want %d", i, pa.Value(i), w)
		}
	}
}

// TestBinaryOpValidityPropagation confirms a row is null in the result
// whenever either operand is null at that row - the validity-AND rule
// compute.BinaryExecute centralizes.
func TestBinaryOpValidityPropagation(t *testing.T) {
	lv := bullet.NewValidityFromBools([]bool{true, false})
	left := bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{1, 2}, lv)
	right := bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{10, 20}, nil)
	batch, err := bullet.NewBatch([]bullet.Array{left, right})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}

	op := &BinaryOp{Op: "+", Left: colRef(0), Right: colRef(1)}
	out, err := op.Eval(batch)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Validity().IsValid(1) {
		t.Fatalf("row 1 should be invalid: left operand is null there")
	}
	if !out.Validity().IsValid(0) {
		t.Fatalf("row 0 should be valid: both operands are valid there")
	}
}

func TestBinaryOpUnsupportedOperator(t *testing.T) {
	batch := i64Batch(t, []int64{1}, []int64{2})
	op := &BinaryOp{Op: "%", Left: colRef(0), Right: colRef(1)}
	if _, err := op.Eval(batch); err == nil {
		t.Fatalf("expected error for unsupported operator %%")
	}
}
