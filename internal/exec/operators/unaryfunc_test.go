package operators

import (
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

func utf8Batch(t *testing.T, rows []string) *bullet.Batch {
	t.Helper()
	byteRows := make([][]byte, len(rows))
	for i, r := range rows {
		byteRows[i] = []byte(r)
	}
	data, offsets := bullet.BuildVarlenOffsets32(byteRows)
	arr := bullet.NewVarlenArray(bullet.Simple(bullet.KindUtf8), data, offsets, nil)
	b, err := bullet.NewBatch([]bullet.Array{arr})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	return b
}

func TestUnaryFuncAscii(t *testing.T) {
	batch := utf8Batch(t, []string{"a", "bb", ""})
	fn := &UnaryFunc{Name: "ascii", Arg: &ColumnRef{Index: 0, Type: bullet.Simple(bullet.KindUtf8)}}

	if fn.ResultType().Kind != bullet.KindInt32 {
		t.Fatalf("ResultType = %s, want Int32", fn.ResultType())
	}

	out, err := fn.Eval(batch)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	pa := out.(*bullet.PrimitiveArray[int32])
	want := []int32{97, 98, 0}
	for i, w := range want {
		if pa.Value(i) != w {
			t.Fatalf("row %d = %d, want %d", i, pa.Value(i), w)
		}
	}
}

func TestUnaryFuncUnknown(t *testing.T) {
	batch := utf8Batch(t, []string{"a"})
	fn := &UnaryFunc{Name: "not_a_function", Arg: &ColumnRef{Index: 0, Type: bullet.Simple(bullet.KindUtf8)}}
	if _, err := fn.Eval(batch); err == nil {
		t.Fatalf("expected error for unknown function")
	}
}
