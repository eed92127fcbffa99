package operators

import (
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/pollctx"
)

func TestFilterKeepsOnlyMatchingRows(t *testing.T) {
	batch := i64Batch(t, []int64{1, 2, 3, 4})
	// Keep rows where the column is > 2.
	pred := &BinaryOp{
		Op:   ">",
		Left: colRef(0),
		Right: &Literal{Value: bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{2}, nil)},
	}
	f := NewFilter(pred)
	cx := pollctx.Noop()

	if res, err := f.PollPush(cx, batch); err != nil || res != exec.Pushed {
		t.Fatalf("PollPush: got (%v, err=%v), want Pushed", res, err)
	}
	res, out, err := f.PollPull(cx)
	if err != nil || res != exec.PullBatch {
		t.Fatalf("PollPull: got (%v, err=%v), want PullBatch", res, err)
	}
	pa := out.Column(0).(*bullet.PrimitiveArray[int64])
	want := []int64{3, 4}
	if pa.Len() != len(want) {
		t.Fatalf("len = %d, want %d", pa.Len(), len(want))
	}
	for i, w := range want {
		if pa.Value(i) != w {
			t.Fatalf("row %d = %d, want %d", i, pa.Value(i), w)
		}
	}
}
