package source

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

// TestFixedStripesCoversEveryUnitOnce is invariant 9's partitioning half:
// every unit of work lands in exactly one partition's stripe, and the union
// of all stripes (in any order) recovers the full original sequence without
// duplicates or gaps.
func TestFixedStripesCoversEveryUnitOnce(t *testing.T) {
	for _, tc := range []struct {
		n, numPartitions int
	}{
		{n: 0, numPartitions: 4},
		{n: 1, numPartitions: 4},
		{n: 7, numPartitions: 3},
		{n: 10, numPartitions: 1},
		{n: 10, numPartitions: 10},
	} {
		stripes := FixedStripes(tc.n, tc.numPartitions)
		if len(stripes) != tc.numPartitions {
			t.Fatalf("n=%d partitions=%d: got %d stripes", tc.n, tc.numPartitions, len(stripes))
		}

		var all []int
		for _, s := range stripes {
			all = append(all, s...)
		}
		sort.Ints(all)

		var want []int
		for i := 0; i < tc.n; i++ {
			want = append(want, i)
		}
		if !reflect.DeepEqual(all, want) {
			t.Fatalf("n=%d partitions=%d: union of stripes = %v, want %v", tc.n, tc.numPartitions, all, want)
		}
	}
}

func batchOf(t *testing.T, vals ...int64) *bullet.Batch {
	t.Helper()
	col := bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), vals, nil)
	b, err := bullet.NewBatch([]bullet.Array{col})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	return b
}

// fakeProducerScan replays a fixed batch sequence once, then reports
// exhausted - a minimal DataTableScan for exercising SingleProducerEmptyTail
// without a real source.
type fakeProducerScan struct {
	batches []*bullet.Batch
	i       int
}

func (f *fakeProducerScan) Pull(ctx context.Context) (*bullet.Batch, error) {
	if f.i >= len(f.batches) {
		return nil, nil
	}
	b := f.batches[f.i]
	f.i++
	return b, nil
}

func drainAll(t *testing.T, s DataTableScan) []*bullet.Batch {
	t.Helper()
	var out []*bullet.Batch
	for {
		b, err := s.Pull(context.Background())
		if err != nil {
			t.Fatalf("Pull: %v", err)
		}
		if b == nil {
			return out
		}
		out = append(out, b)
	}
}

// TestSingleProducerEmptyTail is invariant 9 for the single-producer
// partitioning strategy: the concatenation of all partitions' outputs
// recovers the producer's full batch sequence exactly once, with every
// other partition contributing nothing.
func TestSingleProducerEmptyTail(t *testing.T) {
	b1, b2, b3 := batchOf(t, 1), batchOf(t, 2, 3), batchOf(t, 4, 5, 6)
	producer := &fakeProducerScan{batches: []*bullet.Batch{b1, b2, b3}}

	scans := SingleProducerEmptyTail(4, producer)
	if len(scans) != 4 {
		t.Fatalf("got %d scans, want 4", len(scans))
	}

	var all []*bullet.Batch
	for i, s := range scans {
		got := drainAll(t, s)
		if i == 0 {
			all = append(all, got...)
			continue
		}
		if len(got) != 0 {
			t.Fatalf("non-producer partition %d yielded %d batches, want 0", i, got)
		}
	}

	want := []*bullet.Batch{b1, b2, b3}
	if !reflect.DeepEqual(all, want) {
		t.Fatalf("producer partition output = %v, want %v", all, want)
	}
}
