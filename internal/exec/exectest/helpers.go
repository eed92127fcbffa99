// Package exectest gives operator tests a way to drive the poll contract
// to completion without a Driver: a noop Waker for tests that don't care
// about Pending, and assertion helpers that fail loudly on anything but
// the expected terminal state.
package exectest

import (
	"io"
	"testing"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/pollctx"
	"github.com/bulletdb/bulletdb/pkg/prng"
)

// NoopContext returns a Context whose Waker does nothing, for tests that
// drive an operator with no genuinely pending input.
func NoopContext() *pollctx.Context {
	return pollctx.Noop()
}

// UnwrapPullBatch asserts poll returned PullBatch and returns its batch.
func UnwrapPullBatch(t *testing.T, result exec.PullResult, batch *bullet.Batch, err error) *bullet.Batch {
	t.Helper()
	if err != nil {
		t.Fatalf("expected a batch, got error: %v", err)
	}
	if result != exec.PullBatch {
		t.Fatalf("expected PullBatch, got %v", result)
	}
	return batch
}

// DrainAll pulls an operator until exhaustion, collecting every batch.
// Fails the test if a Pending result is ever observed - use this only for
// operators under test with all input already pushed.
func DrainAll(t *testing.T, op exec.Operator) []*bullet.Batch {
	t.Helper()
	cx := NoopContext()
	var batches []*bullet.Batch
	for {
		result, batch, err := op.PollPull(cx)
		if err != nil {
			t.Fatalf("unexpected error from PollPull: %v", err)
		}
		switch result {
		case exec.PullBatch:
			batches = append(batches, batch)
		case exec.PullExhausted:
			return batches
		case exec.PullPending:
			t.Fatalf("unexpected PullPending in DrainAll")
		}
	}
}

// RandomVarlenRows deterministically generates n byte rows of length
// between minLen and maxLen, seeded for reproducible operator/kernel
// tests that need varlen input without committing fixed byte literals.
func RandomVarlenRows(seed int64, n, minLen, maxLen int) [][]byte {
	src := prng.New(seed)
	span := maxLen - minLen + 1
	rows := make([][]byte, n)
	for i := range rows {
		lenBuf := make([]byte, 1)
		io.ReadFull(src, lenBuf)
		length := minLen + int(lenBuf[0])%span
		row := make([]byte, length)
		io.ReadFull(src, row)
		rows[i] = row
	}
	return rows
}
