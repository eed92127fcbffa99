// Package exec holds the physical operator contract: a pull-based,
// poll-style pipeline where each operator is driven by a loop calling
// PollPull (and, for operators with a push side, PollPush/PollFinalizePush)
// until it reports completion, registering a Waker on anything it cannot
// yet make progress on instead of blocking the calling goroutine.
package exec

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/pollctx"
)

// PushResult is the outcome of one PollPush attempt.
type PushResult int

const (
	// Pushed: the operator accepted the batch; caller may push the next one.
	Pushed PushResult = iota
	// PushPending: the operator cannot accept input yet (e.g. backpressure
	// from a bounded buffer); a Waker has been registered.
	PushPending
	// PushBreak: the operator will never accept more input on this pipeline
	// (e.g. a LIMIT operator that has already seen enough rows).
	PushBreak
)

// FinalizeResult is the outcome of one PollFinalizePush attempt.
type FinalizeResult int

const (
	// Finalized: the operator has flushed everything pushed to it; the
	// pull side may now be drained to exhaustion.
	Finalized FinalizeResult = iota
	// FinalizePending: finalization is still in progress; a Waker has been
	// registered.
	FinalizePending
)

// PullResult is the outcome of one PollPull attempt.
type PullResult int

const (
	// PullBatch: Batch holds the next output batch.
	PullBatch PullResult = iota
	// PullPending: no output ready yet; a Waker has been registered.
	PullPending
	// PullExhausted: this operator will never produce another batch.
	PullExhausted
)

// Operator is satisfied by every physical operator in a pipeline: scans,
// projections, filters, and sinks. An operator with no push side (a source)
// only needs PollPull to do real work; PollPush/PollFinalizePush on a pure
// source are no-ops that immediately report completion.
type Operator interface {
	// PollPush offers one input batch to this operator.
	PollPush(cx *pollctx.Context, batch *bullet.Batch) (PushResult, error)

	// PollFinalizePush signals that no more input is coming on this
	// pipeline and polls until the operator has finished reacting to that.
	PollFinalizePush(cx *pollctx.Context) (FinalizeResult, error)

	// PollPull polls for the operator's next output batch.
	PollPull(cx *pollctx.Context) (PullResult, *bullet.Batch, error)
}

// InOutPullResult extends PullResult with how many input rows were
// consumed to produce this output, for operators (laterals, correlated
// subquery unnesting) where a downstream consumer must track input/output
// row correspondence rather than treat the operator as a black box.
type InOutPullResult struct {
	Result     PullResult
	Batch      *bullet.Batch
	InputRows  int
	OutputRows int
}

// InOutOperator is the variant of Operator used by operators whose output
// does not map 1:1 onto a single input batch.
type InOutOperator interface {
	PollPush(cx *pollctx.Context, batch *bullet.Batch) (PushResult, error)
	PollFinalizePush(cx *pollctx.Context) (FinalizeResult, error)
	PollPullInOut(cx *pollctx.Context) (InOutPullResult, error)
}
