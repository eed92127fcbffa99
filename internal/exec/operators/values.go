package operators

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/pollctx"
)

// Values is a source operator over a fixed, already-materialized list of
// batches - the physical counterpart to a VALUES clause or an expression
// list lowered with no table reference.
type Values struct {
	batches []*bullet.Batch
	next    int
}

func NewValues(batches []*bullet.Batch) *Values {
	return &Values{batches: batches}
}

func (v *Values) PollPush(cx *pollctx.Context, batch *bullet.Batch) (exec.PushResult, error) {
	return exec.PushBreak, nil
}

func (v *Values) PollFinalizePush(cx *pollctx.Context) (exec.FinalizeResult, error) {
	return exec.Finalized, nil
}

func (v *Values) PollPull(cx *pollctx.Context) (exec.PullResult, *bullet.Batch, error) {
	if v.next >= len(v.batches) {
		return exec.PullExhausted, nil, nil
	}
	b := v.batches[v.next]
	v.next++
	return exec.PullBatch, b, nil
}

// Empty is a source operator that yields a single zero-column, single-row
// batch and then exhausts - the physical form of a SELECT with no FROM
// clause and no VALUES, e.g. SELECT 1 + 1.
type Empty struct {
	yielded bool
}

func NewEmpty() *Empty { return &Empty{} }

func (e *Empty) PollPush(cx *pollctx.Context, batch *bullet.Batch) (exec.PushResult, error) {
	return exec.PushBreak, nil
}

func (e *Empty) PollFinalizePush(cx *pollctx.Context) (exec.FinalizeResult, error) {
	return exec.Finalized, nil
}

func (e *Empty) PollPull(cx *pollctx.Context) (exec.PullResult, *bullet.Batch, error) {
	if e.yielded {
		return exec.PullExhausted, nil, nil
	}
	e.yielded = true
	return exec.PullBatch, bullet.NewEmptyBatch(1), nil
}
