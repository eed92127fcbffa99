package operators

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/bullet/compute"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/pollctx"
)

// Filter evaluates a boolean predicate against each pushed batch and pulls
// out only the rows where it held. Like Projection, it never buffers more
// than one output batch at a time.
type Filter struct {
	predicate PhysicalExpr
	pending   *bullet.Batch
	done      bool
}

func NewFilter(predicate PhysicalExpr) *Filter {
	return &Filter{predicate: predicate}
}

func (f *Filter) PollPush(cx *pollctx.Context, batch *bullet.Batch) (exec.PushResult, error) {
	if f.pending != nil {
		return exec.PushPending, nil
	}

	pred, err := f.predicate.Eval(batch)
	if err != nil {
		return 0, err
	}
	selection, err := compute.SelectionFromBoolean(pred)
	if err != nil {
		return 0, err
	}
	out, err := compute.FilterBatch(batch, selection)
	if err != nil {
		return 0, err
	}
	f.pending = out
	return exec.Pushed, nil
}

func (f *Filter) PollFinalizePush(cx *pollctx.Context) (exec.FinalizeResult, error) {
	f.done = true
	return exec.Finalized, nil
}

func (f *Filter) PollPull(cx *pollctx.Context) (exec.PullResult, *bullet.Batch, error) {
	if f.pending != nil {
		out := f.pending
		f.pending = nil
		return exec.PullBatch, out, nil
	}
	if f.done {
		return exec.PullExhausted, nil, nil
	}
	return exec.PullPending, nil, nil
}
