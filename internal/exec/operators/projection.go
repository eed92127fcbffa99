package operators

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/pollctx"
)

// Projection is a stateless in-place operator: push a batch, pull the same
// number of rows back out with its columns replaced by the evaluated
// expressions. It never buffers more than one batch, so push and pull are
// tightly coupled - PollPull only ever has something to return right after
// a successful PollPush.
type Projection struct {
	exprs   []PhysicalExpr
	pending *bullet.Batch
	done    bool
}

func NewProjection(exprs []PhysicalExpr) *Projection {
	return &Projection{exprs: exprs}
}

func (p *Projection) PollPush(cx *pollctx.Context, batch *bullet.Batch) (exec.PushResult, error) {
	if p.pending != nil {
		return exec.PushPending, nil
	}

	cols := make([]bullet.Array, len(p.exprs))
	for i, e := range p.exprs {
		col, err := e.Eval(batch)
		if err != nil {
			return 0, err
		}
		cols[i] = col
	}
	out, err := bullet.NewBatch(cols)
	if err != nil {
		return 0, err
	}
	p.pending = out
	return exec.Pushed, nil
}

func (p *Projection) PollFinalizePush(cx *pollctx.Context) (exec.FinalizeResult, error) {
	p.done = true
	return exec.Finalized, nil
}

func (p *Projection) PollPull(cx *pollctx.Context) (exec.PullResult, *bullet.Batch, error) {
	if p.pending != nil {
		out := p.pending
		p.pending = nil
		return exec.PullBatch, out, nil
	}
	if p.done {
		return exec.PullExhausted, nil, nil
	}
	return exec.PullPending, nil, nil
}
