package physplan

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/pollctx"
)

// chain drives a linear sequence of operators - a source at index 0
// (Scan/Values/Empty) followed by zero or more transforms (Filter,
// Projection) - through the push/pull/finalize contract, exposing only the
// single PollPull driver.Pipeline needs. Nothing in the retrieved pack
// spells out this loop directly; it follows straight from the contract
// operator.go already defines: pull from upstream, push into the next
// stage, pull its result, repeat, finalizing each stage once its upstream
// exhausts.
type chain struct {
	stages []exec.Operator
}

func (c *chain) PollPull(cx *pollctx.Context) (exec.PullResult, *bullet.Batch, error) {
	return c.pullFrom(cx, len(c.stages)-1)
}

func (c *chain) pullFrom(cx *pollctx.Context, idx int) (exec.PullResult, *bullet.Batch, error) {
	result, batch, err := c.stages[idx].PollPull(cx)
	switch result {
	case exec.PullBatch:
		return exec.PullBatch, batch, err

	case exec.PullExhausted:
		if err != nil || idx == 0 {
			return exec.PullExhausted, nil, err
		}
		return c.advance(cx, idx)

	default: // exec.PullPending
		if idx == 0 {
			return exec.PullPending, nil, err
		}
		return c.advance(cx, idx)
	}
}

// advance feeds stage idx from stage idx-1 until idx has something to pull
// (or its upstream is exhausted/pending), then retries idx's pull.
func (c *chain) advance(cx *pollctx.Context, idx int) (exec.PullResult, *bullet.Batch, error) {
	result, batch, err := c.pullFrom(cx, idx-1)
	switch result {
	case exec.PullBatch:
		pushResult, perr := c.stages[idx].PollPush(cx, batch)
		if perr != nil {
			return exec.PullExhausted, nil, perr
		}
		switch pushResult {
		case exec.Pushed:
			return c.pullFrom(cx, idx)
		case exec.PushBreak:
			return exec.PullExhausted, nil, nil
		default: // exec.PushPending: stage idx can't accept more yet
			return exec.PullPending, nil, nil
		}

	case exec.PullExhausted:
		if err != nil {
			return exec.PullExhausted, nil, err
		}
		finalizeResult, ferr := c.stages[idx].PollFinalizePush(cx)
		if ferr != nil {
			return exec.PullExhausted, nil, ferr
		}
		if finalizeResult == exec.FinalizePending {
			return exec.PullPending, nil, nil
		}
		return c.pullFrom(cx, idx)

	default: // exec.PullPending
		return exec.PullPending, nil, err
	}
}
