package operators

import (
	"context"
	"sync"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/pollctx"
	"github.com/bulletdb/bulletdb/internal/source"
)

// Scan is a source operator over one partition of a source.DataTableScan.
// A DataTableScan's Pull is a blocking call (it may do file or network IO),
// so Scan runs it on a background goroutine and bridges the result back
// into the poll contract: PollPull returns Pending immediately if no result
// has arrived yet, waking the caller's Waker once one has.
type Scan struct {
	ctx    context.Context
	cancel context.CancelFunc
	scan   source.DataTableScan

	mu      sync.Mutex
	started bool
	result  chan scanResult
	pending *scanResult
	done    bool
}

type scanResult struct {
	batch *bullet.Batch
	err   error
}

func NewScan(ctx context.Context, scan source.DataTableScan) *Scan {
	ctx, cancel := context.WithCancel(ctx)
	return &Scan{ctx: ctx, cancel: cancel, scan: scan, result: make(chan scanResult, 1)}
}

func (s *Scan) PollPush(cx *pollctx.Context, batch *bullet.Batch) (exec.PushResult, error) {
	return exec.PushBreak, nil
}

func (s *Scan) PollFinalizePush(cx *pollctx.Context) (exec.FinalizeResult, error) {
	return exec.Finalized, nil
}

func (s *Scan) PollPull(cx *pollctx.Context) (exec.PullResult, *bullet.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return exec.PullExhausted, nil, nil
	}

	if s.pending != nil {
		r := *s.pending
		s.pending = nil
		return s.deliver(r)
	}

	select {
	case r := <-s.result:
		return s.deliver(r)
	default:
	}

	if !s.started {
		s.started = true
		go s.run(cx.Waker())
	}
	return exec.PullPending, nil, nil
}

func (s *Scan) deliver(r scanResult) (exec.PullResult, *bullet.Batch, error) {
	s.started = false
	if r.err != nil {
		s.done = true
		return exec.PullExhausted, nil, r.err
	}
	if r.batch == nil {
		s.done = true
		return exec.PullExhausted, nil, nil
	}
	return exec.PullBatch, r.batch, nil
}

func (s *Scan) run(wake pollctx.Waker) {
	batch, err := s.scan.Pull(s.ctx)
	s.result <- scanResult{batch: batch, err: err}
	wake()
}

// Close releases the scan's context; callers should call this once the
// owning pipeline is torn down, even if the scan was never fully drained.
func (s *Scan) Close() { s.cancel() }
