// Package driver runs a physical pipeline to completion: one goroutine per
// partition, each looping PollPull until exhaustion or error, merging
// every partition's output batches onto a single result channel. This is
// the runtime loop a pull-based poll contract needs on top of it - nothing
// in the operator contract itself spawns goroutines.
package driver

import (
	"context"
	"sync"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/exec"
	"github.com/bulletdb/bulletdb/internal/pollctx"
)

// Pipeline is one partition's terminal operator: the thing a Driver polls
// in a loop. A pipeline with an upstream source composes its operators
// itself (Scan -> Filter -> Projection, say) and exposes only the final
// PollPull.
type Pipeline interface {
	PollPull(cx *pollctx.Context) (exec.PullResult, *bullet.Batch, error)
}

// Result is one batch (or terminal error) surfacing from a partition.
type Result struct {
	Partition int
	Batch     *bullet.Batch
	Err       error
}

// Driver runs every partition of a pipeline concurrently and merges their
// output.
type Driver struct {
	pipelines []Pipeline
}

func New(pipelines []Pipeline) *Driver {
	return &Driver{pipelines: pipelines}
}

// Run starts one goroutine per partition and returns a channel of merged
// results, closed once every partition has exhausted or the context is
// canceled. Each partition keeps polling: Pending reschedules via its own
// Notifier instead of busy-looping.
func (d *Driver) Run(ctx context.Context) <-chan Result {
	out := make(chan Result)
	var wg sync.WaitGroup
	wg.Add(len(d.pipelines))

	for i, p := range d.pipelines {
		go func(partition int, p Pipeline) {
			defer wg.Done()
			runPartition(ctx, partition, p, out)
		}(i, p)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func runPartition(ctx context.Context, partition int, p Pipeline, out chan<- Result) {
	notifier := pollctx.NewNotifier()
	done := ctx.Done()

	for {
		select {
		case <-done:
			return
		default:
		}

		result, batch, err := p.PollPull(notifier.Context())
		switch result {
		case exec.PullBatch:
			select {
			case out <- Result{Partition: partition, Batch: batch}:
			case <-done:
				return
			}
		case exec.PullPending:
			if err != nil {
				select {
				case out <- Result{Partition: partition, Err: err}:
				case <-done:
				}
				return
			}
			notifier.Wait(done)
		case exec.PullExhausted:
			if err != nil {
				select {
				case out <- Result{Partition: partition, Err: err}:
				case <-done:
				}
			}
			return
		}
	}
}
