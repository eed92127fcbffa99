// Package broadcast implements the multi-consumer fan-out channel a single
// scan or source operator uses to feed N independent downstream pipelines
// the same sequence of batches without copying it N times up front: each
// batch is handed out by reference until the last receiver has taken it, at
// which point its slot is freed.
package broadcast

import (
	"sync"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/pollctx"
)

// Channel is the send side. A single producer goroutine calls Send for each
// batch it produces and Finish once, after which every Receiver observes
// end of stream once it has drained whatever was already sent.
type Channel struct {
	state *state
}

// Receiver is one consumer's view onto the Channel: an independent cursor
// (subscribeIdx identifies it among recv_wakers, batchIdx is the next batch
// it hasn't yet consumed) over the same shared state.
type Receiver struct {
	subscribeIdx int
	batchIdx     int
	state        *state
}

type waker struct {
	batchIdx int
	wake     pollctx.Waker
}

type batchSlot struct {
	remainingRecv int
	batch         *bullet.Batch // nil once the last receiver has taken it
}

type state struct {
	mu           sync.Mutex
	numReceivers int
	batches      []*batchSlot
	recvWakers   []*waker // one slot per receiver, nil when none registered
	finished     bool
}

// New builds a Channel and its numRecvs independent Receivers.
func New(numRecvs int) (*Channel, []*Receiver) {
	st := &state{
		numReceivers: numRecvs,
		recvWakers:   make([]*waker, numRecvs),
	}
	recvs := make([]*Receiver, numRecvs)
	for i := range recvs {
		recvs[i] = &Receiver{subscribeIdx: i, state: st}
	}
	return &Channel{state: st}, recvs
}

// Send publishes a batch to every receiver. The batch is retained until
// every receiver has called Recv past this index.
func (c *Channel) Send(batch *bullet.Batch) {
	st := c.state
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := len(st.batches)
	st.batches = append(st.batches, &batchSlot{
		remainingRecv: st.numReceivers,
		batch:         batch,
	})

	for i, w := range st.recvWakers {
		if w != nil && w.batchIdx == idx {
			w.wake()
			st.recvWakers[i] = nil
		}
	}
}

// Finish marks the channel complete. Every receiver waiting on a batch past
// the last one sent now observes end of stream.
func (c *Channel) Finish() {
	st := c.state
	st.mu.Lock()
	defer st.mu.Unlock()

	st.finished = true
	for i, w := range st.recvWakers {
		if w != nil {
			w.wake()
			st.recvWakers[i] = nil
		}
	}
}

// RecvResult is the outcome of one Recv poll attempt.
type RecvResult int

const (
	// RecvBatch: Batch holds the next batch for this receiver.
	RecvBatch RecvResult = iota
	// RecvPending: no batch yet; cx's Waker has been registered and will be
	// called once one is available or the channel finishes.
	RecvPending
	// RecvExhausted: the channel is finished and this receiver has drained
	// every batch that was ever sent.
	RecvExhausted
)

// Recv polls for this receiver's next batch. The cursor only advances past
// an index once that index has actually been delivered as RecvBatch: a
// RecvPending outcome leaves batchIdx untouched, so repeated polls of an
// in-flight receive (the caller backing off on a Notifier and calling Recv
// again) keep targeting the same batch they were waiting for, instead of
// skipping it. This mirrors the reference's split between "recv() builds a
// future for index N" and "poll() on that future re-uses N on every call
// until it resolves" - one Recv call here plays both roles, so the cursor
// itself must stay pinned across pending polls rather than advancing on
// every call.
func (r *Receiver) Recv(cx *pollctx.Context) (RecvResult, *bullet.Batch) {
	st := r.state
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := r.batchIdx

	if idx < len(st.batches) {
		slot := st.batches[idx]
		r.batchIdx++
		slot.remainingRecv--
		if slot.remainingRecv == 0 {
			batch := slot.batch
			slot.batch = nil
			return RecvBatch, batch
		}
		return RecvBatch, slot.batch
	}

	if st.finished {
		return RecvExhausted, nil
	}

	st.recvWakers[r.subscribeIdx] = &waker{batchIdx: idx, wake: cx.Waker()}
	return RecvPending, nil
}
