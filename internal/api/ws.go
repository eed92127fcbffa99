package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"go.uber.org/zap"

	"github.com/bulletdb/bulletdb/internal/catalog"
	"github.com/bulletdb/bulletdb/internal/catalog/richcatalog"
	"github.com/bulletdb/bulletdb/internal/engine"
	"github.com/bulletdb/bulletdb/internal/exec/broadcast"
	"github.com/bulletdb/bulletdb/internal/exec/driver"
	"github.com/bulletdb/bulletdb/internal/pollctx"
	"github.com/bulletdb/bulletdb/internal/reactive"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler holds shared resources injected from app.Server.
type WSHandler struct {
	DB         *sql.DB
	ConnString string
	Registry   *reactive.Registry
	Log        *zap.Logger
}

// HandleWS upgrades the connection and handles subscribe/unsubscribe
// messages. Each subscribed query gets its own goroutine pumping batches
// from its claimed broadcast.Receiver out over the socket; the read loop
// below only handles control messages.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log().Warn("ws upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	wsSend := func(msgType string, payload any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(map[string]any{"type": msgType, "data": payload})
	}

	cl := &reactive.Client{Send: wsSend}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	active := map[string]*reactive.LiveQuery{}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				if ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway {
					h.log().Info("ws closed", zap.Int("code", ce.Code))
				} else {
					h.log().Warn("ws closed abnormally", zap.Int("code", ce.Code), zap.String("text", ce.Text))
				}
			} else {
				h.log().Error("ws read error", zap.Error(err))
			}
			break
		}

		var req struct {
			Type string `json:"type"`
			SQL  string `json:"sql"`
			ID   string `json:"id"`
		}
		if err := json.Unmarshal(msg, &req); err != nil {
			wsSend("error", map[string]string{"error": "invalid JSON"})
			continue
		}

		switch strings.ToLower(req.Type) {
		case "subscribe":
			if req.SQL == "" {
				wsSend("error", map[string]string{"error": "missing SQL"})
				continue
			}

			lq, names, err := h.registerLiveQuery(ctx, req.SQL, cl)
			if err != nil {
				wsSend("error", map[string]string{"error": err.Error()})
				continue
			}
			active[lq.ID] = lq

			recv, err := lq.ClaimReceiver()
			if err != nil {
				wsSend("error", map[string]string{"error": err.Error()})
				continue
			}
			lq.Mu.Lock()
			lq.Clients[cl] = recv
			lq.Mu.Unlock()
			go pumpReceiver(ctx, recv, names, wsSend)

			wsSend("subscribed", map[string]any{"id": lq.ID, "tables": lq.Tables})

		case "unsubscribe":
			id := req.ID
			if id == "" {
				for qid, q := range active {
					h.unregisterClient(q, cl)
					delete(active, qid)
				}
				wsSend("unsubscribed", "ok")
				continue
			}
			if q, ok := active[id]; ok {
				h.unregisterClient(q, cl)
				delete(active, id)
			}
			wsSend("unsubscribed", map[string]string{"id": id})

		default:
			wsSend("error", map[string]string{"error": "unknown message type"})
		}
	}

	for _, q := range active {
		h.unregisterClient(q, cl)
	}
}

func (h *WSHandler) unregisterClient(q *reactive.LiveQuery, cl *reactive.Client) {
	q.Mu.Lock()
	delete(q.Clients, cl)
	empty := len(q.Clients) == 0
	q.Mu.Unlock()
	if empty {
		h.Registry.Unregister(q.ID)
		q.Close()
	}
}

// pumpReceiver drains one subscriber's broadcast.Receiver, delivering each
// batch over the socket as it arrives, backing off on RecvPending via a
// Notifier exactly like driver.Run does for a partition.
func pumpReceiver(ctx context.Context, recv *broadcast.Receiver, names []string, send func(string, any) error) {
	notifier := pollctx.NewNotifier()
	done := ctx.Done()
	for {
		select {
		case <-done:
			return
		default:
		}
		result, batch := recv.Recv(notifier.Context())
		switch result {
		case broadcast.RecvBatch:
			rows := reactive.SerializeBatchNamed(batch, names)
			if err := send("update", rows); err != nil {
				return
			}
		case broadcast.RecvExhausted:
			return
		default: // broadcast.RecvPending
			notifier.Wait(done)
		}
	}
}

// registerLiveQuery plans sql against a freshly refreshed catalog, compiles
// it to pipelines, and registers a new LiveQuery carrying a Rebuilder that
// redoes exactly this sequence - used to rerun the query when a WAL change
// touches one of its scanned tables.
func (h *WSHandler) registerLiveQuery(ctx context.Context, sql string, cl *reactive.Client) (*reactive.LiveQuery, []string, error) {
	cat, err := h.refreshedCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}

	query, tables, err := engine.Plan(sql, catalog.NewCompositeResolver(ctx, cat))
	if err != nil {
		return nil, nil, err
	}
	names := engine.OutputNames(query)

	rebuild := func() ([]driver.Pipeline, func(), error) {
		cat, err := h.refreshedCatalog(ctx)
		if err != nil {
			return nil, nil, err
		}
		query, _, err := engine.Plan(sql, catalog.NewCompositeResolver(ctx, cat))
		if err != nil {
			return nil, nil, err
		}
		tables := catalog.NewPostgresTableSource(ctx, h.ConnString)
		return engine.Compile(ctx, query, defaultPartitions, tables)
	}

	pipelines, closer, err := rebuild()
	if err != nil {
		return nil, nil, err
	}

	lq := reactive.NewLiveQuery(ctx, uuid.NewString(), sql, tables, rebuild, pipelines, closer)
	lq.Mu.Lock()
	lq.Clients[cl] = nil
	lq.Mu.Unlock()
	h.Registry.Register(lq)
	return lq, names, nil
}

func (h *WSHandler) refreshedCatalog(ctx context.Context) (*richcatalog.Catalog, error) {
	cat := richcatalog.New(h.DB, richcatalog.Options{
		Schemas:        []string{"public"},
		IncludeIndexes: true,
		IncludeFKs:     true,
	}, h.log())
	if err := cat.Refresh(ctx); err != nil {
		return nil, err
	}
	return cat, nil
}

func (h *WSHandler) log() *zap.Logger {
	if h.Log != nil {
		return h.Log
	}
	return zap.L()
}
