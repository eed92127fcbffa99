package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/bulletdb/bulletdb/internal/api"
	"github.com/bulletdb/bulletdb/internal/reactive"
	"github.com/bulletdb/bulletdb/internal/wal"
)

// Server owns the HTTP listener, the registry of running live queries, and
// the shared Postgres connection every table scan and catalog refresh
// ultimately reads through.
type Server struct {
	httpServer *http.Server
	Registry   *reactive.Registry
	DB         *sql.DB
	Log        *zap.Logger

	connString     string
	walAddr        string
	replConnString string
	replSlotName   string
}

// Config names the one connection string base table scans, catalog
// refreshes, and the debug /api/query endpoint all share, plus how the
// reactive layer learns about table changes: either the address of a WAL
// forwarder TCP sidecar (WALAddr), or connection details for a direct
// logical-replication slot this process reads itself (ReplConnString/
// ReplSlotName). Both may be set; either may be left empty to disable it.
type Config struct {
	Addr           string
	ConnString     string
	WALAddr        string
	ReplConnString string
	ReplSlotName   string
}

func NewServer(cfg Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("postgres", cfg.ConnString)
	if err != nil {
		return nil, err
	}

	reg := reactive.NewRegistry()
	handler := &api.WSHandler{
		DB:         db,
		ConnString: cfg.ConnString,
		Registry:   reg,
		Log:        log,
	}
	mux := api.SetupRoutes(handler)

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &Server{
		httpServer:     &http.Server{Addr: addr, Handler: mux},
		Registry:       reg,
		DB:             db,
		Log:            log,
		connString:     cfg.ConnString,
		walAddr:        cfg.WALAddr,
		replConnString: cfg.ReplConnString,
		replSlotName:   cfg.ReplSlotName,
	}, nil
}

func (s *Server) Run() error {
	go func() {
		s.Log.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Log.Fatal("http server error", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.walAddr != "" {
		go s.listenWAL()
	}
	if s.replConnString != "" {
		go s.listenReplication(ctx)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// listenWAL consumes change-data-capture events from a forwarder and
// reruns every live query whose plan touches a changed table.
func (s *Server) listenWAL() {
	consumer := &wal.Consumer{Reg: s.Registry, Log: s.Log}

	for {
		conn, err := net.Dial("tcp", s.walAddr)
		if err != nil {
			s.Log.Warn("wal connect failed, retrying", zap.Error(err))
			time.Sleep(2 * time.Second)
			continue
		}

		dec := json.NewDecoder(conn)
		for {
			var msg json.RawMessage
			if err := dec.Decode(&msg); err != nil {
				if err != io.EOF {
					s.Log.Warn("wal decode error", zap.Error(err))
				}
				break
			}
			consumer.OnMessage(msg)
		}
		conn.Close()
	}
}

// listenReplication reads a Postgres logical-replication slot directly via
// pglogrepl, an alternative to the TCP sidecar above for deployments that
// don't run a separate forwarder process.
func (s *Server) listenReplication(ctx context.Context) {
	consumer := &wal.Consumer{Reg: s.Registry, Log: s.Log}
	src := &wal.ReplicationSource{
		ConnString: s.replConnString,
		SlotName:   s.replSlotName,
		Log:        s.Log,
	}
	src.Listen(ctx, consumer.OnMessage)
}
