package wal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pglogrepl"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"go.uber.org/zap"
)

// ReplicationSource streams change events straight off a Postgres logical
// replication slot, grounded in full on the teacher's sibling db/stream
// module: the same IdentifySystem/StartReplication/ReceiveMessage/
// ParseXLogData/SendStandbyStatusUpdate sequence against a
// "replication=database" pgconn connection, adapted to hand each XLogData
// payload to a callback instead of broadcasting it over a raw TCP socket
// to a separate forwarder process - here the same binary that serves /api
// owns the replication connection directly.
type ReplicationSource struct {
	ConnString string
	SlotName   string
	PluginArgs []string
	Log        *zap.Logger
}

// Listen reconnects and restarts replication forever on connection loss,
// calling onMessage with each XLogData payload's raw bytes - the same
// wal2json wire shape wal.Consumer.OnMessage decodes. Blocks until ctx is
// cancelled.
func (s *ReplicationSource) Listen(ctx context.Context, onMessage func([]byte)) {
	for ctx.Err() == nil {
		if err := s.runOnce(ctx, onMessage); err != nil {
			s.logger().Warn("replication connection error, reconnecting", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *ReplicationSource) runOnce(ctx context.Context, onMessage func([]byte)) error {
	conn, err := pgconn.Connect(ctx, s.ConnString)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	sys, err := pglogrepl.IdentifySystem(ctx, conn)
	if err != nil {
		return err
	}
	s.logger().Info("replication stream identified",
		zap.String("system_id", sys.SystemID),
		zap.Int32("timeline", sys.Timeline),
		zap.String("xlog_pos", sys.XLogPos.String()))

	pluginArgs := s.PluginArgs
	if len(pluginArgs) == 0 {
		pluginArgs = []string{"\"pretty-print\" 'false'"}
	}
	if err := pglogrepl.StartReplication(ctx, conn, s.SlotName, sys.XLogPos,
		pglogrepl.StartReplicationOptions{PluginArgs: pluginArgs}); err != nil {
		return err
	}
	s.logger().Info("logical replication started", zap.String("slot", s.SlotName))

	var lastLSN pglogrepl.LSN
	const standbyTimeout = 10 * time.Second
	nextDeadline := time.Now().Add(standbyTimeout)

	for {
		if time.Now().After(nextDeadline) && lastLSN != 0 {
			if err := pglogrepl.SendStandbyStatusUpdate(ctx, conn, pglogrepl.StandbyStatusUpdate{WALWritePosition: lastLSN}); err != nil {
				return err
			}
			nextDeadline = time.Now().Add(standbyTimeout)
		}

		recvCtx, cancel := context.WithDeadline(ctx, nextDeadline)
		rawMsg, err := conn.ReceiveMessage(recvCtx)
		cancel()
		if err != nil {
			if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			return err
		}

		if errMsg, ok := rawMsg.(*pgproto3.ErrorResponse); ok {
			return errors.New(errMsg.Message)
		}

		msg, ok := rawMsg.(*pgproto3.CopyData)
		if !ok || len(msg.Data) == 0 {
			continue
		}

		switch msg.Data[0] {
		case pglogrepl.PrimaryKeepaliveMessageByteID:
			pkm, err := pglogrepl.ParsePrimaryKeepaliveMessage(msg.Data[1:])
			if err != nil {
				s.logger().Warn("failed to parse keepalive message", zap.Error(err))
				continue
			}
			if pkm.ReplyRequested {
				nextDeadline = time.Time{}
			}

		case pglogrepl.XLogDataByteID:
			xld, err := pglogrepl.ParseXLogData(msg.Data[1:])
			if err != nil {
				s.logger().Warn("failed to parse XLogData", zap.Error(err))
				continue
			}
			if lsn := xlogLSN(xld.WALData); lsn != 0 {
				lastLSN = lsn
			}
			onMessage(xld.WALData)
		}
	}
}

// xlogLSN pulls the "nextlsn"/"lsn" field wal2json embeds in its change
// envelope so standby status updates can advance, mirroring the teacher's
// own ad hoc JSON peek for an "lsn" field in db/stream/main.go.
func xlogLSN(data []byte) pglogrepl.LSN {
	var probe struct {
		LSN     string `json:"lsn"`
		NextLSN string `json:"nextlsn"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0
	}
	raw := probe.NextLSN
	if raw == "" {
		raw = probe.LSN
	}
	if raw == "" {
		return 0
	}
	lsn, err := pglogrepl.ParseLSN(raw)
	if err != nil {
		return 0
	}
	return lsn
}

func (s *ReplicationSource) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.L()
}
