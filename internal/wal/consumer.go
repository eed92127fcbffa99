// Package wal decodes the change-data-capture stream a logical replication
// forwarder delivers and turns each change into a live-query rerun trigger.
package wal

import (
	"encoding/json"

	"github.com/bulletdb/bulletdb/internal/logutil"
	"github.com/bulletdb/bulletdb/internal/reactive"
	"go.uber.org/zap"
)

type Change struct {
	Schema  string `json:"schema"`
	Table   string `json:"table"`
	Kind    string `json:"kind"`
	OldKeys Keys   `json:"oldkeys"`
	NewKeys Keys   `json:"newkeys"`
}

type Keys struct {
	KeyNames  []string      `json:"keynames"`
	KeyValues []interface{} `json:"keyvalues"`
}

type Envelope struct {
	Change []Change `json:"change"`
}

// Consumer dispatches decoded WAL envelopes against the registry: a change
// touching "schema.table" reruns every LiveQuery whose plan scans that
// table.
type Consumer struct {
	Reg *reactive.Registry
	Log *zap.Logger
}

func (c *Consumer) OnMessage(line []byte) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		c.logger().Warn("wal decode error", zap.Error(err))
		return
	}
	if len(env.Change) == 0 {
		return
	}

	changed := make(map[string]bool, len(env.Change))
	for _, ch := range env.Change {
		fq := reactive.TableKey(ch.Schema, ch.Table)
		changed[fq] = true
		c.logger().Debug("wal_change", logutil.Values(
			zap.String("schema", ch.Schema),
			zap.String("table", ch.Table),
			zap.String("kind", ch.Kind),
		))
	}

	reactive.NotifyChange(c.Reg, c.logger(), changed)
}

func (c *Consumer) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.L()
}
