package reactive

import "go.uber.org/zap"

// TableKey builds the "schema.table" key a WAL change and a LiveQuery's
// Tables list both use to identify a base table.
func TableKey(schema, table string) string {
	return schema + "." + table
}

// NotifyChange reruns every live query whose plan scans one of the
// changed tables: WAL delivery tells us a Postgres table's contents moved,
// and the closest a columnar scan-and-recompute engine gets to a partial
// refresh is running the same plan again.
func NotifyChange(reg *Registry, log *zap.Logger, changedTables map[string]bool) {
	reg.ForEach(func(q *LiveQuery) bool {
		if !touchesAny(q.Tables, changedTables) {
			return true
		}
		go rerunAndBroadcast(q, log)
		return true
	})
}

func touchesAny(tables []string, changed map[string]bool) bool {
	for _, t := range tables {
		if changed[t] {
			return true
		}
	}
	return false
}

func rerunAndBroadcast(q *LiveQuery, log *zap.Logger) {
	if err := q.Rerun(); err != nil {
		if log != nil {
			log.Warn("live query rerun failed", zap.String("id", q.ID), zap.Error(err))
		}
		broadcastToClients(q, "error", map[string]any{"error": err.Error()})
		return
	}
	broadcastToClients(q, "invalidated", map[string]any{"id": q.ID})
}

// broadcastToClients pushes a message straight to every currently
// connected Client, independent of the per-client batch pump reading from
// the broadcast channel: used for out-of-band signals (errors, a reload
// notice) rather than query result rows.
func broadcastToClients(q *LiveQuery, msgType string, payload any) {
	q.Mu.RLock()
	defer q.Mu.RUnlock()
	for cl := range q.Clients {
		_ = cl.Send(msgType, payload)
	}
}
