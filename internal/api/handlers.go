package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/bulletdb/bulletdb/internal/catalog"
	"github.com/bulletdb/bulletdb/internal/engine"
	"github.com/bulletdb/bulletdb/internal/reactive"
	"go.uber.org/zap"
)

const defaultPartitions = 4

// handleQuery runs a single SQL statement to completion and returns every
// row as JSON, the one-shot counterpart of the /api/ws subscribe path.
func (h *WSHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	sql := string(body)

	cat, err := h.refreshedCatalog(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	query, _, err := engine.Plan(sql, catalog.NewCompositeResolver(r.Context(), cat))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	tables := catalog.NewPostgresTableSource(ctx, h.ConnString)
	pipelines, closer, err := engine.Compile(ctx, query, defaultPartitions, tables)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer closer()

	batches, err := engine.RunToCompletion(ctx, pipelines)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	names := engine.OutputNames(query)
	rows := []map[string]any{}
	for _, b := range batches {
		rows = append(rows, reactive.SerializeBatchNamed(b, names)...)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		h.log().Warn("failed to encode query response", zap.Error(err))
	}
}
