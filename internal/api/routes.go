// routes.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes wires the WebSocket subscribe endpoint, the one-shot query
// endpoint, and a debug live-query listing onto a chi router, with a
// static file server behind everything else.
func SetupRoutes(h *WSHandler) http.Handler {
	r := chi.NewRouter()

	// Handle the WebSocket route before any global middleware that might wrap the response writer.
	r.Get("/api/ws", h.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(LoggingMiddleware)

		r.Route("/api", func(r chi.Router) {
			r.Post("/query", h.handleQuery)
			r.Get("/live", func(w http.ResponseWriter, r *http.Request) {
				handleLiveQueries(w, r, h.Registry)
			})
		})
	})

	fs := http.FileServer(http.Dir("web"))
	r.Handle("/*", fs)

	return r
}
