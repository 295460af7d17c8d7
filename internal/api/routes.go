package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Channel settings получателя
	mux.Handle("GET /api/v1/recipients/{id}/settings", chain(http.HandlerFunc(h.GetSettings)))
	mux.Handle("PUT /api/v1/recipients/{id}/settings", chain(http.HandlerFunc(h.PutSettings)))
	mux.Handle("DELETE /api/v1/recipients/{id}/settings", chain(http.HandlerFunc(h.DeleteSettings)))

	// Messages
	mux.Handle("POST /api/v1/messages", chain(http.HandlerFunc(h.EnqueueMessage)))

	// Jobs (наблюдение за очередью)
	mux.Handle("GET /api/v1/jobs", chain(http.HandlerFunc(h.ListJobs)))
}
