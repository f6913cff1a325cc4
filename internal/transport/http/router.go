// Package httptransport is the thin HTTP layer over the registry services.
// Handlers decode, validate, delegate, and encode; no business logic lives
// here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"afya/internal/platform/middleware"
)

// NewRouter wires all endpoints behind the shared middleware chain.
func NewRouter(
	logger *slog.Logger,
	reference *ReferenceHandler,
	workers *WorkerHandler,
	cug *CUGHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	reference.Register(r)
	workers.Register(r)
	cug.Register(r)
	return r
}
