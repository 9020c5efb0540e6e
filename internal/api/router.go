// Package api assembles the HTTP surface of the service.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/api/respond"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/auth"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/export"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/ingest"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/metrics"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/workflow"
)

// Deps are the services behind the router. Ingest and Health may be nil.
type Deps struct {
	Orders   purchaseorder.Service
	Workflow workflow.Service
	Metrics  metrics.Service
	Ingest   *ingest.Handler
	Keys     *auth.KeySet
	Health   func(ctx context.Context) error
	Logger   *zap.Logger
}

// NewRouter wires every route under /api/v1 plus /health.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	orders := purchaseorder.NewHandler(d.Orders, logger)
	statuses := workflow.NewHandler(d.Workflow, logger)
	snapshots := metrics.NewHandler(d.Metrics, d.Orders, logger)
	exports := export.NewHandler(d.Orders, logger)
	authorized := requireAPIKey(d.Keys, logger)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(recoverer(logger))
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Health != nil {
			if err := d.Health(r.Context()); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/statuses", statuses.HandleStatuses)
		r.Get("/statuses/{status}", statuses.HandleStatus)
		r.Get("/statuses/{status}/transitions", statuses.HandleTransitions)
		r.Get("/statuses/{status}/requirements", statuses.HandleRequirements)
		r.Post("/transitions/validate", statuses.HandleValidate)

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", orders.HandleList)
			r.With(authorized).Post("/", orders.HandleCreate)
			r.With(authorized).Post("/upload", uploadHandler(d.Ingest))
			r.Get("/export", exports.HandleExport)
			r.Get("/{poNumber}", orders.HandleGet)
			r.With(authorized).Patch("/{poNumber}/status", orders.HandleUpdateStatus)
			r.Get("/{poNumber}/history", orders.HandleHistory)
		})

		r.Get("/metrics", snapshots.HandleSnapshot)
		r.With(authorized).Post("/metrics/events/{type}", snapshots.HandleRecord)
		r.Get("/metrics/events/{type}", snapshots.HandleEvents)
	})

	return r
}

func uploadHandler(h *ingest.Handler) http.HandlerFunc {
	if h == nil {
		return func(w http.ResponseWriter, r *http.Request) {
			respond.Message(w, http.StatusServiceUnavailable, "document upload is not configured")
		}
	}
	return h.HandleUpload
}
