// internal/metrics/handler.go
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/api/respond"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// OrderSource supplies the orders to aggregate.
type OrderSource interface {
	List(ctx context.Context, q purchaseorder.Query) (*purchaseorder.Page, error)
}

type Handler struct {
	service Service
	orders  OrderSource
	logger  *zap.Logger
}

func NewHandler(service Service, orders OrderSource, logger *zap.Logger) *Handler {
	return &Handler{service: service, orders: orders, logger: logger}
}

// HandleSnapshot handles GET /metrics?start&end
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	start, end, err := purchaseorder.ParseRangeQuery(r.URL.Query())
	if err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.orders.List(r.Context(), purchaseorder.Query{Start: start, End: end})
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	snap := h.service.CalculateMetrics(r.Context(), page.Data, Options{StartDate: start, EndDate: end})
	respond.JSON(w, http.StatusOK, snap)
}

// HandleRecord handles POST /metrics/events/{type}
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := h.service.RecordMetric(r.Context(), chi.URLParam(r, "type"), data); err != nil {
		if errors.Is(err, ErrInvalidMetricType) {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleEvents handles GET /metrics/events/{type}
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.service.Metrics(chi.URLParam(r, "type")))
}
