// internal/purchaseorder/handler.go
package purchaseorder

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/api/respond"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleList handles GET /purchase-orders?start&end&status&location&buyer&batchSize
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query, err := ParseQuery(r.URL.Query())
	if err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.List(r.Context(), query)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// HandleCreate handles POST /purchase-orders
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var po PurchaseOrder
	if err := json.NewDecoder(r.Body).Decode(&po); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), &po)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /purchase-orders/{poNumber}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.Get(r.Context(), chi.URLParam(r, "poNumber"))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, po)
}

// HandleUpdateStatus handles PATCH /purchase-orders/{poNumber}/status
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Status == "" {
		respond.Message(w, http.StatusBadRequest, "status is required")
		return
	}
	po, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "poNumber"), req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, po)
}

// HandleHistory handles GET /purchase-orders/{poNumber}/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.History(r.Context(), chi.URLParam(r, "poNumber"))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, events)
}

// ParseQuery reads the range, filter and batchSize parameters of a list request.
func ParseQuery(q url.Values) (Query, error) {
	start, end, err := ParseRangeQuery(q)
	if err != nil {
		return Query{}, err
	}
	query := Query{
		Start: start,
		End:   end,
		Filter: Filter{
			Status:     ParseStatus(q.Get("status")),
			Location:   q.Get("location"),
			BuyerEmail: q.Get("buyer"),
		},
	}
	if bs := q.Get("batchSize"); bs != "" {
		n, err := strconv.Atoi(bs)
		if err != nil || n <= 0 {
			return Query{}, fmt.Errorf("batchSize must be a positive integer")
		}
		query.BatchSize = n
	}
	return query, nil
}

// ParseRangeQuery reads the optional start and end query parameters.
// A date-only end bound covers the whole day.
func ParseRangeQuery(q url.Values) (start, end *time.Time, err error) {
	if s := q.Get("start"); s != "" {
		t, ok := ParseDate(s)
		if !ok {
			return nil, nil, fmt.Errorf("invalid start date %q", s)
		}
		start = &t
	}
	if s := q.Get("end"); s != "" {
		t, ok := ParseDate(s)
		if !ok {
			return nil, nil, fmt.Errorf("invalid end date %q", s)
		}
		if len(s) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		end = &t
	}
	return start, end, nil
}
