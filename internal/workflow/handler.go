// internal/workflow/handler.go
package workflow

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/api/respond"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// ValidateRequest is the body of POST /transitions/validate.
type ValidateRequest struct {
	Current string                           `json:"current"`
	Next    string                           `json:"next"`
	Data    purchaseorder.TransitionDocument `json:"data"`
}

// HandleStatuses handles GET /statuses
func (h *Handler) HandleStatuses(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.service.Definitions())
}

// HandleStatus handles GET /statuses/{status}
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := purchaseorder.ParseStatus(chi.URLParam(r, "status"))
	def, ok := h.service.Definition(status)
	if !ok {
		respond.Message(w, http.StatusNotFound, "unknown status: "+string(status))
		return
	}
	respond.JSON(w, http.StatusOK, def)
}

// HandleTransitions handles GET /statuses/{status}/transitions
func (h *Handler) HandleTransitions(w http.ResponseWriter, r *http.Request) {
	status := purchaseorder.ParseStatus(chi.URLParam(r, "status"))
	respond.JSON(w, http.StatusOK, h.service.AvailableTransitions(status))
}

// HandleRequirements handles GET /statuses/{status}/requirements
func (h *Handler) HandleRequirements(w http.ResponseWriter, r *http.Request) {
	status := purchaseorder.ParseStatus(chi.URLParam(r, "status"))
	respond.JSON(w, http.StatusOK, h.service.StatusRequirements(status))
}

// HandleValidate handles POST /transitions/validate. The result is returned
// with 200 whether or not the transition is valid.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	result := h.service.ValidateTransition(r.Context(),
		purchaseorder.ParseStatus(req.Current),
		purchaseorder.ParseStatus(req.Next),
		req.Data,
	)
	respond.JSON(w, http.StatusOK, result)
}
