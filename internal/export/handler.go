// internal/export/handler.go
package export

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/api/respond"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderSource supplies the orders to export.
type OrderSource interface {
	List(ctx context.Context, q purchaseorder.Query) (*purchaseorder.Page, error)
}

type Handler struct {
	orders OrderSource
	logger *zap.Logger
}

func NewHandler(orders OrderSource, logger *zap.Logger) *Handler {
	return &Handler{orders: orders, logger: logger}
}

// HandleExport handles GET /purchase-orders/export with the list filters.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	query, err := purchaseorder.ParseQuery(r.URL.Query())
	if err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.orders.List(r.Context(), query)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	f, err := Workbook(page.Data)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("purchase-orders_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		h.logger.Error("failed to write workbook", zap.Error(err))
	}
}
