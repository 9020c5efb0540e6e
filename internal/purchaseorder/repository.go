package purchaseorder

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/holt-ace/DASHBOARDV3-sub001/pkg/errors"
)

// DefaultBatchSize is the page size used when a caller passes batchSize <= 0.
const DefaultBatchSize = 500

// Filter narrows a date-range query. Empty fields match everything.
type Filter struct {
	Status     Status `json:"status,omitempty"`
	Location   string `json:"location,omitempty"`
	BuyerEmail string `json:"buyerEmail,omitempty"`
}

// PageMetadata describes how a result set was batched.
type PageMetadata struct {
	Total     int `json:"total"`
	Batches   int `json:"batches"`
	BatchSize int `json:"batchSize"`
}

// Page is the result of FindByDateRange.
type Page struct {
	Data     []*PurchaseOrder `json:"data"`
	Metadata PageMetadata     `json:"metadata"`
}

// Repository is the storage boundary for purchase order documents.
// poNumber is unique; implementations return *errors.ErrConflict on a
// duplicate and *errors.ErrNotFound for a missing order.
type Repository interface {
	Create(ctx context.Context, po *PurchaseOrder) error
	// FindByDateRange returns orders whose orderDate is within [start, end].
	// A nil bound is open on that side. With both bounds nil, orders with
	// an unparseable orderDate are included too.
	FindByDateRange(ctx context.Context, start, end *time.Time, filter Filter, batchSize int) (*Page, error)
	FindByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error)
	// UpdateStatus moves the order from status from to status to and appends
	// entry to the history. It returns *ErrConflict when the stored status is
	// no longer from.
	UpdateStatus(ctx context.Context, poNumber string, from, to Status, entry HistoryEntry) (*PurchaseOrder, error)
}

func staleStatus(poNumber string, expected, actual Status) error {
	return &apperrors.ErrConflict{Message: fmt.Sprintf(
		"purchase order %s is %s, expected %s; reload and retry", poNumber, actual, expected)}
}

func batches(total, size int) int {
	if total == 0 {
		return 0
	}
	return (total + size - 1) / size
}

func inRange(po *PurchaseOrder, start, end *time.Time) bool {
	if start == nil && end == nil {
		return true
	}
	t, ok := po.OrderTime()
	if !ok {
		return false
	}
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}

func (f Filter) matches(po *PurchaseOrder) bool {
	if f.Status != "" && po.Header.Status != f.Status {
		return false
	}
	if f.Location != "" && po.LocationKey() != f.Location {
		return false
	}
	if f.BuyerEmail != "" && (po.Header.BuyerInfo == nil || po.Header.BuyerInfo.Email != f.BuyerEmail) {
		return false
	}
	return true
}
