// internal/purchaseorder/service.go
package purchaseorder

import (
	"context"
	"time"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/validation"
	"github.com/holt-ace/DASHBOARDV3-sub001/pkg/eventstore"
)

// Query selects orders for List.
type Query struct {
	Start     *time.Time
	End       *time.Time
	Filter    Filter
	BatchSize int
}

// Service defines the interface for the purchase order service.
type Service interface {
	Create(ctx context.Context, po *PurchaseOrder) (*PurchaseOrder, error)
	Get(ctx context.Context, poNumber string) (*PurchaseOrder, error)
	List(ctx context.Context, q Query) (*Page, error)
	UpdateStatus(ctx context.Context, poNumber string, req TransitionRequest) (*PurchaseOrder, error)
	History(ctx context.Context, poNumber string) ([]eventstore.Event, error)
}

// Validator decides whether a status change is allowed for a document.
type Validator interface {
	ValidateTransition(ctx context.Context, current, next Status, doc TransitionDocument) validation.Result
}

// Journal is the append-only event log written on every change.
type Journal interface {
	Append(ctx context.Context, poNumber string, expectedVersion int, events []eventstore.Event) error
	Load(ctx context.Context, poNumber string, fromVersion, toVersion int) ([]eventstore.Event, error)
	CurrentVersion(ctx context.Context, poNumber string) (int, error)
}
