// internal/ingest/service.go
package ingest

import (
	"context"
	"errors"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// MetricPDFProcessing is the metric type recorded for every upload.
const MetricPDFProcessing = "pdfProcessing"

// ErrExtractionFailed wraps every failure of the extraction step.
var ErrExtractionFailed = errors.New("document extraction failed")

// Result describes a successfully ingested document.
type Result struct {
	PurchaseOrder *purchaseorder.PurchaseOrder `json:"purchaseOrder"`
	ObjectKey     string                       `json:"objectKey,omitempty"`
	Attempts      int                          `json:"attempts"`
}

// Service defines the interface for the ingest service.
type Service interface {
	Ingest(ctx context.Context, fileName string, content []byte) (*Result, error)
}

// Creator persists extracted orders.
type Creator interface {
	Create(ctx context.Context, po *purchaseorder.PurchaseOrder) (*purchaseorder.PurchaseOrder, error)
}

// EventRecorder receives one processing event per upload.
type EventRecorder interface {
	RecordMetric(ctx context.Context, metricType string, data map[string]any) error
}
