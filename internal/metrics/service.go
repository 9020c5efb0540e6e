// internal/metrics/service.go
package metrics

import (
	"context"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// Service defines the interface for the metrics service.
type Service interface {
	// CalculateMetrics never fails: malformed orders are logged and left out.
	// Cached snapshots are shared between callers and must not be modified.
	CalculateMetrics(ctx context.Context, pos []*purchaseorder.PurchaseOrder, opts Options) *Snapshot
	RecordMetric(ctx context.Context, metricType string, data map[string]any) error
	Metrics(metricType string) []Event
}
