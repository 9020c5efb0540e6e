// internal/metrics/implementation.go
package metrics

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// service implements the Service interface.
type service struct {
	cache    SnapshotCache
	recorder *Recorder
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time

	aggregations metric.Int64Counter
	cacheHits    metric.Int64Counter
	recorded     metric.Int64Counter
}

// NewService creates a new metrics service instance.
func NewService(cache SnapshotCache, recorder *Recorder, logger *zap.Logger) Service {
	meter := otel.Meter("potrack/metrics")
	s := &service{
		cache:    cache,
		recorder: recorder,
		logger:   logger,
		tracer:   otel.Tracer("potrack/metrics"),
		now:      time.Now,
	}
	var err error
	if s.aggregations, err = meter.Int64Counter("metrics.aggregations"); err != nil {
		logger.Warn("aggregation counter unavailable", zap.Error(err))
	}
	if s.cacheHits, err = meter.Int64Counter("metrics.cache_hits"); err != nil {
		logger.Warn("cache hit counter unavailable", zap.Error(err))
	}
	if s.recorded, err = meter.Int64Counter("metrics.events_recorded"); err != nil {
		logger.Warn("recorded event counter unavailable", zap.Error(err))
	}
	return s
}

// CalculateMetrics returns the snapshot for pos within opts, served from
// the cache when the same order numbers and options were seen within the
// cache TTL.
func (s *service) CalculateMetrics(ctx context.Context, pos []*purchaseorder.PurchaseOrder, opts Options) *Snapshot {
	ctx, span := s.tracer.Start(ctx, "metrics.calculate",
		trace.WithAttributes(attribute.Int("po.count", len(pos))),
	)
	defer span.End()

	key := cacheKey(pos, opts)
	if cached, ok := s.cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		add(ctx, s.cacheHits)
		return cached
	}
	add(ctx, s.aggregations)

	now := s.now().UTC()
	included, excluded := s.filter(pos, opts)

	snap := &Snapshot{
		Meta: Meta{
			Included:    len(included),
			Excluded:    excluded,
			GeneratedAt: now,
		},
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		snap.Calendar = calendarMetrics(included, now, s.logger)
	}()
	go func() {
		defer wg.Done()
		snap.Financial = financialMetrics(included, s.logger)
	}()
	go func() {
		defer wg.Done()
		snap.Operational = operationalMetrics(included, now, s.logger)
	}()
	wg.Wait()

	snap.Product = ProductMetrics{TopProducts: snap.Financial.TopProducts}
	if processing := s.recorder.All(); len(processing) > 0 {
		snap.Processing = processing
	}

	span.SetAttributes(
		attribute.Int("po.included", len(included)),
		attribute.Int("po.excluded", excluded),
	)
	s.cache.Set(ctx, key, snap)
	return snap
}

// filter keeps orders whose orderDate parses and lies within opts.
func (s *service) filter(pos []*purchaseorder.PurchaseOrder, opts Options) ([]*purchaseorder.PurchaseOrder, int) {
	included := make([]*purchaseorder.PurchaseOrder, 0, len(pos))
	excluded := 0
	for _, po := range pos {
		if po == nil {
			excluded++
			continue
		}
		t, ok := po.OrderTime()
		if !ok {
			s.logger.Warn("order excluded from metrics: missing or invalid orderDate",
				zap.String("po_number", po.Header.PONumber),
				zap.String("order_date", po.Header.OrderDate),
			)
			excluded++
			continue
		}
		if opts.StartDate != nil && t.Before(*opts.StartDate) {
			continue
		}
		if opts.EndDate != nil && t.After(*opts.EndDate) {
			continue
		}
		included = append(included, po)
	}
	return included, excluded
}

// RecordMetric appends an instrumentation event.
func (s *service) RecordMetric(ctx context.Context, metricType string, data map[string]any) error {
	if err := s.recorder.Record(metricType, data); err != nil {
		s.logger.Error("failed to record metric", zap.String("type", metricType), zap.Error(err))
		return err
	}
	if s.recorded != nil {
		s.recorded.Add(ctx, 1, metric.WithAttributes(attribute.String("type", metricType)))
	}
	return nil
}

// Metrics returns the recorded events of metricType.
func (s *service) Metrics(metricType string) []Event {
	return s.recorder.Events(metricType)
}

// cacheKey joins the sorted order numbers with the serialized options.
func cacheKey(pos []*purchaseorder.PurchaseOrder, opts Options) string {
	numbers := make([]string, 0, len(pos))
	for _, po := range pos {
		if po != nil {
			numbers = append(numbers, po.Header.PONumber)
		}
	}
	sort.Strings(numbers)
	o, _ := json.Marshal(opts)
	return strings.Join(numbers, ",") + "|" + string(o)
}

func add(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}
