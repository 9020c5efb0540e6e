// internal/ingest/implementation.go
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

type service struct {
	extractor Extractor
	creator   Creator
	blobs     BlobStore
	events    EventRecorder
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a new ingest service. blobs may be nil, in which case
// originals are not kept.
func NewService(extractor Extractor, creator Creator, blobs BlobStore, events EventRecorder, logger *zap.Logger) Service {
	return &service{
		extractor: extractor,
		creator:   creator,
		blobs:     blobs,
		events:    events,
		logger:    logger,
		tracer:    otel.Tracer("potrack/ingest"),
		now:       time.Now,
	}
}

// Ingest stores the original, extracts the order and creates it. Once the
// original is stored, any later failure removes it again. An order the
// extractor left without a processing time gets the seconds spent so far.
func (s *service) Ingest(ctx context.Context, fileName string, content []byte) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.Ingest",
		trace.WithAttributes(
			attribute.String("file.name", fileName),
			attribute.Int("file.size", len(content)),
		),
	)
	defer span.End()

	started := s.now()
	event := map[string]any{"fileName": fileName}
	fail := func(err error) (*Result, error) {
		event["success"] = false
		event["error"] = err.Error()
		s.record(ctx, event, started)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var key string
	if s.blobs != nil {
		k, err := s.blobs.Put(ctx, fileName, content, "application/pdf")
		if err != nil {
			return fail(fmt.Errorf("failed to store original: %w", err))
		}
		key = k
	}

	po, attempts, err := s.extractor.Extract(ctx, fileName, content)
	event["attempts"] = attempts
	if err != nil {
		s.compensate(ctx, key)
		return fail(fmt.Errorf("%w: %w", ErrExtractionFailed, err))
	}
	event["poNumber"] = po.Header.PONumber
	if po.ProcessingTime == nil {
		secs := s.now().Sub(started).Seconds()
		po.ProcessingTime = &secs
	}

	created, err := s.creator.Create(ctx, po)
	if err != nil {
		s.compensate(ctx, key)
		return fail(err)
	}

	event["success"] = true
	s.record(ctx, event, started)
	s.logger.Info("document ingested",
		zap.String("file_name", fileName),
		zap.String("po_number", created.Header.PONumber),
		zap.Int("attempts", attempts))

	return &Result{PurchaseOrder: created, ObjectKey: key, Attempts: attempts}, nil
}

func (s *service) compensate(ctx context.Context, key string) {
	if key == "" {
		return
	}
	s.logger.Info("removing stored original after failed ingest", zap.String("object_key", key))
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Error("failed to remove stored original", zap.String("object_key", key), zap.Error(err))
	}
}

func (s *service) record(ctx context.Context, event map[string]any, started time.Time) {
	if s.events == nil {
		return
	}
	event["durationMs"] = s.now().Sub(started).Milliseconds()
	if err := s.events.RecordMetric(ctx, MetricPDFProcessing, event); err != nil {
		s.logger.Warn("failed to record processing event", zap.Error(err))
	}
}

var _ Creator = (purchaseorder.Service)(nil)
