// internal/purchaseorder/implementation.go
package purchaseorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/validation"
	apperrors "github.com/holt-ace/DASHBOARDV3-sub001/pkg/errors"
	"github.com/holt-ace/DASHBOARDV3-sub001/pkg/eventstore"
)

// service implements the Service interface.
type service struct {
	repo      Repository
	validator Validator
	journal   Journal
	logger    *zap.Logger
}

// NewService creates a new purchase order service instance.
func NewService(repo Repository, validator Validator, journal Journal, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		validator: validator,
		journal:   journal,
		logger:    logger,
	}
}

// Create stores a new order in UPLOADED status.
func (s *service) Create(ctx context.Context, po *PurchaseOrder) (*PurchaseOrder, error) {
	if po == nil {
		return nil, &apperrors.ErrValidation{
			Message: "purchase order document is empty",
			Result:  validation.Fail(validation.SchemaError, "purchase order document is empty", nil),
		}
	}
	if po.Header.Status == "" {
		po.Header.Status = StatusUploaded
	}
	if po.Header.Status != StatusUploaded {
		msg := "Purchase orders must be created in UPLOADED status"
		return nil, &apperrors.ErrValidation{
			Message: msg,
			Result: validation.Fail(validation.StatusError, msg, map[string]any{
				"status": po.Header.Status,
			}),
		}
	}
	if po.Revision == 0 {
		po.Revision = 1
	}

	if result := Check(po); !result.Valid {
		return nil, &apperrors.ErrValidation{Message: "purchase order failed validation", Result: result}
	}

	if len(po.StatusHistory) == 0 {
		po.StatusHistory = []HistoryEntry{{
			Status:    StatusUploaded,
			Timestamp: time.Now().UTC(),
		}}
	}

	if err := s.repo.Create(ctx, po); err != nil {
		return nil, err
	}

	s.journalEvent(ctx, po.Header.PONumber, EventCreated, CreatedEvent{
		PONumber:  po.Header.PONumber,
		Status:    po.Header.Status,
		TotalCost: po.TotalCost,
		Products:  len(po.Products),
	}, nil)

	s.logger.Info("purchase order created",
		zap.String("po_number", po.Header.PONumber),
		zap.Int("products", len(po.Products)),
		zap.Float64("total_cost", po.TotalCost),
	)
	return po, nil
}

// Get retrieves an order by its number.
func (s *service) Get(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	return s.repo.FindByNumber(ctx, poNumber)
}

// List returns the orders selected by q.
func (s *service) List(ctx context.Context, q Query) (*Page, error) {
	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		msg := "start date must not be after end date"
		return nil, &apperrors.ErrValidation{
			Message: msg,
			Result:  validation.Fail(validation.TimeError, msg, nil),
		}
	}
	page, err := s.repo.FindByDateRange(ctx, q.Start, q.End, q.Filter, q.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return page, nil
}

// UpdateStatus moves an order to req.Status if the transition validator accepts it.
func (s *service) UpdateStatus(ctx context.Context, poNumber string, req TransitionRequest) (*PurchaseOrder, error) {
	po, err := s.repo.FindByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}

	current := po.Header.Status
	next := ParseStatus(string(req.Status))
	doc := TransitionDocument{
		PurchaseOrder:    *po,
		ValidationErrors: req.ValidationErrors,
		Notes:            req.Notes,
		User:             req.User,
	}

	result := s.validator.ValidateTransition(ctx, current, next, doc)
	if !result.Valid {
		s.logger.Info("status transition rejected",
			zap.String("po_number", poNumber),
			zap.String("from", string(current)),
			zap.String("to", string(next)),
			zap.Strings("errors", result.Messages()),
		)
		return nil, &apperrors.ErrInvalidStateTransition{
			From:   string(current),
			To:     string(next),
			Result: result,
		}
	}
	for _, w := range result.Warnings {
		s.logger.Warn("status transition warning",
			zap.String("po_number", poNumber),
			zap.String("to", string(next)),
			zap.String("warning", w.Message),
		)
	}

	entry := HistoryEntry{
		Status:    next,
		Timestamp: time.Now().UTC(),
		User:      req.User,
		Notes:     req.Notes,
	}
	updated, err := s.repo.UpdateStatus(ctx, poNumber, current, next, entry)
	if err != nil {
		return nil, err
	}

	s.journalEvent(ctx, poNumber, EventStatusChanged, StatusChangedEvent{
		PONumber: poNumber,
		From:     current,
		To:       next,
		User:     req.User,
		Notes:    req.Notes,
	}, map[string]any{"user": req.User})

	s.logger.Info("purchase order status changed",
		zap.String("po_number", poNumber),
		zap.String("from", string(current)),
		zap.String("to", string(next)),
	)
	return updated, nil
}

// History returns the journaled events of an order, oldest first.
func (s *service) History(ctx context.Context, poNumber string) ([]eventstore.Event, error) {
	if _, err := s.repo.FindByNumber(ctx, poNumber); err != nil {
		return nil, err
	}
	events, err := s.journal.Load(ctx, poNumber, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if events == nil {
		events = []eventstore.Event{}
	}
	return events, nil
}

// journalEvent appends one event after the document write has succeeded.
// The document is the source of truth, so a journal failure is logged
// rather than returned.
func (s *service) journalEvent(ctx context.Context, poNumber, eventType string, payload any, metadata map[string]any) {
	event, err := eventstore.NewEvent(eventType, payload, metadata)
	if err != nil {
		s.logger.Error("failed to build journal event", zap.String("po_number", poNumber), zap.Error(err))
		return
	}
	for attempt := 0; attempt < 3; attempt++ {
		version, err := s.journal.CurrentVersion(ctx, poNumber)
		if err != nil {
			s.logger.Error("failed to read journal version", zap.String("po_number", poNumber), zap.Error(err))
			return
		}
		err = s.journal.Append(ctx, poNumber, version, []eventstore.Event{event})
		if err == nil {
			return
		}
		if !errors.Is(err, eventstore.ErrConcurrencyConflict) {
			s.logger.Error("failed to append journal event",
				zap.String("po_number", poNumber),
				zap.String("event_type", eventType),
				zap.Error(err),
			)
			return
		}
	}
	s.logger.Warn("journal append kept conflicting", zap.String("po_number", poNumber), zap.String("event_type", eventType))
}
