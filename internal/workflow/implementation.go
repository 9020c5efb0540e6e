// internal/workflow/implementation.go
package workflow

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/validation"
)

// service implements the Service interface.
type service struct {
	registry   *Registry
	predicates PredicateResolver
	logger     *zap.Logger
	tracer     trace.Tracer
	validated  metric.Int64Counter
}

// NewService creates a validator over registry and predicates.
func NewService(registry *Registry, predicates PredicateResolver, logger *zap.Logger) Service {
	validated, err := otel.Meter("potrack/workflow").Int64Counter("workflow.transitions.validated",
		metric.WithDescription("Status transitions validated, by outcome"),
	)
	if err != nil {
		logger.Warn("transition counter unavailable", zap.Error(err))
	}
	return &service{
		registry:   registry,
		predicates: predicates,
		logger:     logger,
		tracer:     otel.Tracer("potrack/workflow"),
		validated:  validated,
	}
}

// ValidateTransition checks that next is reachable from current and that the
// requirements of next hold for doc. Only MANDATORY failures invalidate the
// result; RECOMMENDED failures become warnings and OPTIONAL failures info.
func (s *service) ValidateTransition(ctx context.Context, current, next purchaseorder.Status, doc purchaseorder.TransitionDocument) validation.Result {
	ctx, span := s.tracer.Start(ctx, "workflow.validate_transition",
		trace.WithAttributes(
			attribute.String("status.current", string(current)),
			attribute.String("status.next", string(next)),
		),
	)
	defer span.End()

	result := s.validate(current, next, doc)

	span.SetAttributes(
		attribute.Bool("transition.valid", result.Valid),
		attribute.Int("transition.errors", len(result.Errors)),
	)
	if s.validated != nil {
		s.validated.Add(ctx, 1, metric.WithAttributes(
			attribute.String("to", string(next)),
			attribute.Bool("valid", result.Valid),
		))
	}
	return result
}

func (s *service) validate(current, next purchaseorder.Status, doc purchaseorder.TransitionDocument) validation.Result {
	if _, ok := s.registry.Definition(current); !ok {
		return validation.Fail(validation.StatusError, "Invalid current status", map[string]any{"status": current})
	}
	target, ok := s.registry.Definition(next)
	if !ok {
		return validation.Fail(validation.StatusError, "Invalid next status", map[string]any{"status": next})
	}

	allowed := s.registry.AllowedTransitions(current)
	result := validation.Result{
		Context: &validation.Context{
			CurrentStatus:    string(current),
			ValidTransitions: statusNames(allowed),
		},
	}

	if !contains(allowed, next) {
		result.Add(validation.StatusError,
			fmt.Sprintf("Invalid status transition: %s -> %s", current, next),
			map[string]any{"validTransitions": statusNames(allowed)},
		)
		return result.Finish()
	}

	for _, req := range target.Requirements {
		ok, err := s.evaluate(next, req, doc)
		if ok {
			continue
		}

		kind := validation.StatusError
		msg := "Requirement not met: " + req.Name
		details := map[string]any{"requirement": req.Name, "level": req.Level, "description": req.Message}
		if err != nil {
			s.logger.Warn("requirement predicate failed",
				zap.String("po_number", doc.Header.PONumber),
				zap.String("requirement", req.Name),
				zap.Error(err),
			)
			kind = validation.BusinessRule
			msg = fmt.Sprintf("Requirement %s could not be evaluated: %v", req.Name, err)
		}
		switch req.Level {
		case Recommended:
			result.Warn(kind, msg, details)
		case Optional:
			result.Note(kind, msg, details)
		default:
			result.Add(kind, msg, details)
		}
	}
	return result.Finish()
}

// evaluate runs one predicate, converting a missing predicate or a panic
// into an error.
func (s *service) evaluate(status purchaseorder.Status, req Requirement, doc purchaseorder.TransitionDocument) (ok bool, err error) {
	pred, found := s.predicates.Resolve(status, req.Name)
	if !found || pred == nil {
		return false, fmt.Errorf("no predicate registered")
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("predicate panicked: %v", r)
		}
	}()
	return pred(doc), nil
}

// AvailableTransitions returns the statuses reachable from status.
func (s *service) AvailableTransitions(status purchaseorder.Status) []purchaseorder.Status {
	return s.registry.AllowedTransitions(status)
}

// StatusRequirements returns the requirements gating entry into status,
// empty when status is unknown.
func (s *service) StatusRequirements(status purchaseorder.Status) []Requirement {
	d, ok := s.registry.Definition(status)
	if !ok {
		return []Requirement{}
	}
	out := make([]Requirement, len(d.Requirements))
	copy(out, d.Requirements)
	return out
}

// IsValidStatus reports whether status is in the table.
func (s *service) IsValidStatus(status purchaseorder.Status) bool {
	_, ok := s.registry.Definition(status)
	return ok
}

func (s *service) Definition(status purchaseorder.Status) (Definition, bool) {
	return s.registry.Definition(status)
}

func (s *service) Definitions() []Definition {
	return s.registry.Definitions()
}

func contains(list []purchaseorder.Status, s purchaseorder.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func statusNames(list []purchaseorder.Status) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}
