package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/validation"
)

// ErrRateLimited is returned when a caller exceeds an ingest limit
var ErrRateLimited = stderrors.New("rate limit exceeded")

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrConflict is returned when a write collides with existing state (duplicate PO number, stale version)
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrValidation is returned when a document fails schema or business-rule checks
type ErrValidation struct {
	Message string
	Result  validation.Result
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrInvalidStateTransition is returned when the transition validator rejects a status change
type ErrInvalidStateTransition struct {
	From   string
	To     string
	Result validation.Result
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}
