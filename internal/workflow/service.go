// internal/workflow/service.go
package workflow

import (
	"context"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/validation"
)

// Service defines the interface for the transition validator.
type Service interface {
	ValidateTransition(ctx context.Context, current, next purchaseorder.Status, doc purchaseorder.TransitionDocument) validation.Result
	AvailableTransitions(status purchaseorder.Status) []purchaseorder.Status
	StatusRequirements(status purchaseorder.Status) []Requirement
	IsValidStatus(status purchaseorder.Status) bool
	Definition(status purchaseorder.Status) (Definition, bool)
	Definitions() []Definition
}
