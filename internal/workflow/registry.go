// Package workflow holds the purchase order status table and the
// transition validator that enforces it.
package workflow

import (
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// Level controls how a failed requirement affects a transition.
type Level string

const (
	Mandatory   Level = "MANDATORY"
	Recommended Level = "RECOMMENDED"
	Optional    Level = "OPTIONAL"
)

// Requirement is a named condition that gates entry into a status. The
// condition itself is resolved by name through a PredicateResolver.
type Requirement struct {
	Name    string `json:"name"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Metadata describes how a status behaves in the UI and the workflow.
type Metadata struct {
	Editable      bool `json:"editable"`
	RequiresNotes bool `json:"requiresNotes"`
	IsInitial     bool `json:"isInitial,omitempty"`
	IsTerminal    bool `json:"isTerminal,omitempty"`
}

// Definition is one row of the status table.
type Definition struct {
	Name               purchaseorder.Status   `json:"name"`
	Label              string                 `json:"label"`
	Description        string                 `json:"description"`
	Color              string                 `json:"color"`
	AllowedTransitions []purchaseorder.Status `json:"allowedTransitions"`
	Requirements       []Requirement          `json:"requirements"`
	Metadata           Metadata               `json:"metadata"`
}

// Registry maps every status to its definition. It is read-only after
// construction.
type Registry struct {
	order []purchaseorder.Status
	defs  map[purchaseorder.Status]Definition
}

// NewRegistry builds a registry from defs, keeping their order.
func NewRegistry(defs []Definition) *Registry {
	r := &Registry{defs: make(map[purchaseorder.Status]Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.Name]; !dup {
			r.order = append(r.order, d.Name)
		}
		r.defs[d.Name] = d
	}
	return r
}

// Definition returns the definition of s.
func (r *Registry) Definition(s purchaseorder.Status) (Definition, bool) {
	d, ok := r.defs[s]
	return d, ok
}

// Definitions returns every definition in table order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, r.defs[s])
	}
	return out
}

// AllowedTransitions returns the statuses reachable from s, empty when s is
// unknown or terminal.
func (r *Registry) AllowedTransitions(s purchaseorder.Status) []purchaseorder.Status {
	d, ok := r.defs[s]
	if !ok {
		return []purchaseorder.Status{}
	}
	out := make([]purchaseorder.Status, len(d.AllowedTransitions))
	copy(out, d.AllowedTransitions)
	return out
}

// Requirement names used by the default table.
const (
	ReqDataVerified         = "dataVerified"
	ReqCostsReconciled      = "costsReconciled"
	ReqOCNumberAssigned     = "ocNumberAssigned"
	ReqWeightsRecorded      = "weightsRecorded"
	ReqDeliveryScheduled    = "deliveryScheduled"
	ReqDeliveryInstructions = "deliveryInstructions"
	ReqInvoiceTotalPositive = "invoiceTotalPositive"
	ReqDeliveryConfirmed    = "deliveryConfirmed"
	ReqCancellationNotes    = "cancellationNotes"
)

var costsReconciled = Requirement{
	Name:    ReqCostsReconciled,
	Level:   Mandatory,
	Message: "Product totals and total cost must reconcile",
}

// DefaultRegistry returns the purchase order workflow table.
func DefaultRegistry() *Registry {
	return NewRegistry([]Definition{
		{
			Name:               purchaseorder.StatusUploaded,
			Label:              "Uploaded",
			Description:        "Document received and extracted, awaiting review",
			Color:              "#6B7280",
			AllowedTransitions: []purchaseorder.Status{purchaseorder.StatusConfirmed, purchaseorder.StatusCancelled},
			Requirements:       []Requirement{},
			Metadata:           Metadata{Editable: true, IsInitial: true},
		},
		{
			Name:               purchaseorder.StatusConfirmed,
			Label:              "Confirmed",
			Description:        "Order data verified and accepted",
			Color:              "#2563EB",
			AllowedTransitions: []purchaseorder.Status{purchaseorder.StatusShipped, purchaseorder.StatusCancelled},
			Requirements: []Requirement{
				{Name: ReqDataVerified, Level: Mandatory, Message: "Document must have no outstanding validation errors"},
				costsReconciled,
				{Name: ReqOCNumberAssigned, Level: Optional, Message: "Order confirmation number is not assigned yet"},
			},
			Metadata: Metadata{Editable: true},
		},
		{
			Name:               purchaseorder.StatusShipped,
			Label:              "Shipped",
			Description:        "Goods left the supplier",
			Color:              "#7C3AED",
			AllowedTransitions: []purchaseorder.Status{purchaseorder.StatusInvoiced, purchaseorder.StatusCancelled},
			Requirements: []Requirement{
				costsReconciled,
				{Name: ReqWeightsRecorded, Level: Mandatory, Message: "Gross and net weights must be recorded with gross above net"},
				{Name: ReqDeliveryScheduled, Level: Mandatory, Message: "An expected delivery date is required"},
				{Name: ReqDeliveryInstructions, Level: Recommended, Message: "Delivery instructions should be provided"},
			},
		},
		{
			Name:               purchaseorder.StatusInvoiced,
			Label:              "Invoiced",
			Description:        "Invoice issued for the shipment",
			Color:              "#D97706",
			AllowedTransitions: []purchaseorder.Status{purchaseorder.StatusDelivered, purchaseorder.StatusCancelled},
			Requirements: []Requirement{
				costsReconciled,
				{Name: ReqInvoiceTotalPositive, Level: Mandatory, Message: "Invoice total must be greater than zero"},
			},
		},
		{
			Name:               purchaseorder.StatusDelivered,
			Label:              "Delivered",
			Description:        "Goods received at the location",
			Color:              "#059669",
			AllowedTransitions: []purchaseorder.Status{},
			Requirements: []Requirement{
				costsReconciled,
				{Name: ReqDeliveryConfirmed, Level: Mandatory, Message: "Actual delivery date is required"},
			},
			Metadata: Metadata{IsTerminal: true},
		},
		{
			Name:               purchaseorder.StatusCancelled,
			Label:              "Cancelled",
			Description:        "Order withdrawn",
			Color:              "#DC2626",
			AllowedTransitions: []purchaseorder.Status{},
			Requirements: []Requirement{
				{Name: ReqCancellationNotes, Level: Mandatory, Message: "A cancellation reason is required"},
			},
			Metadata: Metadata{RequiresNotes: true, IsTerminal: true},
		},
	})
}
