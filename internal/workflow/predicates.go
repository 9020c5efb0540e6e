package workflow

import (
	"strings"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// Predicate reports whether a requirement holds for a document. Predicates
// must be pure.
type Predicate func(doc purchaseorder.TransitionDocument) bool

// PredicateResolver looks up the predicate registered for a requirement of
// a status.
type PredicateResolver interface {
	Resolve(status purchaseorder.Status, requirement string) (Predicate, bool)
}

type predicateKey struct {
	status      purchaseorder.Status
	requirement string
}

// PredicateTable is a PredicateResolver backed by a map. Entries registered
// with status "" apply to every status.
type PredicateTable struct {
	entries map[predicateKey]Predicate
}

// NewPredicateTable creates an empty table.
func NewPredicateTable() *PredicateTable {
	return &PredicateTable{entries: make(map[predicateKey]Predicate)}
}

// Register binds p to requirement under status.
func (t *PredicateTable) Register(status purchaseorder.Status, requirement string, p Predicate) *PredicateTable {
	t.entries[predicateKey{status, requirement}] = p
	return t
}

// Resolve prefers a status-specific entry over a shared one.
func (t *PredicateTable) Resolve(status purchaseorder.Status, requirement string) (Predicate, bool) {
	if p, ok := t.entries[predicateKey{status, requirement}]; ok {
		return p, true
	}
	p, ok := t.entries[predicateKey{"", requirement}]
	return p, ok
}

// DefaultPredicates returns the predicates for DefaultRegistry.
func DefaultPredicates() *PredicateTable {
	return NewPredicateTable().
		Register("", ReqDataVerified, dataVerified).
		Register("", ReqCostsReconciled, costsReconciledPredicate).
		Register("", ReqOCNumberAssigned, ocNumberAssigned).
		Register("", ReqWeightsRecorded, weightsRecorded).
		Register("", ReqDeliveryScheduled, deliveryScheduled).
		Register("", ReqDeliveryInstructions, deliveryInstructions).
		Register("", ReqInvoiceTotalPositive, invoiceTotalPositive).
		Register("", ReqDeliveryConfirmed, deliveryConfirmed).
		Register("", ReqCancellationNotes, cancellationNotes)
}

func dataVerified(doc purchaseorder.TransitionDocument) bool {
	return len(doc.ValidationErrors) == 0
}

func costsReconciledPredicate(doc purchaseorder.TransitionDocument) bool {
	return purchaseorder.ProductTotalsReconciled(&doc.PurchaseOrder) &&
		purchaseorder.TotalCostReconciled(&doc.PurchaseOrder)
}

func ocNumberAssigned(doc purchaseorder.TransitionDocument) bool {
	return strings.TrimSpace(doc.Header.OCNumber) != ""
}

func weightsRecorded(doc purchaseorder.TransitionDocument) bool {
	w := doc.Weights
	return w != nil && w.GrossWeight != nil && w.NetWeight != nil && *w.GrossWeight > *w.NetWeight
}

func deliveryScheduled(doc purchaseorder.TransitionDocument) bool {
	d := doc.Header.DeliveryInfo
	if d == nil {
		return false
	}
	_, ok := purchaseorder.ParseDate(d.Date)
	return ok
}

func deliveryInstructions(doc purchaseorder.TransitionDocument) bool {
	d := doc.Header.DeliveryInfo
	return d != nil && strings.TrimSpace(d.Instructions) != ""
}

func invoiceTotalPositive(doc purchaseorder.TransitionDocument) bool {
	return doc.TotalCost > 0
}

func deliveryConfirmed(doc purchaseorder.TransitionDocument) bool {
	d := doc.Header.DeliveryInfo
	if d == nil {
		return false
	}
	_, ok := purchaseorder.ParseDate(d.ActualDate)
	return ok
}

func cancellationNotes(doc purchaseorder.TransitionDocument) bool {
	return strings.TrimSpace(doc.Notes) != ""
}
