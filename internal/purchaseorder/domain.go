package purchaseorder

import (
	"strings"
	"time"
)

// Status is a purchase order lifecycle state.
type Status string

const (
	StatusUploaded  Status = "UPLOADED"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusInvoiced  Status = "INVOICED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every lifecycle state in workflow order.
var Statuses = []Status{
	StatusUploaded,
	StatusConfirmed,
	StatusShipped,
	StatusInvoiced,
	StatusDelivered,
	StatusCancelled,
}

// IsValid checks if the status is one of the six lifecycle states
func (s Status) IsValid() bool {
	switch s {
	case StatusUploaded, StatusConfirmed, StatusShipped, StatusInvoiced, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus normalises user input ("shipped", " SHIPPED ") to a Status.
// The returned value is not guaranteed to be valid; check IsValid.
func ParseStatus(s string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(s)))
}

// BuyerInfo identifies the person who placed the order.
type BuyerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// FullName joins first and last name.
func (b BuyerInfo) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// Location is the receiving distribution location.
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Region  string `json:"region,omitempty"`
}

// DeliveryInfo holds the expected and actual delivery dates.
type DeliveryInfo struct {
	Date         string `json:"date,omitempty"`
	ActualDate   string `json:"actualDate,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Header is the identifying part of a purchase order document.
type Header struct {
	PONumber      string        `json:"poNumber"`
	OCNumber      string        `json:"ocNumber,omitempty"`
	OrderDate     string        `json:"orderDate"`
	Status        Status        `json:"status"`
	BuyerInfo     *BuyerInfo    `json:"buyerInfo,omitempty"`
	SyscoLocation *Location     `json:"syscoLocation,omitempty"`
	DeliveryInfo  *DeliveryInfo `json:"deliveryInfo,omitempty"`
}

// Product is a single order line. Total must equal Quantity * FOBCost.
type Product struct {
	SUPC        string  `json:"supc"`
	ItemCode    string  `json:"itemCode,omitempty"`
	Description string  `json:"description,omitempty"`
	PackSize    string  `json:"packSize,omitempty"`
	Category    string  `json:"category,omitempty"`
	Quantity    float64 `json:"quantity"`
	FOBCost     float64 `json:"fobCost"`
	Total       float64 `json:"total"`
}

// Weights carries shipment weights. Gross must exceed net when both are set.
type Weights struct {
	GrossWeight     *float64 `json:"grossWeight,omitempty"`
	NetWeight       *float64 `json:"netWeight,omitempty"`
	EstimatedWeight *float64 `json:"estimatedWeight,omitempty"`
	ActualWeight    *float64 `json:"actualWeight,omitempty"`
}

// HistoryEntry records one past status of a purchase order.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// PurchaseOrder is the root aggregate persisted as a single document.
type PurchaseOrder struct {
	Header         Header         `json:"header"`
	Products       []Product      `json:"products"`
	Weights        *Weights       `json:"weights,omitempty"`
	TotalCost      float64        `json:"totalCost"`
	Revision       int            `json:"revision"`
	RevisionInfo   string         `json:"revisionInfo,omitempty"`
	StatusHistory  []HistoryEntry `json:"statusHistory,omitempty"`
	ProcessingTime *float64       `json:"processingTime,omitempty"` // seconds from upload to extraction
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// ProductsTotal sums the line totals.
func (po *PurchaseOrder) ProductsTotal() float64 {
	var sum float64
	for _, p := range po.Products {
		sum += p.Total
	}
	return sum
}

// OrderTime parses Header.OrderDate.
func (po *PurchaseOrder) OrderTime() (time.Time, bool) {
	return ParseDate(po.Header.OrderDate)
}

// BuyerKey is the grouping key for per-buyer aggregates, empty when the
// buyer is unknown.
func (po *PurchaseOrder) BuyerKey() string {
	if po.Header.BuyerInfo == nil {
		return ""
	}
	if name := po.Header.BuyerInfo.FullName(); name != "" {
		return name
	}
	return strings.TrimSpace(po.Header.BuyerInfo.Email)
}

// LocationKey is the grouping key for per-location aggregates.
func (po *PurchaseOrder) LocationKey() string {
	if po.Header.SyscoLocation == nil {
		return ""
	}
	return strings.TrimSpace(po.Header.SyscoLocation.Name)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseDate accepts the date encodings found in stored and extracted documents.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// TransitionDocument is the candidate document evaluated by the transition
// validator: the order itself plus request-scoped data.
type TransitionDocument struct {
	PurchaseOrder
	ValidationErrors []string `json:"validationErrors,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	User             string   `json:"user,omitempty"`
}

// TransitionRequest asks for a status change on a stored order.
type TransitionRequest struct {
	Status           Status   `json:"status"`
	Notes            string   `json:"notes,omitempty"`
	User             string   `json:"user,omitempty"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
}

// Journal event types.
const (
	EventCreated       = "PurchaseOrderCreated"
	EventStatusChanged = "StatusChanged"
)

// CreatedEvent is journaled when an order is stored.
type CreatedEvent struct {
	PONumber  string  `json:"poNumber"`
	Status    Status  `json:"status"`
	TotalCost float64 `json:"totalCost"`
	Products  int     `json:"products"`
}

// StatusChangedEvent is journaled on every accepted transition.
type StatusChangedEvent struct {
	PONumber string `json:"poNumber"`
	From     Status `json:"from"`
	To       Status `json:"to"`
	User     string `json:"user,omitempty"`
	Notes    string `json:"notes,omitempty"`
}
