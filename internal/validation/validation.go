// Package validation defines the error taxonomy shared by schema checks and
// the status transition validator. Validation failures are returned as
// values, never raised.
package validation

import (
	"math"
	"time"
)

// ErrorType tags every validation failure with exactly one kind.
type ErrorType string

const (
	SchemaError   ErrorType = "SCHEMA_ERROR"
	TypeError     ErrorType = "TYPE_ERROR"
	RequiredField ErrorType = "REQUIRED_FIELD"
	FormatError   ErrorType = "FORMAT_ERROR"
	BusinessRule  ErrorType = "BUSINESS_RULE"
	StatusError   ErrorType = "STATUS_ERROR"
	TimeError     ErrorType = "TIME_ERROR"
	MetricError   ErrorType = "METRIC_ERROR"
)

// Tolerance is the fixed epsilon for currency and weight equality checks.
const Tolerance = 0.01

// Error is a single validation failure.
type Error struct {
	Type      ErrorType      `json:"type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Context carries the transition context attached to a status validation.
type Context struct {
	CurrentStatus    string   `json:"currentStatus"`
	ValidTransitions []string `json:"validTransitions"`
}

// Result is the outcome of a validation run. Only Errors affect Valid;
// Warnings and Info surface non-blocking findings.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []Error  `json:"errors"`
	Warnings []Error  `json:"warnings,omitempty"`
	Info     []Error  `json:"info,omitempty"`
	Context  *Context `json:"context,omitempty"`
}

// NewError builds an Error stamped with the current time.
func NewError(t ErrorType, message string, details map[string]any) Error {
	return Error{
		Type:      t,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// Add appends a blocking error.
func (r *Result) Add(t ErrorType, message string, details map[string]any) {
	r.Errors = append(r.Errors, NewError(t, message, details))
}

// Warn appends a non-blocking warning.
func (r *Result) Warn(t ErrorType, message string, details map[string]any) {
	r.Warnings = append(r.Warnings, NewError(t, message, details))
}

// Note appends an informational finding.
func (r *Result) Note(t ErrorType, message string, details map[string]any) {
	r.Info = append(r.Info, NewError(t, message, details))
}

// Finish sets Valid from the error list and normalises nil slices so the
// JSON form always carries an errors array.
func (r Result) Finish() Result {
	if r.Errors == nil {
		r.Errors = []Error{}
	}
	r.Valid = len(r.Errors) == 0
	return r
}

// Fail returns an invalid result holding a single error.
func Fail(t ErrorType, message string, details map[string]any) Result {
	var r Result
	r.Add(t, message, details)
	return r.Finish()
}

// Messages lists the error messages in order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

// ApproxEqual reports whether a and b differ by no more than Tolerance.
func ApproxEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}
