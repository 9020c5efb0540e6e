// Package respond writes JSON responses and maps application errors to
// HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/validation"
	apperrors "github.com/holt-ace/DASHBOARDV3-sub001/pkg/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error    string              `json:"error"`
	Errors   []validation.Error  `json:"errors,omitempty"`
	Warnings []validation.Error  `json:"warnings,omitempty"`
	Context  *validation.Context `json:"context,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes an error body holding only a message.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// Error maps err to a status code and writes it. Unexpected errors are
// logged and hidden behind a generic message.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		notFound   *apperrors.ErrNotFound
		conflict   *apperrors.ErrConflict
		invalid    *apperrors.ErrValidation
		transition *apperrors.ErrInvalidStateTransition
	)
	switch {
	case errors.As(err, &invalid):
		JSON(w, http.StatusUnprocessableEntity, ErrorBody{
			Error:    invalid.Error(),
			Errors:   invalid.Result.Errors,
			Warnings: invalid.Result.Warnings,
		})
	case errors.As(err, &transition):
		JSON(w, http.StatusUnprocessableEntity, ErrorBody{
			Error:    transition.Error(),
			Errors:   transition.Result.Errors,
			Warnings: transition.Result.Warnings,
			Context:  transition.Result.Context,
		})
	case errors.As(err, &notFound):
		Message(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		Message(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, apperrors.ErrRateLimited):
		Message(w, http.StatusTooManyRequests, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		Message(w, http.StatusInternalServerError, "internal error")
	}
}
