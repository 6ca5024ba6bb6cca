// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldErrors is implemented by validation errors that carry per-field messages.
type FieldErrors interface {
	Fields() map[string]string
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Forbidden responses never carry a detail so that a denied caller learns
// nothing about the permission it lacked.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		var fe FieldErrors
		if errors.As(err, &fe) {
			JSON(w, http.StatusBadRequest, ProblemDetail{
				Title:  "Validation Failed",
				Status: http.StatusBadRequest,
				Detail: err.Error(),
				Errors: fe.Fields(),
			})
			return
		}
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Forbidden(w)
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	default:
		incident := uuid.NewString()
		if logger != nil {
			logger.Error("unhandled error", slog.String("incident", incident), slog.Any("error", err))
		}
		JSON(w, http.StatusInternalServerError, ProblemDetail{
			Title:    "Internal Error",
			Status:   http.StatusInternalServerError,
			Instance: "urn:uuid:" + incident,
		})
	}
}

// Forbidden writes the generic not-authorized problem.
func Forbidden(w http.ResponseWriter) {
	Problem(w, http.StatusForbidden, "Forbidden", "")
}
