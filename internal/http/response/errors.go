package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	"github.com/neeravgigglesandgrins/giggles/pkg/logger"
)

// ErrorResponse is the JSON error envelope for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodeCapacityExceeded   = "CAPACITY_EXCEEDED"
	CodeReservationExpired = "RESERVATION_EXPIRED"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// DomainError maps business outcomes onto HTTP statuses. Anything without
// a known sentinel is a 500; the raw error stays in the logs, not the body.
func DomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, err.Error(), CodeForbidden)
	case errors.Is(err, domain.ErrInvalidState):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidState)
	case errors.Is(err, domain.ErrCapacityExceeded):
		WriteError(w, http.StatusConflict, "Slot is full. Maximum capacity reached.", CodeCapacityExceeded)
	case errors.Is(err, domain.ErrExpired):
		WriteError(w, http.StatusBadRequest, "Booking reservation has expired", CodeReservationExpired)
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "Email is already registered", CodeEmailExists)
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "Invalid email or password", CodeInvalidCredentials)
	default:
		logger.ErrorContext(r.Context(), "Unhandled error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal error", CodeInternalError)
	}
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}
