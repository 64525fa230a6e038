// Package apperr classifies errors into the kinds the API reports and renders
// them as JSON error responses.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindUnsupportedType Kind = "unsupported_type"
	KindGateway         Kind = "gateway"
	KindRateLimited     Kind = "rate_limited"
	KindUnavailable     Kind = "unavailable"
	KindInternal        Kind = "internal"
)

// Error is an error with a client-safe message and an HTTP status.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Status: http.StatusBadRequest}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Status: http.StatusNotFound}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Status: http.StatusConflict}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg, Status: http.StatusUnauthorized}
}

// UnsupportedType reports a resume MIME type outside the capability table.
func UnsupportedType(mimeType string) *Error {
	return &Error{
		Kind:    KindUnsupportedType,
		Message: fmt.Sprintf("unsupported file type: %s", mimeType),
		Status:  http.StatusUnsupportedMediaType,
	}
}

// Gateway wraps a payment gateway failure. Gateway 4xx responses map to 400,
// everything else to 502.
func Gateway(msg string, gatewayStatus int, err error) *Error {
	status := http.StatusBadGateway
	if gatewayStatus >= 400 && gatewayStatus < 500 {
		status = http.StatusBadRequest
	}
	return &Error{Kind: KindGateway, Message: msg, Status: status, Err: err}
}

func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg, Status: http.StatusTooManyRequests}
}

func Unavailable(msg string) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Status: http.StatusServiceUnavailable}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Status: http.StatusInternalServerError, Err: err}
}

// From returns err as an *Error, treating anything unclassified as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Write renders err as {"error": message}. Server-side failures are logged.
func Write(w http.ResponseWriter, logger *slog.Logger, err error) {
	e := From(err)
	if e.Status >= 500 && logger != nil {
		logger.Error("request failed", "kind", e.Kind, "status", e.Status, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(map[string]string{"error": e.Message})
}
