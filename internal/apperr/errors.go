// Package apperr holds the error taxonomy shared by services and handlers.
// Handlers translate these with errors.Is into an HTTP status and a stable message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrUnauthenticated  = errors.New("user not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrPersistence      = errors.New("persistence failure")

	ErrAlreadyCompleted = errors.New("quest already completed")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownQuest     = errors.New("unknown quest")
)

// Persistence tags a store error so callers can match it with ErrPersistence
// while the original cause stays reachable through errors.Is/As.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// Invalid wraps ErrInvalidInput with a user-readable reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

// Status maps err to the HTTP status and message a handler should respond with.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrAlreadyCheckedIn):
		return http.StatusBadRequest, "Already checked in today"
	case errors.Is(err, ErrAlreadyCompleted):
		return http.StatusBadRequest, "Quest already completed"
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "User not authenticated"
	case errors.Is(err, ErrUnknownQuest):
		return http.StatusNotFound, "Quest not found"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
