package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("permission denied")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrPaymentRequired    = errors.New("payment required")
	ErrExpired            = errors.New("contest is closed")
	ErrUpload             = errors.New("upload failed")
	ErrServiceUnavailable = errors.New("service unavailable") // e.g. payment gateway down
	ErrLockHeld           = errors.New("lock is held by another worker")
)

// Specific conflicts. Each one still matches ErrConflict with errors.Is.
var (
	ErrAlreadyEntered        = fmt.Errorf("you already entered this contest: %w", ErrConflict)
	ErrWinnerAlreadyDeclared = fmt.Errorf("a winner has already been declared for this contest: %w", ErrConflict)
	ErrInvalidTransition     = fmt.Errorf("contest status transition not allowed: %w", ErrConflict)
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrPaymentRequired) {
		return http.StatusPaymentRequired
	}
	if errors.Is(err, ErrExpired) {
		return http.StatusGone
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrLockHeld) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrUpload) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}

	if IsUniqueViolation(err) {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// CodeFromError returns the stable machine-readable code for err.
func CodeFromError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyEntered):
		return "ALREADY_ENTERED"
	case errors.Is(err, ErrWinnerAlreadyDeclared):
		return "WINNER_ALREADY_DECLARED"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "PERMISSION_DENIED"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrPaymentRequired):
		return "PAYMENT_REQUIRED"
	case errors.Is(err, ErrExpired):
		return "EXPIRED"
	case errors.Is(err, ErrConflict), IsUniqueViolation(err):
		return "CONFLICT"
	case errors.Is(err, ErrUpload):
		return "UPLOAD_ERROR"
	case errors.Is(err, ErrServiceUnavailable):
		return "SERVICE_UNAVAILABLE"
	}
	return "INTERNAL"
}

// UserMessage is the text shown to API clients. Internal failures are not echoed back.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyEntered):
		return "you already entered this contest"
	case errors.Is(err, ErrWinnerAlreadyDeclared):
		return "a winner has already been declared for this contest"
	case errors.Is(err, ErrPaymentRequired):
		return "pay the entry fee to take part in this contest"
	case errors.Is(err, ErrExpired):
		return "this contest is no longer accepting entries"
	case HTTPStatusFromError(err) == http.StatusInternalServerError:
		return ErrInternalServer.Error()
	}
	return err.Error()
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
