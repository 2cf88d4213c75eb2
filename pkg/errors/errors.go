// Package errors defines the sentinel errors shared across the engine and
// maps them onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMalformedDocumentID  = errors.New("malformed document id")
	ErrSlotOutOfRange       = errors.New("document slot out of range")
	ErrCapacityReached      = errors.New("document capacity reached")
	ErrIndexFrozen          = errors.New("index is frozen")
	ErrIndexNotReady        = errors.New("index statistics not finalized")
	ErrInvalidInput         = errors.New("invalid input")
	ErrQueryTooLong         = errors.New("query too long")
	ErrFeedUnavailable      = errors.New("document feed unavailable")
	ErrExtractionFailed     = errors.New("feature extraction failed")
	ErrJudgmentsUnavailable = errors.New("relevance judgments unavailable")
	ErrInternal             = errors.New("internal error")
	ErrTimeout              = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrQueryTooLong),
		errors.Is(err, ErrMalformedDocumentID):
		return http.StatusBadRequest
	case errors.Is(err, ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrIndexNotReady),
		errors.Is(err, ErrJudgmentsUnavailable),
		errors.Is(err, ErrFeedUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
