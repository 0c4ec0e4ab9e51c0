// Package errors defines the sentinel errors shared across the search
// pipeline and an AppError type carrying an HTTP status code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrIndexNotFound is returned when the index directory or one of the
	// required index files is missing. Loading aborts.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexCorrupt is returned for structurally invalid index content
	// that cannot be recovered by skipping rows.
	ErrIndexCorrupt = errors.New("index corrupt")
	// ErrNoDocuments is returned when an index loads with zero documents.
	// A half-loaded index would rank silently wrong, so this is fatal.
	ErrNoDocuments = errors.New("index contains no documents")
	// ErrInvalidMetric is returned for ranking metrics other than
	// tfidf and bm25.
	ErrInvalidMetric  = errors.New("invalid ranking metric")
	ErrInvalidInput   = errors.New("invalid input")
	ErrRecordNotFound = errors.New("recipe record not found")
	ErrTimeout        = errors.New("operation timed out")
	ErrInternal       = errors.New("internal error")
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
	case errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidMetric):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotFound), errors.Is(err, ErrNoDocuments), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
