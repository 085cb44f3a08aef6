package pipeline

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates an unknown run ID.
	ErrNotFound = errors.New("run not found")
	// ErrDocumentNotReady indicates the referenced document has no
	// uploaded file to process.
	ErrDocumentNotReady = errors.New("document has no file to process")
)

// MapHTTPStatus converts pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDocumentNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
