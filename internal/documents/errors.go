package documents

import (
	"errors"
	"net/http"

	"github.com/lehen20/dpr-auto/pkg/jsonstore"
)

// Document lifecycle statuses.
const (
	StatusUploaded  = "uploaded"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidFile  = errors.New("invalid document file")
	ErrFileTooLarge = errors.New("file exceeds upload limit")
)

// MapHTTPStatus converts domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, jsonstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
