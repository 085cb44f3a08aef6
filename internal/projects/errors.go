package projects

import (
	"errors"
	"net/http"

	"github.com/lehen20/dpr-auto/pkg/jsonstore"
)

var (
	ErrNotFound     = errors.New("project not found")
	ErrInvalidPath  = errors.New("invalid field path")
	ErrUnknownField = errors.New("field not present in record")
)

// MapHTTPStatus converts domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, jsonstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPath), errors.Is(err, ErrUnknownField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
