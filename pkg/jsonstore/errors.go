package jsonstore

import (
	"errors"
	"net/http"
)

// Store errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrCorrupt  = errors.New("record is not valid JSON")
	ErrNoBackup = errors.New("no backup version exists")
)

// MapHTTPStatus maps store errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrCorrupt) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
