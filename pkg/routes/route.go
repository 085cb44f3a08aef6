// Package routes defines the route table entries domain handlers expose
// and the server mounts.
package routes

import "net/http"

// Route is one route table entry: an HTTP method and ServeMux pattern
// bound to the function serving it. Patterns are relative to the prefix
// the handler is mounted under.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
