package workflow

import (
	"fmt"
	"reflect"
	"strings"
)

// Predicate evaluates a named condition against node data. args carries
// the text after the first colon in the condition expression, empty when
// the expression is a bare name.
type Predicate func(args string, data map[string]any) bool

// Registry resolves condition expressions of the form "name" or
// "name:args" to registered predicates. Unknown names are load-time
// configuration errors, never run-time surprises.
type Registry struct {
	predicates map[string]Predicate
}

// NewRegistry creates a registry seeded with the engine's generic
// predicates. Domain predicates are registered by the caller.
func NewRegistry() *Registry {
	r := &Registry{predicates: make(map[string]Predicate)}

	r.Register("always", func(string, map[string]any) bool { return true })
	r.Register("never", func(string, map[string]any) bool { return false })

	// non_empty:key is true when the named value exists and is not a
	// zero-length collection or empty string.
	r.Register("non_empty", func(args string, data map[string]any) bool {
		v, ok := data[strings.TrimSpace(args)]
		if !ok || v == nil {
			return false
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Map, reflect.String:
			return rv.Len() > 0
		default:
			return true
		}
	})

	// equals:key=value compares the named value's string form.
	r.Register("equals", func(args string, data map[string]any) bool {
		key, want, found := strings.Cut(args, "=")
		if !found {
			return false
		}
		v, ok := data[strings.TrimSpace(key)]
		if !ok {
			return false
		}
		return fmt.Sprintf("%v", v) == strings.TrimSpace(want)
	})

	return r
}

// Register adds or replaces a named predicate.
func (r *Registry) Register(name string, p Predicate) {
	r.predicates[name] = p
}

// Has reports whether the expression's predicate name is registered.
func (r *Registry) Has(expr string) bool {
	name, _ := splitExpr(expr)
	_, ok := r.predicates[name]
	return ok
}

// Eval evaluates a condition expression. The empty expression is
// unconditionally true.
func (r *Registry) Eval(expr string, data map[string]any) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}

	name, args := splitExpr(expr)
	p, ok := r.predicates[name]
	if !ok {
		return false, fmt.Errorf("unknown condition: %q", name)
	}
	return p(args, data), nil
}

func splitExpr(expr string) (name, args string) {
	name, args, _ = strings.Cut(strings.TrimSpace(expr), ":")
	return strings.TrimSpace(name), args
}
