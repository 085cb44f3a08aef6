package pipeline

import (
	"encoding/json"
	"fmt"
)

// convert coerces a node input into a concrete type via a JSON round
// trip. Inputs arrive typed when produced in-process and as generic
// JSON shapes when restored from a checkpoint; both forms decode the
// same way.
func convert[T any](v any) (T, error) {
	var out T
	if v == nil {
		return out, fmt.Errorf("missing value")
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("encoding input: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decoding input: %w", err)
	}
	return out, nil
}

// input fetches and coerces a named node input.
func input[T any](inputs map[string]any, key string) (T, error) {
	var zero T
	v, ok := inputs[key]
	if !ok {
		return zero, fmt.Errorf("missing input: %s", key)
	}
	out, err := convert[T](v)
	if err != nil {
		return zero, fmt.Errorf("input %s: %w", key, err)
	}
	return out, nil
}
