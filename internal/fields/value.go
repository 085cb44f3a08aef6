package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// ValueKind discriminates the variants a field value may take.
type ValueKind string

const (
	KindNull    ValueKind = "null"
	KindString  ValueKind = "string"
	KindInt     ValueKind = "int"
	KindBool    ValueKind = "bool"
	KindRecords ValueKind = "records"
)

// Value is a tagged union over the shapes an extracted value may take:
// string, integer, boolean, an ordered list of records, or null.
// The zero Value is null.
type Value struct {
	kind    ValueKind
	str     string
	num     int64
	boolean bool
	records []map[string]any
}

func Null() Value               { return Value{kind: KindNull} }
func String(s string) Value     { return Value{kind: KindString, str: s} }
func Int(n int64) Value         { return Value{kind: KindInt, num: n} }
func Bool(b bool) Value         { return Value{kind: KindBool, boolean: b} }
func Records(r []map[string]any) Value {
	return Value{kind: KindRecords, records: r}
}

// Kind reports the variant held. The zero Value reports KindNull.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.Kind() == KindNull }

func (v Value) AsString() (string, bool)            { return v.str, v.kind == KindString }
func (v Value) AsInt() (int64, bool)                { return v.num, v.kind == KindInt }
func (v Value) AsBool() (bool, bool)                { return v.boolean, v.kind == KindBool }
func (v Value) AsRecords() ([]map[string]any, bool) { return v.records, v.kind == KindRecords }

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.num == other.num
	case KindBool:
		return v.boolean == other.boolean
	default:
		return reflect.DeepEqual(v.records, other.records)
	}
}

// MarshalJSON serializes the underlying value directly, matching the
// on-disk record shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.boolean)
	default:
		return json.Marshal(v.records)
	}
}

// UnmarshalJSON infers the variant from the JSON shape. Numbers must be
// integral; fractional numbers are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts a decoded JSON value into a Value, rejecting shapes
// outside the union.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("field value must be integral: %q", t.String())
		}
		return Int(n), nil
	case float64:
		if t != float64(int64(t)) {
			return Value{}, fmt.Errorf("field value must be integral: %v", t)
		}
		return Int(int64(t)), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case []any:
		records := make([]map[string]any, 0, len(t))
		for _, item := range t {
			rec, ok := item.(map[string]any)
			if !ok {
				return Value{}, fmt.Errorf("list field values must contain records, got %T", item)
			}
			records = append(records, normalizeRecord(rec))
		}
		return Records(records), nil
	default:
		return Value{}, fmt.Errorf("unsupported field value type %T", raw)
	}
}

// normalizeRecord converts json.Number leaves to plain Go numerics so
// record equality is stable across encode/decode cycles.
func normalizeRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, val := range rec {
		if n, ok := val.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				out[k] = i
			} else if f, err := n.Float64(); err == nil {
				out[k] = f
			} else {
				out[k] = n.String()
			}
			continue
		}
		out[k] = val
	}
	return out
}
