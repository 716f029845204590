package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeJSONMap decodes JSON into a map[string]any.
//
// json.Decoder.UseNumber() is enabled so numbers are preserved as
// json.Number instead of lossy float64s.
func DecodeJSONMap(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	// Ensure there is no trailing non-whitespace content.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("unexpected trailing JSON content")
		}
		return nil, fmt.Errorf("unexpected trailing JSON content: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// ToString attempts to coerce v into a string.
func ToString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ToBool attempts to coerce v into a bool.
func ToBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// ToFloat attempts to coerce v into a float64. Numbers decoded via
// DecodeJSONMap arrive as json.Number.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
