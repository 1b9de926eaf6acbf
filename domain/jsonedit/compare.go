package jsonedit

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/tidwall/gjson"
)

// Equal compares two field values. When both sides are JSON they are compared
// structurally, so formatting and key order do not matter; otherwise the raw text is compared.
func Equal(a, b string) bool {
	if a == b {
		return true
	}
	va, err := Decode(a)
	if err != nil {
		return false
	}
	vb, err := Decode(b)
	if err != nil {
		return false
	}
	return valuesEqual(va, vb)
}

// valuesEqual compares decoded documents. Numbers are compared exactly as rationals,
// so 1 and 1.0 match while integers beyond float64 precision stay distinct.
func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case json.Number:
		y, ok := b.(json.Number)
		if !ok {
			return false
		}
		rx, okx := new(big.Rat).SetString(string(x))
		ry, oky := new(big.Rat).SetString(string(y))
		if !okx || !oky {
			return x == y
		}
		return rx.Cmp(ry) == 0
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !valuesEqual(xv, yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Normalize returns the compact form of a JSON document, or text unchanged when it is not JSON.
func Normalize(text string) string {
	v, err := Decode(text)
	if err != nil {
		return text
	}
	out, err := Encode(v)
	if err != nil {
		return text
	}
	return out
}

// IsStructured reports whether text holds a JSON object or array.
func IsStructured(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	return gjson.Valid(trimmed)
}

// Coerce turns edited text back into a typed value: JSON literals become numbers, booleans,
// null, objects or arrays, and anything else stays a string.
func Coerce(text string) any {
	if !gjson.Valid(text) {
		return text
	}
	v, err := Decode(text)
	if err != nil {
		return text
	}
	return v
}
