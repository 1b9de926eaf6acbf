package jsonedit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"spoadmin/domain/records"
)

// Replace returns a copy of v with every literal occurrence of from inside string leaves
// replaced by to. Object keys, numbers, booleans and null are left alone. The input is not
// modified. The bool reports whether any leaf changed.
func Replace(v any, from, to string) (any, bool, error) {
	if from == "" {
		return nil, false, fmt.Errorf("%w: find text must not be empty", records.ErrInvalidArgument)
	}
	out, changed := replace(v, from, to)
	return out, changed, nil
}

func replace(v any, from, to string) (any, bool) {
	switch t := v.(type) {
	case string:
		r := strings.ReplaceAll(t, from, to)
		return r, r != t
	case []any:
		out := make([]any, len(t))
		changed := false
		for i, elem := range t {
			r, c := replace(elem, from, to)
			out[i] = r
			changed = changed || c
		}
		return out, changed
	case map[string]any:
		out := make(map[string]any, len(t))
		changed := false
		for k, elem := range t {
			r, c := replace(elem, from, to)
			out[k] = r
			changed = changed || c
		}
		return out, changed
	default:
		return v, false
	}
}

// ReplaceText applies Replace to a JSON document held as text and re-encodes it compactly.
// Text that is not JSON yields a *ParseError.
func ReplaceText(text, from, to string) (string, bool, error) {
	if from == "" {
		return "", false, fmt.Errorf("%w: find text must not be empty", records.ErrInvalidArgument)
	}
	v, err := Decode(text)
	if err != nil {
		return "", false, err
	}
	out, changed := replace(v, from, to)
	if !changed {
		return text, false, nil
	}
	encoded, err := Encode(out)
	if err != nil {
		return "", false, err
	}
	return encoded, true, nil
}

// Decode parses exactly one JSON value, keeping numbers as json.Number.
func Decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("unexpected data after top-level value")}
	}
	return v, nil
}

// Encode writes v as compact JSON without HTML escaping, so markup inside strings survives.
func Encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// StripAnnotations drops object keys ending in suffix at every depth. Graph rejects
// "@odata.context" annotations echoed back inside PATCH bodies.
func StripAnnotations(v any, suffix string) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = StripAnnotations(elem, suffix)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			if strings.HasSuffix(k, suffix) {
				continue
			}
			out[k] = StripAnnotations(elem, suffix)
		}
		return out
	default:
		return v
	}
}
