package jsonedit

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"spoadmin/domain/records"
)

var errInvalidDocument = errors.New("document is not valid JSON")

// GetPath returns the raw JSON at path (gjson syntax) and whether it exists.
func GetPath(doc, path string) (string, bool) {
	res := gjson.Get(doc, path)
	return res.Raw, res.Exists()
}

// SetPath sets path inside doc. rawValue is coerced first: valid JSON is stored as-is,
// anything else is stored as a JSON string.
func SetPath(doc, path, rawValue string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path must not be empty", records.ErrInvalidArgument)
	}
	if !gjson.Valid(doc) {
		return "", &ParseError{Err: errInvalidDocument}
	}
	var (
		out string
		err error
	)
	if gjson.Valid(rawValue) {
		out, err = sjson.SetRaw(doc, path, Normalize(rawValue))
	} else {
		out, err = sjson.Set(doc, path, rawValue)
	}
	if err != nil {
		return "", fmt.Errorf("set path %q: %w", path, err)
	}
	return out, nil
}

// DeletePath removes path from doc. Deleting a missing path is a no-op.
func DeletePath(doc, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path must not be empty", records.ErrInvalidArgument)
	}
	if !gjson.Valid(doc) {
		return "", &ParseError{Err: errInvalidDocument}
	}
	out, err := sjson.Delete(doc, path)
	if err != nil {
		return "", fmt.Errorf("delete path %q: %w", path, err)
	}
	return out, nil
}
