// Package jsonedit holds the JSON primitives behind record editing: literal find/replace
// over nested values, normalized comparison, path edits and type coercion of edited text.
package jsonedit

import "fmt"

// ParseError reports text that had to be JSON but is not.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse json: %v", e.Err)
	}
	return fmt.Sprintf("parse field %q: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
