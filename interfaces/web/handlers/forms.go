package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"spoadmin/domain/records"
)

// formValue returns a trimmed form value.
func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// formInt parses an optional integer form value; empty means zero.
func formInt(r *http.Request, name string) (int, error) {
	raw := formValue(r, name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", records.ErrInvalidArgument, name)
	}
	return n, nil
}

// formBool accepts the usual checkbox values.
func formBool(r *http.Request, name string) bool {
	switch strings.ToLower(formValue(r, name)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// formKey parses the record key form value.
func formKey(r *http.Request) (records.Key, error) {
	return records.ParseKey(r.FormValue("key"))
}
