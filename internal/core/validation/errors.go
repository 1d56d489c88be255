package validation

import (
	"errors"
	"sort"
	"strings"
)

// Configuration errors. These indicate a mistake in the declared rule
// table, not bad input data, and abort validation immediately.
var (
	ErrUnknownRule    = errors.New("unknown validation rule")
	ErrMissingDefault = errors.New("default rule requires a value")
	ErrBadParam       = errors.New("invalid rule parameter")
)

// FieldError is a single validation failure recorded for a field.
type FieldError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorMap maps a field name to its validation failures in the order they
// were recorded. Fields without failures do not appear.
type ErrorMap map[string][]FieldError

// Add appends an error for a field.
func (m ErrorMap) Add(field, message, code string) {
	m[field] = append(m[field], FieldError{Message: message, Code: code})
}

// Clear drops all errors recorded for a field.
func (m ErrorMap) Clear(field string) {
	delete(m, field)
}

// HasErrors reports whether any field has a non-empty error list.
func (m ErrorMap) HasErrors() bool {
	for _, errs := range m {
		if len(errs) > 0 {
			return true
		}
	}
	return false
}

// Messages flattens the map to field -> message strings for JSON responses.
func (m ErrorMap) Messages() map[string][]string {
	out := make(map[string][]string, len(m))
	for field, errs := range m {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Message)
		}
		out[field] = msgs
	}
	return out
}

// String renders one "field: message" line per error, fields sorted for
// stable output, lines joined by newlines.
func (m ErrorMap) String() string {
	fields := make([]string, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var lines []string
	for _, field := range fields {
		for _, e := range m[field] {
			lines = append(lines, field+": "+e.Message)
		}
	}
	return strings.Join(lines, "\n")
}
