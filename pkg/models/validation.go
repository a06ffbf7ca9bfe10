package models

import "strings"

// ValidationError lists the required fields missing from a request body
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required field(s): " + strings.Join(e.Fields, ", ")
}

func newValidationError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}
