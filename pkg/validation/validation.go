// Package validation collects field-level input errors so a single response
// can report every offending field.
package validation

import (
	"errors"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Code)
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// Add records one offending field.
func (e *Error) Add(field, code, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: message})
}

// Err returns nil when nothing was recorded, so callers can build an Error
// unconditionally and return e.Err().
func (e *Error) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Has reports whether field was recorded.
func (e *Error) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func New(field, code, message string) error {
	return &Error{Fields: []FieldError{{Field: field, Code: code, Message: message}}}
}

// Required is shorthand for a missing mandatory field.
func Required(field string) error {
	return New(field, "required", field+" is required")
}

func As(err error) (*Error, bool) {
	var vErr *Error
	if errors.As(err, &vErr) && vErr != nil {
		return vErr, true
	}
	return nil, false
}
