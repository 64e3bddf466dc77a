package validator

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNotStructPointer is returned by ValidateStruct for non-pointer-to-struct input.
var ErrNotStructPointer = errors.New("validator: must pass a pointer to struct")

// Rule pairs a deferred check with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field             string
	Message           string
	TranslationKey    string
	TranslationValues map[string]any
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// FieldPath returns the JSON path of the failing field.
func (e ValidationError) FieldPath() string {
	return e.Field
}

// ValidationErrors collects every failed rule of a validation run.
type ValidationErrors []ValidationError

// Add appends an error.
func (v *ValidationErrors) Add(err ValidationError) {
	*v = append(*v, err)
}

// IsEmpty reports whether no rule failed.
func (v ValidationErrors) IsEmpty() bool {
	return len(v) == 0
}

// Has reports whether field has at least one error.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes individual errors to errors.Is/As and to the response
// formatter, which renders them as a list.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// StatusCode maps validation failures to 400 Bad Request.
func (v ValidationErrors) StatusCode() int {
	return http.StatusBadRequest
}
