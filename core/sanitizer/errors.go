package sanitizer

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrCircularReference = errors.New("circular reference")
	ErrTooDeep           = errors.New("maximum nesting depth exceeded")
)

// Error reports a payload that a stage could not sanitize.
// The request must be rejected rather than passed on unsanitized.
type Error struct {
	Stage string // stage that failed
	Path  string // location inside the request, e.g. "body.items[2]"
	Err   error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sanitize %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("sanitize %s: %s: %v", e.Stage, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps sanitization failures to 400 Bad Request.
func (e *Error) StatusCode() int { return http.StatusBadRequest }
