package binder

import "net/http"

// Error is a binding failure. It renders with its HTTP status.
type Error struct {
	msg    string
	status int
}

func (e *Error) Error() string   { return e.msg }
func (e *Error) StatusCode() int { return e.status }

var (
	ErrUnsupportedMediaType = &Error{msg: "unsupported media type", status: http.StatusUnsupportedMediaType}
	ErrFailedToParseJSON    = &Error{msg: "failed to parse JSON request body", status: http.StatusBadRequest}
	ErrFailedToParseQuery   = &Error{msg: "failed to parse query parameters", status: http.StatusBadRequest}
	ErrFailedToParsePath    = &Error{msg: "failed to parse path parameters", status: http.StatusBadRequest}
	ErrInvalidTarget        = &Error{msg: "binding target must be a non-nil pointer to struct", status: http.StatusInternalServerError}
)
