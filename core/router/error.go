package router

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// statusError is a sentinel error carrying the HTTP status it maps to.
type statusError struct {
	msg    string
	status int
}

func (e *statusError) Error() string   { return e.msg }
func (e *statusError) StatusCode() int { return e.status }

var (
	ErrNoContextFactory = errors.New("no context factory provided")
	ErrInvalidPattern   = errors.New("invalid route path pattern")

	ErrMethodNotAllowed error = &statusError{msg: "method not allowed", status: http.StatusMethodNotAllowed}
	ErrNotFound         error = &statusError{msg: "not found", status: http.StatusNotFound}
	ErrNilResponse      error = &statusError{msg: "nil response", status: http.StatusInternalServerError}
)

// statusCode is an unexported interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// defaultErrorHandler provides default error handling.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()

	// Prevent double-writing responses which causes HTTP protocol errors
	if ww, ok := w.(*responseWriter); ok && ww.Written() {
		return
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	http.Error(w, err.Error(), status)
}

// PanicError interface allows external error handlers to detect and handle panics.
// When a panic is recovered by the router, it's wrapped in an error that implements
// this interface, providing access to the original panic value and stack trace.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

// panicError is the private implementation of PanicError interface.
type panicError struct {
	value any
	stack []byte
}

func newPanicError(v any) *panicError {
	return &panicError{value: v, stack: debug.Stack()}
}

// Error implements the error interface.
func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Value returns the original panic value.
func (e *panicError) Value() any {
	return e.value
}

// Stack returns the stack trace.
func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
