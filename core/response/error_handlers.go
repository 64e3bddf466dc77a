package response

import (
	"errors"
	"net/http"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// statusCode is an interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// fieldError is implemented by errors tied to one input field,
// e.g. validator.ValidationError.
type fieldError interface {
	error
	FieldPath() string
}

// StatusOf reports the HTTP status an error renders with.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return convertToHTTPError(err).Status
}

// convertToHTTPError converts any error to an HTTPError
func convertToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status == 0 {
			httpErr.Status = http.StatusInternalServerError
		}
		return httpErr
	}

	if details := fieldErrors(err); len(details) > 0 {
		return ErrValidation.WithErrors(details...)
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	baseErr, ok := httpErrorsByStatus[status]
	if !ok {
		baseErr = HTTPError{Status: status, Code: "error", Message: defaultMessage(status)}
	}

	// Client errors with their own status carry a message meant for the client.
	if status >= 400 && status < 500 {
		baseErr = baseErr.WithMessage(err.Error())
	}

	return baseErr.WithError(err)
}

// fieldErrors collects field-level errors from err and any joined errors.
func fieldErrors(err error) []ErrorDetail {
	var out []ErrorDetail
	var walk func(error)
	walk = func(e error) {
		if fe, ok := e.(fieldError); ok {
			out = append(out, ErrorDetail{Field: fe.FieldPath(), Message: fe.Error()})
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			if inner := u.Unwrap(); inner != nil {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}

// ErrorHandler returns a router error handler rendering failures as envelopes.
func ErrorHandler[C handler.Context](f Formatter) handler.ErrorHandler[C] {
	return func(ctx C, err error) {
		f.Handle(ctx, err)
	}
}

// JSONErrorHandler renders errors as production envelopes (no stack traces).
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	Formatter{}.Handle(ctx, err)
}
