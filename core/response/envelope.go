package response

import (
	"net/http"
	"runtime/debug"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// Envelope is the uniform JSON wrapper around every API response.
type Envelope struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	Data       any           `json:"data,omitempty"`
	Errors     []ErrorDetail `json:"errors,omitempty"`
	Pagination *Pagination   `json:"pagination,omitempty"`
	Stack      string        `json:"stack,omitempty"`
}

// ErrorDetail describes a single failure, usually tied to an input field.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Pagination describes the page a list response belongs to.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total items split by limit.
func NewPagination(page, limit int, total int64) *Pagination {
	if page < 1 {
		page = 1
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Formatter builds envelopes. Development enables stack traces on 5xx errors;
// the zero value never exposes them.
type Formatter struct {
	Development bool
}

// Success builds a successful envelope. An empty message defaults to "Success".
func (f Formatter) Success(data any, message string, pagination *Pagination) Envelope {
	if message == "" {
		message = "Success"
	}
	return Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	}
}

// Error builds a failure envelope for the given status.
// The stack field is set only in development mode for statuses >= 500.
func (f Formatter) Error(status int, message string, errs []ErrorDetail) Envelope {
	if message == "" {
		message = defaultMessage(status)
	}
	env := Envelope{
		Success: false,
		Message: message,
		Errors:  errs,
	}
	if f.Development && status >= http.StatusInternalServerError {
		env.Stack = string(debug.Stack())
	}
	return env
}

// ValidationError builds a 400 "Validation Error" envelope. Errors are always a list.
func (f Formatter) ValidationError(errs ...ErrorDetail) Envelope {
	if errs == nil {
		errs = []ErrorDetail{}
	}
	return f.Error(http.StatusBadRequest, ErrValidation.Message, errs)
}

// JSON renders an envelope with the given status.
func (f Formatter) JSON(status int, env Envelope) handler.Response {
	return JSONWithStatus(env, status)
}

// OK renders a 200 success envelope.
func (f Formatter) OK(data any, message string) handler.Response {
	return f.JSON(http.StatusOK, f.Success(data, message, nil))
}

// Created renders a 201 success envelope.
func (f Formatter) Created(data any, message string) handler.Response {
	return f.JSON(http.StatusCreated, f.Success(data, message, nil))
}

// Page renders a 200 success envelope with pagination info.
func (f Formatter) Page(data any, message string, pagination *Pagination) handler.Response {
	return f.JSON(http.StatusOK, f.Success(data, message, pagination))
}

// FromError converts any error into a status and failure envelope.
// Errors without a known status become a 500 with a generic message, so raw
// error text never reaches the client.
func (f Formatter) FromError(err error) (int, Envelope) {
	httpErr := convertToHTTPError(err)
	env := f.Error(httpErr.Status, httpErr.Message, httpErr.Errors)
	if env.Stack != "" {
		if st, ok := err.(stackTracer); ok {
			env.Stack = string(st.Stack())
		}
	}
	return httpErr.Status, env
}

// Handle renders err as an envelope on the context's response writer.
func (f Formatter) Handle(ctx handler.Context, err error) {
	status, env := f.FromError(err)
	Render(ctx, f.JSON(status, env))
}

type stackTracer interface {
	Stack() []byte
}

func defaultMessage(status int) string {
	if e, ok := httpErrorsByStatus[status]; ok {
		return e.Message
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return ErrInternalServerError.Message
}
