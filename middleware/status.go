package middleware

import (
	"net/http"

	"github.com/hyperlocaleyes/backend/core/response"
)

// statusWriter wraps http.ResponseWriter to capture response details
type statusWriter struct {
	http.ResponseWriter
	statusCode    int
	size          int
	headerWritten bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code
func (sw *statusWriter) WriteHeader(statusCode int) {
	if !sw.headerWritten {
		sw.statusCode = statusCode
		sw.headerWritten = true
	}
	sw.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the response size
func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.headerWritten {
		sw.WriteHeader(http.StatusOK)
	}
	size, err := sw.ResponseWriter.Write(b)
	sw.size += size
	return size, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// status returns the final status of the response. An error that left the
// response unwritten is rendered later by the router's error handler with
// the status response.StatusOf reports.
func (sw *statusWriter) status(err error) int {
	if err != nil && !sw.headerWritten {
		return response.StatusOf(err)
	}
	return sw.statusCode
}
