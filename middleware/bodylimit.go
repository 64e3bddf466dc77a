package middleware

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/response"
)

// ErrBodyTooLarge is returned by request body reads past the configured limit.
// It renders as 413.
var ErrBodyTooLarge error = bodyTooLargeError{}

type bodyTooLargeError struct{}

func (bodyTooLargeError) Error() string   { return "request body too large" }
func (bodyTooLargeError) StatusCode() int { return http.StatusRequestEntityTooLarge }

// BodyLimitConfig configures the request body size limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// MaxSize is the maximum allowed size in bytes (default: 10KB)
	MaxSize int64

	// ContentTypeLimit allows setting different limits per content type
	// Example: {"application/json": 10 * KB, "multipart/form-data": 10 * MB}
	ContentTypeLimit map[string]int64
}

// BodyLimit limits request bodies to cfg.MaxSize. Requests announcing a larger
// Content-Length are rejected up front; otherwise reads past the limit fail
// with ErrBodyTooLarge.
func BodyLimit[C handler.Context](cfg BodyLimitConfig) handler.Middleware[C] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10 * KB
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()

			maxSize := cfg.MaxSize
			if cfg.ContentTypeLimit != nil {
				if mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type")); err == nil {
					if limit, ok := cfg.ContentTypeLimit[mediaType]; ok {
						maxSize = limit
					}
				}
			}

			if req.ContentLength > maxSize {
				return response.Error(response.ErrRequestEntityTooLarge.
					WithMessage(fmt.Sprintf("Request body too large. Maximum allowed: %s", formatBytes(maxSize))).
					WithDetails(map[string]any{"limit": maxSize, "size": req.ContentLength}))
			}

			if req.Body != nil && req.Body != http.NoBody {
				req.Body = &limitedReader{reader: req.Body, remaining: maxSize}
			}

			return next(ctx)
		}
	}
}

// limitedReader fails with ErrBodyTooLarge once more than the limit is read.
type limitedReader struct {
	reader    io.ReadCloser
	remaining int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.remaining < 0 {
		return 0, ErrBodyTooLarge
	}

	// Read one byte past the limit to detect overflow.
	if int64(len(p)) > lr.remaining+1 {
		p = p[:lr.remaining+1]
	}

	n, err := lr.reader.Read(p)
	lr.remaining -= int64(n)
	if lr.remaining < 0 {
		return n + int(lr.remaining), ErrBodyTooLarge
	}
	return n, err
}

func (lr *limitedReader) Close() error {
	return lr.reader.Close()
}

// IsBodyTooLarge reports whether err came from reading past the body limit.
func IsBodyTooLarge(err error) bool {
	return errors.Is(err, ErrBodyTooLarge)
}

func formatBytes(bytes int64) string {
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

const (
	// KB represents 1 kilobyte
	KB int64 = 1024
	// MB represents 1 megabyte
	MB = 1024 * KB
	// GB represents 1 gigabyte
	GB = 1024 * MB
)
