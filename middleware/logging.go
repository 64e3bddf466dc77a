package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/logger"
)

// LoggingConfig configures the request/response logging middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// Logger is the slog logger to use (default: slog.Default()).
	// Build it with RequestIDExtractor to tag records with the request ID.
	Logger *slog.Logger

	// LogLevel for successful requests (default: slog.LevelInfo)
	LogLevel slog.Level

	// LogRequestBody enables logging of request body (default: false for security)
	LogRequestBody bool

	// LogHeaders enables logging of request headers (default: false for security)
	LogHeaders bool

	// MaxBodyLogSize is the maximum size of body to log in bytes (default: 4KB)
	MaxBodyLogSize int

	// SensitiveHeaders is a list of header names to redact (default: common auth headers)
	SensitiveHeaders []string

	// SlowRequestThreshold logs slow requests at warning level (default: 5s)
	SlowRequestThreshold time.Duration
}

// Logging logs one record per completed request. Server errors are logged at
// error level, client errors and slow requests at warning level.
func Logging[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.LogLevel == 0 {
		cfg.LogLevel = slog.LevelInfo
	}

	if cfg.MaxBodyLogSize <= 0 {
		cfg.MaxBodyLogSize = 4 * 1024
	}

	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
			"X-Auth-Token",
		}
	}

	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			req := ctx.Request()

			attrs := []slog.Attr{
				logger.Component("http"),
				logger.Event("request"),
				logger.Method(req.Method),
				logger.Path(req.URL.Path),
				logger.RemoteAddr(req.RemoteAddr),
			}

			if ip, ok := GetClientIP(ctx); ok {
				attrs = append(attrs, logger.ClientIP(ip))
			}

			if req.URL.RawQuery != "" {
				attrs = append(attrs, logger.Query(req.URL.RawQuery))
			}

			if cfg.LogRequestBody && req.Body != nil {
				body, _ := io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(body))
				if len(body) > 0 {
					if len(body) > cfg.MaxBodyLogSize {
						body = body[:cfg.MaxBodyLogSize]
						attrs = append(attrs, slog.Bool("request_body_truncated", true))
					}
					attrs = append(attrs, slog.String("request_body", string(body)))
				}
			}

			if cfg.LogHeaders {
				headers := make(map[string]any, len(req.Header))
				for key, values := range req.Header {
					switch {
					case slices.Contains(cfg.SensitiveHeaders, key):
						headers[key] = "[REDACTED]"
					case len(values) == 1:
						headers[key] = values[0]
					default:
						headers[key] = values
					}
				}
				if len(headers) > 0 {
					attrs = append(attrs, slog.Any("request_headers", headers))
				}
			}

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				sw := newStatusWriter(w)
				err := resp(sw, r)

				status := sw.status(err)
				duration := time.Since(start)
				attrs := append(attrs,
					logger.StatusCode(status),
					logger.BytesOut(int64(sw.size)),
					logger.Duration(duration),
				)

				level := cfg.LogLevel
				switch {
				case status >= 500:
					level = slog.LevelError
					attrs = append(attrs, logger.Error(err))
				case status >= 400:
					level = slog.LevelWarn
				case duration > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					attrs = append(attrs, slog.Bool("slow_request", true))
				}

				cfg.Logger.LogAttrs(r.Context(), level, "HTTP request completed", attrs...)
				return err
			}
		}
	}
}
