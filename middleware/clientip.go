package middleware

import (
	"net/http"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/pkg/clientip"
)

// clientIPContextKey is used as a key for storing client IP in request context.
type clientIPContextKey struct{}

// ClientIPConfig configures the client IP extraction middleware.
type ClientIPConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Extract derives the address from the request (default: clientip.GetIP)
	Extract func(r *http.Request) string
	// HeaderName echoes the IP in a response header when set
	HeaderName string
}

// ClientIP resolves the client address once per request and stores it in
// the request context, where the rate limiter and logger pick it up.
func ClientIP[C handler.Context](cfg ClientIPConfig) handler.Middleware[C] {
	if cfg.Extract == nil {
		cfg.Extract = clientip.GetIP
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			ip := cfg.Extract(ctx.Request())
			ctx.SetValue(clientIPContextKey{}, ip)

			resp := next(ctx)
			if cfg.HeaderName == "" {
				return resp
			}

			return func(w http.ResponseWriter, r *http.Request) error {
				w.Header().Set(cfg.HeaderName, ip)
				return resp(w, r)
			}
		}
	}
}

// GetClientIP retrieves the client IP address from the request context.
// Returns the IP address and a boolean indicating whether it was found.
func GetClientIP(ctx handler.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPContextKey{}).(string)
	return ip, ok
}
