package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// CORSConfig configures the Cross-Origin Resource Sharing middleware.
type CORSConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// AllowOrigins lists exact origins; empty or "*" allows any origin.
	// Ignored when AllowOriginFunc is set.
	AllowOrigins []string

	// AllowMethods lists methods accepted in preflight requests
	AllowMethods []string

	// AllowHeaders lists request headers accepted in preflight requests
	AllowHeaders []string

	// ExposeHeaders lists response headers readable by the browser
	ExposeHeaders []string

	// AllowCredentials allows cookies and Authorization headers.
	// Never sent together with a "*" origin.
	AllowCredentials bool

	// MaxAge caches preflight results, in seconds
	MaxAge int

	// AllowOriginFunc decides per origin and returns the value to echo back
	AllowOriginFunc func(origin string) (string, bool)
}

// DefaultCORSConfig reflects the request origin with credentials, which
// lets the web and mobile clients call the API from any host. Rate limit
// headers are exposed so clients can back off.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
		AllowOriginFunc:  AllowOriginReflect(),
	}
}

// CORS creates a CORS middleware. Preflight requests are answered directly
// with 204, or 403 when the origin or method is not allowed.
func CORS[C handler.Context](cfg CORSConfig) handler.Middleware[C] {
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = DefaultCORSConfig().AllowMethods
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = DefaultCORSConfig().AllowHeaders
	}

	allowMethods := strings.Join(cfg.AllowMethods, ",")
	allowHeaders := strings.Join(cfg.AllowHeaders, ",")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ",")
	maxAge := strconv.Itoa(cfg.MaxAge)

	allowOrigin := cfg.AllowOriginFunc
	if allowOrigin == nil {
		allowOrigin = AllowOriginList(cfg.AllowOrigins...)
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()
			origin, allowed := allowOrigin(req.Header.Get("Origin"))
			credentials := cfg.AllowCredentials && origin != "*"

			if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
				methodAllowed := slices.Contains(cfg.AllowMethods, req.Header.Get("Access-Control-Request-Method"))

				return func(w http.ResponseWriter, r *http.Request) error {
					h := w.Header()
					h.Add("Vary", "Origin")
					h.Add("Vary", "Access-Control-Request-Method")
					h.Add("Vary", "Access-Control-Request-Headers")

					if !allowed || !methodAllowed {
						w.WriteHeader(http.StatusForbidden)
						return nil
					}

					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Methods", allowMethods)
					if r.Header.Get("Access-Control-Request-Headers") != "" {
						h.Set("Access-Control-Allow-Headers", allowHeaders)
					}
					if credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if cfg.MaxAge > 0 {
						h.Set("Access-Control-Max-Age", maxAge)
					}

					w.WriteHeader(http.StatusNoContent)
					return nil
				}
			}

			resp := next(ctx)
			if !allowed {
				return resp
			}

			return func(w http.ResponseWriter, r *http.Request) error {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				if credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if exposeHeaders != "" {
					h.Set("Access-Control-Expose-Headers", exposeHeaders)
				}
				h.Add("Vary", "Origin")
				return resp(w, r)
			}
		}
	}
}

// AllowOriginReflect allows any non-empty origin and echoes it back.
func AllowOriginReflect() func(origin string) (string, bool) {
	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}
		return origin, true
	}
}

// AllowOriginList allows the listed origins. An empty list or "*" allows all.
func AllowOriginList(origins ...string) func(origin string) (string, bool) {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(string) (string, bool) { return "*", true }
	}
	return func(origin string) (string, bool) {
		if slices.Contains(origins, origin) {
			return origin, true
		}
		return "", false
	}
}
