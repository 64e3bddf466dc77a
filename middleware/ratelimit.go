package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/logger"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/pkg/clientip"
	"github.com/hyperlocaleyes/backend/pkg/ratelimiter"
)

// rateLimitContextKey is used as a key for storing the rate limit result in request context.
type rateLimitContextKey struct{}

// RateLimitObserver receives rate limit decisions, e.g. a metrics collector.
type RateLimitObserver interface {
	ObserveRateLimit(policy string, allowed bool, d time.Duration, err error)
	ObserveRelease(policy string)
}

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Window is the policy counter to check (required)
	Window *ratelimiter.Window
	// KeyExtractor defines how to extract the rate limiting key from requests (default: client IP)
	KeyExtractor func(ctx handler.Context) string
	// ErrorHandler defines how to handle rate limit violations (default: 429 with the policy message)
	ErrorHandler func(ctx handler.Context, result *ratelimiter.Result) handler.Response
	// LegacyHeaders also emits the X-RateLimit-* headers
	LegacyHeaders bool
	// Logger receives the rate_limit_exceeded warning (default: slog.Default())
	Logger *slog.Logger
	// Observer is notified of every decision and release
	Observer RateLimitObserver
	// Now is the clock used for reset headers (default: time.Now)
	Now func() time.Time
}

// RateLimit creates a fixed-window rate limiting middleware for one policy.
// Panics if no window is provided.
//
//	api, _, _ := registry.ForPolicy(ratelimiter.PolicyAPI)
//	r.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{Window: api}))
//
// The middleware:
//   - Extracts the key (default: client IP, see pkg/clientip)
//   - Admits or denies atomically in the policy's store
//   - Sets RateLimit-Limit, RateLimit-Remaining, RateLimit-Reset and
//     RateLimit-Policy on every response, plus Retry-After when denied,
//     before anything is written
//   - Denies with 429 and the policy message
//   - For SkipSuccessful policies, releases the reservation once the response
//     status shows the request must not count
func RateLimit[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Window == nil {
		panic("ratelimit middleware: window is required")
	}

	policy := cfg.Window.Policy()

	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = func(ctx handler.Context) string {
			if ip, ok := GetClientIP(ctx); ok {
				return ip
			}
			return clientip.GetIP(ctx.Request())
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx handler.Context, result *ratelimiter.Result) handler.Response {
			return response.Error(response.ErrRateLimitExceeded.WithMessage(policy.Message))
		}
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	policyHeader := strconv.Itoa(policy.Limit) + ";w=" + strconv.Itoa(int(policy.Window/time.Second))

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			reqCtx := ctx.Request().Context()
			key := cfg.KeyExtractor(ctx)

			start := time.Now()
			result, err := cfg.Window.Allow(reqCtx, key)
			if cfg.Observer != nil {
				cfg.Observer.ObserveRateLimit(policy.Name, err == nil && result.Allowed(), time.Since(start), err)
			}
			if err != nil {
				cfg.Logger.ErrorContext(reqCtx, "rate limit check failed",
					logger.Component("ratelimit"),
					logger.Policy(policy.Name),
					logger.Error(err))
				return response.Error(response.ErrInternalServerError.WithError(err))
			}

			setHeaders := func(w http.ResponseWriter) {
				h := w.Header()
				reset := strconv.Itoa(result.ResetSeconds(cfg.Now()))
				h.Set("RateLimit-Policy", policyHeader)
				h.Set("RateLimit-Limit", strconv.Itoa(result.Limit))
				h.Set("RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
				h.Set("RateLimit-Reset", reset)
				if cfg.LegacyHeaders {
					h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
					h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
					h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
				}
				if !result.Allowed() {
					h.Set("Retry-After", reset)
				}
			}

			if !result.Allowed() {
				cfg.Logger.WarnContext(reqCtx, "rate limit exceeded",
					logger.Component("ratelimit"),
					logger.Event("rate_limit_exceeded"),
					logger.Policy(policy.Name),
					logger.LimitKey(key),
					logger.Method(ctx.Request().Method),
					logger.Path(ctx.Request().URL.Path))

				trace.SpanFromContext(reqCtx).AddEvent("rate_limit_exceeded", trace.WithAttributes(
					attribute.String("ratelimit.policy", policy.Name),
					attribute.Int("ratelimit.limit", result.Limit),
				))

				resp := cfg.ErrorHandler(ctx, result)
				return func(w http.ResponseWriter, r *http.Request) error {
					setHeaders(w)
					return resp(w, r)
				}
			}

			ctx.SetValue(rateLimitContextKey{}, result)

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				setHeaders(w)
				if !policy.SkipSuccessful {
					return resp(w, r)
				}

				sw := newStatusWriter(w)
				err := resp(sw, r)
				if status := sw.status(err); !policy.CountsStatus(status) {
					// The request context may already be done; release regardless.
					if rerr := cfg.Window.Release(context.WithoutCancel(reqCtx), result); rerr != nil {
						cfg.Logger.ErrorContext(reqCtx, "rate limit release failed",
							logger.Component("ratelimit"),
							logger.Policy(policy.Name),
							logger.Error(rerr))
					} else if cfg.Observer != nil {
						cfg.Observer.ObserveRelease(policy.Name)
					}
				}
				return err
			}
		}
	}
}

// RateLimitPolicy creates a rate limiting middleware for a named policy of registry.
// Panics if the policy is not registered.
func RateLimitPolicy[C handler.Context](registry *ratelimiter.Registry, name string) handler.Middleware[C] {
	w, _, err := registry.ForPolicy(name)
	if err != nil {
		panic("ratelimit middleware: " + err.Error())
	}
	return RateLimit[C](RateLimitConfig{Window: w})
}

// GetRateLimitResult retrieves the admitted rate limit result from the request context.
func GetRateLimitResult(ctx handler.Context) (*ratelimiter.Result, bool) {
	res, ok := ctx.Value(rateLimitContextKey{}).(*ratelimiter.Result)
	return res, ok
}
