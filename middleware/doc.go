// Package middleware provides the HTTP middleware of the API: client IP
// extraction, request IDs, request logging, security headers, CORS, body size
// limits, payload sanitization, fixed-window rate limiting, authentication and
// response metrics.
//
// All middleware is generic over handler.Context and configured through a
// config struct. Most configs accept a Skip function:
//
//	Skip: func(ctx handler.Context) bool {
//		return strings.HasPrefix(ctx.Request().URL.Path, "/health")
//	},
//
// Values extracted by a middleware are stored in the request context and read
// back with a Get helper (GetClientIP, GetRequestID, GetRateLimitResult,
// GetSanitized, GetPrincipal).
//
// # Rate Limiting
//
// RateLimit guards routes with one policy window of a ratelimiter.Registry:
//
//	reg := ratelimiter.NewDefaultRegistry()
//	r.Use(middleware.RateLimitPolicy[*router.Context](reg, ratelimiter.PolicyAPI))
//
//	r.With(middleware.RateLimitPolicy[*router.Context](reg, ratelimiter.PolicyLogin)).
//		Post("/auth/login", login)
//
// Every limited response carries RateLimit-Limit, RateLimit-Remaining,
// RateLimit-Reset and RateLimit-Policy. Denied requests get 429 with the
// policy message and Retry-After. Policies with SkipSuccessful (login) give
// the slot back when the final status does not count.
//
// # Sanitization
//
// Sanitize runs JSON and form bodies, query values and path parameters through
// a sanitizer.Pipeline and rewrites the request with the result. Place it
// after BodyLimit so oversized bodies are rejected before decoding.
//
// # Ordering
//
// The order used by the server:
//
//	r.Use(
//		middleware.RequestID[*router.Context](middleware.RequestIDConfig{}),
//		middleware.ClientIP[*router.Context](middleware.ClientIPConfig{}),
//		middleware.Logging[*router.Context](middleware.LoggingConfig{Logger: log}),
//		middleware.SecurityHeaders[*router.Context](middleware.DefaultHeaderPolicy()),
//		middleware.CORS[*router.Context](middleware.DefaultCORSConfig()),
//		middleware.BodyLimit[*router.Context](middleware.BodyLimitConfig{}),
//		middleware.Sanitize[*router.Context](middleware.SanitizeConfig{}),
//		middleware.RateLimitPolicy[*router.Context](reg, ratelimiter.PolicyAPI),
//	)
//
// Tracing is not a handler.Middleware: it wraps the router as an http.Handler
// so the span context reaches every handler through the request.
package middleware
