// Package pipeline composes the request governance middleware in a fixed
// order: security headers, body limit and sanitization, then the rate limit
// of the route's policy. Failures of any stage short-circuit the rest and are
// rendered as response envelopes by ErrorHandler.
//
//	p, err := pipeline.New[*router.Context](pipeline.Config{Logger: log})
//	if err != nil {
//		return err
//	}
//
//	r := router.New[*router.Context](router.WithErrorHandler(p.ErrorHandler))
//	r.Use(p.Common()...)
//	r.With(p.Limit(ratelimiter.PolicyLogin)).Post("/api/auth/login", login)
//	r.With(append(p.Protect(), p.Limit(ratelimiter.PolicyAPI))...).Post("/api/comments/{postId}", create)
//
// All mutable state lives in the rate limiter registry; the pipeline itself
// is read-only after New and safe for concurrent use.
package pipeline
