// Package logger provides structured logging built on log/slog.
//
// New assembles a *slog.Logger from options:
//
//	log := logger.New(
//		logger.WithProduction("hyperlocal-api"),
//		logger.WithContextExtractors(requestIDFromContext),
//	)
//
// Attribute helpers (Error, Policy, Field, ClientIP, ...) return the empty
// slog.Attr for empty input, so they can be passed without nil checks:
//
//	log.WarnContext(ctx, "rate limit exceeded",
//		logger.Event("rate_limit_exceeded"),
//		logger.Policy("login"),
//		logger.LimitKey(ip),
//	)
package logger
