// Package sanitizer cleans untrusted request input.
//
// Pipeline applies stages to a RequestView (decoded body, query and path
// parameters) in a fixed order:
//
//  1. ParamPollution: repeated query parameters collapse to the last value,
//     except whitelisted keys (sort, page, limit, filter, select, populate).
//  2. XSS: control characters removed, NFKC normalization, '<' and '>' escaped.
//  3. Injection: keys starting with '$' or containing '.' are removed at any
//     depth, each removal logged as a warning.
//  4. Trim: leading and trailing whitespace removed from every string.
//
// Stages never mutate their input and are idempotent. Circular structures or
// payloads nested deeper than the configured limit fail with *Error, which
// maps to 400 Bad Request.
//
//	p := sanitizer.New(sanitizer.WithLogger(log))
//	clean, err := p.Process(ctx, sanitizer.RequestView{Body: body})
//
// SanitizeStruct applies `sanitize` struct tags to decoded DTOs:
//
//	type forgotPassword struct {
//		Email string `json:"email" sanitize:"email"`
//	}
package sanitizer
