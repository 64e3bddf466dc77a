// Package binder maps request data onto structs.
//
// JSON decodes the body, Path reads route wildcards and Query reads the query
// string. Bind runs binders in order and validates the result with
// core/validator, so a handler gets either a populated, valid struct or an
// error that renders with the right status (400, 415, or the validation
// envelope).
//
// Binders expect the payload to be sanitized and size-limited by the
// middleware chain already.
package binder
