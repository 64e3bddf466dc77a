package ratelimiter

import "errors"

// Package-level error definitions for rate limiter operations.
var (
	ErrInvalidPolicy    = errors.New("invalid rate limit policy")
	ErrUnknownPolicy    = errors.New("unknown rate limit policy")
	ErrPolicyExists     = errors.New("rate limit policy already registered")
	ErrContextCancelled = errors.New("context cancelled")
	ErrInvalidResult    = errors.New("result does not belong to this window")
)
