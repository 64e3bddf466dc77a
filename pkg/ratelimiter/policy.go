package ratelimiter

import (
	"fmt"
	"net/http"
	"time"
)

// Names of the built-in policies.
const (
	PolicyAPI           = "api"
	PolicyLogin         = "login"
	PolicyPasswordReset = "passwordReset"
)

// Policy is the immutable configuration of one class of rate-limited routes.
type Policy struct {
	Name    string
	Window  time.Duration
	Limit   int
	Message string // client-facing message on denial

	// SkipSuccessful makes admission a reservation that is released after the
	// handler finishes unless Counts reports the request must be counted.
	// Used by the login policy so that only failed attempts use up the quota.
	SkipSuccessful bool

	// Counts decides, from the final response status, whether a request of a
	// SkipSuccessful policy counts against the limit. Nil counts statuses >= 400.
	Counts func(status int) bool
}

// CountsStatus reports whether a finished request with the given status keeps
// its slot in the window.
func (p Policy) CountsStatus(status int) bool {
	if !p.SkipSuccessful {
		return true
	}
	if p.Counts != nil {
		return p.Counts(status)
	}
	return status >= http.StatusBadRequest
}

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidPolicy)
	case p.Window <= 0:
		return fmt.Errorf("%w: %s: window must be positive, got %s", ErrInvalidPolicy, p.Name, p.Window)
	case p.Limit <= 0:
		return fmt.Errorf("%w: %s: limit must be positive, got %d", ErrInvalidPolicy, p.Name, p.Limit)
	}
	return nil
}

// APIPolicy allows 100 requests per 15 minutes per client.
func APIPolicy() Policy {
	return Policy{
		Name:    PolicyAPI,
		Window:  15 * time.Minute,
		Limit:   100,
		Message: "Too many requests from this IP, please try again after 15 minutes",
	}
}

// LoginPolicy allows 5 failed login attempts per hour per client.
// Successful logins do not count.
func LoginPolicy() Policy {
	return Policy{
		Name:           PolicyLogin,
		Window:         time.Hour,
		Limit:          5,
		Message:        "Too many login attempts from this IP, please try again after an hour",
		SkipSuccessful: true,
	}
}

// PasswordResetPolicy allows 3 password reset requests per hour per client.
func PasswordResetPolicy() Policy {
	return Policy{
		Name:    PolicyPasswordReset,
		Window:  time.Hour,
		Limit:   3,
		Message: "Too many password reset attempts, please try again later",
	}
}

// CustomPolicy builds a policy with caller-supplied parameters. Zero values
// fall back to 100 requests per 15 minutes and a generic message.
func CustomPolicy(name string, window time.Duration, limit int, message string) Policy {
	if window == 0 {
		window = 15 * time.Minute
	}
	if limit == 0 {
		limit = 100
	}
	if message == "" {
		message = "Too many requests, please try again later"
	}
	return Policy{
		Name:    name,
		Window:  window,
		Limit:   limit,
		Message: message,
	}
}
