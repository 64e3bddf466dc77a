package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/response"
)

// ErrMissingCredentials is returned when a request carries no bearer token.
var ErrMissingCredentials = errors.New("missing bearer token")

type principalContextKey struct{}

// Principal is the authenticated caller.
type Principal struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
}

// Authenticator verifies the credentials of a request.
type Authenticator interface {
	Verify(r *http.Request) (Principal, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (Principal, error)

func (f AuthenticatorFunc) Verify(r *http.Request) (Principal, error) { return f(r) }

// AuthConfig configures the authentication middleware.
type AuthConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Authenticator verifies the request (required)
	Authenticator Authenticator
	// ErrorHandler renders rejected requests (default: 401 envelope)
	ErrorHandler func(ctx handler.Context, err error) handler.Response
}

// Authenticate rejects requests the authenticator does not accept and stores
// the principal of accepted ones in the request context.
// Panics if no authenticator is provided.
func Authenticate[C handler.Context](cfg AuthConfig) handler.Middleware[C] {
	if cfg.Authenticator == nil {
		panic("auth middleware: authenticator is required")
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx handler.Context, err error) handler.Response {
			return response.Error(response.ErrUnauthorized.WithError(err))
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			p, err := cfg.Authenticator.Verify(ctx.Request())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.SetValue(principalContextKey{}, p)
			return next(ctx)
		}
	}
}

// Authorize allows only principals with one of roles. It must run after
// Authenticate; requests without a principal get 401, others 403.
func Authorize[C handler.Context](roles ...string) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			p, ok := GetPrincipal(ctx)
			if !ok {
				return response.Error(response.ErrUnauthorized)
			}
			if !slices.Contains(roles, p.Role) {
				return response.Error(response.ErrForbidden.WithMessage(
					"User role " + p.Role + " is not authorized to access this route"))
			}
			return next(ctx)
		}
	}
}

// GetPrincipal retrieves the authenticated principal from the request context.
func GetPrincipal(ctx handler.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", ErrMissingCredentials
	}
	return strings.TrimSpace(auth[len(prefix):]), nil
}
