package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/logger"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
	"github.com/hyperlocaleyes/backend/core/sanitizer"
	"github.com/hyperlocaleyes/backend/middleware"
	"github.com/hyperlocaleyes/backend/pkg/ratelimiter"
)

// ErrUnknownPolicy is returned for a policy name missing from the registry.
var ErrUnknownPolicy = errors.New("pipeline: unknown rate limit policy")

// Observer receives rate limit decisions and sanitizer removals.
// *metrics.Collector implements it.
type Observer interface {
	middleware.RateLimitObserver
	RemovalHook() func(ctx context.Context, field string)
}

// Config holds the collaborators of a Pipeline. Zero values get defaults.
type Config struct {
	// Registry owns one window per policy (default: api, login, passwordReset)
	Registry *ratelimiter.Registry
	// Headers is the security header policy (default: middleware.DefaultHeaderPolicy())
	Headers *middleware.HeaderPolicy
	// Sanitizer runs the sanitization stages (default: sanitizer.New with Logger)
	Sanitizer *sanitizer.Pipeline
	// MaxBodySize limits request bodies (default: 10KB)
	MaxBodySize int64
	// Formatter renders envelopes; Development exposes stacks of 5xx errors
	Formatter response.Formatter
	// Authenticator gates routes wrapped with Protect
	Authenticator middleware.Authenticator
	// KeyExtractor derives the rate limit key (default: client IP)
	KeyExtractor func(ctx handler.Context) string
	// LegacyHeaders also emits X-RateLimit-* headers
	LegacyHeaders bool
	// Observer is notified of rate limit decisions and removed fields
	Observer Observer
	Logger   *slog.Logger
}

// Pipeline is the per-request processing order shared by all routes.
type Pipeline[C handler.Context] struct {
	cfg      Config
	common   []handler.Middleware[C]
	limiters map[string]handler.Middleware[C]
	auth     handler.Middleware[C]
}

// New builds the middleware of every registered policy.
func New[C handler.Context](cfg Config) (*Pipeline[C], error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Registry == nil {
		cfg.Registry = ratelimiter.NewDefaultRegistry()
	}
	if cfg.Headers == nil {
		h := middleware.DefaultHeaderPolicy()
		cfg.Headers = &h
	}
	if cfg.Sanitizer == nil {
		opts := []sanitizer.Option{sanitizer.WithLogger(cfg.Logger)}
		if cfg.Observer != nil {
			opts = append(opts, sanitizer.WithRemovalHook(cfg.Observer.RemovalHook()))
		}
		cfg.Sanitizer = sanitizer.New(opts...)
	}

	p := &Pipeline[C]{
		cfg:      cfg,
		limiters: make(map[string]handler.Middleware[C]),
		common: []handler.Middleware[C]{
			middleware.SecurityHeaders[C](*cfg.Headers),
			middleware.BodyLimit[C](middleware.BodyLimitConfig{MaxSize: cfg.MaxBodySize}),
			middleware.Sanitize[C](middleware.SanitizeConfig{Pipeline: cfg.Sanitizer, Logger: cfg.Logger}),
		},
	}

	var observer middleware.RateLimitObserver
	if cfg.Observer != nil {
		observer = cfg.Observer
	}

	for _, policy := range cfg.Registry.Policies() {
		w, _, err := cfg.Registry.ForPolicy(policy.Name)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		p.limiters[policy.Name] = middleware.RateLimit[C](middleware.RateLimitConfig{
			Window:        w,
			KeyExtractor:  cfg.KeyExtractor,
			LegacyHeaders: cfg.LegacyHeaders,
			Logger:        cfg.Logger,
			Observer:      observer,
		})
	}

	if cfg.Authenticator != nil {
		p.auth = middleware.Authenticate[C](middleware.AuthConfig{Authenticator: cfg.Authenticator})
	}

	return p, nil
}

// Common returns the policy independent stages: security headers, body limit
// and sanitization. Install them on the root router so unmatched requests get
// the headers too.
func (p *Pipeline[C]) Common() []handler.Middleware[C] {
	return append([]handler.Middleware[C](nil), p.common...)
}

// Limit returns the rate limiting stage of policy. Panics on unknown policies,
// which are a route registration bug.
func (p *Pipeline[C]) Limit(policy string) handler.Middleware[C] {
	mw, err := p.Stage(policy)
	if err != nil {
		panic(err)
	}
	return mw
}

// Stage is like Limit but reports unknown policies as ErrUnknownPolicy.
func (p *Pipeline[C]) Stage(policy string) (handler.Middleware[C], error) {
	mw, ok := p.limiters[policy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
	return mw, nil
}

// For returns the full ordered chain for a route guarded by policy.
func (p *Pipeline[C]) For(policy string) []handler.Middleware[C] {
	return append(p.Common(), p.Limit(policy))
}

// Protect returns the authentication gate, followed by a role check when
// roles are given. Panics when the pipeline has no Authenticator.
func (p *Pipeline[C]) Protect(roles ...string) []handler.Middleware[C] {
	if p.auth == nil {
		panic("pipeline: Protect requires an Authenticator")
	}
	mws := []handler.Middleware[C]{p.auth}
	if len(roles) > 0 {
		mws = append(mws, middleware.Authorize[C](roles...))
	}
	return mws
}

// ErrorHandler renders any error as an envelope. Errors without a known
// status become 500 InternalError and are logged; their text never reaches
// the client.
func (p *Pipeline[C]) ErrorHandler(ctx C, err error) {
	status, env := p.cfg.Formatter.FromError(err)
	if status >= 500 {
		attrs := []any{
			logger.Component("pipeline"),
			logger.StatusCode(status),
			logger.Error(err),
		}
		var pe router.PanicError
		if errors.As(err, &pe) {
			attrs = append(attrs, logger.Event("panic"))
		}
		p.cfg.Logger.ErrorContext(ctx, "request failed", attrs...)
	}
	response.Render(ctx, p.cfg.Formatter.JSON(status, env))
}

// Formatter returns the envelope formatter used by ErrorHandler.
func (p *Pipeline[C]) Formatter() response.Formatter {
	return p.cfg.Formatter
}

// Registry returns the rate limiter registry.
func (p *Pipeline[C]) Registry() *ratelimiter.Registry {
	return p.cfg.Registry
}

// Run starts the background sweepers of every policy store; see ratelimiter.Registry.Run.
func (p *Pipeline[C]) Run(ctx context.Context) func() error {
	return p.cfg.Registry.Run(ctx)
}
