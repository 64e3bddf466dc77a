package sanitizer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hyperlocaleyes/backend/core/logger"
)

// Pipeline runs stages in a fixed order. The default order is
// parameter pollution, XSS, operator injection, trim: later stages rely on
// markup and operator keys already being gone.
type Pipeline struct {
	stages []Stage
}

type pipelineConfig struct {
	maxDepth  int
	whitelist []string
	logger    *slog.Logger
	onRemove func(ctx context.Context, field string)
	stages   []Stage
}

// Option configures a Pipeline.
type Option func(*pipelineConfig)

// WithMaxDepth sets the maximum nesting depth for the default stages.
func WithMaxDepth(n int) Option {
	return func(c *pipelineConfig) { c.maxDepth = n }
}

// WithParamWhitelist replaces the query keys allowed to repeat
// (default DefaultParamWhitelist).
func WithParamWhitelist(keys ...string) Option {
	return func(c *pipelineConfig) { c.whitelist = keys }
}

// WithLogger sets the logger receiving operator removal warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *pipelineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRemovalHook registers a callback invoked once per removed operator key.
func WithRemovalHook(fn func(ctx context.Context, field string)) Option {
	return func(c *pipelineConfig) { c.onRemove = fn }
}

// WithStages replaces the default stages.
func WithStages(stages ...Stage) Option {
	return func(c *pipelineConfig) { c.stages = stages }
}

// New creates a pipeline with the default ParamPollution, XSS, Injection and
// Trim stages.
func New(opts ...Option) *Pipeline {
	cfg := &pipelineConfig{
		maxDepth:  DefaultMaxDepth,
		whitelist: DefaultParamWhitelist,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	stages := cfg.stages
	if stages == nil {
		stages = []Stage{
			ParamPollution{Whitelist: cfg.whitelist},
			XSS{MaxDepth: cfg.maxDepth},
			Injection{MaxDepth: cfg.maxDepth, Logger: cfg.logger, OnRemove: cfg.onRemove},
			Trim{MaxDepth: cfg.maxDepth},
		}
	}

	return &Pipeline{stages: stages}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Process runs every stage in order. The first failure aborts processing and
// is returned as *Error; no partially sanitized view is returned.
func (p *Pipeline) Process(ctx context.Context, view RequestView) (RequestView, error) {
	for _, stage := range p.stages {
		next, err := stage.Apply(ctx, view)
		if err != nil {
			var serr *Error
			if !errors.As(err, &serr) {
				err = &Error{Stage: stage.Name(), Err: err}
			}
			return RequestView{}, err
		}
		view = next
	}
	return view, nil
}
