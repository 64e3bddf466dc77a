package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceVersion is reported when Config.ServiceVersion is empty.
const DefaultServiceVersion = "unknown"

// Config configures tracing.
type Config struct {
	ServiceName    string  `env:"SERVICE_NAME" envDefault:"hyperlocaleyes-api"`
	ServiceVersion string  `env:"SERVICE_VERSION"`
	Enabled        bool    `env:"TRACING_ENABLED" envDefault:"true"`
	SampleRatio    float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"1"`

	// Exporter receives finished spans in batches. Without one, spans are
	// still recorded in process (events, status) but not shipped anywhere.
	Exporter sdktrace.SpanExporter
}

// Provider is a tracer provider with its shutdown hook.
type Provider struct {
	trace.TracerProvider
	Propagator propagation.TextMapPropagator
	shutdown   func(context.Context) error
	flush      func(context.Context) error
}

// New builds the tracer provider described by cfg. A disabled config yields
// a no-op provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	prop := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	if !cfg.Enabled {
		return &Provider{
			TracerProvider: noop.NewTracerProvider(),
			Propagator:     prop,
			shutdown:       func(context.Context) error { return nil },
			flush:          func(context.Context) error { return nil },
		}, nil
	}

	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = DefaultServiceVersion
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}
	if cfg.Exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(cfg.Exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	return &Provider{
		TracerProvider: tp,
		Propagator:     prop,
		shutdown:       tp.Shutdown,
		flush:          tp.ForceFlush,
	}, nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// ForceFlush exports every finished span without shutting the provider down.
func (p *Provider) ForceFlush(ctx context.Context) error {
	return p.flush(ctx)
}
