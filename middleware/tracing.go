package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/hyperlocaleyes/backend/middleware"

// TracingConfig configures the request tracing wrapper.
type TracingConfig struct {
	// Skip defines a function to skip tracing for specific requests
	Skip func(r *http.Request) bool
	// TracerProvider creates the tracer (default: otel.GetTracerProvider())
	TracerProvider trace.TracerProvider
	// Propagator extracts the parent span (default: W3C trace context)
	Propagator propagation.TextMapPropagator
}

// Tracing wraps an http.Handler, typically the router, in a server span per
// request. The span travels in the request context, so middleware such as
// RateLimit can attach events to it.
func Tracing(cfg TracingConfig) func(http.Handler) http.Handler {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = propagation.TraceContext{}
	}
	tracer := cfg.TracerProvider.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := cfg.Propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				))
			defer span.End()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(
				attribute.Int("http.status_code", sw.statusCode),
				attribute.Int("http.response.size", sw.size),
			)
			if sw.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(sw.statusCode))
			}
		})
	}
}
