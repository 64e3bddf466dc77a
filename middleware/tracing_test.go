package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
	"github.com/hyperlocaleyes/backend/middleware"
)

func newTracerProvider() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)), sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	t.Parallel()

	tp, sr := newTracerProvider()

	r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.Get("/ok", func(ctx *router.Context) handler.Response {
		return response.JSON(map[string]string{"ok": "yes"})
	})
	r.Get("/fail", func(ctx *router.Context) handler.Response {
		return response.Error(assert.AnError)
	})

	h := middleware.Tracing(middleware.TracingConfig{
		TracerProvider: tp,
		Skip:           func(r *http.Request) bool { return r.URL.Path == "/metrics" },
	})(r)

	for _, path := range []string{"/ok", "/fail", "/metrics"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "GET /ok", spans[0].Name())
	status, ok := spanAttr(spans[0], "http.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusOK), status.AsInt64())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)

	status, _ = spanAttr(spans[1], "http.status_code")
	assert.Equal(t, int64(http.StatusInternalServerError), status.AsInt64())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracingContinuesParentTrace(t *testing.T) {
	t.Parallel()

	tp, sr := newTracerProvider()
	h := middleware.Tracing(middleware.TracingConfig{TracerProvider: tp})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}
