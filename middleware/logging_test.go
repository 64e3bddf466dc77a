package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
	"github.com/hyperlocaleyes/backend/middleware"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	log, h := newTestLogger()
	r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.Use(middleware.Logging[*router.Context](middleware.LoggingConfig{Logger: log, LogHeaders: true}))

	r.Get("/ok", func(ctx *router.Context) handler.Response {
		return response.JSON(map[string]string{"hello": "world"})
	})
	r.Get("/missing", func(ctx *router.Context) handler.Response {
		return response.Error(response.ErrNotFound)
	})
	r.Get("/boom", func(ctx *router.Context) handler.Response {
		return response.Error(assert.AnError)
	})

	for _, path := range []string{"/ok?x=1", "/missing", "/boom"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer secret")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := h.find("HTTP request completed")
	require.Len(t, entries, 3)

	assert.Equal(t, "INFO", entries[0]["level"])
	assert.EqualValues(t, http.StatusOK, entries[0]["status_code"])
	assert.Equal(t, "x=1", entries[0]["query"])
	headers, ok := entries[0]["request_headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", headers["Authorization"])

	// Errors are rendered after the handler returns; their status is still logged.
	assert.Equal(t, "WARN", entries[1]["level"])
	assert.EqualValues(t, http.StatusNotFound, entries[1]["status_code"])
	assert.Equal(t, "ERROR", entries[2]["level"])
	assert.EqualValues(t, http.StatusInternalServerError, entries[2]["status_code"])
}

func TestLoggingRequestBody(t *testing.T) {
	t.Parallel()

	log, h := newTestLogger()
	r := router.New[*router.Context]()
	r.Use(middleware.Logging[*router.Context](middleware.LoggingConfig{
		Logger:         log,
		LogRequestBody: true,
		MaxBodyLogSize: 8,
	}))

	var echoed string
	r.Post("/echo", func(ctx *router.Context) handler.Response {
		b, _ := io.ReadAll(ctx.Request().Body)
		echoed = string(b)
		return response.NoContent()
	})

	r.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"content":"hello"}`)))

	assert.Equal(t, `{"content":"hello"}`, echoed, "body is still readable downstream")
	entries := h.find("HTTP request completed")
	require.Len(t, entries, 1)
	assert.Equal(t, `{"conten`, entries[0]["request_body"])
	assert.Equal(t, true, entries[0]["request_body_truncated"])
}
