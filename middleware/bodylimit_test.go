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

func echoBody(ctx *router.Context) handler.Response {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return response.Error(err)
	}
	return response.String(string(body))
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.Use(middleware.BodyLimit[*router.Context](middleware.BodyLimitConfig{
		ContentTypeLimit: map[string]int64{"text/plain": 16},
	}))
	r.Post("/echo", echoBody)

	tests := []struct {
		name        string
		body        string
		contentType string
		unknownLen  bool
		status      int
	}{
		{name: "small json", body: `{"a":1}`, contentType: "application/json", status: http.StatusOK},
		{name: "exactly 10KB", body: strings.Repeat("a", int(10*middleware.KB)), status: http.StatusOK},
		{name: "declared too large", body: strings.Repeat("a", int(10*middleware.KB)+1), status: http.StatusRequestEntityTooLarge},
		{name: "streamed too large", body: strings.Repeat("a", int(10*middleware.KB)+1), unknownLen: true, status: http.StatusRequestEntityTooLarge},
		{name: "per content type", body: strings.Repeat("a", 17), contentType: "text/plain; charset=utf-8", status: http.StatusRequestEntityTooLarge},
		{name: "per content type within limit", body: "short", contentType: "text/plain", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.unknownLen {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestBodyLimitSkip(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.BodyLimit[*router.Context](middleware.BodyLimitConfig{
		MaxSize: 4,
		Skip: func(ctx handler.Context) bool {
			return ctx.Request().URL.Path == "/upload"
		},
	}))
	r.Post("/upload", echoBody)
	r.Post("/echo", echoBody)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("large body")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("large body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestIsBodyTooLarge(t *testing.T) {
	t.Parallel()

	assert.True(t, middleware.IsBodyTooLarge(middleware.ErrBodyTooLarge))
	assert.False(t, middleware.IsBodyTooLarge(io.EOF))
	assert.Equal(t, http.StatusRequestEntityTooLarge, response.StatusOf(middleware.ErrBodyTooLarge))
}
