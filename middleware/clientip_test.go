package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
	"github.com/hyperlocaleyes/backend/middleware"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.168.1.100:54321", want: "192.168.1.100"},
		{name: "forwarded first hop", remoteAddr: "10.0.0.1:80", xff: "203.0.113.5, 10.0.0.1", want: "203.0.113.5"},
		{name: "mapped ipv6", remoteAddr: "[::ffff:198.51.100.4]:80", want: "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := router.New[*router.Context]()
			r.Use(middleware.ClientIP[*router.Context](middleware.ClientIPConfig{HeaderName: "X-Client-IP"}))

			var captured string
			r.Get("/test", func(ctx *router.Context) handler.Response {
				ip, ok := middleware.GetClientIP(ctx)
				assert.True(t, ok)
				captured = ip
				return response.NoContent()
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, captured)
			assert.Equal(t, tt.want, w.Header().Get("X-Client-IP"))
		})
	}
}

func TestClientIPSkipAndMissing(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.ClientIP[*router.Context](middleware.ClientIPConfig{
		Skip: func(ctx handler.Context) bool { return ctx.Request().URL.Path == "/skip" },
	}))

	var found bool
	r.Get("/skip", func(ctx *router.Context) handler.Response {
		_, found = middleware.GetClientIP(ctx)
		return response.NoContent()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/skip", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, found)
	assert.Empty(t, w.Header().Get("X-Client-IP"))
}
