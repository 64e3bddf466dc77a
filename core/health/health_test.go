package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/health"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
)

func TestLiveness(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/health/live", health.Liveness[*router.Context])

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Success","data":{"status":"alive"}}`, w.Body.String())
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := health.Check{Name: "store", Fn: func(context.Context) error { return nil }}
	down := health.Check{Name: "mongo", Fn: func(context.Context) error { return errors.New("connection refused") }}
	slow := health.Check{Name: "slow", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	tests := []struct {
		name   string
		checks []health.Check
		status int
		failed []string
	}{
		{name: "no checks", status: http.StatusOK},
		{name: "all pass", checks: []health.Check{ok}, status: http.StatusOK},
		{name: "one fails", checks: []health.Check{ok, down}, status: http.StatusServiceUnavailable, failed: []string{"mongo"}},
		{name: "timeout", checks: []health.Check{slow, down}, status: http.StatusServiceUnavailable, failed: []string{"slow", "mongo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
			r.Get("/health/ready", health.Readiness[*router.Context](nil, tt.checks...))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			require.Equal(t, tt.status, w.Code)

			var env response.Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.status == http.StatusOK, env.Success)
			if tt.status == http.StatusOK {
				assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
			}

			var names []string
			for _, e := range env.Errors {
				names = append(names, e.Field)
				assert.NotContains(t, e.Message, "refused")
			}
			assert.Equal(t, tt.failed, names)
		})
	}
}
