package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
	"github.com/hyperlocaleyes/backend/middleware"
)

func tokenAuthenticator() middleware.Authenticator {
	return middleware.AuthenticatorFunc(func(r *http.Request) (middleware.Principal, error) {
		tok, err := middleware.BearerToken(r)
		if err != nil {
			return middleware.Principal{}, err
		}
		switch tok {
		case "admin-token":
			return middleware.Principal{UserID: "a1", Role: "admin"}, nil
		case "user-token":
			return middleware.Principal{UserID: "u1", Role: "user"}, nil
		}
		return middleware.Principal{}, errors.New("invalid token")
	})
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.Use(middleware.Authenticate[*router.Context](middleware.AuthConfig{Authenticator: tokenAuthenticator()}))

	r.Get("/me", func(ctx *router.Context) handler.Response {
		p, ok := middleware.GetPrincipal(ctx)
		require.True(t, ok)
		return response.JSON(map[string]string{"id": p.UserID})
	})
	r.With(middleware.Authorize[*router.Context]("admin")).Get("/admin", func(ctx *router.Context) handler.Response {
		return response.NoContent()
	})

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
	}{
		{name: "no token", path: "/me", status: http.StatusUnauthorized},
		{name: "bad token", path: "/me", auth: "Bearer nope", status: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/me", auth: "Basic abc", status: http.StatusUnauthorized},
		{name: "user", path: "/me", auth: "Bearer user-token", status: http.StatusOK},
		{name: "user on admin route", path: "/admin", auth: "bearer user-token", status: http.StatusForbidden},
		{name: "admin", path: "/admin", auth: "Bearer admin-token", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status >= 400 {
				var env response.Envelope
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
				assert.False(t, env.Success)
			}
		})
	}
}

func TestAuthorizeWithoutPrincipal(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.Authorize[*router.Context]("admin"))
	r.Get("/admin", func(ctx *router.Context) handler.Response {
		return response.NoContent()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
