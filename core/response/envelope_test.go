package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/response"
)

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func TestFormatter_Success(t *testing.T) {
	t.Parallel()

	f := response.Formatter{}

	t.Run("defaults message and omits empty fields", func(t *testing.T) {
		t.Parallel()
		env := f.Success(nil, "", nil)
		assert.True(t, env.Success)
		assert.Equal(t, "Success", env.Message)

		raw, err := json.Marshal(env)
		require.NoError(t, err)
		m := decode(t, raw)
		assert.Equal(t, map[string]any{"success": true, "message": "Success"}, m)
	})

	t.Run("includes data and pagination", func(t *testing.T) {
		t.Parallel()
		env := f.Success([]string{"a"}, "Comments", response.NewPagination(2, 10, 25))

		raw, err := json.Marshal(env)
		require.NoError(t, err)
		m := decode(t, raw)
		assert.Equal(t, []any{"a"}, m["data"])
		assert.Equal(t, map[string]any{"page": 2.0, "limit": 10.0, "total": 25.0, "pages": 3.0}, m["pagination"])
	})
}

func TestFormatter_ErrorStack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		dev       bool
		status    int
		wantStack bool
	}{
		{"production 500", false, http.StatusInternalServerError, false},
		{"development 500", true, http.StatusInternalServerError, true},
		{"development 503", true, http.StatusServiceUnavailable, true},
		{"development 400", true, http.StatusBadRequest, false},
		{"production 429", false, http.StatusTooManyRequests, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := response.Formatter{Development: tt.dev}.Error(tt.status, "boom", nil)
			assert.False(t, env.Success)
			assert.Equal(t, "boom", env.Message)

			raw, err := json.Marshal(env)
			require.NoError(t, err)
			_, has := decode(t, raw)["stack"]
			assert.Equal(t, tt.wantStack, has)
		})
	}
}

func TestFormatter_ErrorDefaultMessage(t *testing.T) {
	t.Parallel()
	f := response.Formatter{}
	assert.Equal(t, "Internal Server Error", f.Error(http.StatusInternalServerError, "", nil).Message)
	assert.Equal(t, "Not Found", f.Error(http.StatusNotFound, "", nil).Message)
}

func TestFormatter_ValidationError(t *testing.T) {
	t.Parallel()
	f := response.Formatter{}

	single := f.ValidationError(response.ErrorDetail{Field: "content", Message: "is required"})
	assert.False(t, single.Success)
	assert.Equal(t, "Validation Error", single.Message)
	require.Len(t, single.Errors, 1)
	assert.Equal(t, "content", single.Errors[0].Field)

	many := f.ValidationError(
		response.ErrorDetail{Field: "a", Message: "x"},
		response.ErrorDetail{Field: "b", Message: "y"},
	)
	assert.Len(t, many.Errors, 2)
}

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()
	f := response.Formatter{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, f.Created(map[string]string{"id": "1"}, "Comment created")(w, r))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	m := decode(t, w.Body.Bytes())
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "Comment created", m["message"])
	assert.Equal(t, map[string]any{"id": "1"}, m["data"])
}

type statusErr struct{ status int }

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", e.status) }
func (e statusErr) StatusCode() int { return e.status }

type fieldErr struct{ path, msg string }

func (e fieldErr) Error() string     { return e.msg }
func (e fieldErr) FieldPath() string { return e.path }

type stackErr struct{}

func (stackErr) Error() string { return "panic: nil map" }
func (stackErr) Stack() []byte { return []byte("goroutine 1 [running]") }

func TestFormatter_FromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantErrors int
	}{
		{
			name:       "http error keeps message",
			err:        response.ErrRateLimitExceeded.WithMessage("Too many login attempts"),
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "Too many login attempts",
		},
		{
			name:       "wrapped http error",
			err:        fmt.Errorf("handler: %w", response.ErrForbidden),
			wantStatus: http.StatusForbidden,
			wantMsg:    "Forbidden",
		},
		{
			name:       "unknown error is normalized",
			err:        errors.New("mongo: connection refused on 10.0.0.3"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal Server Error",
		},
		{
			name:       "client status error exposes its message",
			err:        statusErr{status: http.StatusNotFound},
			wantStatus: http.StatusNotFound,
			wantMsg:    "status 404",
		},
		{
			name:       "server status error hides its message",
			err:        statusErr{status: http.StatusBadGateway},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Bad Gateway",
		},
		{
			name:       "joined field errors become validation error",
			err:        errors.Join(fieldErr{"content", "is required"}, fieldErr{"parent", "invalid id"}),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Validation Error",
			wantErrors: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, env := response.Formatter{}.FromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.False(t, env.Success)
			assert.Len(t, env.Errors, tt.wantErrors)
			assert.Empty(t, env.Stack)
		})
	}
}

func TestFormatter_FromErrorUsesErrorStack(t *testing.T) {
	t.Parallel()
	_, env := response.Formatter{Development: true}.FromError(stackErr{})
	assert.Equal(t, "goroutine 1 [running]", env.Stack)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, http.StatusOK, response.StatusOf(nil))
	assert.Equal(t, http.StatusUnauthorized, response.StatusOf(response.ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, response.StatusOf(errors.New("x")))
}

func TestNewPagination(t *testing.T) {
	t.Parallel()
	p := response.NewPagination(0, 20, 41)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, 0, response.NewPagination(1, 0, 10).Pages)
}
