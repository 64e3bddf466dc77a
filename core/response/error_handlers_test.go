package response_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
)

func TestErrorHandler_RendersEnvelope(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	ctx := router.NewContext(w, r, nil)

	h := response.ErrorHandler[*router.Context](response.Formatter{})
	h(ctx, response.ErrRateLimitExceeded.WithMessage("Too many login attempts, please try again after an hour"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	m := decode(t, w.Body.Bytes())
	assert.Equal(t, false, m["success"])
	assert.Equal(t, "Too many login attempts, please try again after an hour", m["message"])
	_, hasStack := m["stack"]
	assert.False(t, hasStack)
}

func TestJSONErrorHandler(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	ctx := router.NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	response.JSONErrorHandler(ctx, response.ErrNotFound.WithMessage("Comment not found"))

	require.Equal(t, http.StatusNotFound, w.Code)
	m := decode(t, w.Body.Bytes())
	assert.Equal(t, "Comment not found", m["message"])
}

func TestHTTPError_With(t *testing.T) {
	t.Parallel()

	base := response.ErrBadRequest
	withMsg := base.WithMessage("Comment already liked")
	assert.Equal(t, "Comment already liked", withMsg.Error())
	assert.Equal(t, "Bad Request", base.Message)
	assert.Equal(t, "Bad Request", base.WithMessage("").Message)

	withCause := base.WithError(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), withCause.Details["cause"])
	assert.Nil(t, base.Details)

	withErrs := response.ErrValidation.WithErrors(response.ErrorDetail{Field: "content", Message: "is required"})
	assert.Len(t, withErrs.Errors, 1)
	assert.Equal(t, http.StatusBadRequest, withErrs.StatusCode())
}

func TestBaseResponses(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)

	w := httptest.NewRecorder()
	require.NoError(t, response.StringWithStatus("ok", http.StatusAccepted)(w, r))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	require.NoError(t, response.NoContent()(w, r))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	require.NoError(t, response.WithNoCache(response.JSONWithStatus(nil, 0))(w, r))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	require.NoError(t, response.WithHeaders(response.JSON(1), map[string]string{"X-Test": "1"})(w, r))
	assert.Equal(t, "1", w.Header().Get("X-Test"))
	assert.Equal(t, "1\n", w.Body.String())
}
