package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hyperlocaleyes/backend/core/router"
)

type ctxKey struct{}

func TestContext(t *testing.T) {
	t.Parallel()

	base, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/comments/1", nil).WithContext(base)
	w := httptest.NewRecorder()
	ctx := router.NewContext(w, req, map[string]string{"id": "1"})

	assert.Equal(t, "1", ctx.Param("id"))
	assert.Empty(t, ctx.Param("missing"))
	assert.Same(t, w, ctx.ResponseWriter())

	_, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.NoError(t, ctx.Err())

	ctx.SetValue(ctxKey{}, "v")
	assert.Equal(t, "v", ctx.Value(ctxKey{}))
	assert.Equal(t, "v", ctx.Request().Context().Value(ctxKey{}))

	ctx.SetParam("id", "2")
	assert.Equal(t, "2", ctx.Param("id"))
	assert.Equal(t, "2", ctx.Request().PathValue("id"))
	assert.Equal(t, map[string]string{"id": "2"}, ctx.Params())

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestContextWithoutParams(t *testing.T) {
	t.Parallel()

	ctx := router.NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Empty(t, ctx.Param("id"))

	ctx.SetParam("id", "x")
	assert.Equal(t, "x", ctx.Param("id"))
}
