package handler

import (
	"context"
	"net/http"
)

// Context defines the contract for request contexts in the framework.
// Use router.Context for the default implementation.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}

// ParamSetter is implemented by contexts that allow path parameters to be
// rewritten, e.g. by the sanitization middleware.
type ParamSetter interface {
	Params() map[string]string
	SetParam(key, value string)
}
