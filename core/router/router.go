package router

import (
	"net/http"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// Router registers handlers on Go 1.22 ServeMux path patterns ("/{id}/replies")
// and composes middleware per group. Patterns registered inside Route are
// prefixed with the route pattern.
type Router[C handler.Context] interface {
	http.Handler
	Routes

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	Put(pattern string, h handler.HandlerFunc[C])
	Delete(pattern string, h handler.HandlerFunc[C])
	Patch(pattern string, h handler.HandlerFunc[C])

	// Method registers h for every method given, or for all methods when none is.
	Method(pattern string, h handler.HandlerFunc[C], methods ...string)

	// Use appends to the stack of the current group. With returns a copy of
	// the router whose routes get the extra middleware.
	Use(middlewares ...handler.Middleware[C])
	With(middlewares ...handler.Middleware[C]) Router[C]

	Group(fn func(r Router[C])) Router[C]
	Route(pattern string, fn func(r Router[C])) Router[C]
}

// Routes lists the registered routes in registration order.
type Routes interface {
	Routes() []Route
}

// Route is one registered method and full pattern.
type Route struct {
	Method  string
	Pattern string
}

// New returns a ServeMux backed router.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux[C](opts...)
}
