package router

import (
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// shared holds the state common to a root router and all of its groups.
type shared[C handler.Context] struct {
	std          *http.ServeMux
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger

	mu     sync.RWMutex
	routes []Route
}

// mux is the private implementation of Router interface.
// Routing is delegated to http.ServeMux; mux adds typed contexts,
// middleware stacks and error rendering on top of it.
type mux[C handler.Context] struct {
	s           *shared[C]
	parent      *mux[C]
	prefix      string
	middlewares []handler.Middleware[C]
}

// newMux creates a new router instance.
func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		s: &shared[C]{
			std:          http.NewServeMux(),
			errorHandler: defaultErrorHandler[C],
			logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	// Auto-detect Context type if no factory provided
	if m.s.newContext == nil {
		m.s.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(NewContext(w, r, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return m
}

// ServeHTTP implements http.Handler interface.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := m.s.std.Handler(r); pattern != "" {
		m.s.std.ServeHTTP(w, r)
		return
	}

	// Nothing matched: ask the standard mux whether this is a 404 or a 405
	// and render it through the error handler with the root middleware stack.
	fallback, _ := m.s.std.Handler(r)
	probe := &probeWriter{}
	fallback.ServeHTTP(probe, r)

	err := ErrNotFound
	allow := ""
	if probe.status == http.StatusMethodNotAllowed {
		err = ErrMethodNotAllowed
		allow = probe.Header().Get("Allow")
	}

	ww := &responseWriter{ResponseWriter: w}
	ctx := m.s.newContext(ww, r, nil)
	m.serve(ctx, ww, handler.Chain(m.root().middlewares, func(C) handler.Response {
		return func(w http.ResponseWriter, _ *http.Request) error {
			if allow != "" {
				w.Header().Set("Allow", allow)
			}
			return err
		}
	}))
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodGet)
}

func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodPost)
}

func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodPut)
}

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodDelete)
}

func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodPatch)
}

// Method registers h for the given methods. Without methods the route
// matches any method.
func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	if h == nil {
		panic("router: nil handler for pattern " + pattern)
	}

	full := m.fullPattern(pattern)
	ep := m.endpoint(h, paramNames(full))

	if len(methods) == 0 {
		m.s.std.HandleFunc(full, ep)
		m.s.addRoute("*", full)
		return
	}

	for _, method := range methods {
		method = strings.ToUpper(method)
		m.s.std.HandleFunc(method+" "+full, ep)
		m.s.addRoute(method, full)
	}
}

// Use appends middleware to this router. Middleware applies to every route
// registered on this router and its groups, including routes added earlier.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	m.middlewares = append(m.middlewares, middlewares...)
}

// With returns an inline group with additional middleware.
func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	child := m.child(m.prefix)
	child.middlewares = append(child.middlewares, middlewares...)
	return child
}

// Group creates an inline group sharing the current prefix.
func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	child := m.child(m.prefix)
	if fn != nil {
		fn(child)
	}
	return child
}

// Route creates a group mounted under pattern.
func (m *mux[C]) Route(pattern string, fn func(r Router[C])) Router[C] {
	child := m.child(m.fullPattern(pattern))
	if fn != nil {
		fn(child)
	}
	return child
}

// Routes returns all registered routes in registration order.
func (m *mux[C]) Routes() []Route {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return slices.Clone(m.s.routes)
}

func (m *mux[C]) child(prefix string) *mux[C] {
	return &mux[C]{s: m.s, parent: m, prefix: prefix}
}

func (m *mux[C]) root() *mux[C] {
	r := m
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// stack collects middleware from the root down to this router.
func (m *mux[C]) stack() []handler.Middleware[C] {
	var chain []*mux[C]
	for r := m; r != nil; r = r.parent {
		chain = append(chain, r)
	}

	var mws []handler.Middleware[C]
	for i := len(chain) - 1; i >= 0; i-- {
		mws = append(mws, chain[i].middlewares...)
	}
	return mws
}

func (m *mux[C]) fullPattern(pattern string) string {
	if pattern == "" || pattern[0] != '/' {
		panic(ErrInvalidPattern.Error() + ": " + pattern)
	}
	if m.prefix == "" {
		return pattern
	}
	if pattern == "/" {
		return m.prefix
	}
	return strings.TrimSuffix(m.prefix, "/") + pattern
}

func (m *mux[C]) endpoint(h handler.HandlerFunc[C], names []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params map[string]string
		if len(names) > 0 {
			params = make(map[string]string, len(names))
			for _, name := range names {
				params[name] = r.PathValue(name)
			}
		}

		ww := &responseWriter{ResponseWriter: w}
		ctx := m.s.newContext(ww, r, params)
		m.serve(ctx, ww, handler.Chain(m.stack(), h))
	}
}

// serve runs fn and renders its response, routing errors and panics to the
// error handler unless the response was already written.
func (m *mux[C]) serve(ctx C, ww *responseWriter, fn handler.HandlerFunc[C]) {
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			perr := newPanicError(v)
			m.s.logger.ErrorContext(ctx, "panic recovered",
				slog.Any("panic", v),
				slog.String("path", ctx.Request().URL.Path))
			if !ww.Written() {
				m.s.errorHandler(ctx, perr)
			}
		}
	}()

	resp := fn(ctx)
	if resp == nil {
		m.s.errorHandler(ctx, ErrNilResponse)
		return
	}

	if err := resp(ww, ctx.Request()); err != nil && !ww.Written() {
		m.s.errorHandler(ctx, err)
	}
}

func (s *shared[C]) addRoute(method, pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, Route{Method: method, Pattern: pattern})
}

// paramNames extracts wildcard names from a ServeMux pattern such as
// "/comments/{id}/replies" or "/files/{path...}".
func paramNames(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			return names
		}
		name := strings.TrimSuffix(pattern[start+1:start+end], "...")
		if name != "$" && name != "" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}
}
