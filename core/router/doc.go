// Package router provides a typed HTTP router on top of http.ServeMux.
//
// Routing, wildcards and method matching are done by the standard mux; the
// router adds a generic handler.Context, middleware stacks, groups and error
// rendering on top of it.
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
//	)
//	r.Use(middleware.RequestID[*router.Context](middleware.RequestIDConfig{}))
//
//	r.Route("/api/comments", func(r router.Router[*router.Context]) {
//		r.Get("/", list)
//		r.Get("/{id}", get)
//		r.With(auth).Post("/", create)
//	})
//
// Patterns use the http.ServeMux syntax ("/comments/{id}", "/files/{path...}").
// Path parameters are read with ctx.Param.
//
// Errors returned by a response, panics and unmatched requests are passed to
// the error handler unless the response has already been written. Unmatched
// requests (404 and 405) run through the root middleware stack first, so CORS
// preflights and security headers apply to them as well. Recovered panics
// implement PanicError.
package router
