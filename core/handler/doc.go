// Package handler defines the request-processing abstractions shared by the
// router, middleware and application handlers.
//
// A handler receives a typed request context and returns a Response, a
// deferred render function. Middleware wraps handlers and may either call
// next or short-circuit by returning its own Response:
//
//	type Response func(w http.ResponseWriter, r *http.Request) error
//	type HandlerFunc[C Context] func(ctx C) Response
//	type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
//
// Returning an error from a Response hands it to the router's ErrorHandler,
// which renders the uniform JSON envelope (see core/response).
//
//	func hello(ctx *router.Context) handler.Response {
//		return response.JSON(map[string]string{"hello": ctx.Param("name")})
//	}
//
// Chain composes a middleware stack around an endpoint, outermost first:
//
//	h := handler.Chain([]handler.Middleware[*router.Context]{
//		middleware.SecurityHeaders[*router.Context](policy),
//		middleware.Sanitize[*router.Context](cfg),
//	}, hello)
package handler
