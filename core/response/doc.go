// Package response builds HTTP responses and the uniform JSON envelope
// returned by every API endpoint.
//
// Every JSON body has the shape
//
//	{"success": bool, "message": string, "data"?: any, "errors"?: [...],
//	 "pagination"?: {...}, "stack"?: string}
//
// Formatter constructs envelopes. Stack traces are included only when
// Development is set and the status is 5xx:
//
//	f := response.Formatter{Development: cfg.IsDevelopment()}
//
//	func list(ctx *router.Context) handler.Response {
//		comments, total, err := store.ListReplies(ctx, id, page, limit)
//		if err != nil {
//			return response.Error(err)
//		}
//		return f.Page(comments, "Replies", response.NewPagination(page, limit, total))
//	}
//
// # Errors
//
// Handlers and middleware return errors; the router hands them to the error
// handler built by ErrorHandler, which converts them with Formatter.FromError:
//
//   - HTTPError values (ErrRateLimitExceeded, ErrUnauthorized, ...) keep their
//     status and message.
//   - Errors exposing FieldPath() (validator errors, possibly joined) become a
//     400 "Validation Error" with a list of field errors.
//   - Errors implementing StatusCode() int keep their status; 4xx messages are
//     shown, 5xx messages are replaced by the status text.
//   - Anything else is a 500 "Internal Server Error".
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(response.ErrorHandler[*router.Context](f)),
//	)
package response
