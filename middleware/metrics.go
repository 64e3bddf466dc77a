package middleware

import (
	"net/http"
	"time"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// ResponseObserver records finished responses, e.g. a metrics collector.
type ResponseObserver interface {
	ObserveResponse(method string, status int, d time.Duration)
}

// Metrics reports the method, final status and latency of every response to obs.
func Metrics[C handler.Context](obs ResponseObserver) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			start := time.Now()
			method := ctx.Request().Method
			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				sw := newStatusWriter(w)
				err := resp(sw, r)
				obs.ObserveResponse(method, sw.status(err), time.Since(start))
				return err
			}
		}
	}
}
