package response

import (
	"net/http"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// Error defers err to the router's error handler, which renders it through
// the Formatter. Middleware returns it to stop a request early:
//
//	return response.Error(ErrTooManyRequests.WithMessage(policy.Message))
func Error(err error) handler.Response {
	return func(http.ResponseWriter, *http.Request) error {
		return err
	}
}
