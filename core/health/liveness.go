package health

import (
	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/response"
)

// Liveness reports that the process is serving requests. No dependency checks.
//
//	r.Get("/health/live", health.Liveness[*router.Context])
func Liveness[C handler.Context](C) handler.Response {
	return response.WithNoCache(response.Formatter{}.OK(map[string]string{"status": "alive"}, ""))
}
