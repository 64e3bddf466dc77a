package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/logger"
	"github.com/hyperlocaleyes/backend/core/response"
)

// DefaultCheckTimeout bounds every readiness check.
const DefaultCheckTimeout = 2 * time.Second

// Check is a named dependency probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Readiness runs every check and answers 200 when all pass, 503 otherwise.
// Failed check names are listed in the envelope errors; causes go to the log only.
//
//	r.Get("/health/ready", health.Readiness[*router.Context](log,
//		health.Check{Name: "mongo", Fn: mongo.Healthcheck(client)},
//		health.Check{Name: "ratelimiter", Fn: registry.Healthcheck},
//	))
func Readiness[C handler.Context](log *slog.Logger, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Nop()
	}

	return func(ctx C) handler.Response {
		var failed []response.ErrorDetail
		for _, c := range checks {
			cctx, cancel := context.WithTimeout(ctx, DefaultCheckTimeout)
			err := c.Fn(cctx)
			cancel()
			if err != nil {
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component("health"),
					slog.String("check", c.Name),
					logger.Error(err))
				failed = append(failed, response.ErrorDetail{Field: c.Name, Message: "unavailable"})
			}
		}

		if len(failed) > 0 {
			return response.Error(response.ErrServiceUnavailable.WithErrors(failed...))
		}
		return response.WithNoCache(response.Formatter{}.OK(map[string]string{"status": "ready"}, ""))
	}
}
