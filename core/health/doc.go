// Package health provides the liveness and readiness handlers.
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log,
//		health.Check{Name: "comments", Fn: store.Ping},
//	))
//
// Both answer with the standard response envelope. Readiness answers 503 when
// any check fails or exceeds DefaultCheckTimeout.
package health
