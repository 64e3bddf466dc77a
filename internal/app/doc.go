// Package app assembles the API process from its configuration: logger,
// Prometheus registry, tracer provider, comment and user stores, the request
// pipeline and the HTTP server.
//
// Every route shares the root middleware (request id, client ip, logging,
// metrics, CORS, security headers, body limit, sanitization). The /api
// routes add the api rate limit policy; login and forgot-password add their
// own policies on top.
//
//	var cfg app.Config
//	config.MustLoad(&cfg)
//	a, err := app.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	return a.Run(ctx)
package app
