// Package server wraps http.Server with graceful shutdown and env-driven
// configuration.
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, handler))
//	return g.Wait()
//
// Run serves until the context is canceled, then stops accepting connections
// and waits up to the shutdown timeout for in-flight requests. Request
// contexts are detached from the run context so that shutdown does not cancel
// requests that are still being served.
//
// TLS is not terminated here; the API is deployed behind a proxy that sets
// X-Forwarded-For.
package server
