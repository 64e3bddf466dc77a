// Package mongo initializes the MongoDB client used by the document stores.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect(context.WithoutCancel(ctx))
//
//	db := client.Database(cfg.Database)
//
// New retries the connect and ping RetryAttempts times, RetryInterval apart,
// to survive Atlas cold starts. Healthcheck plugs into health.Readiness.
//
// Environment:
//
//	MONGODB_URL                 (required)
//	MONGODB_DATABASE            (default: hyperlocaleyes)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 300s)
//	MONGODB_RETRY_WRITES        (default: true)
//	MONGODB_RETRY_READS         (default: true)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 5s)
package mongo
