package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/hyperlocaleyes/backend/core/config"
	"github.com/hyperlocaleyes/backend/core/email"
	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/health"
	"github.com/hyperlocaleyes/backend/core/logger"
	"github.com/hyperlocaleyes/backend/core/pipeline"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
	"github.com/hyperlocaleyes/backend/core/server"
	"github.com/hyperlocaleyes/backend/integration/database/mongo"
	"github.com/hyperlocaleyes/backend/integration/email/postmark"
	"github.com/hyperlocaleyes/backend/internal/account"
	"github.com/hyperlocaleyes/backend/internal/comment"
	"github.com/hyperlocaleyes/backend/middleware"
	"github.com/hyperlocaleyes/backend/pkg/metrics"
	"github.com/hyperlocaleyes/backend/pkg/ratelimiter"
	"github.com/hyperlocaleyes/backend/pkg/telemetry"
)

// Context is the request context of every route.
type Context = *router.Context

// App wires the stores, the request pipeline and the HTTP server.
type App struct {
	config   Config
	logger   *slog.Logger
	router   router.Router[Context]
	pipeline *pipeline.Pipeline[Context]
	server   *server.Server
	metrics  *prometheus.Registry
	tracing  *telemetry.Provider
	comments comment.Store
	users    account.UserStore
	notifier account.ResetNotifier
	checks   []health.Check
	closers  []func(context.Context) error
}

// Option customizes an App before it is assembled.
type Option func(*App) error

// New builds the App described by cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	app := &App{config: cfg}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.logger == nil {
		app.logger = newLogger(cfg)
	}
	if app.metrics == nil {
		app.metrics = prometheus.NewRegistry()
		app.metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if app.tracing == nil {
		tp, err := telemetry.New(ctx, cfg.Telemetry)
		if err != nil {
			return nil, err
		}
		app.tracing = tp
		app.closers = append(app.closers, tp.Shutdown)
	}
	if err := app.openStores(ctx); err != nil {
		return nil, err
	}
	if err := app.resetNotifier(); err != nil {
		return nil, err
	}
	if app.server == nil {
		s, err := server.NewFromConfig(cfg.Server, server.WithLogger(app.logger))
		if err != nil {
			return nil, err
		}
		app.server = s
	}

	if err := app.routes(); err != nil {
		return nil, err
	}
	return app, nil
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(app *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = l
		return nil
	}
}

// WithServer sets the HTTP server.
func WithServer(s *server.Server) Option {
	return func(app *App) error {
		if s == nil {
			return errors.New("server cannot be nil")
		}
		app.server = s
		return nil
	}
}

// WithStores replaces the comment and user stores selected by Config.Store.
func WithStores(comments comment.Store, users account.UserStore) Option {
	return func(app *App) error {
		if comments == nil || users == nil {
			return errors.New("stores cannot be nil")
		}
		app.comments, app.users = comments, users
		return nil
	}
}

// WithResetNotifier sets the delivery of password reset tokens.
func WithResetNotifier(n account.ResetNotifier) Option {
	return func(app *App) error {
		app.notifier = n
		return nil
	}
}

// WithMetricsRegistry sets the Prometheus registry behind the metrics endpoint.
func WithMetricsRegistry(r *prometheus.Registry) Option {
	return func(app *App) error {
		if r == nil {
			return errors.New("metrics registry cannot be nil")
		}
		app.metrics = r
		return nil
	}
}

// WithTracing sets the tracer provider.
func WithTracing(p *telemetry.Provider) Option {
	return func(app *App) error {
		if p == nil {
			return errors.New("tracer provider cannot be nil")
		}
		app.tracing = p
		return nil
	}
}

// Handler returns the root HTTP handler: tracing around the router.
func (a *App) Handler() http.Handler {
	return middleware.Tracing(middleware.TracingConfig{
		TracerProvider: a.tracing,
		Propagator:     a.tracing.Propagator,
		Skip:           func(r *http.Request) bool { return r.URL.Path == a.config.MetricsPath },
	})(a.router)
}

// Run serves HTTP and sweeps rate limit buckets until ctx is cancelled, then
// releases the stores and flushes telemetry.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.server.Run(gctx, a.Handler()))
	g.Go(a.pipeline.Run(gctx))

	err := g.Wait()

	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = server.DefaultShutdownTimeout
	}
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	for _, c := range a.closers {
		if cerr := c(closeCtx); cerr != nil {
			a.logger.Error("shutdown step failed", logger.Component("app"), logger.Error(cerr))
		}
	}
	return err
}

func (a *App) openStores(ctx context.Context) error {
	if a.comments != nil {
		return nil
	}

	switch a.config.Store {
	case "", StoreMemory:
		a.comments = comment.NewMemoryStore()
		a.users = account.NewMemoryUserStore()
		return nil

	case StoreMongo:
		var mcfg mongo.Config
		if err := config.Load(&mcfg); err != nil {
			return err
		}
		db, err := mongo.NewWithDatabase(ctx, mcfg, "")
		if err != nil {
			return err
		}
		store := comment.NewMongoStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.comments = store
		users := account.NewMongoUserStore(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.users = users
		a.checks = append(a.checks, health.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())})
		a.closers = append(a.closers, db.Client().Disconnect)
		return nil
	}
	return fmt.Errorf("app: unknown store %q", a.config.Store)
}

func (a *App) resetNotifier() error {
	if a.notifier != nil {
		return nil
	}

	switch a.config.Email {
	case "", EmailLog:
		a.notifier = account.LogNotifier(a.logger)
		return nil
	case EmailDev:
		a.notifier = account.EmailNotifier(email.NewDevSender(a.config.EmailDevDir), a.config.PublicURL)
		return nil
	case EmailPostmark:
		var pcfg postmark.Config
		if err := config.Load(&pcfg); err != nil {
			return err
		}
		sender, err := postmark.New(pcfg)
		if err != nil {
			return err
		}
		a.notifier = account.EmailNotifier(sender, a.config.PublicURL)
		return nil
	}
	return fmt.Errorf("app: unknown email provider %q", a.config.Email)
}

func (a *App) routes() error {
	collector := metrics.NewCollector(
		metrics.WithNamespace("hyperlocaleyes"),
		metrics.WithRegistry(a.metrics),
	)

	registry, err := ratelimiter.NewRegistryFromConfig(a.config.RateLimit,
		ratelimiter.WithMemoryStoreLogger(a.logger))
	if err != nil {
		return err
	}

	p, err := pipeline.New[Context](pipeline.Config{
		Registry:      registry,
		MaxBodySize:   a.config.MaxBodySize,
		Formatter:     response.Formatter{Development: a.config.Development()},
		Authenticator: account.NewTokens(a.config.TokenSecret),
		LegacyHeaders: a.config.LegacyRateLimitHeaders,
		Observer:      collector,
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}
	a.pipeline = p

	cors := middleware.DefaultCORSConfig()
	if len(a.config.CORSOrigins) > 0 {
		cors.AllowOriginFunc = middleware.AllowOriginList(a.config.CORSOrigins...)
	}

	r := router.New[Context](
		router.WithErrorHandler[Context](p.ErrorHandler),
		router.WithLogger[Context](a.logger),
	)
	r.Use(
		middleware.RequestID[Context](middleware.RequestIDConfig{UseExisting: true}),
		middleware.ClientIP[Context](middleware.ClientIPConfig{}),
		middleware.Logging[Context](middleware.LoggingConfig{Logger: a.logger}),
		middleware.Metrics[Context](collector),
		middleware.CORS[Context](cors),
	)
	r.Use(p.Common()...)

	r.Get("/health/live", health.Liveness[Context])
	r.Get("/health/ready", health.Readiness[Context](a.logger, append([]health.Check{
		{Name: "ratelimiter", Fn: registry.Healthcheck},
		{Name: "comments", Fn: a.comments.Ping},
	}, a.checks...)...))
	r.Get(a.config.MetricsPath, func(Context) handler.Response {
		return response.Handler(metrics.Handler(a.metrics))
	})

	api := r.With(p.Limit(ratelimiter.PolicyAPI))

	users := account.NewHandler[Context](a.users, account.NewTokens(a.config.TokenSecret),
		a.notifier, p.Formatter(), a.logger)
	users.Mount(api, account.Guards[Context]{
		Login:          []handler.Middleware[Context]{p.Limit(ratelimiter.PolicyLogin)},
		ForgotPassword: []handler.Middleware[Context]{p.Limit(ratelimiter.PolicyPasswordReset)},
		ResetPassword:  []handler.Middleware[Context]{p.Limit(ratelimiter.PolicyPasswordReset)},
		Protect:        p.Protect(),
	})

	comment.NewHandler[Context](a.comments, p.Formatter(), a.logger).Mount(api, p.Protect()...)

	a.router = r
	return nil
}

func newLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{
		logger.WithContextExtractors(middleware.RequestIDExtractor()),
		logger.WithOutput(os.Stdout),
	}
	if cfg.Development() {
		opts = append(opts, logger.WithDevelopment(cfg.Telemetry.ServiceName))
	} else {
		opts = append(opts, logger.WithProduction(cfg.Telemetry.ServiceName))
	}
	opts = append(opts, logger.WithLevel(cfg.Level()))
	return logger.New(opts...)
}
