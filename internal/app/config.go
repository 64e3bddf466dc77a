package app

import (
	"log/slog"

	"github.com/hyperlocaleyes/backend/core/server"
	"github.com/hyperlocaleyes/backend/pkg/ratelimiter"
	"github.com/hyperlocaleyes/backend/pkg/telemetry"
)

// Store backends for comments and users.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Delivery of password reset emails.
const (
	EmailLog      = "log"
	EmailDev      = "dev"
	EmailPostmark = "postmark"
)

// Config is the environment configuration of the API process.
type Config struct {
	Server    server.Config
	RateLimit ratelimiter.Config
	Telemetry telemetry.Config

	Env         string   `env:"APP_ENV" envDefault:"development"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	TokenSecret string   `env:"TOKEN_SECRET,required"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	Store       string   `env:"STORE" envDefault:"memory"`
	MaxBodySize int64    `env:"MAX_BODY_SIZE" envDefault:"10240"`
	MetricsPath string   `env:"METRICS_PATH" envDefault:"/metrics"`
	PublicURL   string   `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	Email       string   `env:"EMAIL_PROVIDER" envDefault:"log"`
	EmailDevDir string   `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`

	// LegacyRateLimitHeaders also emits X-RateLimit-* headers
	LegacyRateLimitHeaders bool `env:"RATE_LIMIT_LEGACY_HEADERS" envDefault:"false"`
}

// Development reports whether the process runs in development mode, which
// exposes stack traces of server errors.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
