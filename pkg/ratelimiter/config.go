package ratelimiter

import "time"

// Config holds policy overrides loaded from the environment.
type Config struct {
	APILimit            int           `env:"RATE_LIMIT_API_MAX" envDefault:"100"`
	APIWindow           time.Duration `env:"RATE_LIMIT_API_WINDOW" envDefault:"15m"`
	LoginLimit          int           `env:"RATE_LIMIT_LOGIN_MAX" envDefault:"5"`
	LoginWindow         time.Duration `env:"RATE_LIMIT_LOGIN_WINDOW" envDefault:"1h"`
	PasswordResetLimit  int           `env:"RATE_LIMIT_PASSWORD_RESET_MAX" envDefault:"3"`
	PasswordResetWindow time.Duration `env:"RATE_LIMIT_PASSWORD_RESET_WINDOW" envDefault:"1h"`
	SweepInterval       time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"1m"`
	CleanupInterval     time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
}

// Policies returns the built-in policies with the configured limits applied.
// Zero values keep the defaults.
func (c Config) Policies() []Policy {
	api, login, reset := APIPolicy(), LoginPolicy(), PasswordResetPolicy()
	override(&api, c.APILimit, c.APIWindow)
	override(&login, c.LoginLimit, c.LoginWindow)
	override(&reset, c.PasswordResetLimit, c.PasswordResetWindow)
	return []Policy{api, login, reset}
}

// StoreOptions returns the store options derived from the config.
func (c Config) StoreOptions() []MemoryStoreOption {
	return []MemoryStoreOption{
		WithSweepInterval(c.SweepInterval),
		WithCleanupInterval(c.CleanupInterval),
	}
}

// NewRegistryFromConfig builds a registry with the configured built-in policies.
func NewRegistryFromConfig(c Config, opts ...MemoryStoreOption) (*Registry, error) {
	r := NewRegistry(append(c.StoreOptions(), opts...)...)
	for _, p := range c.Policies() {
		if _, err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func override(p *Policy, limit int, window time.Duration) {
	if limit > 0 {
		p.Limit = limit
	}
	if window > 0 {
		p.Window = window
	}
}
