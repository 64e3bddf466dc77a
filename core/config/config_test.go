package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/config"
)

type limitsConfig struct {
	Max    int           `env:"CONFIG_TEST_MAX" envDefault:"100"`
	Window time.Duration `env:"CONFIG_TEST_WINDOW" envDefault:"15m"`
}

type requiredConfig struct {
	Secret string `env:"CONFIG_TEST_SECRET,required"`
}

type cachedConfig struct {
	Name string `env:"CONFIG_TEST_NAME" envDefault:"first"`
}

func TestLoad_EnvAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_TEST_MAX", "5")

	var cfg limitsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 5, cfg.Max)
	assert.Equal(t, 15*time.Minute, cfg.Window)
}

func TestLoad_RequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_TEST_SECRET")
}

func TestLoad_CachedPerType(t *testing.T) {
	var first cachedConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "first", first.Name)

	t.Setenv("CONFIG_TEST_NAME", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Name)
}

func TestLoad_Nil(t *testing.T) {
	var cfg *limitsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilConfig)
}

func TestMustLoad_Panics(t *testing.T) {
	type mustConfig struct {
		Port int `env:"CONFIG_TEST_BAD_PORT"`
	}
	t.Setenv("CONFIG_TEST_BAD_PORT", "not-a-number")

	assert.Panics(t, func() {
		var cfg mustConfig
		config.MustLoad(&cfg)
	})
}
