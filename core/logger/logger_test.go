package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/logger"
)

type ctxKey struct{}

func TestNew_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithProduction("api"),
		logger.WithOutput(&buf),
	)
	log.Info("hello", logger.Policy("api"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "api", rec["service"])
	assert.Equal(t, "production", rec["env"])
	assert.Equal(t, "api", rec["policy"])
}

func TestNew_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))
	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNew_DevelopmentIsDebugText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithDevelopment("api"), logger.WithOutput(&buf))
	log.Debug("details")

	out := buf.String()
	assert.Contains(t, out, "msg=details")
	assert.Contains(t, out, "env=development")
}

func TestNew_ContextExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
			id, ok := ctx.Value(ctxKey{}).(string)
			if !ok {
				return slog.Attr{}, false
			}
			return logger.RequestID(id), true
		}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	log.With(logger.Component("test")).InfoContext(ctx, "with id")
	log.InfoContext(context.Background(), "without id")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"request_id":"req-1"`)
	assert.Contains(t, lines[0], `"component":"test"`)
	assert.NotContains(t, lines[1], "request_id")
}

func TestNop(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { logger.Nop().Error("ignored") })
}
