package middleware_test

import (
	"context"
	"log/slog"
	"sync"
)

// testLogHandler captures log entries for testing
type testLogHandler struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (h *testLogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	entry := make(map[string]any)
	entry["level"] = r.Level.String()
	entry["msg"] = r.Message

	r.Attrs(func(a slog.Attr) bool {
		entry[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
	return nil
}

func (h *testLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *testLogHandler) WithGroup(string) slog.Handler { return h }

// find returns the entries whose msg equals msg.
func (h *testLogHandler) find(msg string) []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []map[string]any
	for _, e := range h.entries {
		if e["msg"] == msg {
			out = append(out, e)
		}
	}
	return out
}

func newTestLogger() (*slog.Logger, *testLogHandler) {
	h := &testLogHandler{}
	return slog.New(h), h
}
