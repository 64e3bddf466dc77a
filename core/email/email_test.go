package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/email"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	valid := email.Message{To: "a@example.com", Subject: "s", HTML: "<p>x</p>"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		edit func(*email.Message)
	}{
		{"no recipient", func(m *email.Message) { m.To = "" }},
		{"bad recipient", func(m *email.Message) { m.To = "not-an-address" }},
		{"no subject", func(m *email.Message) { m.Subject = "" }},
		{"no body", func(m *email.Message) { m.HTML = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := valid
			tt.edit(&m)
			assert.ErrorIs(t, m.Validate(), email.ErrInvalidParams)
		})
	}
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mail")
	s := email.NewDevSender(dir)

	err := s.Send(context.Background(), email.Message{
		To:      "alice@example.com",
		Subject: "Password Reset Token",
		HTML:    "<p>reset</p>",
		Tag:     "password reset!",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var html, meta string
	for _, e := range entries {
		assert.Contains(t, e.Name(), "_password_reset.")
		switch {
		case strings.HasSuffix(e.Name(), ".html"):
			html = filepath.Join(dir, e.Name())
		case strings.HasSuffix(e.Name(), ".json"):
			meta = filepath.Join(dir, e.Name())
		}
	}

	body, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Equal(t, "<p>reset</p>", string(body))

	raw, err := os.ReadFile(meta)
	require.NoError(t, err)
	var m map[string]string
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "alice@example.com", m["to"])
	assert.Equal(t, "password reset!", m["tag"])

	assert.ErrorIs(t, s.Send(context.Background(), email.Message{}), email.ErrInvalidParams)
}
