package postmark_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/email"
	"github.com/hyperlocaleyes/backend/integration/email/postmark"
)

func TestNew(t *testing.T) {
	t.Parallel()

	valid := postmark.Config{
		ServerToken:  "server",
		AccountToken: "account",
		SenderEmail:  "noreply@example.com",
		SupportEmail: "support@example.com",
	}
	c, err := postmark.New(valid)
	require.NoError(t, err)
	require.NotNil(t, c)

	tests := []struct {
		name string
		edit func(*postmark.Config)
	}{
		{"server token", func(c *postmark.Config) { c.ServerToken = "" }},
		{"account token", func(c *postmark.Config) { c.AccountToken = "" }},
		{"sender", func(c *postmark.Config) { c.SenderEmail = "nope" }},
		{"support", func(c *postmark.Config) { c.SupportEmail = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.edit(&cfg)
			_, err := postmark.New(cfg)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
		})
	}
}

func TestSend_InvalidMessage(t *testing.T) {
	t.Parallel()

	c, err := postmark.New(postmark.Config{
		ServerToken:  "server",
		AccountToken: "account",
		SenderEmail:  "noreply@example.com",
		SupportEmail: "support@example.com",
	})
	require.NoError(t, err)

	err = c.Send(context.Background(), email.Message{To: "a@example.com"})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
