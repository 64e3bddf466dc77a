package postmark

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/mrz1836/postmark"

	"github.com/hyperlocaleyes/backend/core/email"
)

// Config holds the Postmark credentials and sender addresses.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail  string `env:"SENDER_EMAIL,required"`
	SupportEmail string `env:"SUPPORT_EMAIL,required"`
}

func (c Config) validate() error {
	switch {
	case c.ServerToken == "":
		return fmt.Errorf("%w: server token is required", email.ErrInvalidConfig)
	case c.AccountToken == "":
		return fmt.Errorf("%w: account token is required", email.ErrInvalidConfig)
	case !validAddress(c.SenderEmail):
		return fmt.Errorf("%w: sender email must be a valid address", email.ErrInvalidConfig)
	case !validAddress(c.SupportEmail):
		return fmt.Errorf("%w: support email must be a valid address", email.ErrInvalidConfig)
	}
	return nil
}

// Client sends mail through the Postmark API.
type Client struct {
	client *postmark.Client
	config Config
}

// New returns a Postmark backed email.Sender.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// Send implements email.Sender. Replies go to the support address.
func (c *Client) Send(ctx context.Context, msg email.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:       c.config.SenderEmail,
		ReplyTo:    c.config.SupportEmail,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(email.ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(email.ErrFailedToSendEmail,
			fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

var _ email.Sender = (*Client)(nil)

func validAddress(s string) bool {
	_, err := mail.ParseAddress(s)
	return s != "" && err == nil
}
