package account

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/hyperlocaleyes/backend/core/email"
)

var resetTemplate = template.Must(template.New("reset").Parse(
	`<p>You are receiving this email because you (or someone else) has requested a password reset.</p>` +
		`<p>Please make a PUT request to:</p>` +
		`<p><a href="{{.URL}}">{{.URL}}</a></p>`,
))

// EmailNotifier mails the reset link baseURL + "/reset-password/" + token.
func EmailNotifier(sender email.Sender, baseURL string) ResetNotifier {
	baseURL = strings.TrimSuffix(baseURL, "/")

	return ResetNotifierFunc(func(ctx context.Context, u *User, token string) error {
		var body bytes.Buffer
		if err := resetTemplate.Execute(&body, struct{ URL string }{
			URL: baseURL + "/reset-password/" + token,
		}); err != nil {
			return fmt.Errorf("render reset email: %w", err)
		}

		return sender.Send(ctx, email.Message{
			To:      u.Email,
			Subject: "Password Reset Token",
			HTML:    body.String(),
			Tag:     "password_reset",
		})
	})
}
