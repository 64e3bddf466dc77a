// Package email defines the Sender used for transactional mail such as
// password reset links.
//
// Providers live under integration/email; DevSender writes messages to disk
// for local runs:
//
//	sender := email.NewDevSender("./tmp/emails")
//	err := sender.Send(ctx, email.Message{
//		To:      "user@example.com",
//		Subject: "Password Reset Token",
//		HTML:    body,
//		Tag:     "password_reset",
//	})
package email
