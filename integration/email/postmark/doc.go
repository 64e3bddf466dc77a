// Package postmark sends transactional email through Postmark.
//
//	var cfg postmark.Config
//	config.MustLoad(&cfg)
//	sender, err := postmark.New(cfg)
//
// Configuration: POSTMARK_SERVER_TOKEN, POSTMARK_ACCOUNT_TOKEN, SENDER_EMAIL
// and SUPPORT_EMAIL, all required.
package postmark
