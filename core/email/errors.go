package email

import "errors"

var (
	// ErrFailedToSendEmail wraps delivery failures of any Sender.
	ErrFailedToSendEmail = errors.New("email: delivery failed")
	ErrInvalidConfig     = errors.New("email: invalid configuration")
	// ErrInvalidParams is returned by Message.Validate.
	ErrInvalidParams = errors.New("email: invalid message")
)
