package email

import "errors"

var (
	// ErrFailedToSendEmail wraps transport failures; callers may retry.
	ErrFailedToSendEmail = errors.New("failed to send email")
	ErrInvalidConfig     = errors.New("invalid email configuration")
	// ErrInvalidParams means the message itself is malformed and retrying will not help.
	ErrInvalidParams = errors.New("invalid email parameters")
)
