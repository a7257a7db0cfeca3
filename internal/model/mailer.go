package model

import "context"

// Mailer delivers transactional mail. Only the password-reset one-time code
// goes through it today.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}
