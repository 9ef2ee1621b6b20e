package service

import "context"

// Mailer delivers account emails. Implementations must be safe for
// concurrent use; the services call them from background goroutines and
// treat delivery failures as log-and-continue.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, code string) error
}
