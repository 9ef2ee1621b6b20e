// Package mailer provides email delivery for account flows. The log mailer
// is the default until an SMTP or provider-backed implementation lands; it
// writes the outgoing message to the service log, which is enough for local
// development and staging.
package mailer

import (
	"context"
	"log/slog"
)

// LogMailer implements service.Mailer by logging instead of sending.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m *LogMailer) SendVerificationEmail(_ context.Context, email, token string) error {
	m.logger().Info("verification email",
		slog.String("to", email),
		slog.String("token", token))
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, email, code string) error {
	m.logger().Info("password reset email",
		slog.String("to", email),
		slog.String("code", code))
	return nil
}
