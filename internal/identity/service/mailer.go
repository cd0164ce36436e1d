package service

import (
	"context"
	"log/slog"
)

// LogMailer is the development Mailer: it records that a delivery happened
// without ever logging the code itself. Production deployments swap in a real
// transactional mail provider behind the same interface.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a new LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendVerificationCode logs the delivery. The code is intentionally omitted
// from the log record.
func (m *LogMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	m.logger.InfoContext(ctx, "verification code dispatched", "email", email, "code_length", len(code))
	return nil
}
