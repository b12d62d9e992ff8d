package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// Mailer hands a rendered message off to the outbound email transport.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LogMailer writes messages to the log instead of sending them. Used in
// development and as the fallback when no SendGrid key is configured.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "log_mailer").Logger()}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.logger.Info().Str("to", to).Str("subject", subject).Int("body_bytes", len(htmlBody)).Msg("email delivered to log sink")
	return nil
}
