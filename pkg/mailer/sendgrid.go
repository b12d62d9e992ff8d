package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig contains credentials and sender identity for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// SendGridMailer delivers email through the SendGrid API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	logger zerolog.Logger
}

// NewSendGridMailer constructs a SendGrid-backed mailer.
func NewSendGridMailer(cfg SendGridConfig, logger zerolog.Logger) (*SendGridMailer, error) {
	if cfg.APIKey == "" || cfg.FromEmail == "" {
		return nil, fmt.Errorf("sendgrid api key and sender address must be provided")
	}

	return &SendGridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger.With().Str("component", "sendgrid_mailer").Logger(),
	}, nil
}

// Send delivers one message. Any non-2xx response counts as a failure.
func (m *SendGridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), "", htmlBody)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %d", response.StatusCode)
	}

	m.logger.Info().Str("to", to).Str("subject", subject).Msg("email dispatched")

	return nil
}
