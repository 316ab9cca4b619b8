package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer delivers a single email message.
type Mailer interface {
	Send(ctx context.Context, toEmail, subject, plain, html string) error
}

// SendGridMailer delivers email through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendGridMailer creates a SendGrid mailer.
func NewSendGridMailer(apiKey, fromName, fromAddress string, logger *zap.Logger) *SendGridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddress),
		logger: logger,
	}
}

// Send delivers one message. Responses outside 2xx are errors so the worker
// can retry.
func (m *SendGridMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	if html == "" {
		html = plain
	}
	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail("", toEmail), plain, html)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	m.logger.Debug("email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}
