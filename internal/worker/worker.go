// Package worker drains the notification queue: it renders each email job,
// delivers it through the mailer and records the outcome in the email log.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/internal/notifications"
	"github.com/openclass/backend/pkg/clock"
	"github.com/openclass/backend/pkg/queue"
)

// LogStore records delivery attempts and outcomes.
type LogStore interface {
	Create(ctx context.Context, l *models.EmailLog) error
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// EmailProcessor processes notification email jobs.
type EmailProcessor struct {
	queue   *queue.Queue
	mailer  notifications.Mailer
	logs    LogStore
	baseURL string
	clk     clock.Clock
	logger  *zap.Logger
}

// NewEmailProcessor creates an email processor. baseURL is the public
// address used to build verification links.
func NewEmailProcessor(q *queue.Queue, mailer notifications.Mailer, logs LogStore, baseURL string, clk clock.Clock, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{queue: q, mailer: mailer, logs: logs, baseURL: baseURL, clk: clk, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject, plain, err := p.compose(payload)
	if err != nil {
		return err
	}

	profileID := payload.ProfileID
	entry := &models.EmailLog{
		WorkshopID:     payload.WorkshopID,
		ProfileID:      &profileID,
		EmailType:      string(payload.EmailType),
		RecipientEmail: payload.RecipientEmail,
		Subject:        subject,
	}
	if err := p.logs.Create(ctx, entry); err != nil {
		p.logger.Error("email log create failed", zap.Error(err))
	}

	if err := p.mailer.Send(ctx, payload.RecipientEmail, subject, plain, ""); err != nil {
		if entry.ID != uuid.Nil {
			if logErr := p.logs.MarkFailed(ctx, entry.ID, err.Error()); logErr != nil {
				p.logger.Error("email log update failed", zap.Error(logErr))
			}
		}
		return fmt.Errorf("send %s to %s: %w", payload.EmailType, payload.RecipientEmail, err)
	}

	if entry.ID != uuid.Nil {
		if err := p.logs.MarkSent(ctx, entry.ID, p.clk.Now()); err != nil {
			p.logger.Error("email log update failed", zap.Error(err))
		}
	}
	p.logger.Info("email delivered",
		zap.String("email_type", string(payload.EmailType)),
		zap.String("to", payload.RecipientEmail))
	return nil
}

func (p *EmailProcessor) compose(payload queue.EmailPayload) (subject, plain string, err error) {
	switch payload.EmailType {
	case queue.EmailTypeVerification:
		subject = "Verify your email address"
		plain = fmt.Sprintf("Welcome to OpenClass!\n\nPlease confirm your email address by visiting:\n%s/verify/%s\n",
			p.baseURL, payload.Token)
	case queue.EmailTypeAcceptance:
		subject = fmt.Sprintf("Workshop %q is confirmed", payload.WorkshopTitle)
		plain = fmt.Sprintf("Congratulations!\n\nThe workshop %q you registered to has been accepted and will take place as planned.\n",
			payload.WorkshopTitle)
	case queue.EmailTypeRefusal:
		subject = fmt.Sprintf("Workshop %q will not take place", payload.WorkshopTitle)
		plain = fmt.Sprintf("We are really sorry.\n\nThe workshop %q you registered to has been refused and will not take place.\n",
			payload.WorkshopTitle)
	case queue.EmailTypeFeedbackRequest:
		subject = fmt.Sprintf("How was %q?", payload.WorkshopTitle)
		plain = fmt.Sprintf("Thanks for attending %q!\n\nPlease take a minute to fill in the feedback form and help the next sessions improve.\n",
			payload.WorkshopTitle)
	default:
		return "", "", fmt.Errorf("unknown email type: %s", payload.EmailType)
	}
	return subject, plain, nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
