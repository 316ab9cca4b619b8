// Package notifications fans lifecycle events out to the email queue and
// delivers queued messages through SendGrid.
package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/internal/workshops"
	"github.com/openclass/backend/pkg/queue"
)

// Enqueuer pushes email jobs onto the notification queue.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Dispatcher translates domain events into queued email jobs. Every method
// is fire and forget: enqueue failures are logged and swallowed so a broken
// queue never blocks a moderation decision or a signup.
type Dispatcher struct {
	queue  Enqueuer
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(q Enqueuer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{queue: q, logger: logger}
}

// WorkshopAccepted queues acceptance emails to the workshop's registrants.
func (d *Dispatcher) WorkshopAccepted(ctx context.Context, w *models.Workshop, to []workshops.Recipient) {
	d.fanout(ctx, queue.EmailTypeAcceptance, w, to)
}

// WorkshopRefused queues refusal emails to the workshop's registrants.
func (d *Dispatcher) WorkshopRefused(ctx context.Context, w *models.Workshop, to []workshops.Recipient) {
	d.fanout(ctx, queue.EmailTypeRefusal, w, to)
}

// FeedbackRequested queues feedback-form invitations to attendees.
func (d *Dispatcher) FeedbackRequested(ctx context.Context, w *models.Workshop, to []workshops.Recipient) {
	d.fanout(ctx, queue.EmailTypeFeedbackRequest, w, to)
}

// VerificationRequested queues the email-verification message issued at
// signup or after an email change.
func (d *Dispatcher) VerificationRequested(profileID uuid.UUID, email, token string) {
	payload := queue.EmailPayload{
		EmailType:      queue.EmailTypeVerification,
		RecipientEmail: email,
		ProfileID:      profileID,
		Token:          token,
	}
	if err := d.queue.EnqueueEmail(context.Background(), payload); err != nil {
		d.logger.Error("enqueue verification email failed",
			zap.String("profile_id", profileID.String()), zap.Error(err))
	}
}

func (d *Dispatcher) fanout(ctx context.Context, emailType queue.EmailType, w *models.Workshop, to []workshops.Recipient) {
	for _, rcpt := range to {
		workshopID := w.ID
		payload := queue.EmailPayload{
			EmailType:      emailType,
			RecipientEmail: rcpt.Email,
			ProfileID:      rcpt.ProfileID,
			WorkshopID:     &workshopID,
			WorkshopTitle:  w.Title,
		}
		if err := d.queue.EnqueueEmail(ctx, payload); err != nil {
			d.logger.Error("enqueue notification failed",
				zap.String("email_type", string(emailType)),
				zap.String("workshop_id", w.ID.String()),
				zap.Error(err))
		}
	}
	d.logger.Info("notifications queued",
		zap.String("email_type", string(emailType)),
		zap.String("workshop_id", w.ID.String()),
		zap.Int("recipients", len(to)))
}
