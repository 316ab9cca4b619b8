package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
	"github.com/openclass/backend/pkg/queue"
)

// fakeMailer records sends and fails on demand.
type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	plain   string
}

func (m *fakeMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, plain: plain})
	return nil
}

// memLogStore is an in-memory email log.
type memLogStore struct {
	entries map[uuid.UUID]*models.EmailLog
}

func newMemLogStore() *memLogStore {
	return &memLogStore{entries: make(map[uuid.UUID]*models.EmailLog)}
}

func (s *memLogStore) Create(ctx context.Context, l *models.EmailLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = models.EmailLogStatusPending
	}
	copied := *l
	s.entries[l.ID] = &copied
	return nil
}

func (s *memLogStore) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	entry, ok := s.entries[id]
	if !ok {
		return errors.New("log entry missing")
	}
	entry.Status = models.EmailLogStatusSent
	entry.SentAt = &sentAt
	return nil
}

func (s *memLogStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	entry, ok := s.entries[id]
	if !ok {
		return errors.New("log entry missing")
	}
	entry.Status = models.EmailLogStatusFailed
	entry.ErrorMessage = reason
	return nil
}

func (s *memLogStore) single() *models.EmailLog {
	for _, entry := range s.entries {
		return entry
	}
	return nil
}

type EmailProcessorSuite struct {
	suite.Suite
	clk       clock.Fixed
	mailer    *fakeMailer
	logs      *memLogStore
	processor *EmailProcessor
}

func TestEmailProcessorSuite(t *testing.T) {
	suite.Run(t, new(EmailProcessorSuite))
}

func (s *EmailProcessorSuite) SetupTest() {
	s.clk = clock.FixedAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	s.mailer = &fakeMailer{}
	s.logs = newMemLogStore()
	s.processor = NewEmailProcessor(nil, s.mailer, s.logs, "https://openclass.example", s.clk, nil)
}

func (s *EmailProcessorSuite) job(payload queue.EmailPayload) *queue.Job {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)
	return &queue.Job{ID: uuid.New().String(), Payload: body, CreatedAt: s.clk.Now()}
}

func (s *EmailProcessorSuite) TestCompose() {
	s.Run("verification carries the link", func() {
		subject, plain, err := s.processor.compose(queue.EmailPayload{
			EmailType: queue.EmailTypeVerification,
			Token:     "tok123",
		})
		s.Require().NoError(err)
		s.Equal("Verify your email address", subject)
		s.Contains(plain, "https://openclass.example/verify/tok123")
	})

	s.Run("acceptance congratulates", func() {
		subject, plain, err := s.processor.compose(queue.EmailPayload{
			EmailType:     queue.EmailTypeAcceptance,
			WorkshopTitle: "Bread 101",
		})
		s.Require().NoError(err)
		s.Contains(subject, "Bread 101")
		s.Contains(plain, "Congratulations!")
	})

	s.Run("refusal apologizes", func() {
		_, plain, err := s.processor.compose(queue.EmailPayload{
			EmailType:     queue.EmailTypeRefusal,
			WorkshopTitle: "Bread 101",
		})
		s.Require().NoError(err)
		s.Contains(plain, "We are really sorry.")
	})

	s.Run("feedback request names the workshop", func() {
		subject, plain, err := s.processor.compose(queue.EmailPayload{
			EmailType:     queue.EmailTypeFeedbackRequest,
			WorkshopTitle: "Bread 101",
		})
		s.Require().NoError(err)
		s.Contains(subject, "Bread 101")
		s.Contains(plain, "feedback form")
	})

	s.Run("unknown type is an error", func() {
		_, _, err := s.processor.compose(queue.EmailPayload{EmailType: queue.EmailType("pigeon")})
		s.Error(err)
	})
}

func (s *EmailProcessorSuite) TestProcess() {
	ctx := context.Background()

	s.Run("delivery marks the log entry sent", func() {
		job := s.job(queue.EmailPayload{
			EmailType:      queue.EmailTypeAcceptance,
			RecipientEmail: "attendee@example.com",
			ProfileID:      uuid.New(),
			WorkshopTitle:  "Bread 101",
		})
		s.Require().NoError(s.processor.Process(ctx, job))

		s.Require().Len(s.mailer.sent, 1)
		s.Equal("attendee@example.com", s.mailer.sent[0].to)

		entry := s.logs.single()
		s.Require().NotNil(entry)
		s.Equal(models.EmailLogStatusSent, entry.Status)
		s.Require().NotNil(entry.SentAt)
		s.Equal(s.clk.Now(), *entry.SentAt)
	})

	s.Run("mailer failure marks the entry failed and surfaces the error", func() {
		s.SetupTest()
		s.mailer.err = errors.New("sendgrid: status 500")

		job := s.job(queue.EmailPayload{
			EmailType:      queue.EmailTypeRefusal,
			RecipientEmail: "attendee@example.com",
			ProfileID:      uuid.New(),
			WorkshopTitle:  "Bread 101",
		})
		err := s.processor.Process(ctx, job)
		s.Require().Error(err)

		entry := s.logs.single()
		s.Require().NotNil(entry)
		s.Equal(models.EmailLogStatusFailed, entry.Status)
		s.Contains(entry.ErrorMessage, "status 500")
	})

	s.Run("malformed payload is an error", func() {
		s.SetupTest()
		job := &queue.Job{ID: uuid.New().String(), Payload: []byte("{")}
		s.Error(s.processor.Process(ctx, job))
	})

	s.Run("unknown email type never reaches the mailer", func() {
		s.SetupTest()
		job := s.job(queue.EmailPayload{EmailType: queue.EmailType("pigeon"), RecipientEmail: "x@example.com"})
		s.Error(s.processor.Process(ctx, job))
		s.Empty(s.mailer.sent)
		s.Nil(s.logs.single())
	})
}
