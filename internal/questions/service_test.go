package questions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/memstore"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
)

type QuestionServiceSuite struct {
	suite.Suite
	db      *memstore.DB
	clk     clock.Fixed
	service *Service
}

func TestQuestionServiceSuite(t *testing.T) {
	suite.Run(t, new(QuestionServiceSuite))
}

func (s *QuestionServiceSuite) SetupTest() {
	s.db = memstore.New()
	s.clk = clock.FixedAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	s.service = NewService(s.db.Questions(), s.db.Workshops(), s.db.Registrations(), s.clk)
}

// seedRunning creates an accepted workshop currently in progress and a
// present attendee, the state in which every Ask gate passes.
func (s *QuestionServiceSuite) seedRunning() (*models.Workshop, uuid.UUID) {
	ctx := context.Background()
	animator := uuid.New()
	w := &models.Workshop{
		AnimatorID:  &animator,
		Title:       "Running",
		Description: "running",
		Seats:       5,
		SubmittedAt: s.clk.Now().Add(-48 * time.Hour),
		StartsAt:    s.clk.Now().Add(-30 * time.Minute),
		Duration:    2 * time.Hour,
		Policy:      models.PolicyFIFO,
		Location:    "Hall A",
		Status:      models.WorkshopAccepted,
	}
	s.Require().NoError(s.db.Workshops().Create(ctx, w))

	profileID := uuid.New()
	s.Require().NoError(s.db.Registrations().Create(ctx, &models.Registration{
		WorkshopID:   w.ID,
		ProfileID:    profileID,
		Status:       models.RegistrationAccepted,
		Present:      true,
		RegisteredAt: s.clk.Now().Add(-24 * time.Hour),
	}))
	return w, profileID
}

func (s *QuestionServiceSuite) TestAsk() {
	ctx := context.Background()

	s.Run("present attendee asks while the workshop runs", func() {
		w, profileID := s.seedRunning()
		q, err := s.service.Ask(ctx, w.ID, profileID, "How long does proofing take?")
		s.Require().NoError(err)
		s.Equal(w.ID, q.WorkshopID)
		s.Require().NotNil(q.AuthorID)
		s.Equal(profileID, *q.AuthorID)
		s.Equal(s.clk.Now(), q.CreatedAt)

		list, err := s.service.ListByWorkshop(ctx, w.ID)
		s.Require().NoError(err)
		s.Len(list, 1)
	})

	s.Run("unknown workshop is not found", func() {
		_, err := s.service.Ask(ctx, uuid.New(), uuid.New(), "hello?")
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("no registration blocks the question", func() {
		w, _ := s.seedRunning()
		_, err := s.service.Ask(ctx, w.ID, uuid.New(), "hello?")
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("registered but not present blocks the question", func() {
		w, _ := s.seedRunning()
		absent := uuid.New()
		s.Require().NoError(s.db.Registrations().Create(ctx, &models.Registration{
			WorkshopID:   w.ID,
			ProfileID:    absent,
			Status:       models.RegistrationAccepted,
			RegisteredAt: s.clk.Now().Add(-24 * time.Hour),
		}))
		_, err := s.service.Ask(ctx, w.ID, absent, "hello?")
		s.True(domain.IsValidation(err))
	})

	s.Run("before the start the workshop is not in progress", func() {
		w, profileID := s.seedRunning()
		w.StartsAt = s.clk.Now().Add(time.Hour)
		s.Require().NoError(s.db.Workshops().Update(ctx, w))
		_, err := s.service.Ask(ctx, w.ID, profileID, "hello?")
		s.True(domain.IsValidation(err))
	})

	s.Run("after the end the workshop is not in progress", func() {
		w, profileID := s.seedRunning()
		w.StartsAt = s.clk.Now().Add(-3 * time.Hour)
		s.Require().NoError(s.db.Workshops().Update(ctx, w))
		_, err := s.service.Ask(ctx, w.ID, profileID, "hello?")
		s.True(domain.IsValidation(err))
	})

	s.Run("empty question is rejected and nothing is created", func() {
		w, profileID := s.seedRunning()
		_, err := s.service.Ask(ctx, w.ID, profileID, "   ")
		s.True(domain.IsValidation(err))

		list, err := s.service.ListByWorkshop(ctx, w.ID)
		s.Require().NoError(err)
		s.Empty(list)
	})
}
