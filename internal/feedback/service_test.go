package feedback

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/memstore"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
)

type FeedbackServiceSuite struct {
	suite.Suite
	db      *memstore.DB
	clk     clock.Fixed
	service *Service
}

func TestFeedbackServiceSuite(t *testing.T) {
	suite.Run(t, new(FeedbackServiceSuite))
}

func (s *FeedbackServiceSuite) SetupTest() {
	s.db = memstore.New()
	s.clk = clock.FixedAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	s.service = NewService(s.db.Feedback(), s.db.Workshops(), s.db.Registrations(), s.clk)
}

// seedDone creates a done workshop with one attended registration and a
// one-question form, returning the workshop, the attendee and a valid choice.
func (s *FeedbackServiceSuite) seedDone() (*models.Workshop, uuid.UUID, *models.Choice) {
	ctx := context.Background()
	animator := uuid.New()
	w := &models.Workshop{
		AnimatorID:  &animator,
		Title:       "Finished",
		Description: "finished",
		Seats:       5,
		SubmittedAt: s.clk.Now().Add(-72 * time.Hour),
		StartsAt:    s.clk.Now().Add(-24 * time.Hour),
		Duration:    2 * time.Hour,
		Policy:      models.PolicyFIFO,
		Location:    "Hall A",
		Status:      models.WorkshopDone,
	}
	s.Require().NoError(s.db.Workshops().Create(ctx, w))

	attendee := uuid.New()
	s.Require().NoError(s.db.Registrations().Create(ctx, &models.Registration{
		WorkshopID:   w.ID,
		ProfileID:    attendee,
		Status:       models.RegistrationAccepted,
		Present:      true,
		RegisteredAt: s.clk.Now().Add(-48 * time.Hour),
	}))

	q, err := s.service.CreateMCQuestion(ctx, "Pace of the session?")
	s.Require().NoError(err)
	choice, err := s.service.AddChoice(ctx, q.ID, "Just right")
	s.Require().NoError(err)
	s.Require().NoError(s.service.SetForm(ctx, w.ID, []uuid.UUID{q.ID}))
	return w, attendee, choice
}

func (s *FeedbackServiceSuite) TestCatalog() {
	ctx := context.Background()

	s.Run("question within the bound is created", func() {
		q, err := s.service.CreateMCQuestion(ctx, "Pace?")
		s.Require().NoError(err)
		s.NotEqual(uuid.Nil, q.ID)
	})

	s.Run("empty question is rejected", func() {
		_, err := s.service.CreateMCQuestion(ctx, "")
		s.True(domain.IsValidation(err))
	})

	s.Run("question over the bound is rejected", func() {
		_, err := s.service.CreateMCQuestion(ctx, strings.Repeat("x", models.MaxMCQuestion+1))
		s.True(domain.IsValidation(err))
	})

	s.Run("question bound counts characters, not bytes", func() {
		_, err := s.service.CreateMCQuestion(ctx, strings.Repeat("é", models.MaxMCQuestion))
		s.NoError(err)
	})

	s.Run("choice requires an existing question", func() {
		_, err := s.service.AddChoice(ctx, uuid.New(), "Too fast")
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("choice over the bound is rejected", func() {
		q, err := s.service.CreateMCQuestion(ctx, "Pace again?")
		s.Require().NoError(err)
		_, err = s.service.AddChoice(ctx, q.ID, strings.Repeat("y", models.MaxChoiceLabel+1))
		s.True(domain.IsValidation(err))

		_, err = s.service.AddChoice(ctx, q.ID, strings.Repeat("é", models.MaxChoiceLabel))
		s.NoError(err)
	})
}

func (s *FeedbackServiceSuite) TestSetForm() {
	ctx := context.Background()
	w, _, _ := s.seedDone()

	s.Run("unknown question can not be attached", func() {
		err := s.service.SetForm(ctx, w.ID, []uuid.UUID{uuid.New()})
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("unknown workshop is not found", func() {
		err := s.service.SetForm(ctx, uuid.New(), nil)
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("form replaces the previous question set", func() {
		q, err := s.service.CreateMCQuestion(ctx, "Venue?")
		s.Require().NoError(err)
		s.Require().NoError(s.service.SetForm(ctx, w.ID, []uuid.UUID{q.ID}))

		form, err := s.service.Form(ctx, w.ID)
		s.Require().NoError(err)
		s.Require().Len(form, 1)
		s.Equal(q.ID, form[0].ID)
	})
}

func (s *FeedbackServiceSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("attended author submits with form choices", func() {
		w, attendee, choice := s.seedDone()
		fb, err := s.service.Submit(ctx, w.ID, attendee, []uuid.UUID{choice.ID}, "Loved it.")
		s.Require().NoError(err)
		s.Equal(s.clk.Now(), fb.SubmittedAt)

		list, err := s.service.ListByWorkshop(ctx, w.ID)
		s.Require().NoError(err)
		s.Len(list, 1)
	})

	s.Run("workshop not done blocks submission", func() {
		w, attendee, choice := s.seedDone()
		w.Status = models.WorkshopAccepted
		s.Require().NoError(s.db.Workshops().Update(ctx, w))
		_, err := s.service.Submit(ctx, w.ID, attendee, []uuid.UUID{choice.ID}, "Loved it.")
		s.True(domain.IsValidation(err))
	})

	s.Run("author without a registration is blocked", func() {
		w, _, choice := s.seedDone()
		_, err := s.service.Submit(ctx, w.ID, uuid.New(), []uuid.UUID{choice.ID}, "Loved it.")
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("registered but absent author is blocked", func() {
		w, _, choice := s.seedDone()
		absent := uuid.New()
		s.Require().NoError(s.db.Registrations().Create(ctx, &models.Registration{
			WorkshopID:   w.ID,
			ProfileID:    absent,
			Status:       models.RegistrationAccepted,
			RegisteredAt: s.clk.Now().Add(-48 * time.Hour),
		}))
		_, err := s.service.Submit(ctx, w.ID, absent, []uuid.UUID{choice.ID}, "Loved it.")
		s.True(domain.IsValidation(err))
	})

	s.Run("empty comment is rejected", func() {
		w, attendee, choice := s.seedDone()
		_, err := s.service.Submit(ctx, w.ID, attendee, []uuid.UUID{choice.ID}, "  ")
		s.True(domain.IsValidation(err))
	})

	s.Run("choice outside the workshop form is rejected", func() {
		w, attendee, _ := s.seedDone()
		other, err := s.service.CreateMCQuestion(ctx, "Unrelated?")
		s.Require().NoError(err)
		foreign, err := s.service.AddChoice(ctx, other.ID, "Yes")
		s.Require().NoError(err)

		_, err = s.service.Submit(ctx, w.ID, attendee, []uuid.UUID{foreign.ID}, "Loved it.")
		s.True(domain.IsValidation(err))
	})

	s.Run("second submission by the same author is a conflict", func() {
		w, attendee, choice := s.seedDone()
		_, err := s.service.Submit(ctx, w.ID, attendee, []uuid.UUID{choice.ID}, "Loved it.")
		s.Require().NoError(err)
		_, err = s.service.Submit(ctx, w.ID, attendee, nil, "Again.")
		s.ErrorIs(err, domain.ErrConflict)
	})
}
