package workshops_test

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
	"github.com/openclass/backend/internal/workshops"
	"github.com/openclass/backend/pkg/clock"
)

// notifierSpy records broadcast calls instead of queueing email.
type notifierSpy struct {
	accepted [][]workshops.Recipient
	refused  [][]workshops.Recipient
	feedback [][]workshops.Recipient
}

func (n *notifierSpy) WorkshopAccepted(ctx context.Context, w *models.Workshop, to []workshops.Recipient) {
	n.accepted = append(n.accepted, to)
}

func (n *notifierSpy) WorkshopRefused(ctx context.Context, w *models.Workshop, to []workshops.Recipient) {
	n.refused = append(n.refused, to)
}

func (n *notifierSpy) FeedbackRequested(ctx context.Context, w *models.Workshop, to []workshops.Recipient) {
	n.feedback = append(n.feedback, to)
}

type WorkshopServiceSuite struct {
	suite.Suite
	db       *memstore.DB
	clk      clock.Fixed
	notifier *notifierSpy
	service  *workshops.Service
}

func TestWorkshopServiceSuite(t *testing.T) {
	suite.Run(t, new(WorkshopServiceSuite))
}

func (s *WorkshopServiceSuite) SetupTest() {
	s.db = memstore.New()
	s.clk = clock.FixedAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	s.notifier = &notifierSpy{}
	s.service = workshops.NewService(s.db.Workshops(), s.clk, s.notifier, nil)
}

func (s *WorkshopServiceSuite) validInput() workshops.SubmitInput {
	return workshops.SubmitInput{
		AnimatorID:  uuid.New(),
		Title:       "Intro to Baking",
		Description: "Bread from scratch.",
		Seats:       10,
		StartsAt:    s.clk.Now().Add(72 * time.Hour),
		Duration:    2 * time.Hour,
		Location:    "Room 12",
	}
}

// seedWorkshop inserts a workshop directly, bypassing Submit's future-start
// validation, so decision rules can be tested around a pinned clock.
func (s *WorkshopServiceSuite) seedWorkshop(status models.WorkshopStatus, startsAt time.Time) *models.Workshop {
	animator := uuid.New()
	w := &models.Workshop{
		AnimatorID:  &animator,
		Title:       "Seeded",
		Description: "seeded",
		Seats:       5,
		SubmittedAt: s.clk.Now().Add(-24 * time.Hour),
		StartsAt:    startsAt,
		Duration:    time.Hour,
		Policy:      models.PolicyFIFO,
		Location:    "Hall A",
		Status:      status,
	}
	s.Require().NoError(s.db.Workshops().Create(context.Background(), w))
	return w
}

func (s *WorkshopServiceSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("valid input creates a pending workshop", func() {
		w, err := s.service.Submit(ctx, s.validInput())
		s.Require().NoError(err)
		s.Equal(models.WorkshopPending, w.Status)
		s.Equal(s.clk.Now(), w.SubmittedAt)
		s.Equal(models.PolicyFIFO, w.Policy)
		s.Nil(w.DecidedAt)
	})

	s.Run("manual policy is kept", func() {
		in := s.validInput()
		in.Policy = models.PolicyManual
		w, err := s.service.Submit(ctx, in)
		s.Require().NoError(err)
		s.Equal(models.PolicyManual, w.Policy)
	})

	s.Run("empty title is rejected", func() {
		in := s.validInput()
		in.Title = ""
		_, err := s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})

	s.Run("title over the bound is rejected", func() {
		in := s.validInput()
		in.Title = strings.Repeat("x", models.MaxWorkshopTitle+1)
		_, err := s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})

	s.Run("title at the bound is accepted", func() {
		in := s.validInput()
		in.Title = strings.Repeat("x", models.MaxWorkshopTitle)
		_, err := s.service.Submit(ctx, in)
		s.NoError(err)
	})

	s.Run("title bound counts characters, not bytes", func() {
		in := s.validInput()
		in.Title = strings.Repeat("é", models.MaxWorkshopTitle)
		_, err := s.service.Submit(ctx, in)
		s.NoError(err)

		in.Title = strings.Repeat("é", models.MaxWorkshopTitle+1)
		_, err = s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})

	s.Run("empty description is rejected", func() {
		in := s.validInput()
		in.Description = "   "
		_, err := s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})

	s.Run("non-positive seats are rejected", func() {
		in := s.validInput()
		in.Seats = 0
		_, err := s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})

	s.Run("start date in the past is rejected", func() {
		in := s.validInput()
		in.StartsAt = s.clk.Now().Add(-time.Hour)
		_, err := s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})

	s.Run("zero duration is rejected", func() {
		in := s.validInput()
		in.Duration = 0
		_, err := s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})

	s.Run("unknown policy is rejected", func() {
		in := s.validInput()
		in.Policy = models.RegistrationPolicy("lottery")
		_, err := s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})

	s.Run("location over the bound is rejected", func() {
		in := s.validInput()
		in.Location = strings.Repeat("y", models.MaxWorkshopLocation+1)
		_, err := s.service.Submit(ctx, in)
		s.True(domain.IsValidation(err))
	})
}

func (s *WorkshopServiceSuite) TestAccept() {
	ctx := context.Background()

	s.Run("pending workshop whose start date has passed is accepted", func() {
		w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(-2*time.Hour))
		got, err := s.service.Accept(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(models.WorkshopAccepted, got.Status)
		s.Require().NotNil(got.DecidedAt)
		s.Equal(s.clk.Now(), *got.DecidedAt)
	})

	s.Run("start date still in the future blocks the decision", func() {
		w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(time.Hour))
		_, err := s.service.Accept(ctx, w.ID)
		s.True(domain.IsValidation(err))

		stored, err := s.db.Workshops().GetByID(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(models.WorkshopPending, stored.Status)
		s.Nil(stored.DecidedAt)
	})

	s.Run("deciding twice fails", func() {
		w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(-2*time.Hour))
		_, err := s.service.Accept(ctx, w.ID)
		s.Require().NoError(err)
		_, err = s.service.Accept(ctx, w.ID)
		s.True(domain.IsValidation(err))
	})

	s.Run("unknown workshop is not found", func() {
		_, err := s.service.Accept(ctx, uuid.New())
		s.ErrorIs(err, domain.ErrNotFound)
	})
}

func (s *WorkshopServiceSuite) TestRefuse() {
	ctx := context.Background()

	s.Run("pending workshop whose start date has passed is refused", func() {
		w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(-2*time.Hour))
		got, err := s.service.Refuse(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(models.WorkshopRefused, got.Status)
		s.NotNil(got.DecidedAt)
	})

	s.Run("refusing an accepted workshop fails", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(-2*time.Hour))
		_, err := s.service.Refuse(ctx, w.ID)
		s.True(domain.IsValidation(err))
	})

	s.Run("start date in the future blocks the refusal too", func() {
		w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(time.Hour))
		_, err := s.service.Refuse(ctx, w.ID)
		s.True(domain.IsValidation(err))
	})
}

func (s *WorkshopServiceSuite) TestAcceptNotifiesRegistrants() {
	ctx := context.Background()
	w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(-2*time.Hour))

	p := s.db.SeedProfile("attendee@example.com")
	reg := &models.Registration{
		WorkshopID:   w.ID,
		ProfileID:    p.ID,
		Status:       models.RegistrationAccepted,
		RegisteredAt: s.clk.Now().Add(-time.Hour),
	}
	s.Require().NoError(s.db.Registrations().Create(ctx, reg))

	_, err := s.service.Accept(ctx, w.ID)
	s.Require().NoError(err)
	s.Require().Len(s.notifier.accepted, 1)
	s.Require().Len(s.notifier.accepted[0], 1)
	s.Equal("attendee@example.com", s.notifier.accepted[0][0].Email)
}

func (s *WorkshopServiceSuite) TestMarkDone() {
	ctx := context.Background()

	s.Run("accepted workshop past its end becomes done", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(-3*time.Hour))
		got, err := s.service.MarkDone(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(models.WorkshopDone, got.Status)
	})

	s.Run("still running workshop cannot be done", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(-30*time.Minute))
		_, err := s.service.MarkDone(ctx, w.ID)
		s.True(domain.IsValidation(err))
	})

	s.Run("pending workshop cannot be done", func() {
		w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(-3*time.Hour))
		_, err := s.service.MarkDone(ctx, w.ID)
		s.True(domain.IsValidation(err))
	})

	s.Run("feedback is requested from present attendees only", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(-3*time.Hour))
		present := s.db.SeedProfile("present@example.com")
		absent := s.db.SeedProfile("absent@example.com")
		s.Require().NoError(s.db.Registrations().Create(ctx, &models.Registration{
			WorkshopID: w.ID, ProfileID: present.ID,
			Status: models.RegistrationAccepted, Present: true,
			RegisteredAt: s.clk.Now().Add(-time.Hour),
		}))
		s.Require().NoError(s.db.Registrations().Create(ctx, &models.Registration{
			WorkshopID: w.ID, ProfileID: absent.ID,
			Status:       models.RegistrationAccepted,
			RegisteredAt: s.clk.Now().Add(-time.Hour),
		}))

		_, err := s.service.MarkDone(ctx, w.ID)
		s.Require().NoError(err)
		s.Require().Len(s.notifier.feedback, 1)
		s.Require().Len(s.notifier.feedback[0], 1)
		s.Equal("present@example.com", s.notifier.feedback[0][0].Email)
	})
}

func (s *WorkshopServiceSuite) TestCancel() {
	ctx := context.Background()

	s.Run("pending workshop can be canceled", func() {
		w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(time.Hour))
		got, err := s.service.Cancel(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(models.WorkshopCanceled, got.Status)
	})

	s.Run("accepted workshop can be canceled", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(time.Hour))
		got, err := s.service.Cancel(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(models.WorkshopCanceled, got.Status)
	})

	s.Run("done workshop cannot be canceled", func() {
		w := s.seedWorkshop(models.WorkshopDone, s.clk.Now().Add(-3*time.Hour))
		_, err := s.service.Cancel(ctx, w.ID)
		s.True(domain.IsValidation(err))
	})
}

func (s *WorkshopServiceSuite) TestUpdaters() {
	ctx := context.Background()
	w := s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(time.Hour))

	s.Run("title updates within the bound", func() {
		s.NoError(s.service.UpdateTitle(ctx, w.ID, "New Title"))
		got, _ := s.service.Get(ctx, w.ID)
		s.Equal("New Title", got.Title)
	})

	s.Run("empty title is rejected and nothing changes", func() {
		err := s.service.UpdateTitle(ctx, w.ID, "")
		s.True(domain.IsValidation(err))
		got, _ := s.service.Get(ctx, w.ID)
		s.Equal("New Title", got.Title)
	})

	s.Run("blank objectives are rejected", func() {
		s.True(domain.IsValidation(s.service.UpdateObjectives(ctx, w.ID, " ")))
	})

	s.Run("seats update must stay positive", func() {
		s.True(domain.IsValidation(s.service.UpdateSeats(ctx, w.ID, -1)))
		s.NoError(s.service.UpdateSeats(ctx, w.ID, 25))
		got, _ := s.service.Get(ctx, w.ID)
		s.Equal(25, got.Seats)
	})

	s.Run("start date update must be in the future", func() {
		s.True(domain.IsValidation(s.service.UpdateStartDate(ctx, w.ID, s.clk.Now().Add(-time.Minute))))
		next := s.clk.Now().Add(48 * time.Hour)
		s.NoError(s.service.UpdateStartDate(ctx, w.ID, next))
		got, _ := s.service.Get(ctx, w.ID)
		s.Equal(next, got.StartsAt)
	})

	s.Run("location over the bound is rejected", func() {
		s.True(domain.IsValidation(s.service.UpdateLocation(ctx, w.ID, strings.Repeat("z", models.MaxWorkshopLocation+1))))
	})

	s.Run("empty cover key is rejected", func() {
		s.True(domain.IsValidation(s.service.SetCover(ctx, w.ID, "")))
		s.NoError(s.service.SetCover(ctx, w.ID, "covers/abc.png"))
	})
}

func (s *WorkshopServiceSuite) TestDaysLeft() {
	ctx := context.Background()

	s.Run("five days ahead", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(5*24*time.Hour))
		days, err := s.service.DaysLeft(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(5, days)
	})

	s.Run("a partial day ahead is zero", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(time.Hour))
		days, err := s.service.DaysLeft(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(0, days)
	})

	s.Run("negative as soon as the start date has passed", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(-time.Hour))
		days, err := s.service.DaysLeft(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(-1, days)
	})

	s.Run("partial days past the start floor downward", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(-36*time.Hour))
		days, err := s.service.DaysLeft(ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(-2, days)
	})
}

func (s *WorkshopServiceSuite) TestUpcoming() {
	ctx := context.Background()
	future := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(24*time.Hour))
	s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(-24*time.Hour))
	s.seedWorkshop(models.WorkshopPending, s.clk.Now().Add(24*time.Hour))

	list, err := s.service.Upcoming(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(future.ID, list[0].ID)
}

func (s *WorkshopServiceSuite) TestCheckRegistration() {
	ctx := context.Background()
	w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(24*time.Hour))
	p := s.db.SeedProfile("member@example.com")

	registered, err := s.service.CheckRegistration(ctx, w.ID, p.ID)
	s.Require().NoError(err)
	s.False(registered)

	s.Require().NoError(s.db.Registrations().Create(ctx, &models.Registration{
		WorkshopID: w.ID, ProfileID: p.ID,
		Status: models.RegistrationAccepted, RegisteredAt: s.clk.Now(),
	}))

	registered, err = s.service.CheckRegistration(ctx, w.ID, p.ID)
	s.Require().NoError(err)
	s.True(registered)

	_, err = s.service.CheckRegistration(ctx, uuid.New(), p.ID)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *WorkshopServiceSuite) TestTopics() {
	ctx := context.Background()
	w := s.seedWorkshop(models.WorkshopAccepted, s.clk.Now().Add(24*time.Hour))
	cooking := s.db.SeedTag("cooking")
	diy := s.db.SeedTag("diy")

	s.Require().NoError(s.service.SetTopics(ctx, w.ID, []uuid.UUID{cooking.ID, diy.ID}))
	topics, err := s.service.Topics(ctx, w.ID)
	s.Require().NoError(err)
	s.Len(topics, 2)

	s.ErrorIs(s.service.SetTopics(ctx, uuid.New(), []uuid.UUID{cooking.ID}), domain.ErrNotFound)
}
