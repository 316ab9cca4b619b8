package registrations

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

// hookSpy records presence confirmations.
type hookSpy struct {
	confirmed []uuid.UUID
}

func (h *hookSpy) PresenceConfirmed(ctx context.Context, profileID uuid.UUID) {
	h.confirmed = append(h.confirmed, profileID)
}

type RegistrationServiceSuite struct {
	suite.Suite
	db      *memstore.DB
	clk     clock.Fixed
	hook    *hookSpy
	service *Service
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.db = memstore.New()
	s.clk = clock.FixedAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	s.hook = &hookSpy{}
	s.service = NewService(s.db.Registrations(), s.db.Workshops(), s.clk, s.hook, nil)
}

func (s *RegistrationServiceSuite) seedWorkshop(status models.WorkshopStatus, policy models.RegistrationPolicy, seats int) *models.Workshop {
	animator := uuid.New()
	w := &models.Workshop{
		AnimatorID:  &animator,
		Title:       "Seeded",
		Description: "seeded",
		Seats:       seats,
		SubmittedAt: s.clk.Now().Add(-48 * time.Hour),
		StartsAt:    s.clk.Now().Add(24 * time.Hour),
		Duration:    time.Hour,
		Policy:      policy,
		Location:    "Hall A",
		Status:      status,
	}
	s.Require().NoError(s.db.Workshops().Create(context.Background(), w))
	return w
}

func (s *RegistrationServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("fifo workshop with free seats auto-accepts", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 2)
		reg, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)
		s.Equal(models.RegistrationAccepted, reg.Status)
		s.Equal(s.clk.Now(), reg.RegisteredAt)
	})

	s.Run("fifo workshop with seats exhausted leaves pending", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 1)
		first, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)
		s.Equal(models.RegistrationAccepted, first.Status)

		second, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)
		s.Equal(models.RegistrationPending, second.Status)
	})

	s.Run("manual workshop always leaves pending", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyManual, 10)
		reg, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)
		s.Equal(models.RegistrationPending, reg.Status)
	})

	s.Run("pending workshop rejects registration", func() {
		w := s.seedWorkshop(models.WorkshopPending, models.PolicyFIFO, 10)
		_, err := s.service.Register(ctx, w.ID, uuid.New())
		s.True(domain.IsValidation(err))
	})

	s.Run("started workshop rejects registration", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 10)
		w.StartsAt = s.clk.Now().Add(-time.Minute)
		s.Require().NoError(s.db.Workshops().Update(ctx, w))
		_, err := s.service.Register(ctx, w.ID, uuid.New())
		s.True(domain.IsValidation(err))
	})

	s.Run("double registration is a conflict", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 10)
		profileID := uuid.New()
		_, err := s.service.Register(ctx, w.ID, profileID)
		s.Require().NoError(err)
		_, err = s.service.Register(ctx, w.ID, profileID)
		s.ErrorIs(err, domain.ErrConflict)
	})

	s.Run("unknown workshop is not found", func() {
		_, err := s.service.Register(ctx, uuid.New(), uuid.New())
		s.ErrorIs(err, domain.ErrNotFound)
	})
}

func (s *RegistrationServiceSuite) TestDecide() {
	ctx := context.Background()

	s.Run("animator accepts a pending registration", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyManual, 10)
		reg, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)

		decided, err := s.service.Decide(ctx, reg.ID, *w.AnimatorID, true)
		s.Require().NoError(err)
		s.Equal(models.RegistrationAccepted, decided.Status)
	})

	s.Run("animator refuses a pending registration", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyManual, 10)
		reg, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)

		decided, err := s.service.Decide(ctx, reg.ID, *w.AnimatorID, false)
		s.Require().NoError(err)
		s.Equal(models.RegistrationRefused, decided.Status)
	})

	s.Run("only the animator can decide", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyManual, 10)
		reg, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)

		_, err = s.service.Decide(ctx, reg.ID, uuid.New(), true)
		s.True(domain.IsValidation(err))
	})

	s.Run("decided registrations cannot be decided again", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyManual, 10)
		reg, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)
		_, err = s.service.Decide(ctx, reg.ID, *w.AnimatorID, true)
		s.Require().NoError(err)

		_, err = s.service.Decide(ctx, reg.ID, *w.AnimatorID, false)
		s.True(domain.IsValidation(err))
	})
}

func (s *RegistrationServiceSuite) TestCancel() {
	ctx := context.Background()

	s.Run("owner cancels and the cancel date is stamped", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 10)
		profileID := uuid.New()
		reg, err := s.service.Register(ctx, w.ID, profileID)
		s.Require().NoError(err)

		canceled, err := s.service.Cancel(ctx, reg.ID, profileID)
		s.Require().NoError(err)
		s.Equal(models.RegistrationCanceled, canceled.Status)
		s.Require().NotNil(canceled.CanceledAt)
		s.Equal(s.clk.Now(), *canceled.CanceledAt)
	})

	s.Run("another profile cannot cancel", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 10)
		reg, err := s.service.Register(ctx, w.ID, uuid.New())
		s.Require().NoError(err)

		_, err = s.service.Cancel(ctx, reg.ID, uuid.New())
		s.True(domain.IsValidation(err))
	})

	s.Run("canceled registration cannot be canceled again", func() {
		w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 10)
		profileID := uuid.New()
		reg, err := s.service.Register(ctx, w.ID, profileID)
		s.Require().NoError(err)
		_, err = s.service.Cancel(ctx, reg.ID, profileID)
		s.Require().NoError(err)

		_, err = s.service.Cancel(ctx, reg.ID, profileID)
		s.True(domain.IsValidation(err))
	})
}

func (s *RegistrationServiceSuite) TestConfirmPresence() {
	ctx := context.Background()
	w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 10)
	profileID := uuid.New()
	reg, err := s.service.Register(ctx, w.ID, profileID)
	s.Require().NoError(err)

	confirmed, err := s.service.ConfirmPresence(ctx, reg.ID)
	s.Require().NoError(err)
	s.True(confirmed.Present)

	s.Require().Len(s.hook.confirmed, 1)
	s.Equal(profileID, s.hook.confirmed[0])
}

func (s *RegistrationServiceSuite) TestLists() {
	ctx := context.Background()
	w := s.seedWorkshop(models.WorkshopAccepted, models.PolicyFIFO, 10)
	profileID := uuid.New()
	_, err := s.service.Register(ctx, w.ID, profileID)
	s.Require().NoError(err)
	_, err = s.service.Register(ctx, w.ID, uuid.New())
	s.Require().NoError(err)

	byWorkshop, err := s.service.ListByWorkshop(ctx, w.ID)
	s.Require().NoError(err)
	s.Len(byWorkshop, 2)

	byProfile, err := s.service.ListByProfile(ctx, profileID)
	s.Require().NoError(err)
	s.Require().Len(byProfile, 1)
	s.Equal(w.ID, byProfile[0].WorkshopID)

	got, err := s.service.Get(ctx, w.ID, profileID)
	s.Require().NoError(err)
	s.Equal(byProfile[0].ID, got.ID)
}
