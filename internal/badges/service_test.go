package badges

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

type BadgeServiceSuite struct {
	suite.Suite
	db      *memstore.DB
	clk     clock.Fixed
	service *Service
}

func TestBadgeServiceSuite(t *testing.T) {
	suite.Run(t, new(BadgeServiceSuite))
}

func (s *BadgeServiceSuite) SetupTest() {
	s.db = memstore.New()
	s.clk = clock.FixedAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	s.service = NewService(s.db.Badges(), s.db.Profiles(), s.clk, nil)
}

func intPtr(n int) *int { return &n }

// seedAttendance records n attended workshops for the profile.
func (s *BadgeServiceSuite) seedAttendance(profileID uuid.UUID, n int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		s.Require().NoError(s.db.Registrations().Create(ctx, &models.Registration{
			WorkshopID:   uuid.New(),
			ProfileID:    profileID,
			Status:       models.RegistrationAccepted,
			Present:      true,
			RegisteredAt: s.clk.Now().Add(-time.Duration(i+1) * time.Hour),
		}))
	}
}

func (s *BadgeServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("standard badge without threshold", func() {
		b, err := s.service.Create(ctx, CreateInput{Name: "Pioneer", Description: "First wave"})
		s.Require().NoError(err)
		s.Equal(models.BadgeStandard, b.Kind)
		s.Nil(b.AttendanceThreshold)
	})

	s.Run("attendance badge with positive threshold", func() {
		b, err := s.service.Create(ctx, CreateInput{
			Name: "Regular", Kind: models.BadgeAttendance, AttendanceThreshold: intPtr(5),
		})
		s.Require().NoError(err)
		s.Equal(models.BadgeAttendance, b.Kind)
	})

	s.Run("empty name is rejected", func() {
		_, err := s.service.Create(ctx, CreateInput{Name: ""})
		s.True(domain.IsValidation(err))
	})

	s.Run("name over the bound is rejected", func() {
		_, err := s.service.Create(ctx, CreateInput{Name: strings.Repeat("x", models.MaxBadgeName+1)})
		s.True(domain.IsValidation(err))
	})

	s.Run("name bound counts characters, not bytes", func() {
		_, err := s.service.Create(ctx, CreateInput{Name: strings.Repeat("é", models.MaxBadgeName)})
		s.NoError(err)
	})

	s.Run("standard badge refuses a threshold", func() {
		_, err := s.service.Create(ctx, CreateInput{Name: "Odd", AttendanceThreshold: intPtr(3)})
		s.True(domain.IsValidation(err))
	})

	s.Run("attendance badge requires a positive threshold", func() {
		_, err := s.service.Create(ctx, CreateInput{Name: "Odd", Kind: models.BadgeAttendance})
		s.True(domain.IsValidation(err))
		_, err = s.service.Create(ctx, CreateInput{
			Name: "Odd", Kind: models.BadgeAttendance, AttendanceThreshold: intPtr(0),
		})
		s.True(domain.IsValidation(err))
	})

	s.Run("unknown kind is rejected", func() {
		_, err := s.service.Create(ctx, CreateInput{Name: "Odd", Kind: models.BadgeKind("shiny")})
		s.True(domain.IsValidation(err))
	})
}

func (s *BadgeServiceSuite) TestAward() {
	ctx := context.Background()
	profileID := uuid.New()
	b, err := s.service.Create(ctx, CreateInput{Name: "Pioneer"})
	s.Require().NoError(err)

	s.Run("award grants the badge once", func() {
		pb, err := s.service.Award(ctx, b.ID, profileID, 1)
		s.Require().NoError(err)
		s.Equal(s.clk.Now(), pb.AwardedAt)

		held, err := s.service.HasBadge(ctx, b.ID, profileID)
		s.Require().NoError(err)
		s.True(held)
	})

	s.Run("awarding again is a no-op", func() {
		_, err := s.service.Award(ctx, b.ID, profileID, 3)
		s.Require().NoError(err)
		list, err := s.service.ListByProfile(ctx, profileID)
		s.Require().NoError(err)
		s.Len(list, 1)
	})

	s.Run("negative priority is rejected", func() {
		_, err := s.service.Award(ctx, b.ID, profileID, -1)
		s.True(domain.IsValidation(err))
	})

	s.Run("unknown badge is not found", func() {
		_, err := s.service.Award(ctx, uuid.New(), profileID, 0)
		s.ErrorIs(err, domain.ErrNotFound)
	})
}

func (s *BadgeServiceSuite) TestListByProfileOrder() {
	ctx := context.Background()
	profileID := uuid.New()
	low, err := s.service.Create(ctx, CreateInput{Name: "Low"})
	s.Require().NoError(err)
	high, err := s.service.Create(ctx, CreateInput{Name: "High"})
	s.Require().NoError(err)

	_, err = s.service.Award(ctx, low.ID, profileID, 1)
	s.Require().NoError(err)
	_, err = s.service.Award(ctx, high.ID, profileID, 9)
	s.Require().NoError(err)

	list, err := s.service.ListByProfile(ctx, profileID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(high.ID, list[0].BadgeID, "highest priority first")

	s.Require().NoError(s.service.SetPriority(ctx, low.ID, profileID, 20))
	list, err = s.service.ListByProfile(ctx, profileID)
	s.Require().NoError(err)
	s.Equal(low.ID, list[0].BadgeID)
}

func (s *BadgeServiceSuite) TestEvaluateAttendance() {
	ctx := context.Background()
	profileID := uuid.New()
	one, err := s.service.Create(ctx, CreateInput{
		Name: "First", Kind: models.BadgeAttendance, AttendanceThreshold: intPtr(1),
	})
	s.Require().NoError(err)
	five, err := s.service.Create(ctx, CreateInput{
		Name: "Regular", Kind: models.BadgeAttendance, AttendanceThreshold: intPtr(5),
	})
	s.Require().NoError(err)

	s.Run("no attendance grants nothing", func() {
		granted, err := s.service.EvaluateAttendance(ctx, profileID)
		s.Require().NoError(err)
		s.Empty(granted)
	})

	s.Run("reaching a threshold grants that badge only", func() {
		s.seedAttendance(profileID, 1)
		granted, err := s.service.EvaluateAttendance(ctx, profileID)
		s.Require().NoError(err)
		s.Require().Len(granted, 1)
		s.Equal(one.ID, granted[0].ID)
	})

	s.Run("held badges are not granted again", func() {
		s.seedAttendance(profileID, 4)
		granted, err := s.service.EvaluateAttendance(ctx, profileID)
		s.Require().NoError(err)
		s.Require().Len(granted, 1)
		s.Equal(five.ID, granted[0].ID)

		list, err := s.service.ListByProfile(ctx, profileID)
		s.Require().NoError(err)
		s.Len(list, 2)
	})
}

func (s *BadgeServiceSuite) TestPresenceConfirmed() {
	ctx := context.Background()
	p := s.db.SeedProfile("attendee@example.com")
	b, err := s.service.Create(ctx, CreateInput{
		Name: "First", Kind: models.BadgeAttendance, AttendanceThreshold: intPtr(1),
	})
	s.Require().NoError(err)
	s.seedAttendance(p.ID, 1)

	s.service.PresenceConfirmed(ctx, p.ID)

	stored, err := s.db.Profiles().GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(AttendancePoints, stored.Score)

	held, err := s.service.HasBadge(ctx, b.ID, p.ID)
	s.Require().NoError(err)
	s.True(held)
}
