package profiles

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

// verificationSpy records verification requests.
type verificationSpy struct {
	profileIDs []uuid.UUID
	emails     []string
	tokens     []string
}

func (n *verificationSpy) VerificationRequested(profileID uuid.UUID, email, token string) {
	n.profileIDs = append(n.profileIDs, profileID)
	n.emails = append(n.emails, email)
	n.tokens = append(n.tokens, token)
}

type ProfileServiceSuite struct {
	suite.Suite
	db       *memstore.DB
	clk      clock.Fixed
	notifier *verificationSpy
	service  *Service
}

func TestProfileServiceSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceSuite))
}

func (s *ProfileServiceSuite) SetupTest() {
	s.db = memstore.New()
	s.clk = clock.FixedAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	s.notifier = &verificationSpy{}
	s.service = NewService(s.db.Profiles(), s.notifier, s.clk, nil)
}

func (s *ProfileServiceSuite) TestUpdateEmail() {
	ctx := context.Background()

	s.Run("new address rotates the token and drops verification", func() {
		p := s.db.SeedProfile("old@example.com")
		p.Verified = true
		s.Require().NoError(s.db.Profiles().Update(ctx, p))

		updated, err := s.service.UpdateEmail(ctx, p.ID, "new@example.com")
		s.Require().NoError(err)
		s.False(updated.Verified)
		s.NotEmpty(updated.VerificationToken)

		u, err := s.db.Profiles().GetUser(ctx, p.UserID)
		s.Require().NoError(err)
		s.Equal("new@example.com", u.Email)

		s.Require().Len(s.notifier.tokens, 1)
		s.Equal(updated.VerificationToken, s.notifier.tokens[0])
		s.Equal("new@example.com", s.notifier.emails[0])
	})

	s.Run("malformed addresses are rejected", func() {
		p := s.db.SeedProfile("someone@example.com")
		for _, email := range []string{"", "plain", "no@tld", "two@@example.com", "gap in@example.com"} {
			_, err := s.service.UpdateEmail(ctx, p.ID, email)
			s.True(domain.IsValidation(err), "email %q should be rejected", email)
		}
	})

	s.Run("address with surrounding spaces is trimmed", func() {
		p := s.db.SeedProfile("trim@example.com")
		_, err := s.service.UpdateEmail(ctx, p.ID, "  trimmed@example.com  ")
		s.NoError(err)
	})

	s.Run("taken address is a conflict", func() {
		s.db.SeedProfile("taken@example.com")
		p := s.db.SeedProfile("mine@example.com")
		_, err := s.service.UpdateEmail(ctx, p.ID, "taken@example.com")
		s.ErrorIs(err, domain.ErrConflict)
	})
}

func (s *ProfileServiceSuite) TestUpdatePhone() {
	ctx := context.Background()
	p := s.db.SeedProfile("phone@example.com")

	s.Run("spaces are stripped before validation", func() {
		updated, err := s.service.UpdatePhone(ctx, p.ID, "+33 6 12 34 56 78")
		s.Require().NoError(err)
		s.Equal("+33612345678", updated.PhoneNumber)
	})

	s.Run("bad numbers are rejected", func() {
		for _, phone := range []string{"", "12345", "abc123456", "+3361234567890123456"} {
			_, err := s.service.UpdatePhone(ctx, p.ID, phone)
			s.True(domain.IsValidation(err), "phone %q should be rejected", phone)
		}
	})
}

func (s *ProfileServiceSuite) TestUpdateNames() {
	ctx := context.Background()
	p := s.db.SeedProfile("names@example.com")

	s.Run("both names update the account", func() {
		s.Require().NoError(s.service.UpdateNames(ctx, p.ID, "Ada", "Lovelace"))
		u, err := s.db.Profiles().GetUser(ctx, p.UserID)
		s.Require().NoError(err)
		s.Equal("Ada", u.FirstName)
		s.Equal("Lovelace", u.LastName)
	})

	s.Run("blank names are rejected", func() {
		s.True(domain.IsValidation(s.service.UpdateNames(ctx, p.ID, " ", "Lovelace")))
		s.True(domain.IsValidation(s.service.UpdateNames(ctx, p.ID, "Ada", "")))
	})
}

func (s *ProfileServiceSuite) TestUpdateGender() {
	ctx := context.Background()
	p := s.db.SeedProfile("gender@example.com")

	updated, err := s.service.UpdateGender(ctx, p.ID, models.GenderFemale)
	s.Require().NoError(err)
	s.Equal(models.GenderFemale, updated.Gender)

	_, err = s.service.UpdateGender(ctx, p.ID, models.Gender("other"))
	s.True(domain.IsValidation(err))
}

func (s *ProfileServiceSuite) TestBirthdayAndAge() {
	ctx := context.Background()
	p := s.db.SeedProfile("age@example.com")

	s.Run("birthday must be in the past", func() {
		_, err := s.service.UpdateBirthday(ctx, p.ID, s.clk.Now().Add(24*time.Hour))
		s.True(domain.IsValidation(err))
	})

	s.Run("no birthday means no age", func() {
		_, ok, err := s.service.Age(ctx, p.ID)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("age decrements before this year's birthday", func() {
		// Clock is pinned to 2026-03-15; the April birthday has not
		// happened yet this year.
		_, err := s.service.UpdateBirthday(ctx, p.ID, time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC))
		s.Require().NoError(err)
		age, ok, err := s.service.Age(ctx, p.ID)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(35, age)
	})

	s.Run("age is full years once the birthday has passed", func() {
		_, err := s.service.UpdateBirthday(ctx, p.ID, time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC))
		s.Require().NoError(err)
		age, _, err := s.service.Age(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(36, age)
	})
}

func (s *ProfileServiceSuite) TestVerify() {
	ctx := context.Background()

	s.Run("token verifies the profile and is burned", func() {
		p := s.db.SeedProfile("verify@example.com")
		_, err := s.service.UpdateEmail(ctx, p.ID, "verify2@example.com")
		s.Require().NoError(err)
		token := s.notifier.tokens[len(s.notifier.tokens)-1]

		verified, err := s.service.Verify(ctx, token)
		s.Require().NoError(err)
		s.True(verified.Verified)
		s.Empty(verified.VerificationToken)

		_, err = s.service.Verify(ctx, token)
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("empty token is rejected", func() {
		_, err := s.service.Verify(ctx, "")
		s.True(domain.IsValidation(err))
	})

	s.Run("unknown token is not found", func() {
		_, err := s.service.Verify(ctx, "nope")
		s.ErrorIs(err, domain.ErrNotFound)
	})
}

func (s *ProfileServiceSuite) TestScore() {
	ctx := context.Background()
	p := s.db.SeedProfile("score@example.com")

	score, err := s.service.AddScore(ctx, p.ID, 10)
	s.Require().NoError(err)
	s.Equal(10, score)

	score, err = s.service.AddScore(ctx, p.ID, -25)
	s.Require().NoError(err)
	s.Equal(0, score, "score floors at zero")
}

func (s *ProfileServiceSuite) TestInterests() {
	ctx := context.Background()
	p := s.db.SeedProfile("interests@example.com")
	cooking := s.db.SeedTag("cooking")

	s.Require().NoError(s.service.SetInterests(ctx, p.ID, []uuid.UUID{cooking.ID}))
	tags, err := s.service.Interests(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(tags, 1)
	s.Equal("cooking", tags[0].Name)

	s.ErrorIs(s.service.SetInterests(ctx, uuid.New(), nil), domain.ErrNotFound)
}

func (s *ProfileServiceSuite) TestPreference() {
	ctx := context.Background()
	p := s.db.SeedProfile("prefs@example.com")

	s.Run("defaults when nothing is stored", func() {
		pref, err := s.service.Preference(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(0, pref.Confidentiality)
	})

	s.Run("stored settings are returned", func() {
		_, err := s.service.SetPreference(ctx, p.ID, 2)
		s.Require().NoError(err)
		pref, err := s.service.Preference(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(2, pref.Confidentiality)
	})

	s.Run("negative confidentiality is rejected", func() {
		_, err := s.service.SetPreference(ctx, p.ID, -1)
		s.True(domain.IsValidation(err))
	})
}
