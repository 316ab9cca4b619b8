package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type WorkshopModelSuite struct {
	suite.Suite
	now time.Time
}

func TestWorkshopModelSuite(t *testing.T) {
	suite.Run(t, new(WorkshopModelSuite))
}

func (s *WorkshopModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func (s *WorkshopModelSuite) TestDaysLeft() {
	cases := []struct {
		name     string
		startsAt time.Time
		want     int
	}{
		{"five days ahead", s.now.Add(5 * 24 * time.Hour), 5},
		{"one hour ahead rounds down to zero", s.now.Add(time.Hour), 0},
		{"exactly now", s.now, 0},
		{"one hour past is already a day behind", s.now.Add(-time.Hour), -1},
		{"thirty-six hours past floors to two days behind", s.now.Add(-36 * time.Hour), -2},
		{"exactly one day past", s.now.Add(-24 * time.Hour), -1},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := &Workshop{StartsAt: tc.startsAt}
			s.Equal(tc.want, w.DaysLeft(s.now))
		})
	}
}

func (s *WorkshopModelSuite) TestInProgress() {
	w := &Workshop{StartsAt: s.now.Add(-time.Hour), Duration: 2 * time.Hour}
	s.True(w.InProgress(s.now))
	s.True(w.InProgress(w.StartsAt), "inclusive at the start")
	s.False(w.InProgress(w.EndsAt()), "exclusive at the end")
	s.False(w.InProgress(s.now.Add(-2*time.Hour)), "well before the start")
}
