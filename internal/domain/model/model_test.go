package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContestComputePhase(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		status   ContestStatus
		deadline time.Time
		want     ContestPhase
	}{
		{"pending", ContestPending, now.Add(time.Hour), PhasePending},
		{"rejected", ContestRejected, now.Add(time.Hour), PhaseRejected},
		{"approved before deadline", ContestApproved, now.Add(time.Hour), PhaseOpen},
		{"approved at deadline", ContestApproved, now, PhaseAwaitingWinner},
		{"approved after deadline", ContestApproved, now.Add(-time.Hour), PhaseAwaitingWinner},
		{"completed", ContestCompleted, now.Add(-time.Hour), PhaseCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Contest{Status: tt.status, Deadline: tt.deadline}
			assert.Equal(t, tt.want, c.ComputePhase(now))
		})
	}
}

func TestCanModerate(t *testing.T) {
	assert.True(t, CanModerate(ContestPending, ContestApproved))
	assert.True(t, CanModerate(ContestPending, ContestRejected))
	assert.False(t, CanModerate(ContestPending, ContestCompleted))
	assert.False(t, CanModerate(ContestApproved, ContestCompleted))
	assert.False(t, CanModerate(ContestApproved, ContestRejected))
	assert.False(t, CanModerate(ContestRejected, ContestApproved))
	assert.False(t, CanModerate(ContestCompleted, ContestApproved))
}

func TestContestUpdateApply(t *testing.T) {
	name := "Sunset Shots"
	fee := decimal.NewFromInt(5)
	c := &Contest{Name: "old", Description: "keep", EntryFee: decimal.Zero}

	u := ContestUpdate{Name: &name, EntryFee: &fee}
	u.Apply(c)

	assert.Equal(t, "Sunset Shots", c.Name)
	assert.Equal(t, "keep", c.Description)
	assert.True(t, c.EntryFee.Equal(fee))
	assert.True(t, u.HasContentChanges())

	status := ContestApproved
	assert.False(t, ContestUpdate{Status: &status}.HasContentChanges())
}

func TestSearchTerms(t *testing.T) {
	terms, err := SearchTerms(`sunset "golden hour"  photo`)
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset", "golden hour", "photo"}, terms)

	terms, err = SearchTerms("   ")
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestContestFilterMatches(t *testing.T) {
	c := &Contest{
		Name:        "Golden Hour Photography",
		Description: "Capture the city at dusk",
		Category:    "photography",
		Status:      ContestApproved,
		CreatorID:   "creator-1",
	}

	assert.True(t, ContestFilter{Terms: []string{"golden hour", "DUSK"}}.Matches(c))
	assert.False(t, ContestFilter{Terms: []string{"golden", "dawn"}}.Matches(c))
	assert.True(t, ContestFilter{Category: "photography"}.Matches(c))
	assert.False(t, ContestFilter{Category: "music"}.Matches(c))
	assert.True(t, ContestFilter{Statuses: []ContestStatus{ContestApproved, ContestCompleted}}.Matches(c))
	assert.False(t, ContestFilter{Statuses: []ContestStatus{ContestPending}}.Matches(c))
	assert.False(t, ContestFilter{CreatorID: "creator-2"}.Matches(c))
}

func TestSuggestCategory(t *testing.T) {
	assert.Equal(t, "photography", SuggestCategory("photograpy"))
	assert.Equal(t, "logo-design", SuggestCategory("logo"))
	assert.Equal(t, "photography", SuggestCategory("photography contest"))
	assert.Equal(t, "", SuggestCategory(""))
	assert.True(t, ValidCategory("music"))
	assert.False(t, ValidCategory("Music"))
}

func TestLeaderboardEntryLess(t *testing.T) {
	rich := LeaderboardEntry{UserID: "b", TotalPrizeEarning: decimal.NewFromInt(100), WinCount: 1}
	busy := LeaderboardEntry{UserID: "a", TotalPrizeEarning: decimal.NewFromInt(100), WinCount: 1, ParticipantCount: 5}
	poor := LeaderboardEntry{UserID: "c", TotalPrizeEarning: decimal.Zero, WinCount: 3}

	assert.True(t, rich.Less(poor))
	assert.True(t, busy.Less(rich))
	assert.False(t, poor.Less(busy))

	twin := busy
	twin.UserID = "z"
	assert.True(t, busy.Less(twin))
}
