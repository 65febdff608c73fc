package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to MatchStatus
		ok       bool
	}{
		{MatchActive, MatchArchived, true},
		{MatchArchived, MatchActive, true},
		{MatchActive, MatchBlocked, true},
		{MatchActive, MatchCompleted, true},
		{MatchArchived, MatchBlocked, false},
		{MatchBlocked, MatchActive, false},
		{MatchCompleted, MatchActive, false},
		{MatchActive, MatchActive, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}

	err := TransitionError(MatchBlocked, MatchActive)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, IsDomainError(err, ErrCodeConflict))
	assert.Contains(t, err.Error(), "blocked -> active")
	assert.False(t, errors.Is(err, ErrMatchNotFound))
}

func TestAcquisitionDeal_Recompute(t *testing.T) {
	deal := AcquisitionDeal{Stages: []DealStageProgress{
		{ID: "s1", Checklist: []ChecklistItem{{Completed: true}, {Completed: true}, {Completed: false}}},
		{ID: "s2", Status: StageDone},
		{ID: "s3"},
	}}
	deal.Recompute()

	assert.Equal(t, 67, deal.Stages[0].Progress)
	assert.Equal(t, 100, deal.Stages[1].Progress)
	assert.Equal(t, 0, deal.Stages[2].Progress)
	assert.Equal(t, 56, deal.OverallProgress)
	assert.Equal(t, 1, deal.Stage("s2"))
	assert.Equal(t, -1, deal.Stage("missing"))

	empty := AcquisitionDeal{}
	empty.Recompute()
	assert.Zero(t, empty.OverallProgress)
}

func TestSession_Lifetime(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ID: "s1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	assert.False(t, s.IsExpired(now))
	assert.Equal(t, time.Hour, s.Remaining(now))
	assert.Zero(t, s.Remaining(now.Add(2*time.Hour)))
	assert.True(t, s.IsExpired(now.Add(time.Hour)))

	s.Extend(now.Add(2*time.Hour), 30*time.Minute)
	assert.False(t, s.IsExpired(now.Add(2*time.Hour)))
	assert.Equal(t, 30*time.Minute, s.Remaining(now.Add(2*time.Hour)))

	var missing *Session
	assert.True(t, missing.IsExpired(now))
}
