package match

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/repository/memory"
	"github.com/dealease/backend/usecase/entity"
)

func newStore(t *testing.T) (*Store, *memory.DocumentRepository) {
	t.Helper()
	docs := memory.NewDocumentRepository()
	coll := repository.NewCollection(docs, domain.KindMatch,
		func(m domain.Match) string { return m.ID },
		func(m domain.Match) string { return m.BuyerID })
	return New(coll, coll, entity.Deps{}), docs
}

func TestStore_CreateMatch(t *testing.T) {
	store, _ := newStore(t)
	m, err := store.CreateMatch(context.Background(), "b1", "s1", "biz1")
	require.NoError(t, err)

	assert.Equal(t, domain.MatchActive, m.Status)
	assert.Equal(t, domain.StageInitialContact, m.DealStage)
	assert.Equal(t, domain.UnreadCount{Buyer: 1, Seller: 0}, m.UnreadCount)
	assert.Equal(t, DefaultScore, m.MatchScore)
	assert.NotEmpty(t, m.MatchReasons)
	assert.False(t, m.LastActivity.IsZero())

	_, err = store.CreateMatch(context.Background(), "b1", "s1", "biz1")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	_, err = store.CreateMatch(context.Background(), "", "s1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestStore_CreateMatchPerBusiness(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	first, err := store.CreateMatch(ctx, "b1", "s1", "biz-1")
	require.NoError(t, err)
	second, err := store.CreateMatch(ctx, "b1", "s1", "biz-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, store.ForUser("b1"), 2)

	_, err = store.UpdateMatchStatus(ctx, first.ID, domain.MatchBlocked)
	require.NoError(t, err)
	_, err = store.CreateMatch(ctx, "b1", "s1", "biz-1")
	assert.NoError(t, err, "a blocked match does not hold the slot")
}

func TestStore_CreateMatchConcurrentDuplicates(t *testing.T) {
	store, _ := newStore(t)
	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.CreateMatch(context.Background(), "b1", "s1", "biz-1"); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	assert.Len(t, store.ForUser("b1"), 1)
}

func TestStore_StatusTransitions(t *testing.T) {
	tests := []struct {
		name  string
		steps []domain.MatchStatus
		ok    []bool
	}{
		{name: "archive and reactivate", steps: []domain.MatchStatus{domain.MatchArchived, domain.MatchActive}, ok: []bool{true, true}},
		{name: "block is terminal", steps: []domain.MatchStatus{domain.MatchBlocked, domain.MatchActive}, ok: []bool{true, false}},
		{name: "complete is terminal", steps: []domain.MatchStatus{domain.MatchCompleted, domain.MatchArchived}, ok: []bool{true, false}},
		{name: "archived cannot be blocked", steps: []domain.MatchStatus{domain.MatchArchived, domain.MatchBlocked}, ok: []bool{true, false}},
		{name: "same state rejected", steps: []domain.MatchStatus{domain.MatchActive}, ok: []bool{false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newStore(t)
			m, err := store.CreateMatch(context.Background(), "b1", "s1", "")
			require.NoError(t, err)

			want := domain.MatchActive
			for i, status := range tt.steps {
				_, err := store.UpdateMatchStatus(context.Background(), m.ID, status)
				if tt.ok[i] {
					require.NoError(t, err)
					want = status
				} else {
					assert.ErrorIs(t, err, domain.ErrInvalidTransition)
					assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
				}
			}
			got, _ := store.GetByID(m.ID)
			assert.Equal(t, want, got.Status)
		})
	}
}

func TestStore_TransitionsAreRecorded(t *testing.T) {
	store, docs := newStore(t)
	ctx := context.Background()
	m, _ := store.CreateMatch(ctx, "b1", "s1", "")

	_, err := store.ArchiveMatch(ctx, m.ID)
	require.NoError(t, err)
	_, err = store.ReactivateMatch(ctx, m.ID)
	require.NoError(t, err)
	_, err = store.BlockMatch(ctx, m.ID)
	require.NoError(t, err)
	_, err = store.ReactivateMatch(ctx, m.ID)
	require.Error(t, err)

	events := docs.Events(m.ID)
	require.Len(t, events, 3)
	assert.Equal(t, "match.status_changed", events[0].Name)
	assert.JSONEq(t, `{"from":"active","to":"archived"}`, string(events[0].Payload))
}

func TestStore_UnknownMatch(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.ArchiveMatch(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
	assert.Equal(t, domain.ErrMatchNotFound.Error(), store.Error())
}

func TestStore_StageAndNextStepsStampActivity(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	m, _ := store.CreateMatch(ctx, "b1", "s1", "")
	before := m.LastActivity

	time.Sleep(2 * time.Millisecond)
	updated, err := store.UpdateDealStage(ctx, m.ID, domain.StageDueDiligence)
	require.NoError(t, err)
	assert.Equal(t, domain.StageDueDiligence, updated.DealStage)
	assert.True(t, updated.LastActivity.After(before))

	updated, err = store.UpdateNextSteps(ctx, m.ID, []string{"Share P&L", "Book site visit"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Share P&L", "Book site visit"}, updated.NextSteps)

	_, err = store.UpdateDealStage(ctx, m.ID, "signing")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestStore_CancelMeetingLeavesOthers(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	m, _ := store.CreateMatch(ctx, "b1", "s1", "")
	at := time.Now().Add(24 * time.Hour)

	first, err := store.ScheduleMeeting(ctx, m.ID, domain.Meeting{Title: "Intro call", ScheduledAt: at, Duration: 30})
	require.NoError(t, err)
	second, err := store.ScheduleMeeting(ctx, m.ID, domain.Meeting{Title: "Site visit", ScheduledAt: at.Add(time.Hour), Type: "in-person"})
	require.NoError(t, err)

	cancelled, err := store.CancelMeeting(ctx, m.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingCancelled, cancelled.Status)

	got, _ := store.GetByID(m.ID)
	require.Len(t, got.ScheduledMeetings, 2)
	for _, meeting := range got.ScheduledMeetings {
		switch meeting.ID {
		case first.ID:
			assert.Equal(t, domain.MeetingCancelled, meeting.Status)
		case second.ID:
			assert.Equal(t, domain.MeetingScheduled, meeting.Status)
		}
	}

	_, err = store.CancelMeeting(ctx, m.ID, "missing")
	assert.ErrorIs(t, err, domain.ErrMeetingNotFound)

	_, err = store.ScheduleMeeting(ctx, m.ID, domain.Meeting{Title: "No date"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestStore_GetUnreadCount(t *testing.T) {
	store, _ := newStore(t)
	store.Replace([]domain.Match{
		{ID: "m1", BuyerID: "u1", SellerID: "u2", UnreadCount: domain.UnreadCount{Buyer: 3, Seller: 5}},
		{ID: "m2", BuyerID: "u3", SellerID: "u1", UnreadCount: domain.UnreadCount{Buyer: 7, Seller: 2}},
		{ID: "m3", BuyerID: "u3", SellerID: "u4", UnreadCount: domain.UnreadCount{Buyer: 11, Seller: 13}},
	})

	assert.Equal(t, 5, store.GetUnreadCount("u1"))
	assert.Equal(t, 5, store.GetUnreadCount("u2"))
	assert.Equal(t, 18, store.GetUnreadCount("u3"))
	assert.Equal(t, 0, store.GetUnreadCount("stranger"))
}

func TestStore_MarkAsReadScopedToSide(t *testing.T) {
	store, _ := newStore(t)
	store.Replace([]domain.Match{
		{ID: "m1", BuyerID: "u1", SellerID: "u2", Status: domain.MatchActive, UnreadCount: domain.UnreadCount{Buyer: 3, Seller: 5}},
	})

	updated, err := store.MarkAsRead(context.Background(), "m1", "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.UnreadCount{Buyer: 3, Seller: 0}, updated.UnreadCount)

	_, err = store.MarkAsRead(context.Background(), "m1", "stranger")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestStore_RecordReadIgnoresOutsiders(t *testing.T) {
	store, _ := newStore(t)
	store.Replace([]domain.Match{
		{ID: "m1", BuyerID: "u1", SellerID: "u2", Status: domain.MatchActive, UnreadCount: domain.UnreadCount{Buyer: 3, Seller: 5}},
	})
	ctx := context.Background()

	require.NoError(t, store.RecordRead(ctx, "m1", "stranger"))
	require.NoError(t, store.RecordRead(ctx, "missing", "u1"))
	assert.Empty(t, store.Error())

	require.NoError(t, store.RecordRead(ctx, "m1", "u1"))
	got, _ := store.GetByID("m1")
	assert.Equal(t, domain.UnreadCount{Buyer: 0, Seller: 5}, got.UnreadCount)
}

func TestStore_RecordMessage(t *testing.T) {
	store, _ := newStore(t)
	store.Replace([]domain.Match{{ID: "m1", BuyerID: "u1", SellerID: "u2", Status: domain.MatchActive}})
	sent := time.Now()

	err := store.RecordMessage(context.Background(), domain.Message{
		ID: "msg1", MatchID: "m1", SenderID: "u1", ReceiverID: "u2", Content: "hello", Type: domain.MessageText, Timestamp: sent,
	})
	require.NoError(t, err)

	got, _ := store.GetByID("m1")
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "msg1", got.LastMessage.ID)
	assert.Equal(t, domain.UnreadCount{Buyer: 0, Seller: 1}, got.UnreadCount)
	assert.True(t, got.LastActivity.Equal(sent))
}

func TestMatches(t *testing.T) {
	m := domain.Match{BuyerID: "u1", SellerID: "u2", Status: domain.MatchActive, DealStage: domain.StageNegotiation, NextSteps: []string{"Draft LOI"}}
	assert.True(t, Matches(m, domain.MatchFilters{UserID: "u2"}, "loi"))
	assert.False(t, Matches(m, domain.MatchFilters{Status: domain.MatchArchived}, ""))
	assert.False(t, Matches(m, domain.MatchFilters{DealStage: domain.StageClosing}, ""))
	assert.False(t, Matches(m, domain.MatchFilters{UserID: "u9"}, ""))
}
