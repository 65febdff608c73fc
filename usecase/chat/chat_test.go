package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/repository/memory"
	"github.com/dealease/backend/usecase/entity"
	"github.com/dealease/backend/usecase/match"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	docs := memory.NewDocumentRepository()
	messages := repository.NewCollection(docs, domain.KindMessage,
		func(m domain.Message) string { return m.ID },
		func(m domain.Message) string { return m.MatchID })
	notifications := repository.NewCollection(docs, domain.KindNotification,
		func(n domain.Notification) string { return n.ID },
		func(n domain.Notification) string { return n.UserID })
	return New(messages, notifications, Config{}, entity.Deps{})
}

func send(t *testing.T, s *Store, matchID, content, from, to string) domain.Message {
	t.Helper()
	msg, err := s.SendMessage(context.Background(), domain.Message{
		MatchID: matchID, Content: content, SenderID: from, ReceiverID: to,
	})
	require.NoError(t, err)
	return msg
}

func TestStore_SendMessageCreatesOneMessageAndNotification(t *testing.T) {
	store := newStore(t)
	store.SetUserTyping("m1", "u1")

	msg := send(t, store, "m1", "hi", "u1", "u2")

	msgs := store.GetMessagesByMatch("m1")
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)
	assert.Nil(t, msgs[0].ReadAt)
	assert.Equal(t, domain.MessageText, msgs[0].Type)

	assert.Empty(t, store.NotificationsForUser("u1"))
	notes := store.NotificationsForUser("u2")
	require.Len(t, notes, 1)
	assert.Equal(t, "u2", notes[0].UserID)
	assert.Equal(t, domain.NotifyMessage, notes[0].Type)
	assert.Equal(t, msg.ID, notes[0].MessageID)
	assert.Equal(t, "hi", notes[0].Content)

	assert.Empty(t, store.TypingUsers("m1"))
}

func TestStore_SendMessageValidates(t *testing.T) {
	store := newStore(t)
	tests := []struct {
		name  string
		draft domain.Message
	}{
		{name: "missing match", draft: domain.Message{Content: "x", SenderID: "u1", ReceiverID: "u2"}},
		{name: "missing receiver", draft: domain.Message{MatchID: "m1", Content: "x", SenderID: "u1"}},
		{name: "blank content", draft: domain.Message{MatchID: "m1", Content: "  ", SenderID: "u1", ReceiverID: "u2"}},
		{name: "unknown type", draft: domain.Message{MatchID: "m1", Content: "x", SenderID: "u1", ReceiverID: "u2", Type: "fax"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.SendMessage(context.Background(), tt.draft)
			assert.ErrorIs(t, err, domain.ErrInvalidPayload)
		})
	}
	assert.Zero(t, store.Messages().Len())
	assert.Equal(t, domain.ErrInvalidPayload.Error(), store.Error())
}

func TestStore_NotificationPreviewIsTruncated(t *testing.T) {
	store := newStore(t)
	long := strings.Repeat("é", 150)
	send(t, store, "m1", long, "u1", "u2")

	notes := store.NotificationsForUser("u2")
	require.Len(t, notes, 1)
	assert.Equal(t, 100, len([]rune(notes[0].Content)))
}

func TestStore_MarkAllMessagesAsReadOnlyReceiver(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	toU2 := send(t, store, "m1", "one", "u1", "u2")
	toU1 := send(t, store, "m1", "two", "u2", "u1")
	other := send(t, store, "m2", "three", "u1", "u2")

	changed, err := store.MarkAllMessagesAsRead(ctx, "m1", "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, _ := store.GetMessage(toU2.ID)
	assert.NotNil(t, got.ReadAt)
	got, _ = store.GetMessage(toU1.ID)
	assert.Nil(t, got.ReadAt)
	got, _ = store.GetMessage(other.ID)
	assert.Nil(t, got.ReadAt)

	changed, err = store.MarkAllMessagesAsRead(ctx, "m1", "u2")
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestStore_MarkMessageAsReadKeepsFirstStamp(t *testing.T) {
	store := newStore(t)
	msg := send(t, store, "m1", "hi", "u1", "u2")

	first, err := store.MarkMessageAsRead(context.Background(), msg.ID)
	require.NoError(t, err)
	second, err := store.MarkMessageAsRead(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ReadAt, second.ReadAt)

	_, err = store.MarkMessageAsRead(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestStore_EditAndDeleteMessage(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	msg := send(t, store, "m1", "hi", "u1", "u2")

	edited, err := store.EditMessage(ctx, msg.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", edited.Content)
	assert.NotNil(t, edited.EditedAt)

	require.NoError(t, store.DeleteMessage(ctx, msg.ID))
	assert.Empty(t, store.GetMessagesByMatch("m1"))
	assert.ErrorIs(t, store.DeleteMessage(ctx, msg.ID), domain.ErrMessageNotFound)
}

func TestStore_GetMessagesByMatchSortsAscending(t *testing.T) {
	store := newStore(t)
	now := time.Now()
	store.Replace([]domain.Message{
		{ID: "c", MatchID: "m1", Timestamp: now.Add(2 * time.Minute)},
		{ID: "a", MatchID: "m1", Timestamp: now},
		{ID: "x", MatchID: "m2", Timestamp: now},
		{ID: "b", MatchID: "m1", Timestamp: now.Add(time.Minute)},
	}, nil)

	var ids []string
	for _, m := range store.GetMessagesByMatch("m1") {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestStore_Typing(t *testing.T) {
	store := newStore(t)
	store.SetUserTyping("m1", "u1")
	store.SetUserTyping("m1", "u1")
	store.SetUserTyping("m1", "u2")
	assert.Equal(t, []string{"u1", "u2"}, store.TypingUsers("m1"))

	store.SetUserStoppedTyping("m1", "u1")
	assert.Equal(t, []string{"u2"}, store.TypingUsers("m1"))
	assert.Empty(t, store.TypingUsers("m2"))
}

func TestStore_NotificationFeed(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Now()
	store.Replace(nil, []domain.Notification{
		{ID: "n1", UserID: "u1", CreatedAt: now.Add(-time.Hour)},
		{ID: "n2", UserID: "u1", CreatedAt: now},
		{ID: "n3", UserID: "u2", CreatedAt: now},
	})

	feed := store.NotificationsForUser("u1")
	require.Len(t, feed, 2)
	assert.Equal(t, "n2", feed[0].ID)
	assert.Equal(t, 2, store.UnreadNotificationCount("u1"))

	_, err := store.MarkNotificationAsRead(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.UnreadNotificationCount("u1"))

	changed, err := store.MarkAllNotificationsAsRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Zero(t, store.UnreadNotificationCount("u1"))
	assert.Equal(t, 1, store.UnreadNotificationCount("u2"))

	cleared, err := store.ClearNotifications(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, cleared)
	assert.Empty(t, store.NotificationsForUser("u1"))
	assert.Len(t, store.NotificationsForUser("u2"), 1)

	_, err = store.MarkNotificationAsRead(ctx, "n1")
	assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
}

func TestStore_ListenerKeepsMatchSummaryInSync(t *testing.T) {
	store := newStore(t)
	matches := match.New(nil, nil, entity.Deps{})
	matches.Replace([]domain.Match{{ID: "m1", BuyerID: "u1", SellerID: "u2", Status: domain.MatchActive}})
	store.Subscribe(matches)
	ctx := context.Background()

	msg := send(t, store, "m1", "hi", "u1", "u2")

	m, _ := matches.GetByID("m1")
	require.NotNil(t, m.LastMessage)
	assert.Equal(t, msg.ID, m.LastMessage.ID)
	assert.Equal(t, 1, m.UnreadCount.Seller)

	_, err := store.MarkAllMessagesAsRead(ctx, "m1", "u2")
	require.NoError(t, err)
	m, _ = matches.GetByID("m1")
	assert.Zero(t, m.UnreadCount.Seller)

	_, err = store.MarkAllMessagesAsRead(ctx, "m1", "outsider")
	require.NoError(t, err)
	assert.Empty(t, matches.Error())
}

func TestStore_Reset(t *testing.T) {
	store := newStore(t)
	send(t, store, "m1", "hi", "u1", "u2")
	store.SetUserTyping("m1", "u2")
	store.Reset()

	assert.Zero(t, store.Messages().Len())
	assert.Zero(t, store.Notifications().Len())
	assert.Empty(t, store.TypingUsers("m1"))
}
