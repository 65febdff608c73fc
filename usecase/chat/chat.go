// Package chat holds the message timeline and the notification feed.
package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/entity"
)

// DefaultPreviewLength is the rune limit for notification bodies built from messages.
const DefaultPreviewLength = 100

// Listener is told about timeline changes so match summaries follow the chat.
type Listener interface {
	RecordMessage(ctx context.Context, msg domain.Message) error
	RecordRead(ctx context.Context, matchID, userID string) error
}

// MessageFilters narrow the message collection.
type MessageFilters struct {
	MatchID    string
	UnreadOnly bool
}

// NotificationFilters narrow the notification collection.
type NotificationFilters struct {
	UserID     string
	Type       domain.NotificationType
	UnreadOnly bool
}

type Config struct {
	PreviewLength int
}

// Store owns messages, notifications and typing indicators.
type Store struct {
	messages      *entity.Store[domain.Message, MessageFilters]
	notifications *entity.Store[domain.Notification, NotificationFilters]
	previewLen    int
	logger        *zap.Logger

	mu        sync.RWMutex
	typing    map[string][]string
	listeners []Listener
	lastErr   string
}

// New builds a chat store. Either repository may be nil.
func New(
	messages entity.Repository[domain.Message],
	notifications entity.Repository[domain.Notification],
	cfg Config,
	deps entity.Deps,
) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = DefaultPreviewLength
	}
	return &Store{
		messages: entity.New(messages, entity.Options[domain.Message, MessageFilters]{
			Name:    "messages",
			Prepare: prepareMessage,
			Match:   matchMessage,
			Clone:   cloneMessage,
			Buffer:  deps.Buffer,
			Metrics: deps.Metrics,
			Logger:  deps.Logger,
		}),
		notifications: entity.New(notifications, entity.Options[domain.Notification, NotificationFilters]{
			Name:    "notifications",
			Prepare: prepareNotification,
			Match:   matchNotification,
			Buffer:  deps.Buffer,
			Metrics: deps.Metrics,
			Logger:  deps.Logger,
		}),
		previewLen: cfg.PreviewLength,
		logger:     logger.With(zap.String("store", "chat")),
		typing:     make(map[string][]string),
	}
}

func prepareMessage(m *domain.Message, id string, now time.Time) {
	if m.ID == "" {
		m.ID = id
	}
	if m.Type == "" {
		m.Type = domain.MessageText
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
}

func prepareNotification(n *domain.Notification, id string, now time.Time) {
	if n.ID == "" {
		n.ID = id
	}
	if n.Priority == "" {
		n.Priority = domain.PriorityMedium
	}
	if n.Type == "" {
		n.Type = domain.NotifySystem
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
}

func cloneMessage(m domain.Message) domain.Message {
	m.Attachments = append([]domain.Attachment(nil), m.Attachments...)
	return m
}

func matchMessage(m domain.Message, f MessageFilters, search string) bool {
	if f.MatchID != "" && m.MatchID != f.MatchID {
		return false
	}
	if f.UnreadOnly && m.IsRead() {
		return false
	}
	return domain.MatchesSearch(search, m.Content)
}

func matchNotification(n domain.Notification, f NotificationFilters, search string) bool {
	if f.UserID != "" && n.UserID != f.UserID {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.UnreadOnly && n.IsRead() {
		return false
	}
	return domain.MatchesSearch(search, n.Title, n.Content)
}

// Subscribe registers a listener for sent and read messages.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load fills both collections from their repositories.
func (s *Store) Load(ctx context.Context) error {
	if err := s.messages.Load(ctx); err != nil {
		return s.fail(err)
	}
	if err := s.notifications.Load(ctx); err != nil {
		return s.fail(err)
	}
	return nil
}

// SendMessage appends a message, clears the sender's typing flag and notifies
// the receiver.
func (s *Store) SendMessage(ctx context.Context, draft domain.Message) (domain.Message, error) {
	draft.ID = ""
	draft.Timestamp = time.Time{}
	draft.ReadAt = nil
	draft.EditedAt = nil
	if draft.MatchID == "" || draft.SenderID == "" || draft.ReceiverID == "" {
		return domain.Message{}, s.fail(domain.ErrInvalidPayload)
	}
	if strings.TrimSpace(draft.Content) == "" && len(draft.Attachments) == 0 {
		return domain.Message{}, s.fail(domain.ErrInvalidPayload)
	}
	if draft.Type != "" && !draft.Type.Valid() {
		return domain.Message{}, s.fail(domain.ErrInvalidPayload)
	}

	msg, err := s.messages.Add(ctx, draft)
	if err != nil {
		return domain.Message{}, s.fail(err)
	}
	s.SetUserStoppedTyping(msg.MatchID, msg.SenderID)

	if _, err := s.CreateNotification(ctx, domain.Notification{
		UserID:    msg.ReceiverID,
		Type:      domain.NotifyMessage,
		Priority:  domain.PriorityMedium,
		Title:     "New message",
		Content:   truncate(msg.Content, s.previewLen),
		MatchID:   msg.MatchID,
		MessageID: msg.ID,
	}); err != nil {
		s.logger.Warn("failed to notify receiver", zap.String("message_id", msg.ID), zap.Error(err))
	}

	for _, l := range s.snapshotListeners() {
		if err := l.RecordMessage(ctx, msg); err != nil {
			s.logger.Warn("listener rejected message", zap.String("match_id", msg.MatchID), zap.Error(err))
		}
	}
	return msg, nil
}

// MarkMessageAsRead stamps readAt once; later calls keep the first stamp.
func (s *Store) MarkMessageAsRead(ctx context.Context, id string) (*domain.Message, error) {
	updated, err := s.messages.Mutate(ctx, "mark_read", id, domain.ErrMessageNotFound, func(m *domain.Message) error {
		if m.ReadAt == nil {
			now := time.Now()
			m.ReadAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(err)
	}
	return updated, nil
}

// MarkAllMessagesAsRead stamps every unread message in the match received by
// userID and returns how many changed.
func (s *Store) MarkAllMessagesAsRead(ctx context.Context, matchID, userID string) (int, error) {
	pending := s.messages.Where(func(m domain.Message) bool {
		return m.MatchID == matchID && m.ReceiverID == userID && m.ReadAt == nil
	})
	for i, m := range pending {
		if _, err := s.MarkMessageAsRead(ctx, m.ID); err != nil {
			return i, err
		}
	}
	for _, l := range s.snapshotListeners() {
		if err := l.RecordRead(ctx, matchID, userID); err != nil {
			s.logger.Debug("listener skipped read receipt", zap.String("match_id", matchID), zap.Error(err))
		}
	}
	return len(pending), nil
}

// EditMessage replaces the content and stamps editedAt.
func (s *Store) EditMessage(ctx context.Context, id, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, s.fail(domain.ErrInvalidPayload)
	}
	updated, err := s.messages.Mutate(ctx, "edit", id, domain.ErrMessageNotFound, func(m *domain.Message) error {
		now := time.Now()
		m.Content = content
		m.EditedAt = &now
		return nil
	})
	if err != nil {
		return nil, s.fail(err)
	}
	return updated, nil
}

// DeleteMessage removes the message from the timeline.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	if _, ok := s.messages.GetByID(id); !ok {
		return s.fail(domain.ErrMessageNotFound)
	}
	if err := s.messages.Remove(ctx, id); err != nil {
		return s.fail(err)
	}
	return nil
}

// GetMessagesByMatch returns the match timeline, oldest first.
func (s *Store) GetMessagesByMatch(matchID string) []domain.Message {
	out := s.messages.Where(func(m domain.Message) bool { return m.MatchID == matchID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// GetMessage looks a message up by id.
func (s *Store) GetMessage(id string) (domain.Message, bool) {
	return s.messages.GetByID(id)
}

// Messages exposes the message collection for filtering.
func (s *Store) Messages() *entity.Store[domain.Message, MessageFilters] {
	return s.messages
}

// Notifications exposes the notification collection for filtering.
func (s *Store) Notifications() *entity.Store[domain.Notification, NotificationFilters] {
	return s.notifications
}

func (s *Store) SetUserTyping(matchID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.typing[matchID] {
		if id == userID {
			return
		}
	}
	s.typing[matchID] = append(s.typing[matchID], userID)
}

func (s *Store) SetUserStoppedTyping(matchID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.typing[matchID]
	kept := users[:0:0]
	for _, id := range users {
		if id != userID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(s.typing, matchID)
		return
	}
	s.typing[matchID] = kept
}

// TypingUsers lists the users currently typing in a match.
func (s *Store) TypingUsers(matchID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.typing[matchID]...)
}

func (s *Store) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if n.UserID == "" {
		return domain.Notification{}, s.fail(domain.ErrInvalidPayload)
	}
	n.ReadAt = nil
	created, err := s.notifications.Add(ctx, n)
	if err != nil {
		return domain.Notification{}, s.fail(err)
	}
	return created, nil
}

func (s *Store) MarkNotificationAsRead(ctx context.Context, id string) (*domain.Notification, error) {
	updated, err := s.notifications.Mutate(ctx, "mark_read", id, domain.ErrNotificationNotFound,
		func(n *domain.Notification) error {
			if n.ReadAt == nil {
				now := time.Now()
				n.ReadAt = &now
			}
			return nil
		})
	if err != nil {
		return nil, s.fail(err)
	}
	return updated, nil
}

// MarkAllNotificationsAsRead stamps the user's unread notifications and returns how many changed.
func (s *Store) MarkAllNotificationsAsRead(ctx context.Context, userID string) (int, error) {
	pending := s.notifications.Where(func(n domain.Notification) bool {
		return n.UserID == userID && n.ReadAt == nil
	})
	for i, n := range pending {
		if _, err := s.MarkNotificationAsRead(ctx, n.ID); err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

// ClearNotifications hard-deletes every notification of the user.
func (s *Store) ClearNotifications(ctx context.Context, userID string) (int, error) {
	owned := s.notifications.Where(func(n domain.Notification) bool { return n.UserID == userID })
	for i, n := range owned {
		if err := s.notifications.Remove(ctx, n.ID); err != nil {
			return i, s.fail(err)
		}
	}
	return len(owned), nil
}

// NotificationsForUser returns the user's feed, newest first.
func (s *Store) NotificationsForUser(userID string) []domain.Notification {
	owned := s.notifications.Where(func(n domain.Notification) bool { return n.UserID == userID })
	out := make([]domain.Notification, 0, len(owned))
	for i := len(owned) - 1; i >= 0; i-- {
		out = append(out, owned[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// UnreadNotificationCount counts the user's notifications without readAt.
func (s *Store) UnreadNotificationCount(userID string) int {
	return len(s.notifications.Where(func(n domain.Notification) bool {
		return n.UserID == userID && n.ReadAt == nil
	}))
}

// Replace seeds both collections without touching the repositories.
func (s *Store) Replace(messages []domain.Message, notifications []domain.Notification) {
	s.messages.Replace(messages)
	s.notifications.Replace(notifications)
}

// Error returns the most recent chat failure.
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	s.messages.ClearError()
	s.notifications.ClearError()
}

func (s *Store) IsLoading() bool {
	return s.messages.IsLoading() || s.notifications.IsLoading()
}

// Reset drops messages, notifications and typing state.
func (s *Store) Reset() {
	s.messages.Reset()
	s.notifications.Reset()
	s.mu.Lock()
	s.typing = make(map[string][]string)
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Store) snapshotListeners() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Listener(nil), s.listeners...)
}

func (s *Store) fail(err error) error {
	if err == nil {
		return nil
	}
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	return err
}

func truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
