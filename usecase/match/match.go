package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/entity"
)

// Placeholder scoring used until a real matching algorithm exists.
const (
	DefaultScore = 85
)

var defaultReasons = []string{"Industry alignment", "Investment range fit", "Location compatibility"}

// EventRecorder stores the audit trail of status transitions.
type EventRecorder interface {
	RecordEvent(ctx context.Context, id, name string, payload any, metadata map[string]string) error
}

// Store manages the buyer/seller relationship lifecycle.
type Store struct {
	*entity.Store[domain.Match, domain.MatchFilters]
	events EventRecorder
	logger *zap.Logger
}

// New builds a match store. events may be nil.
func New(repo entity.Repository[domain.Match], events EventRecorder, deps entity.Deps) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		Store: entity.New(repo, entity.Options[domain.Match, domain.MatchFilters]{
			Name:    "matches",
			Prepare: prepare,
			Match:   Matches,
			Clone:   Clone,
			Buffer:  deps.Buffer,
			Metrics: deps.Metrics,
			Logger:  deps.Logger,
		}),
		events: events,
		logger: logger.With(zap.String("store", "matches")),
	}
}

func prepare(m *domain.Match, id string, now time.Time) {
	if m.ID == "" {
		m.ID = id
	}
	if m.Status == "" {
		m.Status = domain.MatchActive
	}
	if m.DealStage == "" {
		m.DealStage = domain.StageInitialContact
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.LastActivity.IsZero() {
		m.LastActivity = now
	}
}

// Clone deep-copies a match.
func Clone(m domain.Match) domain.Match {
	m.MatchReasons = append([]string(nil), m.MatchReasons...)
	m.NextSteps = append([]string(nil), m.NextSteps...)
	m.ScheduledMeetings = append([]domain.Meeting(nil), m.ScheduledMeetings...)
	if m.LastMessage != nil {
		last := *m.LastMessage
		m.LastMessage = &last
	}
	return m
}

// Matches applies match filters and the search term.
func Matches(m domain.Match, f domain.MatchFilters, search string) bool {
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.DealStage != "" && m.DealStage != f.DealStage {
		return false
	}
	if f.UserID != "" && !m.Involves(f.UserID) {
		return false
	}
	last := ""
	if m.LastMessage != nil {
		last = m.LastMessage.Content
	}
	return domain.MatchesSearch(search,
		strings.Join(m.MatchReasons, " "),
		strings.Join(m.NextSteps, " "),
		last,
	)
}

// CreateMatch pairs a buyer with a seller. The buyer side starts with one unread
// item, the new-match notice; the seller side starts at zero.
func (s *Store) CreateMatch(ctx context.Context, buyerID, sellerID, businessID string) (domain.Match, error) {
	if buyerID == "" || sellerID == "" {
		return domain.Match{}, s.RecordError("create_match", domain.ErrInvalidPayload)
	}
	created, ok, err := s.AddUnique(ctx, domain.Match{
		BuyerID:      buyerID,
		SellerID:     sellerID,
		BusinessID:   businessID,
		Status:       domain.MatchActive,
		DealStage:    domain.StageInitialContact,
		MatchScore:   DefaultScore,
		MatchReasons: append([]string(nil), defaultReasons...),
		UnreadCount:  domain.UnreadCount{Buyer: 1, Seller: 0},
	}, func(m domain.Match) bool {
		return m.BuyerID == buyerID && m.SellerID == sellerID && m.BusinessID == businessID &&
			(m.Status == domain.MatchActive || m.Status == domain.MatchArchived)
	})
	if err != nil {
		return domain.Match{}, err
	}
	if !ok {
		return domain.Match{}, s.RecordError("create_match",
			domain.WrapError(domain.ErrCodeConflict, "match already exists", fmt.Errorf("match %s", created.ID)))
	}
	return created, nil
}

// UpdateMatchStatus moves a match through the status state machine.
func (s *Store) UpdateMatchStatus(ctx context.Context, id string, status domain.MatchStatus) (*domain.Match, error) {
	var from domain.MatchStatus
	updated, err := s.Mutate(ctx, "update_status", id, domain.ErrMatchNotFound, func(m *domain.Match) error {
		if !status.Valid() {
			return domain.WrapError(domain.ErrCodeInvalid, "invalid match status", fmt.Errorf("%q", status))
		}
		if !m.Status.CanTransition(status) {
			return domain.TransitionError(m.Status, status)
		}
		from = m.Status
		m.Status = status
		m.LastActivity = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, id, from, status)
	return updated, nil
}

// ArchiveMatch hides an active match. Reversible through ReactivateMatch.
func (s *Store) ArchiveMatch(ctx context.Context, id string) (*domain.Match, error) {
	return s.UpdateMatchStatus(ctx, id, domain.MatchArchived)
}

// BlockMatch ends an active match permanently.
func (s *Store) BlockMatch(ctx context.Context, id string) (*domain.Match, error) {
	return s.UpdateMatchStatus(ctx, id, domain.MatchBlocked)
}

// ReactivateMatch restores an archived match.
func (s *Store) ReactivateMatch(ctx context.Context, id string) (*domain.Match, error) {
	return s.UpdateMatchStatus(ctx, id, domain.MatchActive)
}

// CompleteMatch marks an active match as closed successfully.
func (s *Store) CompleteMatch(ctx context.Context, id string) (*domain.Match, error) {
	return s.UpdateMatchStatus(ctx, id, domain.MatchCompleted)
}

func (s *Store) UpdateDealStage(ctx context.Context, id string, stage domain.DealStage) (*domain.Match, error) {
	return s.Mutate(ctx, "update_deal_stage", id, domain.ErrMatchNotFound, func(m *domain.Match) error {
		if !stage.Valid() {
			return domain.WrapError(domain.ErrCodeInvalid, "invalid deal stage", fmt.Errorf("%q", stage))
		}
		m.DealStage = stage
		m.LastActivity = time.Now()
		return nil
	})
}

func (s *Store) UpdateNextSteps(ctx context.Context, id string, steps []string) (*domain.Match, error) {
	return s.Mutate(ctx, "update_next_steps", id, domain.ErrMatchNotFound, func(m *domain.Match) error {
		m.NextSteps = append([]string(nil), steps...)
		m.LastActivity = time.Now()
		return nil
	})
}

// ScheduleMeeting appends a meeting to the match.
func (s *Store) ScheduleMeeting(ctx context.Context, matchID string, meeting domain.Meeting) (domain.Meeting, error) {
	if meeting.ID == "" {
		meeting.ID = entity.NewID()
	}
	if meeting.Status == "" {
		meeting.Status = domain.MeetingScheduled
	}
	if meeting.Type == "" {
		meeting.Type = "video"
	}
	if strings.TrimSpace(meeting.Title) == "" || meeting.ScheduledAt.IsZero() {
		return domain.Meeting{}, s.RecordError("schedule_meeting", domain.ErrInvalidPayload)
	}
	_, err := s.Mutate(ctx, "schedule_meeting", matchID, domain.ErrMatchNotFound, func(m *domain.Match) error {
		m.ScheduledMeetings = append(m.ScheduledMeetings, meeting)
		m.LastActivity = time.Now()
		return nil
	})
	if err != nil {
		return domain.Meeting{}, err
	}
	return meeting, nil
}

// UpdateMeeting merges patch into one meeting; the other meetings are untouched.
func (s *Store) UpdateMeeting(ctx context.Context, matchID, meetingID string, patch domain.MeetingPatch) (*domain.Meeting, error) {
	var result domain.Meeting
	_, err := s.Mutate(ctx, "update_meeting", matchID, domain.ErrMatchNotFound, func(m *domain.Match) error {
		for i := range m.ScheduledMeetings {
			if m.ScheduledMeetings[i].ID != meetingID {
				continue
			}
			patch.Apply(&m.ScheduledMeetings[i])
			result = m.ScheduledMeetings[i]
			m.LastActivity = time.Now()
			return nil
		}
		return domain.ErrMeetingNotFound
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelMeeting is UpdateMeeting with status cancelled.
func (s *Store) CancelMeeting(ctx context.Context, matchID, meetingID string) (*domain.Meeting, error) {
	cancelled := domain.MeetingCancelled
	return s.UpdateMeeting(ctx, matchID, meetingID, domain.MeetingPatch{Status: &cancelled})
}

// GetUnreadCount sums, across every match the user is a party to, the counter of
// the user's own side.
func (s *Store) GetUnreadCount(userID string) int {
	total := 0
	for _, m := range s.All() {
		total += m.UnreadFor(userID)
	}
	return total
}

// MarkAsRead clears the unread counter of the side userID sits on.
func (s *Store) MarkAsRead(ctx context.Context, matchID, userID string) (*domain.Match, error) {
	return s.Mutate(ctx, "mark_as_read", matchID, domain.ErrMatchNotFound, func(m *domain.Match) error {
		switch userID {
		case m.BuyerID:
			m.UnreadCount.Buyer = 0
		case m.SellerID:
			m.UnreadCount.Seller = 0
		default:
			return domain.WrapError(domain.ErrCodeForbidden, "user is not a party to this match", fmt.Errorf("user %s", userID))
		}
		return nil
	})
}

// RecordMessage projects a sent message onto its match: lastMessage, lastActivity
// and the receiver side's unread counter.
func (s *Store) RecordMessage(ctx context.Context, msg domain.Message) error {
	_, err := s.Mutate(ctx, "record_message", msg.MatchID, domain.ErrMatchNotFound, func(m *domain.Match) error {
		m.LastMessage = msg.Summary()
		m.LastActivity = msg.Timestamp
		switch msg.ReceiverID {
		case m.BuyerID:
			m.UnreadCount.Buyer++
		case m.SellerID:
			m.UnreadCount.Seller++
		}
		return nil
	})
	return err
}

// ForUser lists the matches where userID is either party.
func (s *Store) ForUser(userID string) []domain.Match {
	return s.Where(func(m domain.Match) bool { return m.Involves(userID) })
}

func (s *Store) recordTransition(ctx context.Context, id string, from, to domain.MatchStatus) {
	if s.events == nil {
		return
	}
	payload := map[string]string{"from": string(from), "to": string(to)}
	if err := s.events.RecordEvent(ctx, id, "match.status_changed", payload, nil); err != nil {
		s.logger.Warn("failed to record match transition", zap.String("id", id), zap.Error(err))
	}
}

// RecordRead clears the reader's unread counter once the chat timeline has been
// read. Receipts from users outside the match are ignored.
func (s *Store) RecordRead(ctx context.Context, matchID, userID string) error {
	m, ok := s.GetByID(matchID)
	if !ok || !m.Involves(userID) {
		return nil
	}
	_, err := s.MarkAsRead(ctx, matchID, userID)
	return err
}
