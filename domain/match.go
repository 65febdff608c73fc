package domain

import (
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchArchived  MatchStatus = "archived"
	MatchBlocked   MatchStatus = "blocked"
	MatchCompleted MatchStatus = "completed"
)

// matchTransitions lists every legal status change. Blocked and completed are terminal.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchActive:   {MatchArchived, MatchBlocked, MatchCompleted},
	MatchArchived: {MatchActive},
}

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchActive, MatchArchived, MatchBlocked, MatchCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a match may move from s to next.
func (s MatchStatus) CanTransition(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionError builds the typed error returned for an illegal status change.
func TransitionError(from, to MatchStatus) error {
	return WrapError(ErrInvalidTransition.Code, ErrInvalidTransition.Message,
		fmt.Errorf("%s -> %s", from, to))
}

type DealStage string

const (
	StageInitialContact    DealStage = "initial-contact"
	StageInterestConfirmed DealStage = "interest-confirmed"
	StageDueDiligence      DealStage = "due-diligence"
	StageNegotiation       DealStage = "negotiation"
	StageClosing           DealStage = "closing"
	StageCompleted         DealStage = "completed"
)

// DealStages is the pipeline order.
var DealStages = []DealStage{
	StageInitialContact,
	StageInterestConfirmed,
	StageDueDiligence,
	StageNegotiation,
	StageClosing,
	StageCompleted,
}

func (s DealStage) Valid() bool {
	for _, st := range DealStages {
		if st == s {
			return true
		}
	}
	return false
}

// UnreadCount holds the per-side unread counters of a match.
type UnreadCount struct {
	Buyer  int `json:"buyer"`
	Seller int `json:"seller"`
}

// MessageSummary is the lastMessage projection kept on a match.
type MessageSummary struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	SenderID  string      `json:"sender_id"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingCompleted MeetingStatus = "completed"
	MeetingCancelled MeetingStatus = "cancelled"
)

// Meeting is a call or visit scheduled between the two sides of a match.
type Meeting struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	Duration    int           `json:"duration_minutes"`
	Type        string        `json:"type"`
	Location    string        `json:"location,omitempty"`
	MeetingLink string        `json:"meeting_link,omitempty"`
	Status      MeetingStatus `json:"status"`
	CreatedBy   string        `json:"created_by,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

// MeetingPatch is a partial meeting update.
type MeetingPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	Duration    *int           `json:"duration_minutes,omitempty"`
	Location    *string        `json:"location,omitempty"`
	MeetingLink *string        `json:"meeting_link,omitempty"`
	Status      *MeetingStatus `json:"status,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
}

func (p MeetingPatch) Apply(m *Meeting) {
	setIf(&m.Title, p.Title)
	setIf(&m.Description, p.Description)
	setIf(&m.ScheduledAt, p.ScheduledAt)
	setIf(&m.Duration, p.Duration)
	setIf(&m.Location, p.Location)
	setIf(&m.MeetingLink, p.MeetingLink)
	setIf(&m.Status, p.Status)
	setIf(&m.Notes, p.Notes)
}

// Match pairs a buyer with a seller and tracks their conversation and deal pipeline.
type Match struct {
	ID                string          `json:"id"`
	BuyerID           string          `json:"buyer_id"`
	SellerID          string          `json:"seller_id"`
	BusinessID        string          `json:"business_id,omitempty"`
	Status            MatchStatus     `json:"status"`
	DealStage         DealStage       `json:"deal_stage"`
	MatchScore        int             `json:"match_score"`
	MatchReasons      []string        `json:"match_reasons,omitempty"`
	UnreadCount       UnreadCount     `json:"unread_count"`
	LastMessage       *MessageSummary `json:"last_message,omitempty"`
	LastActivity      time.Time       `json:"last_activity"`
	NextSteps         []string        `json:"next_steps,omitempty"`
	ScheduledMeetings []Meeting       `json:"scheduled_meetings,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (m Match) EntityID() string { return m.ID }

// Involves reports whether userID is either party of the match.
func (m Match) Involves(userID string) bool {
	return userID != "" && (m.BuyerID == userID || m.SellerID == userID)
}

// UnreadFor returns the unread counter of the side userID sits on, 0 when not a party.
func (m Match) UnreadFor(userID string) int {
	switch userID {
	case "":
		return 0
	case m.BuyerID:
		return m.UnreadCount.Buyer
	case m.SellerID:
		return m.UnreadCount.Seller
	}
	return 0
}
