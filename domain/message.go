package domain

import "time"

type MessageType string

const (
	MessageText           MessageType = "text"
	MessageFile           MessageType = "file"
	MessageImage          MessageType = "image"
	MessageSystem         MessageType = "system"
	MessageMeetingRequest MessageType = "meeting-request"
	MessageDocument       MessageType = "document"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageFile, MessageImage, MessageSystem, MessageMeetingRequest, MessageDocument:
		return true
	}
	return false
}

// Attachment is a file shared inside a message.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size"`
}

// Message belongs to exactly one match.
type Message struct {
	ID          string       `json:"id"`
	MatchID     string       `json:"match_id"`
	SenderID    string       `json:"sender_id"`
	ReceiverID  string       `json:"receiver_id"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Type        MessageType  `json:"type"`
	ReadAt      *time.Time   `json:"read_at,omitempty"`
	EditedAt    *time.Time   `json:"edited_at,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

func (m Message) EntityID() string { return m.ID }

func (m Message) IsRead() bool { return m.ReadAt != nil }

// Summary projects the message into the match's lastMessage snapshot.
func (m Message) Summary() *MessageSummary {
	return &MessageSummary{
		ID:        m.ID,
		Content:   m.Content,
		SenderID:  m.SenderID,
		Type:      m.Type,
		Timestamp: m.Timestamp,
	}
}

type NotificationType string

const (
	NotifyMessage    NotificationType = "message"
	NotifyMatch      NotificationType = "match"
	NotifyDealUpdate NotificationType = "deal-update"
	NotifyMeeting    NotificationType = "meeting"
	NotifySystem     NotificationType = "system"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Notification belongs to one user and optionally links back to a match or message.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Priority  Priority         `json:"priority"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	MatchID   string           `json:"match_id,omitempty"`
	MessageID string           `json:"message_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func (n Notification) EntityID() string { return n.ID }

func (n Notification) IsRead() bool { return n.ReadAt != nil }
