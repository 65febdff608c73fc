package transport

import (
	"time"

	"github.com/dealease/backend/domain"
)

type LoginRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type RefreshRequest struct {
	TTL int `json:"ttl_seconds"`
}

type CreateMatchRequest struct {
	BuyerID    string `json:"buyer_id"`
	SellerID   string `json:"seller_id"`
	BusinessID string `json:"business_id"`
}

type MatchStatusRequest struct {
	Status domain.MatchStatus `json:"status"`
}

type DealStageRequest struct {
	Stage domain.DealStage `json:"stage"`
}

type NextStepsRequest struct {
	Steps []string `json:"steps"`
}

type MeetingRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Duration    int       `json:"duration_minutes"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	MeetingLink string    `json:"meeting_link"`
	Notes       string    `json:"notes"`
}

type SendMessageRequest struct {
	ReceiverID  string              `json:"receiver_id"`
	Content     string              `json:"content"`
	Type        domain.MessageType  `json:"type"`
	Attachments []domain.Attachment `json:"attachments"`
}

type EditMessageRequest struct {
	Content string `json:"content"`
}

type TypingRequest struct {
	Typing bool `json:"typing"`
}

type ChecklistItemRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type StageStatusRequest struct {
	Status domain.StageStatus `json:"status"`
}

type DealDocumentRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type DealCommentRequest struct {
	Content string `json:"content"`
}

type ModalRequest struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

type ToastRequest struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	DurationMS *int   `json:"duration_ms"`
	Persistent bool   `json:"persistent"`
}

type SidebarRequest struct {
	Open *bool `json:"open"`
}

type ThemeRequest struct {
	Theme string `json:"theme"`
}

type CompactModeRequest struct {
	Compact bool `json:"compact"`
}

type ResizeRequest struct {
	Width int `json:"width"`
}

type FormErrorsRequest struct {
	Errors map[string]string `json:"errors"`
}

type FieldErrorRequest struct {
	Message string `json:"message"`
}

type FormDataRequest struct {
	Values map[string]any `json:"values"`
}

type StartOnboardingRequest struct {
	Role string `json:"role"`
}

type AnswerRequest struct {
	Step    string         `json:"step"`
	Answers map[string]any `json:"answers"`
}

type DebugRequest struct {
	Payload any `json:"payload"`
}
