package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/pkg/httpcontext"
	"github.com/dealease/backend/usecase/chat"
	"github.com/dealease/backend/usecase/match"
)

type MatchHandler struct {
	baseHandler
	matches *match.Store
	chat    *chat.Store
}

func NewMatchHandler(matches *match.Store, chatStore *chat.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{
		baseHandler: newBaseHandler(adapter, logger),
		matches:     matches,
		chat:        chatStore,
	}
}

// @Summary List the caller's matches
// @Tags matches
// @Router /api/v1/matches [get]
func (h *MatchHandler) List(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	filters := domain.MatchFilters{
		Status:    domain.MatchStatus(query(ctx, "status")),
		DealStage: domain.DealStage(query(ctx, "stage")),
		UserID:    userID,
	}
	search := query(ctx, "q")
	respondListOf(h.baseHandler, ctx, h.matches.Where(func(m domain.Match) bool {
		return match.Matches(m, filters, search)
	}))
}

// @Summary Total unread count across the caller's matches
// @Tags matches
// @Router /api/v1/matches/unread [get]
func (h *MatchHandler) Unread(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int{"unread": h.matches.GetUnreadCount(userID)})
}

// @Summary Create a match between a buyer and a seller
// @Tags matches
// @Router /api/v1/matches [post]
func (h *MatchHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	var req transport.CreateMatchRequest
	if !h.decode(ctx, &req) {
		return
	}
	if userID != req.BuyerID && userID != req.SellerID {
		h.respondError(ctx, errNotParty)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.matches.CreateMatch(stdCtx, req.BuyerID, req.SellerID, req.BusinessID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.requestLogger(stdCtx).Info("match created", zap.String("match_id", created.ID))
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get match
// @Tags matches
// @Router /api/v1/matches/{id} [get]
func (h *MatchHandler) Get(ctx *fasthttp.RequestCtx) {
	m, _, ok := h.party(ctx)
	if !ok {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, m)
}

// @Summary Move a match to another status
// @Tags matches
// @Router /api/v1/matches/{id}/status [put]
func (h *MatchHandler) UpdateStatus(ctx *fasthttp.RequestCtx) {
	var req transport.MatchStatusRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.transition(ctx, req.Status)
}

// @Router /api/v1/matches/{id}/archive [post]
func (h *MatchHandler) Archive(ctx *fasthttp.RequestCtx) { h.transition(ctx, domain.MatchArchived) }

// @Router /api/v1/matches/{id}/block [post]
func (h *MatchHandler) Block(ctx *fasthttp.RequestCtx) { h.transition(ctx, domain.MatchBlocked) }

// @Router /api/v1/matches/{id}/reactivate [post]
func (h *MatchHandler) Reactivate(ctx *fasthttp.RequestCtx) { h.transition(ctx, domain.MatchActive) }

// @Router /api/v1/matches/{id}/complete [post]
func (h *MatchHandler) Complete(ctx *fasthttp.RequestCtx) { h.transition(ctx, domain.MatchCompleted) }

func (h *MatchHandler) transition(ctx *fasthttp.RequestCtx, status domain.MatchStatus) {
	m, _, ok := h.party(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		updated *domain.Match
		err     error
	)
	switch status {
	case domain.MatchArchived:
		updated, err = h.matches.ArchiveMatch(stdCtx, m.ID)
	case domain.MatchBlocked:
		updated, err = h.matches.BlockMatch(stdCtx, m.ID)
	case domain.MatchActive:
		updated, err = h.matches.ReactivateMatch(stdCtx, m.ID)
	case domain.MatchCompleted:
		updated, err = h.matches.CompleteMatch(stdCtx, m.ID)
	default:
		updated, err = h.matches.UpdateMatchStatus(stdCtx, m.ID, status)
	}
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrMatchNotFound)
}

// @Summary Move a match along the deal pipeline
// @Tags matches
// @Router /api/v1/matches/{id}/stage [put]
func (h *MatchHandler) UpdateStage(ctx *fasthttp.RequestCtx) {
	m, _, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.DealStageRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.matches.UpdateDealStage(stdCtx, m.ID, req.Stage)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrMatchNotFound)
}

// @Summary Replace the next steps list
// @Tags matches
// @Router /api/v1/matches/{id}/next-steps [put]
func (h *MatchHandler) UpdateNextSteps(ctx *fasthttp.RequestCtx) {
	m, _, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.NextStepsRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.matches.UpdateNextSteps(stdCtx, m.ID, req.Steps)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrMatchNotFound)
}

// @Summary Schedule a meeting
// @Tags matches
// @Router /api/v1/matches/{id}/meetings [post]
func (h *MatchHandler) ScheduleMeeting(ctx *fasthttp.RequestCtx) {
	m, userID, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.MeetingRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	meeting, err := h.matches.ScheduleMeeting(stdCtx, m.ID, domain.Meeting{
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
		Duration:    req.Duration,
		Type:        req.Type,
		Location:    req.Location,
		MeetingLink: req.MeetingLink,
		Notes:       req.Notes,
		CreatedBy:   userID,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, meeting)
}

// @Summary Update a meeting
// @Tags matches
// @Router /api/v1/matches/{id}/meetings/{meetingId} [patch]
func (h *MatchHandler) UpdateMeeting(ctx *fasthttp.RequestCtx) {
	m, _, ok := h.party(ctx)
	if !ok {
		return
	}
	var patch domain.MeetingPatch
	if !h.decode(ctx, &patch) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	meeting, err := h.matches.UpdateMeeting(stdCtx, m.ID, param(ctx, "meetingId"), patch)
	respondUpdated(h.baseHandler, ctx, meeting, err, domain.ErrMeetingNotFound)
}

// @Summary Cancel a meeting
// @Tags matches
// @Router /api/v1/matches/{id}/meetings/{meetingId} [delete]
func (h *MatchHandler) CancelMeeting(ctx *fasthttp.RequestCtx) {
	m, _, ok := h.party(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	meeting, err := h.matches.CancelMeeting(stdCtx, m.ID, param(ctx, "meetingId"))
	respondUpdated(h.baseHandler, ctx, meeting, err, domain.ErrMeetingNotFound)
}

// @Summary Read every message of the match addressed to the caller
// @Tags matches
// @Router /api/v1/matches/{id}/read [post]
func (h *MatchHandler) MarkRead(ctx *fasthttp.RequestCtx) {
	m, userID, ok := h.party(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	read, err := h.chat.MarkAllMessagesAsRead(stdCtx, m.ID, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	// Clears the counter even when no message was pending, e.g. the new-match notice.
	updated, err := h.matches.MarkAsRead(stdCtx, m.ID, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]any{"match": updated, "messages_read": read})
}

// @Summary Match timeline, oldest first
// @Tags chat
// @Router /api/v1/matches/{id}/messages [get]
func (h *MatchHandler) Messages(ctx *fasthttp.RequestCtx) {
	m, _, ok := h.party(ctx)
	if !ok {
		return
	}
	respondListOf(h.baseHandler, ctx, h.chat.GetMessagesByMatch(m.ID))
}

// @Summary Send a message to the other party
// @Tags chat
// @Router /api/v1/matches/{id}/messages [post]
func (h *MatchHandler) SendMessage(ctx *fasthttp.RequestCtx) {
	m, userID, ok := h.party(ctx)
	if !ok {
		return
	}
	if m.Status != domain.MatchActive {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeConflict, "match is not active", nil))
		return
	}
	var req transport.SendMessageRequest
	if !h.decode(ctx, &req) {
		return
	}
	receiver := m.SellerID
	if userID == m.SellerID {
		receiver = m.BuyerID
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	msg, err := h.chat.SendMessage(stdCtx, domain.Message{
		MatchID:     m.ID,
		SenderID:    userID,
		ReceiverID:  receiver,
		Content:     req.Content,
		Type:        req.Type,
		Attachments: req.Attachments,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, msg)
}

// @Summary Start or stop the caller's typing indicator
// @Tags chat
// @Router /api/v1/matches/{id}/typing [put]
func (h *MatchHandler) SetTyping(ctx *fasthttp.RequestCtx) {
	m, userID, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.TypingRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.Typing {
		h.chat.SetUserTyping(m.ID, userID)
	} else {
		h.chat.SetUserStoppedTyping(m.ID, userID)
	}
	h.Typing(ctx)
}

// @Summary Users currently typing in the match
// @Tags chat
// @Router /api/v1/matches/{id}/typing [get]
func (h *MatchHandler) Typing(ctx *fasthttp.RequestCtx) {
	m, _, ok := h.party(ctx)
	if !ok {
		return
	}
	typing := h.chat.TypingUsers(m.ID)
	if typing == nil {
		typing = []string{}
	}
	h.respondSuccess(ctx, http.StatusOK, map[string][]string{"typing": typing})
}

// party resolves the match in the path and checks the caller belongs to it.
func (h *MatchHandler) party(ctx *fasthttp.RequestCtx) (domain.Match, string, bool) {
	userID := h.caller(ctx)
	if userID == "" {
		return domain.Match{}, "", false
	}
	m, ok := h.matches.GetByID(param(ctx, "id"))
	if !ok {
		h.respondError(ctx, domain.ErrMatchNotFound)
		return domain.Match{}, "", false
	}
	if !m.Involves(userID) {
		h.respondError(ctx, errNotParty)
		return domain.Match{}, "", false
	}
	return m, userID, true
}
