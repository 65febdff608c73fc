package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/pkg/httpcontext"
	"github.com/dealease/backend/usecase/chat"
)

type ChatHandler struct {
	baseHandler
	chat *chat.Store
}

func NewChatHandler(chatStore *chat.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		baseHandler: newBaseHandler(adapter, logger),
		chat:        chatStore,
	}
}

// @Summary Edit one of the caller's messages
// @Tags chat
// @Router /api/v1/messages/{id} [patch]
func (h *ChatHandler) EditMessage(ctx *fasthttp.RequestCtx) {
	msg, ok := h.message(ctx, func(m domain.Message, userID string) bool { return m.SenderID == userID })
	if !ok {
		return
	}
	var req transport.EditMessageRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.chat.EditMessage(stdCtx, msg.ID, req.Content)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrMessageNotFound)
}

// @Summary Delete one of the caller's messages
// @Tags chat
// @Router /api/v1/messages/{id} [delete]
func (h *ChatHandler) DeleteMessage(ctx *fasthttp.RequestCtx) {
	msg, ok := h.message(ctx, func(m domain.Message, userID string) bool { return m.SenderID == userID })
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.chat.DeleteMessage(stdCtx, msg.ID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"deleted": msg.ID})
}

// @Summary Mark a received message as read
// @Tags chat
// @Router /api/v1/messages/{id}/read [post]
func (h *ChatHandler) MarkMessageRead(ctx *fasthttp.RequestCtx) {
	msg, ok := h.message(ctx, func(m domain.Message, userID string) bool { return m.ReceiverID == userID })
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.chat.MarkMessageAsRead(stdCtx, msg.ID)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrMessageNotFound)
}

// @Summary The caller's notifications, newest first
// @Tags notifications
// @Router /api/v1/notifications [get]
func (h *ChatHandler) Notifications(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	feed := h.chat.NotificationsForUser(userID)
	if queryBool(ctx, "unread") {
		unread := feed[:0]
		for _, n := range feed {
			if !n.IsRead() {
				unread = append(unread, n)
			}
		}
		feed = unread
	}
	respondListOf(h.baseHandler, ctx, feed)
}

// @Summary Unread notification count
// @Tags notifications
// @Router /api/v1/notifications/unread [get]
func (h *ChatHandler) UnreadNotifications(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int{"unread": h.chat.UnreadNotificationCount(userID)})
}

// @Summary Mark one notification as read
// @Tags notifications
// @Router /api/v1/notifications/{id}/read [post]
func (h *ChatHandler) MarkNotificationRead(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	n, ok := h.chat.Notifications().GetByID(param(ctx, "id"))
	if !ok {
		h.respondError(ctx, domain.ErrNotificationNotFound)
		return
	}
	if n.UserID != userID {
		h.respondError(ctx, errNotOwner)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.chat.MarkNotificationAsRead(stdCtx, n.ID)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrNotificationNotFound)
}

// @Summary Mark every notification as read
// @Tags notifications
// @Router /api/v1/notifications/read-all [post]
func (h *ChatHandler) MarkAllNotificationsRead(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	n, err := h.chat.MarkAllNotificationsAsRead(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int{"updated": n})
}

// @Summary Delete every notification of the caller
// @Tags notifications
// @Router /api/v1/notifications [delete]
func (h *ChatHandler) ClearNotifications(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	n, err := h.chat.ClearNotifications(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int{"deleted": n})
}

func (h *ChatHandler) message(ctx *fasthttp.RequestCtx, allowed func(domain.Message, string) bool) (domain.Message, bool) {
	userID := h.caller(ctx)
	if userID == "" {
		return domain.Message{}, false
	}
	msg, ok := h.chat.GetMessage(param(ctx, "id"))
	if !ok {
		h.respondError(ctx, domain.ErrMessageNotFound)
		return domain.Message{}, false
	}
	if !allowed(msg, userID) {
		h.respondError(ctx, errNotOwner)
		return domain.Message{}, false
	}
	return msg, true
}
