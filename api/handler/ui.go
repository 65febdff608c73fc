package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/pkg/httpcontext"
	"github.com/dealease/backend/usecase/ui"
)

// UIHandler exposes the caller's UI state.
type UIHandler struct {
	baseHandler
	registry *ui.Registry
}

func NewUIHandler(registry *ui.Registry, adapter *httpcontext.Adapter, logger *zap.Logger) *UIHandler {
	return &UIHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    registry,
	}
}

// @Summary Snapshot of the caller's UI state
// @Tags ui
// @Router /api/v1/ui [get]
func (h *UIHandler) State(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, store.Snapshot())
}

// @Router /api/v1/ui/modal [post]
func (h *UIHandler) OpenModal(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.ModalRequest
	if !h.decode(ctx, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.respondInvalid(ctx, "modal name is required")
		return
	}
	store.OpenModal(req.Name, req.Payload)
	h.respondSuccess(ctx, http.StatusOK, store.Snapshot())
}

// @Router /api/v1/ui/modal [delete]
func (h *UIHandler) CloseModal(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	store.CloseModal()
	h.respondSuccess(ctx, http.StatusOK, store.Snapshot())
}

// @Router /api/v1/ui/toasts [get]
func (h *UIHandler) Toasts(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	respondListOf(h.baseHandler, ctx, store.Toasts())
}

// @Router /api/v1/ui/toasts [post]
func (h *UIHandler) ShowToast(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.ToastRequest
	if !h.decode(ctx, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		h.respondInvalid(ctx, "toast title is required")
		return
	}
	// Omitted duration_ms takes the default; 0 keeps the toast until dismissed.
	duration := ui.UseDefaultDuration
	if req.DurationMS != nil {
		if *req.DurationMS < 0 {
			h.respondInvalid(ctx, "duration_ms must not be negative")
			return
		}
		duration = time.Duration(*req.DurationMS) * time.Millisecond
	}
	toast := store.ShowToast(ui.Toast{
		Type:       ui.ToastType(req.Type),
		Title:      req.Title,
		Message:    req.Message,
		Duration:   duration,
		Persistent: req.Persistent,
	})
	h.respondSuccess(ctx, http.StatusCreated, toast)
}

// @Router /api/v1/ui/toasts/{id} [delete]
func (h *UIHandler) DismissToast(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]bool{"dismissed": store.DismissToast(param(ctx, "id"))})
}

// @Summary Set the sidebar state, or toggle it when open is omitted
// @Router /api/v1/ui/sidebar [post]
func (h *UIHandler) Sidebar(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.SidebarRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}
	if req.Open == nil {
		store.ToggleSidebar()
	} else {
		store.SetSidebarOpen(*req.Open)
	}
	h.respondSuccess(ctx, http.StatusOK, store.Snapshot())
}

// @Router /api/v1/ui/theme [put]
func (h *UIHandler) SetTheme(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.ThemeRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := store.SetTheme(stdCtx, ui.Theme(req.Theme)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, store.Snapshot())
}

// @Router /api/v1/ui/compact [put]
func (h *UIHandler) SetCompactMode(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.CompactModeRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := store.SetCompactMode(stdCtx, req.Compact); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, store.Snapshot())
}

// @Router /api/v1/ui/viewport [put]
func (h *UIHandler) Resize(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.ResizeRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.Width <= 0 {
		h.respondInvalid(ctx, "width must be positive")
		return
	}
	store.Resize(req.Width)
	h.respondSuccess(ctx, http.StatusOK, store.Snapshot())
}

// @Router /api/v1/ui/forms/{formId} [get]
func (h *UIHandler) Form(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	formID := param(ctx, "formId")
	h.respondSuccess(ctx, http.StatusOK, map[string]any{
		"errors": store.FormErrors(formID),
		"data":   store.FormData(formID),
	})
}

// @Router /api/v1/ui/forms/{formId}/errors [put]
func (h *UIHandler) SetFormErrors(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.FormErrorsRequest
	if !h.decode(ctx, &req) {
		return
	}
	formID := param(ctx, "formId")
	store.SetFormErrors(formID, req.Errors)
	h.respondSuccess(ctx, http.StatusOK, store.FormErrors(formID))
}

// @Router /api/v1/ui/forms/{formId}/errors/{field} [put]
func (h *UIHandler) SetFieldError(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.FieldErrorRequest
	if !h.decode(ctx, &req) {
		return
	}
	formID := param(ctx, "formId")
	store.SetFieldError(formID, param(ctx, "field"), req.Message)
	h.respondSuccess(ctx, http.StatusOK, store.FormErrors(formID))
}

// @Router /api/v1/ui/forms/{formId}/errors [delete]
func (h *UIHandler) ClearFormErrors(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	store.ClearFormErrors(param(ctx, "formId"))
	h.respondSuccess(ctx, http.StatusOK, map[string]string{})
}

// @Router /api/v1/ui/forms/{formId}/data [put]
func (h *UIHandler) SetFormData(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	var req transport.FormDataRequest
	if !h.decode(ctx, &req) {
		return
	}
	formID := param(ctx, "formId")
	store.SetFormData(formID, req.Values)
	h.respondSuccess(ctx, http.StatusOK, store.FormData(formID))
}

// @Router /api/v1/ui/forms/{formId}/data [delete]
func (h *UIHandler) ClearFormData(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	store.ClearFormData(param(ctx, "formId"))
	h.respondSuccess(ctx, http.StatusOK, map[string]any{})
}

// @Router /api/v1/ui/reset [post]
func (h *UIHandler) Reset(ctx *fasthttp.RequestCtx) {
	store, ok := h.store(ctx)
	if !ok {
		return
	}
	store.Reset()
	h.respondSuccess(ctx, http.StatusOK, store.Snapshot())
}

func (h *UIHandler) store(ctx *fasthttp.RequestCtx) (*ui.Store, bool) {
	userID := h.caller(ctx)
	if userID == "" {
		return nil, false
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	return h.registry.For(stdCtx, userID), true
}
