package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/internal/middleware"
	"github.com/dealease/backend/pkg/httpcontext"
	"github.com/dealease/backend/usecase/onboarding"
)

// Onboarder links a finished profile to its account.
type Onboarder interface {
	MarkOnboarded(ctx context.Context, userID, profileID string) (*domain.User, error)
}

type OnboardingHandler struct {
	baseHandler
	uc    *onboarding.UseCase
	users Onboarder
}

func NewOnboardingHandler(uc *onboarding.UseCase, users Onboarder, adapter *httpcontext.Adapter, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		users:       users,
	}
}

type stepView struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Fields   []string `json:"fields"`
	Required []string `json:"required"`
}

// @Summary Questionnaire for a role
// @Tags onboarding
// @Router /api/v1/onboarding/steps [get]
func (h *OnboardingHandler) Steps(ctx *fasthttp.RequestCtx) {
	role := query(ctx, "role")
	if role == "" {
		role = string(ctx.Request.Header.Peek(middleware.HeaderRole))
	}
	if !domain.ValidRole(role) {
		h.respondInvalid(ctx, "unknown role")
		return
	}
	steps := onboarding.Steps(role)
	views := make([]stepView, 0, len(steps))
	for _, s := range steps {
		v := stepView{Name: s.Name, Title: s.Title, Fields: []string{}, Required: []string{}}
		for _, f := range s.Fields {
			v.Fields = append(v.Fields, f.Name)
			if f.Required {
				v.Required = append(v.Required, f.Name)
			}
		}
		views = append(views, v)
	}
	respondListOf(h.baseHandler, ctx, views)
}

// @Summary Start onboarding for the caller
// @Tags onboarding
// @Router /api/v1/onboarding [post]
func (h *OnboardingHandler) Start(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	var req transport.StartOnboardingRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}
	if req.Role == "" {
		req.Role = string(ctx.Request.Header.Peek(middleware.HeaderRole))
	}

	wizard, err := h.uc.Start(userID, req.Role)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, wizard)
}

// @Summary Current wizard state
// @Tags onboarding
// @Router /api/v1/onboarding/{id} [get]
func (h *OnboardingHandler) Get(ctx *fasthttp.RequestCtx) {
	wizard, ok := h.wizard(ctx)
	if !ok {
		return
	}
	progress, err := h.uc.Progress(wizard.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]any{"wizard": wizard, "progress": progress})
}

// @Summary Answer one step
// @Tags onboarding
// @Router /api/v1/onboarding/{id}/answers [post]
func (h *OnboardingHandler) Answer(ctx *fasthttp.RequestCtx) {
	wizard, ok := h.wizard(ctx)
	if !ok {
		return
	}
	var req transport.AnswerRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	progress, err := h.uc.Answer(stdCtx, wizard.ID, req.Step, req.Answers)
	if err != nil {
		var fields onboarding.FieldErrors
		if errors.As(err, &fields) {
			h.respondErrorMeta(ctx, err, map[string]any{"fields": fields, "progress": progress})
			return
		}
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, progress)
}

// @Summary Step back
// @Tags onboarding
// @Router /api/v1/onboarding/{id}/back [post]
func (h *OnboardingHandler) Back(ctx *fasthttp.RequestCtx) {
	wizard, ok := h.wizard(ctx)
	if !ok {
		return
	}
	progress, err := h.uc.Back(wizard.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, progress)
}

// @Summary Build the profile from the answers
// @Tags onboarding
// @Router /api/v1/onboarding/{id}/complete [post]
func (h *OnboardingHandler) Complete(ctx *fasthttp.RequestCtx) {
	wizard, ok := h.wizard(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	profileID, err := h.uc.Complete(stdCtx, wizard.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	payload := map[string]any{"profile_id": profileID}
	if h.users != nil {
		user, err := h.users.MarkOnboarded(stdCtx, wizard.UserID, profileID)
		if err != nil {
			h.requestLogger(stdCtx).Warn("failed to mark user onboarded",
				zap.String("user_id", wizard.UserID),
				zap.Error(err))
		} else {
			payload["user"] = user
		}
	}
	h.respondSuccess(ctx, http.StatusOK, payload)
}

// @Summary Abandon onboarding
// @Tags onboarding
// @Router /api/v1/onboarding/{id} [delete]
func (h *OnboardingHandler) Discard(ctx *fasthttp.RequestCtx) {
	wizard, ok := h.wizard(ctx)
	if !ok {
		return
	}
	h.uc.Discard(wizard.ID)
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"discarded": wizard.ID})
}

func (h *OnboardingHandler) wizard(ctx *fasthttp.RequestCtx) (onboarding.Wizard, bool) {
	userID := h.caller(ctx)
	if userID == "" {
		return onboarding.Wizard{}, false
	}
	wizard, err := h.uc.Get(param(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return onboarding.Wizard{}, false
	}
	if wizard.UserID != userID {
		h.respondError(ctx, errNotOwner)
		return onboarding.Wizard{}, false
	}
	return wizard, true
}
