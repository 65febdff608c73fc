package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/dealease/backend/api/handler"
	"github.com/dealease/backend/internal/infrastructure/metrics"
)

type Handlers struct {
	Auth       *apiHandler.AuthHandler
	Profiles   *apiHandler.ProfileHandler
	Matches    *apiHandler.MatchHandler
	Chat       *apiHandler.ChatHandler
	Deals      *apiHandler.DealHandler
	UI         *apiHandler.UIHandler
	Onboarding *apiHandler.OnboardingHandler
	Debug      *apiHandler.DebugHandler
	Health     *apiHandler.HealthHandler
}

// Options tune the optional surfaces. A nil Metrics disables request
// instrumentation and the /metrics endpoint.
type Options struct {
	Metrics *metrics.Metrics
}

type routes struct {
	r       *router.Router
	auth    func(fasthttp.RequestHandler) fasthttp.RequestHandler
	metrics *metrics.Metrics
}

func (rt routes) handle(method, path string, h fasthttp.RequestHandler, protected bool) {
	if protected {
		h = rt.auth(h)
	}
	if rt.metrics != nil {
		h = rt.metrics.Instrument(path, h)
	}
	rt.r.Handle(method, path, h)
}

func (rt routes) public(method, path string, h fasthttp.RequestHandler) {
	rt.handle(method, path, h, false)
}

func (rt routes) private(method, path string, h fasthttp.RequestHandler) {
	rt.handle(method, path, h, true)
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	r := router.New()
	rt := routes{r: r, auth: authMiddleware, metrics: opts.Metrics}
	const (
		get   = fasthttp.MethodGet
		post  = fasthttp.MethodPost
		put   = fasthttp.MethodPut
		patch = fasthttp.MethodPatch
		del   = fasthttp.MethodDelete
	)

	rt.public(get, "/health", handlers.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics.Handler())
	}

	// Auth routes
	rt.public(post, "/api/v1/auth/login", handlers.Auth.Login)
	rt.private(post, "/api/v1/auth/logout", handlers.Auth.Logout)
	rt.private(post, "/api/v1/auth/logout-all", handlers.Auth.LogoutAll)
	rt.private(post, "/api/v1/auth/refresh", handlers.Auth.Refresh)
	rt.private(get, "/api/v1/auth/me", handlers.Auth.Me)

	// Profiles
	p := handlers.Profiles
	rt.private(get, "/api/v1/buyers", p.ListBuyers)
	rt.private(post, "/api/v1/buyers", p.CreateBuyer)
	rt.private(get, "/api/v1/buyers/filtered", p.FilteredBuyers)
	rt.private(put, "/api/v1/buyers/filters", p.SetBuyerFilters)
	rt.private(del, "/api/v1/buyers/filters", p.ClearBuyerFilters)
	rt.private(get, "/api/v1/buyers/{id}", p.GetBuyer)
	rt.private(patch, "/api/v1/buyers/{id}", p.UpdateBuyer)
	rt.private(del, "/api/v1/buyers/{id}", p.DeleteBuyer)
	rt.private(post, "/api/v1/buyers/{id}/verify", p.VerifyBuyer)
	rt.private(post, "/api/v1/buyers/{id}/endorsements", p.EndorseBuyer)

	rt.private(get, "/api/v1/sellers", p.ListSellers)
	rt.private(post, "/api/v1/sellers", p.CreateSeller)
	rt.private(get, "/api/v1/sellers/filtered", p.FilteredSellers)
	rt.private(put, "/api/v1/sellers/filters", p.SetSellerFilters)
	rt.private(del, "/api/v1/sellers/filters", p.ClearSellerFilters)
	rt.private(get, "/api/v1/sellers/{id}", p.GetSeller)
	rt.private(patch, "/api/v1/sellers/{id}", p.UpdateSeller)
	rt.private(del, "/api/v1/sellers/{id}", p.DeleteSeller)
	rt.private(post, "/api/v1/sellers/{id}/verify", p.VerifySeller)

	// Matches and their conversation
	m := handlers.Matches
	rt.private(get, "/api/v1/matches", m.List)
	rt.private(post, "/api/v1/matches", m.Create)
	rt.private(get, "/api/v1/matches/unread", m.Unread)
	rt.private(get, "/api/v1/matches/{id}", m.Get)
	rt.private(put, "/api/v1/matches/{id}/status", m.UpdateStatus)
	rt.private(post, "/api/v1/matches/{id}/archive", m.Archive)
	rt.private(post, "/api/v1/matches/{id}/block", m.Block)
	rt.private(post, "/api/v1/matches/{id}/reactivate", m.Reactivate)
	rt.private(post, "/api/v1/matches/{id}/complete", m.Complete)
	rt.private(put, "/api/v1/matches/{id}/stage", m.UpdateStage)
	rt.private(put, "/api/v1/matches/{id}/next-steps", m.UpdateNextSteps)
	rt.private(post, "/api/v1/matches/{id}/meetings", m.ScheduleMeeting)
	rt.private(patch, "/api/v1/matches/{id}/meetings/{meetingId}", m.UpdateMeeting)
	rt.private(del, "/api/v1/matches/{id}/meetings/{meetingId}", m.CancelMeeting)
	rt.private(post, "/api/v1/matches/{id}/read", m.MarkRead)
	rt.private(get, "/api/v1/matches/{id}/messages", m.Messages)
	rt.private(post, "/api/v1/matches/{id}/messages", m.SendMessage)
	rt.private(get, "/api/v1/matches/{id}/typing", m.Typing)
	rt.private(put, "/api/v1/matches/{id}/typing", m.SetTyping)

	// Messages and notifications
	c := handlers.Chat
	rt.private(patch, "/api/v1/messages/{id}", c.EditMessage)
	rt.private(del, "/api/v1/messages/{id}", c.DeleteMessage)
	rt.private(post, "/api/v1/messages/{id}/read", c.MarkMessageRead)
	rt.private(get, "/api/v1/notifications", c.Notifications)
	rt.private(del, "/api/v1/notifications", c.ClearNotifications)
	rt.private(get, "/api/v1/notifications/unread", c.UnreadNotifications)
	rt.private(post, "/api/v1/notifications/read-all", c.MarkAllNotificationsRead)
	rt.private(post, "/api/v1/notifications/{id}/read", c.MarkNotificationRead)

	// Deals
	d := handlers.Deals
	rt.private(get, "/api/v1/deals", d.List)
	rt.private(post, "/api/v1/deals", d.Create)
	rt.private(get, "/api/v1/deals/{id}", d.Get)
	rt.private(patch, "/api/v1/deals/{id}", d.Update)
	rt.private(put, "/api/v1/deals/{id}/stages/{stageId}/status", d.UpdateStageStatus)
	rt.private(post, "/api/v1/deals/{id}/stages/{stageId}/checklist", d.AddChecklistItem)
	rt.private(put, "/api/v1/deals/{id}/stages/{stageId}/checklist/{itemId}", d.SetChecklistItem)
	rt.private(post, "/api/v1/deals/{id}/stages/{stageId}/documents", d.AddDocument)
	rt.private(post, "/api/v1/deals/{id}/stages/{stageId}/comments", d.AddComment)

	// UI state
	u := handlers.UI
	rt.private(get, "/api/v1/ui", u.State)
	rt.private(post, "/api/v1/ui/modal", u.OpenModal)
	rt.private(del, "/api/v1/ui/modal", u.CloseModal)
	rt.private(get, "/api/v1/ui/toasts", u.Toasts)
	rt.private(post, "/api/v1/ui/toasts", u.ShowToast)
	rt.private(del, "/api/v1/ui/toasts/{id}", u.DismissToast)
	rt.private(post, "/api/v1/ui/sidebar", u.Sidebar)
	rt.private(put, "/api/v1/ui/theme", u.SetTheme)
	rt.private(put, "/api/v1/ui/compact", u.SetCompactMode)
	rt.private(put, "/api/v1/ui/viewport", u.Resize)
	rt.private(post, "/api/v1/ui/reset", u.Reset)
	rt.private(get, "/api/v1/ui/forms/{formId}", u.Form)
	rt.private(put, "/api/v1/ui/forms/{formId}/errors", u.SetFormErrors)
	rt.private(del, "/api/v1/ui/forms/{formId}/errors", u.ClearFormErrors)
	rt.private(put, "/api/v1/ui/forms/{formId}/errors/{field}", u.SetFieldError)
	rt.private(put, "/api/v1/ui/forms/{formId}/data", u.SetFormData)
	rt.private(del, "/api/v1/ui/forms/{formId}/data", u.ClearFormData)

	// Onboarding
	o := handlers.Onboarding
	rt.private(get, "/api/v1/onboarding/steps", o.Steps)
	rt.private(post, "/api/v1/onboarding", o.Start)
	rt.private(get, "/api/v1/onboarding/{id}", o.Get)
	rt.private(del, "/api/v1/onboarding/{id}", o.Discard)
	rt.private(post, "/api/v1/onboarding/{id}/answers", o.Answer)
	rt.private(post, "/api/v1/onboarding/{id}/back", o.Back)
	rt.private(post, "/api/v1/onboarding/{id}/complete", o.Complete)

	// Debug
	if handlers.Debug != nil {
		rt.private(get, "/api/v1/debug", handlers.Debug.Index)
		rt.private(post, "/api/v1/debug/clear-errors", handlers.Debug.ClearErrors)
		rt.private(post, "/api/v1/debug/commands/{name}", handlers.Debug.Command)
		rt.private(get, "/api/v1/debug/queries/{name}", handlers.Debug.Query)
	}

	return r
}
