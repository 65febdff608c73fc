package handler

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/internal/middleware"
	"github.com/dealease/backend/pkg/httpcontext"
	"github.com/dealease/backend/usecase/deal"
	"github.com/dealease/backend/usecase/match"
)

type DealHandler struct {
	baseHandler
	deals   *deal.Store
	matches *match.Store
}

func NewDealHandler(deals *deal.Store, matches *match.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *DealHandler {
	return &DealHandler{
		baseHandler: newBaseHandler(adapter, logger),
		deals:       deals,
		matches:     matches,
	}
}

// @Summary List the caller's deals
// @Tags deals
// @Router /api/v1/deals [get]
func (h *DealHandler) List(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	filters := domain.DealFilters{Status: domain.DealStatus(query(ctx, "status"))}
	search := query(ctx, "q")
	respondListOf(h.baseHandler, ctx, h.deals.Where(func(d domain.AcquisitionDeal) bool {
		return (d.BuyerID == userID || d.SellerID == userID) && deal.Matches(d, filters, search)
	}))
}

// @Summary Open a deal, usually from a match
// @Tags deals
// @Router /api/v1/deals [post]
func (h *DealHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	var req domain.AcquisitionDeal
	if !h.decode(ctx, &req) {
		return
	}
	if req.MatchID != "" {
		m, ok := h.matches.GetByID(req.MatchID)
		if !ok {
			h.respondError(ctx, domain.ErrMatchNotFound)
			return
		}
		req.BuyerID, req.SellerID = m.BuyerID, m.SellerID
	}
	if req.BuyerID == "" || req.SellerID == "" || strings.TrimSpace(req.Title) == "" {
		h.respondInvalid(ctx, "buyer_id, seller_id and title are required")
		return
	}
	if userID != req.BuyerID && userID != req.SellerID {
		h.respondError(ctx, errNotParty)
		return
	}
	req.ID = ""

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.deals.Add(stdCtx, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get deal
// @Tags deals
// @Router /api/v1/deals/{id} [get]
func (h *DealHandler) Get(ctx *fasthttp.RequestCtx) {
	d, ok := h.party(ctx)
	if !ok {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, d)
}

// @Summary Update deal
// @Tags deals
// @Router /api/v1/deals/{id} [patch]
func (h *DealHandler) Update(ctx *fasthttp.RequestCtx) {
	d, ok := h.party(ctx)
	if !ok {
		return
	}
	var patch domain.DealPatch
	if !h.decode(ctx, &patch) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.deals.Update(stdCtx, d.ID, patch)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrDealNotFound)
}

// @Summary Change a stage status
// @Tags deals
// @Router /api/v1/deals/{id}/stages/{stageId}/status [put]
func (h *DealHandler) UpdateStageStatus(ctx *fasthttp.RequestCtx) {
	d, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.StageStatusRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.deals.UpdateStageStatus(stdCtx, d.ID, param(ctx, "stageId"), req.Status)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrDealNotFound)
}

// @Summary Add a checklist item to a stage
// @Tags deals
// @Router /api/v1/deals/{id}/stages/{stageId}/checklist [post]
func (h *DealHandler) AddChecklistItem(ctx *fasthttp.RequestCtx) {
	d, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.ChecklistItemRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.deals.AddChecklistItem(stdCtx, d.ID, param(ctx, "stageId"), domain.ChecklistItem{Title: req.Title})
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrDealNotFound)
}

// @Summary Tick or untick a checklist item
// @Tags deals
// @Router /api/v1/deals/{id}/stages/{stageId}/checklist/{itemId} [put]
func (h *DealHandler) SetChecklistItem(ctx *fasthttp.RequestCtx) {
	d, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.ChecklistItemRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.deals.SetChecklistItem(stdCtx, d.ID, param(ctx, "stageId"), param(ctx, "itemId"), req.Completed)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrDealNotFound)
}

// @Summary Attach a document to a stage
// @Tags deals
// @Router /api/v1/deals/{id}/stages/{stageId}/documents [post]
func (h *DealHandler) AddDocument(ctx *fasthttp.RequestCtx) {
	d, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.DealDocumentRequest
	if !h.decode(ctx, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.URL) == "" {
		h.respondInvalid(ctx, "name and url are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.deals.AddDocument(stdCtx, d.ID, param(ctx, "stageId"), domain.DealDocument{
		Name:       req.Name,
		URL:        req.URL,
		UploadedBy: string(ctx.Request.Header.Peek(middleware.HeaderUserID)),
	})
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrDealNotFound)
}

// @Summary Comment on a stage
// @Tags deals
// @Router /api/v1/deals/{id}/stages/{stageId}/comments [post]
func (h *DealHandler) AddComment(ctx *fasthttp.RequestCtx) {
	d, ok := h.party(ctx)
	if !ok {
		return
	}
	var req transport.DealCommentRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.deals.AddComment(stdCtx, d.ID, param(ctx, "stageId"), domain.DealComment{
		AuthorID: string(ctx.Request.Header.Peek(middleware.HeaderUserID)),
		Content:  req.Content,
	})
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrDealNotFound)
}

func (h *DealHandler) party(ctx *fasthttp.RequestCtx) (domain.AcquisitionDeal, bool) {
	userID := h.caller(ctx)
	if userID == "" {
		return domain.AcquisitionDeal{}, false
	}
	d, ok := h.deals.GetByID(param(ctx, "id"))
	if !ok {
		h.respondError(ctx, domain.ErrDealNotFound)
		return domain.AcquisitionDeal{}, false
	}
	if d.BuyerID != userID && d.SellerID != userID {
		h.respondError(ctx, errNotParty)
		return domain.AcquisitionDeal{}, false
	}
	return d, true
}
