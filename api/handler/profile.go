package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/pkg/httpcontext"
	"github.com/dealease/backend/usecase/buyer"
	"github.com/dealease/backend/usecase/seller"
)

type ProfileHandler struct {
	baseHandler
	buyers  *buyer.Store
	sellers *seller.Store
}

func NewProfileHandler(buyers *buyer.Store, sellers *seller.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		buyers:      buyers,
		sellers:     sellers,
	}
}

// @Summary List buyers matching the query filters
// @Tags buyers
// @Router /api/v1/buyers [get]
func (h *ProfileHandler) ListBuyers(ctx *fasthttp.RequestCtx) {
	filters := domain.BuyerFilters{
		Industries:   queryList(ctx, "industries"),
		Location:     query(ctx, "location"),
		VerifiedOnly: queryBool(ctx, "verified"),
		RemoteOnly:   queryBool(ctx, "remote"),
	}
	filters.InvestmentRange = queryRange(ctx, "min_investment", "max_investment")
	search := query(ctx, "q")
	respondListOf(h.baseHandler, ctx, h.buyers.Where(func(b domain.Buyer) bool {
		return buyer.Matches(b, filters, search)
	}))
}

// @Summary Buyers under the stored filter state
// @Tags buyers
// @Router /api/v1/buyers/filtered [get]
func (h *ProfileHandler) FilteredBuyers(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, transport.FilterState[domain.BuyerFilters, domain.Buyer]{
		Filters: h.buyers.Filters(),
		Search:  h.buyers.Search(),
		Items:   h.buyers.Filtered(),
	})
}

// @Summary Replace the stored buyer filters
// @Tags buyers
// @Router /api/v1/buyers/filters [put]
func (h *ProfileHandler) SetBuyerFilters(ctx *fasthttp.RequestCtx) {
	var req transport.FilterRequest[domain.BuyerFilters]
	if !h.decode(ctx, &req) {
		return
	}
	h.buyers.SetFilters(req.Filters)
	h.buyers.SetSearch(req.Search)
	h.FilteredBuyers(ctx)
}

// @Summary Clear the stored buyer filters
// @Tags buyers
// @Router /api/v1/buyers/filters [delete]
func (h *ProfileHandler) ClearBuyerFilters(ctx *fasthttp.RequestCtx) {
	h.buyers.ClearFilters()
	h.FilteredBuyers(ctx)
}

// @Summary Get buyer
// @Tags buyers
// @Router /api/v1/buyers/{id} [get]
func (h *ProfileHandler) GetBuyer(ctx *fasthttp.RequestCtx) {
	b, ok := h.buyers.GetByID(param(ctx, "id"))
	if !ok {
		h.respondError(ctx, domain.ErrBuyerNotFound)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, b)
}

// @Summary Create the caller's buyer profile
// @Tags buyers
// @Router /api/v1/buyers [post]
func (h *ProfileHandler) CreateBuyer(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	var req domain.Buyer
	if !h.decode(ctx, &req) {
		return
	}
	if _, exists := h.buyers.ByUser(userID); exists {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeConflict, "buyer profile already exists", fmt.Errorf("user %s", userID)))
		return
	}
	req.ID = ""
	req.UserID = userID
	if strings.TrimSpace(req.Name) == "" {
		h.respondInvalid(ctx, "name is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.buyers.Add(stdCtx, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update buyer
// @Tags buyers
// @Router /api/v1/buyers/{id} [patch]
func (h *ProfileHandler) UpdateBuyer(ctx *fasthttp.RequestCtx) {
	b, ok := h.ownedBuyer(ctx)
	if !ok {
		return
	}
	var patch domain.BuyerPatch
	if !h.decode(ctx, &patch) {
		return
	}
	// Verification is granted, never self-assigned.
	patch.VerifiedStatus = nil

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.buyers.Update(stdCtx, b.ID, patch)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrBuyerNotFound)
}

// @Summary Delete buyer
// @Tags buyers
// @Router /api/v1/buyers/{id} [delete]
func (h *ProfileHandler) DeleteBuyer(ctx *fasthttp.RequestCtx) {
	b, ok := h.ownedBuyer(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.buyers.Remove(stdCtx, b.ID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"deleted": b.ID})
}

// @Summary Mark buyer as verified
// @Tags buyers
// @Router /api/v1/buyers/{id}/verify [post]
func (h *ProfileHandler) VerifyBuyer(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.buyers.Verify(stdCtx, param(ctx, "id"))
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrBuyerNotFound)
}

// @Summary Endorse a buyer
// @Tags buyers
// @Router /api/v1/buyers/{id}/endorsements [post]
func (h *ProfileHandler) EndorseBuyer(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	var e domain.Endorsement
	if !h.decode(ctx, &e) {
		return
	}
	if strings.TrimSpace(e.Skill) == "" {
		h.respondInvalid(ctx, "skill is required")
		return
	}
	e.ID = ""
	e.FromUserID = userID

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.buyers.AddEndorsement(stdCtx, param(ctx, "id"), e)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrBuyerNotFound)
}

// @Summary List sellers matching the query filters
// @Tags sellers
// @Router /api/v1/sellers [get]
func (h *ProfileHandler) ListSellers(ctx *fasthttp.RequestCtx) {
	filters := domain.SellerFilters{
		Industries:   queryList(ctx, "industries"),
		Location:     query(ctx, "location"),
		VerifiedOnly: queryBool(ctx, "verified"),
		RemoteOnly:   queryBool(ctx, "remote"),
	}
	filters.ValuationRange = queryRange(ctx, "min_valuation", "max_valuation")
	filters.RevenueRange = queryRange(ctx, "min_revenue", "max_revenue")
	search := query(ctx, "q")
	respondListOf(h.baseHandler, ctx, h.sellers.Where(func(s domain.Seller) bool {
		return seller.Matches(s, filters, search)
	}))
}

// @Summary Sellers under the stored filter state
// @Tags sellers
// @Router /api/v1/sellers/filtered [get]
func (h *ProfileHandler) FilteredSellers(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, transport.FilterState[domain.SellerFilters, domain.Seller]{
		Filters: h.sellers.Filters(),
		Search:  h.sellers.Search(),
		Items:   h.sellers.Filtered(),
	})
}

// @Summary Replace the stored seller filters
// @Tags sellers
// @Router /api/v1/sellers/filters [put]
func (h *ProfileHandler) SetSellerFilters(ctx *fasthttp.RequestCtx) {
	var req transport.FilterRequest[domain.SellerFilters]
	if !h.decode(ctx, &req) {
		return
	}
	h.sellers.SetFilters(req.Filters)
	h.sellers.SetSearch(req.Search)
	h.FilteredSellers(ctx)
}

// @Summary Clear the stored seller filters
// @Tags sellers
// @Router /api/v1/sellers/filters [delete]
func (h *ProfileHandler) ClearSellerFilters(ctx *fasthttp.RequestCtx) {
	h.sellers.ClearFilters()
	h.FilteredSellers(ctx)
}

// @Summary Get seller
// @Tags sellers
// @Router /api/v1/sellers/{id} [get]
func (h *ProfileHandler) GetSeller(ctx *fasthttp.RequestCtx) {
	s, ok := h.sellers.GetByID(param(ctx, "id"))
	if !ok {
		h.respondError(ctx, domain.ErrSellerNotFound)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, s)
}

// @Summary Create the caller's seller profile
// @Tags sellers
// @Router /api/v1/sellers [post]
func (h *ProfileHandler) CreateSeller(ctx *fasthttp.RequestCtx) {
	userID := h.caller(ctx)
	if userID == "" {
		return
	}
	var req domain.Seller
	if !h.decode(ctx, &req) {
		return
	}
	if _, exists := h.sellers.ByUser(userID); exists {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeConflict, "seller profile already exists", fmt.Errorf("user %s", userID)))
		return
	}
	req.ID = ""
	req.UserID = userID
	if strings.TrimSpace(req.BusinessName) == "" {
		h.respondInvalid(ctx, "business_name is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.sellers.Add(stdCtx, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update seller
// @Tags sellers
// @Router /api/v1/sellers/{id} [patch]
func (h *ProfileHandler) UpdateSeller(ctx *fasthttp.RequestCtx) {
	s, ok := h.ownedSeller(ctx)
	if !ok {
		return
	}
	var patch domain.SellerPatch
	if !h.decode(ctx, &patch) {
		return
	}
	patch.VerifiedStatus = nil

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.sellers.Update(stdCtx, s.ID, patch)
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrSellerNotFound)
}

// @Summary Delete seller
// @Tags sellers
// @Router /api/v1/sellers/{id} [delete]
func (h *ProfileHandler) DeleteSeller(ctx *fasthttp.RequestCtx) {
	s, ok := h.ownedSeller(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.sellers.Remove(stdCtx, s.ID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"deleted": s.ID})
}

// @Summary Mark seller as verified
// @Tags sellers
// @Router /api/v1/sellers/{id}/verify [post]
func (h *ProfileHandler) VerifySeller(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.sellers.Verify(stdCtx, param(ctx, "id"))
	respondUpdated(h.baseHandler, ctx, updated, err, domain.ErrSellerNotFound)
}

func (h *ProfileHandler) ownedBuyer(ctx *fasthttp.RequestCtx) (domain.Buyer, bool) {
	userID := h.caller(ctx)
	if userID == "" {
		return domain.Buyer{}, false
	}
	b, ok := h.buyers.GetByID(param(ctx, "id"))
	if !ok {
		h.respondError(ctx, domain.ErrBuyerNotFound)
		return domain.Buyer{}, false
	}
	if b.UserID != userID {
		h.respondError(ctx, errNotOwner)
		return domain.Buyer{}, false
	}
	return b, true
}

func (h *ProfileHandler) ownedSeller(ctx *fasthttp.RequestCtx) (domain.Seller, bool) {
	userID := h.caller(ctx)
	if userID == "" {
		return domain.Seller{}, false
	}
	s, ok := h.sellers.GetByID(param(ctx, "id"))
	if !ok {
		h.respondError(ctx, domain.ErrSellerNotFound)
		return domain.Seller{}, false
	}
	if s.UserID != userID {
		h.respondError(ctx, errNotOwner)
		return domain.Seller{}, false
	}
	return s, true
}
