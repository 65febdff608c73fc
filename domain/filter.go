package domain

import (
	"slices"
	"strings"
)

// Range is a closed numeric interval. A zero bound on a filter range means unbounded.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Overlaps reports whether r intersects the filter window f. Zero filter bounds are open.
func (r Range) Overlaps(f Range) bool {
	lo, hi := r.Min, r.Max
	if hi == 0 {
		hi = lo
	}
	if f.Max > 0 && lo > f.Max {
		return false
	}
	if f.Min > 0 && hi < f.Min {
		return false
	}
	return true
}

// BuyerFilters narrows the buyer listing. Predicates combine with AND.
type BuyerFilters struct {
	Industries      []string `json:"industries,omitempty"`
	InvestmentRange *Range   `json:"investment_range,omitempty"`
	Location        string   `json:"location,omitempty"`
	VerifiedOnly    bool     `json:"verified_only"`
	RemoteOnly      bool     `json:"remote_only"`
}

// SellerFilters narrows the seller listing. Predicates combine with AND.
type SellerFilters struct {
	Industries     []string `json:"industries,omitempty"`
	ValuationRange *Range   `json:"valuation_range,omitempty"`
	RevenueRange   *Range   `json:"revenue_range,omitempty"`
	Location       string   `json:"location,omitempty"`
	VerifiedOnly   bool     `json:"verified_only"`
	RemoteOnly     bool     `json:"remote_only"`
}

// MatchFilters narrows the match listing.
type MatchFilters struct {
	Status    MatchStatus `json:"status,omitempty"`
	DealStage DealStage   `json:"deal_stage,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
}

// DealFilters narrows the deal listing.
type DealFilters struct {
	Status   DealStatus `json:"status,omitempty"`
	BuyerID  string     `json:"buyer_id,omitempty"`
	SellerID string     `json:"seller_id,omitempty"`
}

// AnyTag reports whether have shares at least one tag with want, ignoring case.
// An empty want matches everything.
func AnyTag(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	return slices.ContainsFunc(want, func(w string) bool {
		return slices.ContainsFunc(have, func(h string) bool {
			return strings.EqualFold(h, w)
		})
	})
}

// MatchesSearch reports whether term occurs, case-insensitively, in any of the fields.
// A blank term matches everything.
func MatchesSearch(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
