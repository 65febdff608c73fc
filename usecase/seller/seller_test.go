package seller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/entity"
)

func TestMatches(t *testing.T) {
	s := domain.Seller{
		ID:             "s1",
		Name:           "Morgan Diaz",
		BusinessName:   "Harbor Coffee Roasters",
		Description:    "Specialty coffee wholesale",
		Industries:     []string{"Food & Beverage", "Retail"},
		AskingPrice:    750000,
		ValuationMin:   600000,
		ValuationMax:   900000,
		AnnualRevenue:  1200000,
		RemoteOperable: false,
		VerifiedStatus: true,
		Location:       "Portland, OR",
	}

	tests := []struct {
		name    string
		filters domain.SellerFilters
		search  string
		want    bool
	}{
		{name: "empty", want: true},
		{name: "verified only", filters: domain.SellerFilters{VerifiedOnly: true}, want: true},
		{name: "remote only", filters: domain.SellerFilters{RemoteOnly: true}, want: false},
		{name: "industry any", filters: domain.SellerFilters{Industries: []string{"retail", "saas"}}, want: true},
		{name: "valuation overlap", filters: domain.SellerFilters{ValuationRange: &domain.Range{Min: 850000, Max: 2000000}}, want: true},
		{name: "valuation below", filters: domain.SellerFilters{ValuationRange: &domain.Range{Max: 500000}}, want: false},
		{name: "revenue falls back to annual", filters: domain.SellerFilters{RevenueRange: &domain.Range{Min: 1000000, Max: 1500000}}, want: true},
		{name: "revenue miss", filters: domain.SellerFilters{RevenueRange: &domain.Range{Min: 2000000}}, want: false},
		{name: "search business name", search: "harbor", want: true},
		{name: "search description", search: "WHOLESALE", want: true},
		{name: "search miss", search: "fintech", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(s, tt.filters, tt.search))
		})
	}
}

func TestStore_CRUD(t *testing.T) {
	store := New(nil, entity.Deps{})
	ctx := context.Background()

	added, err := store.Add(ctx, domain.Seller{Name: "Lee", BusinessName: "Lee's Auto", UserID: "u9"})
	require.NoError(t, err)
	assert.False(t, added.VerifiedStatus)
	assert.Greater(t, added.ProfileCompleteness, 0)

	price := 250000.0
	_, err = store.Update(ctx, added.ID, domain.SellerPatch{AskingPrice: &price})
	require.NoError(t, err)
	got, _ := store.ByUser("u9")
	assert.Equal(t, price, got.AskingPrice)
	assert.Equal(t, "Lee's Auto", got.BusinessName)

	require.NoError(t, store.Remove(ctx, added.ID))
	_, ok := store.GetByID(added.ID)
	assert.False(t, ok)
}
