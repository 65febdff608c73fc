package buyer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/repository/memory"
	"github.com/dealease/backend/usecase/entity"
)

func newStore(t *testing.T) (*Store, *repository.Collection[domain.Buyer]) {
	t.Helper()
	coll := repository.NewCollection(memory.NewDocumentRepository(), domain.KindBuyer,
		func(b domain.Buyer) string { return b.ID },
		func(b domain.Buyer) string { return b.UserID })
	return New(coll, entity.Deps{}), coll
}

func ids(buyers []domain.Buyer) []string {
	out := []string{}
	for _, b := range buyers {
		out = append(out, b.ID)
	}
	return out
}

func TestStore_VerifiedOnlyScenario(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Add(context.Background(), domain.Buyer{
		ID:                 "b1",
		Name:               "Avery Holt",
		InvestmentRangeMin: 100000,
		InvestmentRangeMax: 500000,
		Industries:         []string{"Technology"},
	})
	require.NoError(t, err)

	store.SetFilters(domain.BuyerFilters{Industries: []string{"Technology"}, VerifiedOnly: false})
	assert.Equal(t, []string{"b1"}, ids(store.Filtered()))

	b1, _ := store.GetByID("b1")
	require.False(t, b1.VerifiedStatus)
	store.SetFilters(domain.BuyerFilters{Industries: []string{"Technology"}, VerifiedOnly: true})
	assert.Empty(t, store.Filtered())
}

func TestMatches(t *testing.T) {
	base := domain.Buyer{
		ID:                 "b1",
		Name:               "Jordan Lee",
		Company:            "Northwind Capital",
		Bio:                "Operator turned acquirer",
		Location:           "Austin, TX",
		Industries:         []string{"Healthcare", "SaaS"},
		InvestmentRangeMin: 50000,
		InvestmentRangeMax: 200000,
	}

	tests := []struct {
		name    string
		buyer   func(domain.Buyer) domain.Buyer
		filters domain.BuyerFilters
		search  string
		want    bool
	}{
		{name: "empty filters", want: true},
		{name: "any tag", filters: domain.BuyerFilters{Industries: []string{"SaaS", "Retail"}}, want: true},
		{name: "no shared tag", filters: domain.BuyerFilters{Industries: []string{"Retail"}}, want: false},
		{name: "range overlap", filters: domain.BuyerFilters{InvestmentRange: &domain.Range{Min: 100000, Max: 500000}}, want: true},
		{name: "range disjoint", filters: domain.BuyerFilters{InvestmentRange: &domain.Range{Min: 300000, Max: 500000}}, want: false},
		{name: "open upper bound", filters: domain.BuyerFilters{InvestmentRange: &domain.Range{Min: 150000}}, want: true},
		{name: "remote only", filters: domain.BuyerFilters{RemoteOnly: true}, want: false},
		{
			name:    "remote only with remote buyer",
			buyer:   func(b domain.Buyer) domain.Buyer { b.RemoteOK = true; return b },
			filters: domain.BuyerFilters{RemoteOnly: true},
			want:    true,
		},
		{name: "location", filters: domain.BuyerFilters{Location: "austin"}, want: true},
		{name: "search company", search: "NORTHWIND", want: true},
		{name: "search bio", search: "operator", want: true},
		{name: "search industry", search: "health", want: true},
		{name: "search miss", search: "plumbing", want: false},
		{
			name:    "filters are and-ed",
			filters: domain.BuyerFilters{Industries: []string{"SaaS"}, InvestmentRange: &domain.Range{Min: 900000}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base
			if tt.buyer != nil {
				b = tt.buyer(b)
			}
			assert.Equal(t, tt.want, Matches(b, tt.filters, tt.search))
		})
	}
}

func TestStore_AddInjectsDefaults(t *testing.T) {
	store, coll := newStore(t)
	added, err := store.Add(context.Background(), domain.Buyer{
		Name:           "Sam Ortiz",
		Email:          "sam@example.com",
		VerifiedStatus: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, added.ID)
	assert.False(t, added.VerifiedStatus)
	assert.Equal(t, 20, added.ProfileCompleteness)

	got, ok := store.GetByID(added.ID)
	require.True(t, ok)
	assert.Equal(t, added, got)

	persisted, err := coll.Get(context.Background(), added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.Name, persisted.Name)
}

func TestStore_UpdateRecomputesCompleteness(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	added, err := store.Add(ctx, domain.Buyer{Name: "Sam", Industries: []string{"Retail"}})
	require.NoError(t, err)

	bio := "Looking for a profitable bakery"
	updated, err := store.Update(ctx, added.ID, domain.BuyerPatch{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, updated)

	got, _ := store.GetByID(added.ID)
	assert.Equal(t, bio, got.Bio)
	assert.Equal(t, "Sam", got.Name)
	assert.Equal(t, []string{"Retail"}, got.Industries)
	assert.Equal(t, 30, got.ProfileCompleteness)
}

func TestStore_LoadReadsPersisted(t *testing.T) {
	store, coll := newStore(t)
	ctx := context.Background()
	require.NoError(t, coll.Save(ctx, domain.Buyer{ID: "b1", Name: "One"}))
	require.NoError(t, coll.Save(ctx, domain.Buyer{ID: "b2", Name: "Two"}))

	require.NoError(t, store.Load(ctx))
	assert.Equal(t, []string{"b1", "b2"}, ids(store.All()))
}

func TestStore_VerifyAndEndorse(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	added, _ := store.Add(ctx, domain.Buyer{Name: "Kai", UserID: "u1"})

	_, err := store.Verify(ctx, added.ID)
	require.NoError(t, err)
	_, err = store.AddEndorsement(ctx, added.ID, domain.Endorsement{FromName: "Riley", Skill: "Operations"})
	require.NoError(t, err)

	got, ok := store.ByUser("u1")
	require.True(t, ok)
	assert.True(t, got.VerifiedStatus)
	require.Len(t, got.Endorsements, 1)
	assert.NotEmpty(t, got.Endorsements[0].ID)
}
