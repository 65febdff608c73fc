package buyer

import (
	"context"
	"strings"
	"time"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/entity"
)

// Store holds buyer profiles.
type Store struct {
	*entity.Store[domain.Buyer, domain.BuyerFilters]
}

func New(repo entity.Repository[domain.Buyer], deps entity.Deps) *Store {
	return &Store{Store: entity.New(repo, entity.Options[domain.Buyer, domain.BuyerFilters]{
		Name:    "buyers",
		Prepare: prepare,
		Refresh: refresh,
		Match:   Matches,
		Buffer:  deps.Buffer,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	})}
}

func prepare(b *domain.Buyer, id string, now time.Time) {
	if b.ID == "" {
		b.ID = id
	}
	if b.Industries == nil {
		b.Industries = []string{}
	}
	b.VerifiedStatus = false
	b.ProfileCompleteness = b.Completeness()
	b.CreatedAt = now
	b.UpdatedAt = now
}

func refresh(b *domain.Buyer, now time.Time) {
	b.ProfileCompleteness = b.Completeness()
	b.UpdatedAt = now
}

// Matches applies the buyer filters and search term. Predicates combine with AND;
// industries match when any selected tag is present; the investment range
// matches on overlap.
func Matches(b domain.Buyer, f domain.BuyerFilters, search string) bool {
	if f.VerifiedOnly && !b.VerifiedStatus {
		return false
	}
	if f.RemoteOnly && !b.RemoteOK {
		return false
	}
	if !domain.AnyTag(b.Industries, f.Industries) {
		return false
	}
	if f.InvestmentRange != nil && !b.InvestmentRange().Overlaps(*f.InvestmentRange) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(b.Location), strings.ToLower(f.Location)) {
		return false
	}
	return domain.MatchesSearch(search, b.Name, b.Company, b.Bio, strings.Join(b.Industries, " "))
}

// ByUser returns the buyer profile owned by userID.
func (s *Store) ByUser(userID string) (domain.Buyer, bool) {
	found := s.Where(func(b domain.Buyer) bool { return b.UserID == userID })
	if len(found) == 0 {
		return domain.Buyer{}, false
	}
	return found[0], true
}

// Update merges a partial profile edit.
func (s *Store) Update(ctx context.Context, id string, patch domain.BuyerPatch) (*domain.Buyer, error) {
	return s.Store.Update(ctx, id, patch)
}

// Verify marks the buyer as verified.
func (s *Store) Verify(ctx context.Context, id string) (*domain.Buyer, error) {
	verified := true
	return s.Update(ctx, id, domain.BuyerPatch{VerifiedStatus: &verified})
}

// AddEndorsement appends an endorsement to the buyer's profile.
func (s *Store) AddEndorsement(ctx context.Context, id string, e domain.Endorsement) (*domain.Buyer, error) {
	if e.ID == "" {
		e.ID = entity.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return s.Store.Update(ctx, id, entity.PatchFunc[domain.Buyer](func(b *domain.Buyer) {
		b.Endorsements = append(append([]domain.Endorsement(nil), b.Endorsements...), e)
	}))
}
