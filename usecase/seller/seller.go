package seller

import (
	"context"
	"strings"
	"time"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/entity"
)

// Store holds seller profiles.
type Store struct {
	*entity.Store[domain.Seller, domain.SellerFilters]
}

func New(repo entity.Repository[domain.Seller], deps entity.Deps) *Store {
	return &Store{Store: entity.New(repo, entity.Options[domain.Seller, domain.SellerFilters]{
		Name:    "sellers",
		Prepare: prepare,
		Refresh: refresh,
		Match:   Matches,
		Buffer:  deps.Buffer,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	})}
}

func prepare(s *domain.Seller, id string, now time.Time) {
	if s.ID == "" {
		s.ID = id
	}
	if s.Industries == nil {
		s.Industries = []string{}
	}
	s.VerifiedStatus = false
	s.ProfileCompleteness = s.Completeness()
	s.CreatedAt = now
	s.UpdatedAt = now
}

func refresh(s *domain.Seller, now time.Time) {
	s.ProfileCompleteness = s.Completeness()
	s.UpdatedAt = now
}

// Matches applies the seller filters and search term.
func Matches(s domain.Seller, f domain.SellerFilters, search string) bool {
	if f.VerifiedOnly && !s.VerifiedStatus {
		return false
	}
	if f.RemoteOnly && !s.RemoteOperable {
		return false
	}
	if !domain.AnyTag(s.Industries, f.Industries) {
		return false
	}
	if f.ValuationRange != nil && !s.ValuationRange().Overlaps(*f.ValuationRange) {
		return false
	}
	if f.RevenueRange != nil && !s.RevenueRange().Overlaps(*f.RevenueRange) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(s.Location), strings.ToLower(f.Location)) {
		return false
	}
	return domain.MatchesSearch(search, s.Name, s.BusinessName, s.Description, strings.Join(s.Industries, " "))
}

// ByUser returns the seller profile owned by userID.
func (s *Store) ByUser(userID string) (domain.Seller, bool) {
	found := s.Where(func(item domain.Seller) bool { return item.UserID == userID })
	if len(found) == 0 {
		return domain.Seller{}, false
	}
	return found[0], true
}

// Update merges a partial profile edit.
func (s *Store) Update(ctx context.Context, id string, patch domain.SellerPatch) (*domain.Seller, error) {
	return s.Store.Update(ctx, id, patch)
}

// Verify marks the seller as verified.
func (s *Store) Verify(ctx context.Context, id string) (*domain.Seller, error) {
	verified := true
	return s.Update(ctx, id, domain.SellerPatch{VerifiedStatus: &verified})
}
