package repository

import (
	"context"

	"github.com/dealease/backend/domain"
)

type DocumentFilter struct {
	Kind    string
	OwnerID string
	Limit   int
	Offset  int
}

// DocumentRepository persists every marketplace entity as a JSON document.
// List returns documents in creation order.
type DocumentRepository interface {
	Get(ctx context.Context, kind, id string) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, kind, id string) error
	AppendEvent(ctx context.Context, event domain.Event) error
}

// MaxPageSize bounds a single List call.
const MaxPageSize = 100

func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
