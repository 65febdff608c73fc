package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

type storedDocument struct {
	seq uint64
	doc domain.Document
}

// DocumentRepository keeps documents in process memory. It backs demo mode and tests.
type DocumentRepository struct {
	mu     sync.RWMutex
	seq    uint64
	docs   map[string]map[string]storedDocument
	events []domain.Event
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{docs: make(map[string]map[string]storedDocument)}
}

var _ repository.DocumentRepository = (*DocumentRepository)(nil)

func (r *DocumentRepository) Get(_ context.Context, kind, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.docs[kind][id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	doc := cloneDocument(stored.doc)
	return &doc, nil
}

func (r *DocumentRepository) List(_ context.Context, filter repository.DocumentFilter) ([]domain.Document, error) {
	r.mu.RLock()
	var matched []storedDocument
	for kind, bucket := range r.docs {
		if filter.Kind != "" && kind != filter.Kind {
			continue
		}
		for _, stored := range bucket {
			if filter.OwnerID != "" && stored.doc.OwnerID != filter.OwnerID {
				continue
			}
			matched = append(matched, stored)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b storedDocument) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[max(filter.Offset, 0):]
	if limit := repository.ClampLimit(filter.Limit); len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]domain.Document, 0, len(matched))
	for _, stored := range matched {
		out = append(out, cloneDocument(stored.doc))
	}
	return out, nil
}

func (r *DocumentRepository) Save(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" || doc.Kind == "" {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.docs[doc.Kind]
	if !ok {
		bucket = make(map[string]storedDocument)
		r.docs[doc.Kind] = bucket
	}

	now := time.Now()
	stored, exists := bucket[doc.ID]
	if exists {
		doc.CreatedAt = stored.doc.CreatedAt
		doc.Version = stored.doc.Version + 1
	} else {
		r.seq++
		stored.seq = r.seq
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		doc.Version = 1
	}
	doc.UpdatedAt = now
	stored.doc = cloneDocument(*doc)
	bucket[doc.ID] = stored
	return nil
}

func (r *DocumentRepository) Delete(_ context.Context, kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[kind][id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.docs[kind], id)
	return nil
}

func (r *DocumentRepository) AppendEvent(_ context.Context, event domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns the events recorded for a document, oldest first.
func (r *DocumentRepository) Events(documentID string) []domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out
}

func cloneDocument(doc domain.Document) domain.Document {
	doc.Payload = append([]byte(nil), doc.Payload...)
	if doc.Labels != nil {
		labels := make(map[string]string, len(doc.Labels))
		for k, v := range doc.Labels {
			labels[k] = v
		}
		doc.Labels = labels
	}
	return doc
}
