package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dealease/backend/domain"
)

// Collection is a typed view over one document kind.
type Collection[T any] struct {
	docs  DocumentRepository
	kind  string
	id    func(T) string
	owner func(T) string
}

// NewCollection binds a document kind to an entity type. owner may be nil.
func NewCollection[T any](docs DocumentRepository, kind string, id func(T) string, owner func(T) string) *Collection[T] {
	return &Collection[T]{docs: docs, kind: kind, id: id, owner: owner}
}

func (c *Collection[T]) Kind() string { return c.kind }

// LoadAll pages through every document of the collection's kind.
func (c *Collection[T]) LoadAll(ctx context.Context) ([]T, error) {
	var (
		out    []T
		offset int
	)
	for {
		page, err := c.docs.List(ctx, DocumentFilter{Kind: c.kind, Limit: MaxPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, doc := range page {
			var item T
			if err := json.Unmarshal(doc.Payload, &item); err != nil {
				return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt "+c.kind+" document "+doc.ID, err)
			}
			out = append(out, item)
		}
		if len(page) < MaxPageSize {
			return out, nil
		}
		offset += len(page)
	}
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	doc, err := c.docs.Get(ctx, c.kind, id)
	if err != nil {
		return item, err
	}
	err = json.Unmarshal(doc.Payload, &item)
	return item, err
}

func (c *Collection[T]) Save(ctx context.Context, item T) error {
	doc, err := c.Encode(item)
	if err != nil {
		return err
	}
	return c.docs.Save(ctx, doc)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.docs.Delete(ctx, c.kind, id)
}

// Encode wraps item in its persistence envelope.
func (c *Collection[T]) Encode(item T) (*domain.Document, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	doc := &domain.Document{
		ID:      c.id(item),
		Kind:    c.kind,
		Payload: payload,
	}
	if doc.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if c.owner != nil {
		doc.OwnerID = c.owner(item)
	}
	return doc, nil
}

// RecordEvent appends an event against a document of this collection.
func (c *Collection[T]) RecordEvent(ctx context.Context, id, name string, payload any, metadata map[string]string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.docs.AppendEvent(ctx, domain.Event{
		DocumentID: id,
		Name:       name,
		Payload:    raw,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	})
}
