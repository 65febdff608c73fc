package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a Postgres-backed DocumentRepository implementation.
func NewDocumentRepository(pool *pgxpool.Pool) repository.DocumentRepository {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) Get(ctx context.Context, kind, id string) (*domain.Document, error) {
	const query = `
	SELECT id, kind, owner_id, version, payload, labels, created_at, updated_at
	FROM documents
	WHERE kind = $1 AND id = $2
	`
	row := r.pool.QueryRow(ctx, query, kind, id)
	return scanDocument(row)
}

func (r *documentRepository) List(ctx context.Context, filter repository.DocumentFilter) ([]domain.Document, error) {
	const query = `
	SELECT id, kind, owner_id, version, payload, labels, created_at, updated_at
	FROM documents
	WHERE ($1 = '' OR kind = $1)
	  AND ($2 = '' OR owner_id = $2)
	ORDER BY seq ASC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.Kind, filter.OwnerID, repository.ClampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *documentRepository) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" || doc.Kind == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO documents (id, kind, owner_id, version, payload, labels, created_at, updated_at)
	VALUES ($1, $2, $3, 1, $4, $5, COALESCE($6, NOW()), NOW())
	ON CONFLICT (kind, id) DO UPDATE
	SET owner_id = EXCLUDED.owner_id,
		version = documents.version + 1,
		payload = EXCLUDED.payload,
		labels = EXCLUDED.labels,
		updated_at = NOW()
	RETURNING version, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		doc.ID,
		doc.Kind,
		doc.OwnerID,
		jsonPayload(doc.Payload),
		marshalMap(doc.Labels),
		nullTime(doc.CreatedAt),
	).Scan(&doc.Version, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *documentRepository) Delete(ctx context.Context, kind, id string) error {
	const query = `DELETE FROM documents WHERE kind = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, kind, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepository) AppendEvent(ctx context.Context, event domain.Event) error {
	const query = `
	INSERT INTO document_events (id, document_id, name, version, payload, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	`

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.DocumentID,
		event.Name,
		event.Version,
		jsonPayload(event.Payload),
		marshalMap(event.Metadata),
		nullTime(event.CreatedAt),
	)

	return err
}
