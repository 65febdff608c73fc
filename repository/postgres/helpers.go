package postgres

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dealease/backend/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument reads the documents column list used by every SELECT.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc     domain.Document
		payload []byte
		labels  []byte
	)
	if err := row.Scan(
		&doc.ID,
		&doc.Kind,
		&doc.OwnerID,
		&doc.Version,
		&payload,
		&labels,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}

	doc.Payload = append(json.RawMessage(nil), payload...)
	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &doc.Labels); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt labels on "+doc.Kind+" "+doc.ID, err)
		}
	}
	return &doc, nil
}

// jsonPayload maps an empty payload to the JSON null literal so JSONB
// columns never receive an empty string.
func jsonPayload(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}

func marshalMap(data map[string]string) []byte {
	if len(data) == 0 {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return b
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
