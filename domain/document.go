package domain

import (
	"encoding/json"
	"time"
)

// Document kinds persisted by the store repositories.
const (
	KindBuyer        = "buyer"
	KindSeller       = "seller"
	KindMatch        = "match"
	KindDeal         = "deal"
	KindMessage      = "message"
	KindNotification = "notification"
)

// Document is the persisted envelope for every marketplace entity. The entity
// itself travels as JSON in Payload so that one table serves all stores.
type Document struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	OwnerID   string            `json:"owner_id,omitempty"`
	Version   int               `json:"version"`
	Payload   json.RawMessage   `json:"payload"`
	Labels    map[string]string `json:"labels,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (d *Document) Touch() {
	if d == nil {
		return
	}
	d.UpdatedAt = time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = d.UpdatedAt
	}
}

// Event represents a change applied to a document, e.g. a match status transition.
type Event struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Name       string            `json:"name"`
	Version    int               `json:"version"`
	Payload    json.RawMessage   `json:"payload"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
