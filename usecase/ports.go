package usecase

import (
	"context"

	"github.com/dealease/backend/domain"
)

// Buffered operation names.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the offline write buffer so stores stay storage-agnostic.
type OperationBuffer interface {
	BufferDocument(ctx context.Context, operation string, doc *domain.Document) error
}

// StoreMetrics receives per-operation outcomes from the stores.
type StoreMetrics interface {
	Observe(store, operation string, err error)
	SetSize(store string, size int)
}

type nopMetrics struct{}

func (nopMetrics) Observe(string, string, error) {}
func (nopMetrics) SetSize(string, int)           {}

// NopMetrics discards every observation.
var NopMetrics StoreMetrics = nopMetrics{}
