package services

import (
	"context"
	"encoding/json"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/internal/infrastructure/buffer"
	"github.com/dealease/backend/usecase"
)

// Drain priority per document kind. Every operation on one document shares a
// priority so replay keeps their order.
var kindPriority = map[string]int{
	domain.KindMessage:      2,
	domain.KindMatch:        3,
	domain.KindDeal:         3,
	domain.KindBuyer:        3,
	domain.KindSeller:       3,
	domain.KindNotification: 4,
}

type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferDocument(ctx context.Context, operation string, doc *domain.Document) error {
	if b.processor == nil || doc == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	priority, ok := kindPriority[doc.Kind]
	if !ok {
		priority = 3
	}
	item := buffer.Item{
		OwnerID:   doc.OwnerID,
		Entity:    buffer.EntityDocument,
		Kind:      doc.Kind,
		Target:    buffer.DocumentTarget(doc.Kind, doc.ID),
		Operation: operation,
		Data:      payload,
		Priority:  priority,
	}
	return b.processor.BufferOperation(ctx, item)
}

func (b *BufferBridge) BufferUser(ctx context.Context, user *domain.User) error {
	if b.processor == nil || user == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	item := buffer.Item{
		OwnerID:   user.ID,
		Entity:    buffer.EntityUser,
		Target:    buffer.UserTarget(user.ID),
		Operation: buffer.OperationUpdate,
		Data:      payload,
		Priority:  1,
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
