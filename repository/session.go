package repository

import (
	"context"

	"github.com/dealease/backend/domain"
)

// SessionRepository stores login sessions. Get reports ErrSessionNotFound for
// unknown and expired sessions alike; Extend with ttlSeconds <= 0 applies the
// repository default lifetime. DeleteByUser returns how many live sessions it
// revoked.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
	Extend(ctx context.Context, id string, ttlSeconds int) error
}
