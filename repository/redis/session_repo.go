package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

// sessionRepository keeps each session under dealease_token:<id> and the ids
// of a user's sessions in the set dealease_token:user:<userID>. The set may
// hold ids whose session already expired; readers tolerate that.
type sessionRepository struct {
	client *redislib.Client
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(client *redislib.Client, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return repository.KeyToken + ":" + id
}

func userSessionsKey(userID string) string {
	return repository.KeyToken + ":user:" + userID
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redislib.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt session "+id, err)
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}

	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}
	ttl := session.Remaining(now)
	if ttl <= 0 {
		ttl = r.ttl
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
		if session.UserID != "" {
			pipe.SAdd(ctx, userSessionsKey(session.UserID), session.ID)
		}
		return nil
	})
	return err
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		if session.UserID != "" {
			pipe.SRem(ctx, userSessionsKey(session.UserID), id)
		}
		return nil
	})
	return err
}

// DeleteByUser drops every live session of userID and its index set.
func (r *sessionRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}

	var removed *redislib.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		removed = pipe.Del(ctx, keys...)
		pipe.Del(ctx, userSessionsKey(userID))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed.Val()), nil
}

func (r *sessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	session.Extend(time.Now(), duration)

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	// The stored ExpiresAt and the key TTL move together.
	set, err := r.client.SetXX(ctx, sessionKey(id), payload, duration).Result()
	if err != nil {
		return err
	}
	if !set {
		return domain.ErrSessionNotFound
	}
	return nil
}
