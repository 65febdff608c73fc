package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

type userRepository struct {
	client *redislib.Client
}

// NewUserRepository stores user snapshots under dealease_user:<id> with an email index.
func NewUserRepository(client *redislib.Client) repository.UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	raw, err := r.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	now := time.Now()
	if existing, err := r.GetByID(ctx, user.ID); err == nil {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, userKey(user.ID), payload, 0)
	if user.Email != "" {
		pipe.Set(ctx, emailKey(user.Email), user.ID, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func userKey(id string) string {
	return repository.KeyUser + ":" + id
}

func emailKey(email string) string {
	return repository.KeyUser + ":email:" + strings.ToLower(email)
}
