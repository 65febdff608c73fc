package redis

import (
	"context"
	"errors"

	redislib "github.com/redis/go-redis/v9"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

type preferenceRepository struct {
	client *redislib.Client
	prefix string
}

// NewPreferenceRepository keeps one Redis hash per user.
func NewPreferenceRepository(client *redislib.Client) repository.PreferenceRepository {
	return &preferenceRepository{client: client, prefix: "dealease:prefs:"}
}

func (r *preferenceRepository) Get(ctx context.Context, userID, key string) (string, error) {
	value, err := r.client.HGet(ctx, r.prefix+userID, key).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", domain.ErrPreferenceMissing
		}
		return "", err
	}
	return value, nil
}

func (r *preferenceRepository) Set(ctx context.Context, userID, key, value string) error {
	return r.client.HSet(ctx, r.prefix+userID, key, value).Err()
}

func (r *preferenceRepository) Delete(ctx context.Context, userID, key string) error {
	return r.client.HDel(ctx, r.prefix+userID, key).Err()
}

func (r *preferenceRepository) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.prefix+userID).Err()
}
