package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
)

func newClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSessionRepository_SaveGetExtendDelete(t *testing.T) {
	client, mr := newClient(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	now := time.Now()
	session := &domain.Session{ID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, repo.Save(ctx, session))
	assert.True(t, mr.Exists("dealease_token:s1"))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, repo.Extend(ctx, "s1", 3600))
	assert.Equal(t, time.Hour, mr.TTL("dealease_token:s1"))

	mr.FastForward(2 * time.Hour)
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Extend(ctx, "s1", 60), domain.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "s2", UserID: "u2"}))
	require.NoError(t, repo.Delete(ctx, "s2"))
	_, err = repo.Get(ctx, "s2")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, repo.Save(ctx, &domain.Session{}), domain.ErrInvalidPayload)
}

func TestSessionRepository_DeleteByUser(t *testing.T) {
	client, mr := newClient(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	for _, s := range []domain.Session{{ID: "a", UserID: "u1"}, {ID: "b", UserID: "u1"}, {ID: "c", UserID: "u2"}} {
		session := s
		require.NoError(t, repo.Save(ctx, &session))
	}
	members, err := mr.SMembers("dealease_token:user:u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	require.NoError(t, repo.Delete(ctx, "b"))
	members, _ = mr.SMembers("dealease_token:user:u1")
	assert.Equal(t, []string{"a"}, members)

	revoked, err := repo.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)
	assert.False(t, mr.Exists("dealease_token:a"))
	assert.False(t, mr.Exists("dealease_token:user:u1"))
	assert.True(t, mr.Exists("dealease_token:c"))

	revoked, err = repo.DeleteByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, revoked)
}

func TestUserRepository_UpsertKeepsCreatedAt(t *testing.T) {
	client, _ := newClient(t)
	repo := NewUserRepository(client)
	ctx := context.Background()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: "u1", Email: "Ana@Example.com", Role: domain.RoleBuyer, CreatedAt: created}))

	got, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: "u1", Email: "ana@example.com", Role: domain.RoleSeller}))
	got, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, got.Role)
	assert.True(t, created.Equal(got.CreatedAt))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.Upsert(ctx, &domain.User{}), domain.ErrInvalidPayload)
}

func TestPreferenceRepository(t *testing.T) {
	client, mr := newClient(t)
	repo := NewPreferenceRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "u1", "dealease_theme", "dark"))
	require.NoError(t, repo.Set(ctx, "u1", "dealease_compact_mode", "true"))
	assert.Equal(t, "dark", mr.HGet("dealease:prefs:u1", "dealease_theme"))

	value, err := repo.Get(ctx, "u1", "dealease_theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)

	require.NoError(t, repo.Delete(ctx, "u1", "dealease_theme"))
	_, err = repo.Get(ctx, "u1", "dealease_theme")
	assert.ErrorIs(t, err, domain.ErrPreferenceMissing)

	require.NoError(t, repo.Clear(ctx, "u1"))
	_, err = repo.Get(ctx, "u1", "dealease_compact_mode")
	assert.ErrorIs(t, err, domain.ErrPreferenceMissing)
}
