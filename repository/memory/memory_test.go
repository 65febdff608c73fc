package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

func TestDocumentRepository_SaveVersionsAndKeepsOrder(t *testing.T) {
	repo := NewDocumentRepository()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Save(ctx, &domain.Document{ID: id, Kind: domain.KindBuyer, Payload: []byte(`{}`)}))
	}
	update := &domain.Document{ID: "c", Kind: domain.KindBuyer, OwnerID: "u1", Payload: []byte(`{"x":1}`)}
	require.NoError(t, repo.Save(ctx, update))
	assert.Equal(t, 2, update.Version)

	docs, err := repo.List(ctx, repository.DocumentFilter{Kind: domain.KindBuyer})
	require.NoError(t, err)
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	owned, err := repo.List(ctx, repository.DocumentFilter{OwnerID: "u1"})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.JSONEq(t, `{"x":1}`, string(owned[0].Payload))

	page, err := repo.List(ctx, repository.DocumentFilter{Kind: domain.KindBuyer, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].ID)

	empty, err := repo.List(ctx, repository.DocumentFilter{Kind: domain.KindBuyer, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocumentRepository_GetDeleteAndValidation(t *testing.T) {
	repo := NewDocumentRepository()
	ctx := context.Background()

	doc := &domain.Document{ID: "d1", Kind: domain.KindDeal, Payload: []byte(`{"title":"x"}`)}
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.Get(ctx, domain.KindDeal, "d1")
	require.NoError(t, err)
	got.Payload[0] = 'X'
	again, _ := repo.Get(ctx, domain.KindDeal, "d1")
	assert.Equal(t, byte('{'), again.Payload[0])

	require.NoError(t, repo.Delete(ctx, domain.KindDeal, "d1"))
	_, err = repo.Get(ctx, domain.KindDeal, "d1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, domain.KindDeal, "d1"), domain.ErrDocumentNotFound)

	assert.ErrorIs(t, repo.Save(ctx, &domain.Document{ID: "x"}), domain.ErrInvalidPayload)
}

func TestCollection_LoadAllPagesThroughEveryDocument(t *testing.T) {
	docs := NewDocumentRepository()
	coll := repository.NewCollection(docs, domain.KindMessage,
		func(m domain.Message) string { return m.ID },
		func(m domain.Message) string { return m.MatchID })
	ctx := context.Background()

	total := repository.MaxPageSize + 7
	for i := 0; i < total; i++ {
		require.NoError(t, coll.Save(ctx, domain.Message{ID: fmt.Sprintf("m%03d", i), MatchID: "match-1"}))
	}

	all, err := coll.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, total)
	assert.Equal(t, "m000", all[0].ID)
	assert.Equal(t, fmt.Sprintf("m%03d", total-1), all[total-1].ID)

	require.NoError(t, coll.RecordEvent(ctx, "m000", "message.read", map[string]string{"by": "u1"}, nil))
	events := docs.Events("m000")
	require.Len(t, events, 1)
	assert.Equal(t, "message.read", events[0].Name)
}

func TestSessionRepository_Expiry(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "old", CreatedAt: past, ExpiresAt: past.Add(time.Minute)}))
	_, err := repo.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "s1", UserID: "u1"}))
	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, time.Minute)

	require.NoError(t, repo.Extend(ctx, "s1", 60))
	got, _ = repo.Get(ctx, "s1")
	assert.WithinDuration(t, time.Now().Add(time.Minute), got.ExpiresAt, 5*time.Second)
	assert.ErrorIs(t, repo.Extend(ctx, "missing", 60), domain.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "s2", UserID: "u1"}))
	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "s3", UserID: "u2"}))
	revoked, err := repo.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)
	_, err = repo.Get(ctx, "s3")
	assert.NoError(t, err)
}

func TestUserAndPreferenceRepositories(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository()
	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "u1", Email: "Ana@Example.com"}))
	got, err := users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	prefs := NewPreferenceRepository()
	require.NoError(t, prefs.Set(ctx, "u1", repository.KeyTheme, "dark"))
	value, err := prefs.Get(ctx, "u1", repository.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", value)
	require.NoError(t, prefs.Clear(ctx, "u1"))
	_, err = prefs.Get(ctx, "u1", repository.KeyTheme)
	assert.ErrorIs(t, err, domain.ErrPreferenceMissing)
}
