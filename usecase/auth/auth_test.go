package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/repository/memory"
)

type dropRecorder struct{ dropped []string }

func (d *dropRecorder) Drop(userID string) { d.dropped = append(d.dropped, userID) }

func newUseCase() (*UseCase, *memory.PreferenceRepository, *dropRecorder) {
	prefs := memory.NewPreferenceRepository()
	ui := &dropRecorder{}
	uc := New(
		memory.NewUserRepository(),
		memory.NewSessionRepository(time.Hour),
		prefs,
		ui,
		Config{Secret: "test-secret", Issuer: "dealease-test", SessionTTL: time.Hour},
		nil,
	)
	return uc, prefs, ui
}

func TestUseCase_LoginCreatesUserSessionAndToken(t *testing.T) {
	uc, prefs, _ := newUseCase()
	ctx := context.Background()

	res, err := uc.Login(ctx, "  Jamie.Lee@Example.com ", domain.RoleBuyer)
	require.NoError(t, err)
	assert.Equal(t, "jamie.lee@example.com", res.User.Email)
	assert.Equal(t, "Jamie Lee", res.User.Name)
	assert.Equal(t, domain.RoleBuyer, res.User.Role)
	assert.True(t, res.User.IsActive())

	token, err := jwt.Parse(res.Token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, res.User.ID, claims[ClaimUserID])
	assert.Equal(t, res.Session.ID, claims[ClaimSessionID])

	stored, err := prefs.Get(ctx, res.User.ID, repository.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, stored)

	raw, err := prefs.Get(ctx, res.User.ID, repository.KeyUser)
	require.NoError(t, err)
	var snapshot domain.User
	require.NoError(t, json.Unmarshal([]byte(raw), &snapshot))
	assert.Equal(t, res.User.ID, snapshot.ID)

	again, err := uc.Login(ctx, "jamie.lee@example.com", domain.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
	assert.Equal(t, domain.RoleSeller, again.User.Role)
	assert.NotEqual(t, res.Session.ID, again.Session.ID)
}

func TestUseCase_LoginValidates(t *testing.T) {
	uc, _, _ := newUseCase()
	_, err := uc.Login(context.Background(), "not-an-email", domain.RoleBuyer)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	_, err = uc.Login(context.Background(), "a@b.co", "admin")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestUseCase_Logout(t *testing.T) {
	uc, prefs, ui := newUseCase()
	ctx := context.Background()
	res, err := uc.Login(ctx, "kim@example.com", domain.RoleSeller)
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, res.Session.ID))

	_, err = uc.GetSession(ctx, res.Session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = prefs.Get(ctx, res.User.ID, repository.KeyToken)
	assert.ErrorIs(t, err, domain.ErrPreferenceMissing)
	assert.Equal(t, []string{res.User.ID}, ui.dropped)

	assert.ErrorIs(t, uc.Logout(ctx, res.Session.ID), domain.ErrSessionNotFound)
}

func TestUseCase_LogoutEverywhere(t *testing.T) {
	uc, _, ui := newUseCase()
	ctx := context.Background()
	first, err := uc.Login(ctx, "kim@example.com", domain.RoleSeller)
	require.NoError(t, err)
	second, err := uc.Login(ctx, "kim@example.com", domain.RoleSeller)
	require.NoError(t, err)
	other, err := uc.Login(ctx, "lee@example.com", domain.RoleBuyer)
	require.NoError(t, err)

	revoked, err := uc.LogoutEverywhere(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)
	for _, id := range []string{first.Session.ID, second.Session.ID} {
		_, err = uc.GetSession(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	}
	_, err = uc.GetSession(ctx, other.Session.ID)
	assert.NoError(t, err)
	assert.Contains(t, ui.dropped, first.User.ID)

	_, err = uc.LogoutEverywhere(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUseCase_MarkOnboarded(t *testing.T) {
	uc, _, _ := newUseCase()
	ctx := context.Background()
	res, err := uc.Login(ctx, "kim@example.com", domain.RoleSeller)
	require.NoError(t, err)

	user, err := uc.MarkOnboarded(ctx, res.User.ID, "s-42")
	require.NoError(t, err)
	assert.True(t, user.IsOnboarded)

	current, err := uc.CurrentUser(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "s-42", current.ProfileID)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", displayName("ada@example.com"))
	assert.Equal(t, "Mary Jane Doe", displayName("mary_jane-doe@example.com"))
}

type flakyUsers struct {
	*memory.UserRepository
	down bool
}

func (f *flakyUsers) Upsert(ctx context.Context, user *domain.User) error {
	if f.down {
		return errors.New("user store unavailable")
	}
	return f.UserRepository.Upsert(ctx, user)
}

type userBuffer struct{ users []string }

func (b *userBuffer) BufferUser(_ context.Context, user *domain.User) error {
	b.users = append(b.users, user.ID)
	return nil
}

func TestUseCase_MarkOnboardedBuffersWhenUserStoreIsDown(t *testing.T) {
	users := &flakyUsers{UserRepository: memory.NewUserRepository()}
	buf := &userBuffer{}
	uc := New(users, memory.NewSessionRepository(time.Hour), nil, nil, Config{Secret: "s"}, nil).WithBuffer(buf)
	ctx := context.Background()

	res, err := uc.Login(ctx, "kim@example.com", domain.RoleSeller)
	require.NoError(t, err)

	users.down = true
	user, err := uc.MarkOnboarded(ctx, res.User.ID, "seller-9")
	require.NoError(t, err)
	assert.True(t, user.IsOnboarded)
	assert.Equal(t, []string{res.User.ID}, buf.users)
}

func TestUseCase_UserWriteFailsWithoutBuffer(t *testing.T) {
	users := &flakyUsers{UserRepository: memory.NewUserRepository(), down: true}
	uc := New(users, memory.NewSessionRepository(time.Hour), nil, nil, Config{Secret: "s"}, nil)

	_, err := uc.Login(context.Background(), "kim@example.com", domain.RoleSeller)
	assert.Error(t, err)
}
