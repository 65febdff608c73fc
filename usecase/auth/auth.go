// Package auth implements the mock sign-in flow: any email logs in with the
// chosen role, backed by real sessions and signed tokens.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

const defaultSessionTTL = 24 * time.Hour

// Claims carried by issued tokens.
const (
	ClaimUserID    = "user_id"
	ClaimSessionID = "session_id"
	ClaimRole      = "role"
)

type Config struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

// UIResetter drops a user's presentation state on logout.
type UIResetter interface {
	Drop(userID string)
}

// UserBuffer queues user writes while the user store is unreachable.
type UserBuffer interface {
	BufferUser(ctx context.Context, user *domain.User) error
}

// LoginResult is returned by Login.
type LoginResult struct {
	User    *domain.User    `json:"user"`
	Session *domain.Session `json:"session"`
	Token   string          `json:"token"`
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	prefs    repository.PreferenceRepository
	ui       UIResetter
	buffer   UserBuffer
	cfg      Config
	logger   *zap.Logger
}

// New wires the auth flow. prefs and ui may be nil.
func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	prefs repository.PreferenceRepository,
	ui UIResetter,
	cfg Config,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		prefs:    prefs,
		ui:       ui,
		cfg:      cfg,
		logger:   logger.With(zap.String("usecase", "auth")),
	}
}

// WithBuffer routes failed user writes to b.
func (uc *UseCase) WithBuffer(b UserBuffer) *UseCase {
	uc.buffer = b
	return uc
}

// Login signs the user in, creating the account on first use.
func (uc *UseCase) Login(ctx context.Context, email, role string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || !domain.ValidRole(role) {
		return nil, domain.ErrInvalidPayload
	}

	now := time.Now()
	user, err := uc.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user = &domain.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      displayName(email),
			Role:      role,
			Status:    "active",
			CreatedAt: now,
		}
	case err != nil:
		return nil, err
	default:
		user.Role = role
	}
	user.UpdatedAt = now
	if err := uc.saveUser(ctx, user); err != nil {
		return nil, err
	}

	session, err := uc.CreateSession(ctx, user.ID, uc.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	token, err := uc.issueToken(user, session)
	if err != nil {
		return nil, err
	}
	uc.remember(ctx, user, session)

	uc.logger.Info("user signed in", zap.String("user_id", user.ID), zap.String("role", role))
	return &LoginResult{User: user, Session: session, Token: token}, nil
}

// Logout revokes the session and forgets the user's local state.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if uc.prefs != nil {
		for _, key := range []string{repository.KeyToken, repository.KeyUser} {
			if err := uc.prefs.Delete(ctx, session.UserID, key); err != nil {
				uc.logger.Warn("failed to clear preference", zap.String("key", key), zap.Error(err))
			}
		}
	}
	if uc.ui != nil {
		uc.ui.Drop(session.UserID)
	}
	uc.logger.Info("user signed out", zap.String("user_id", session.UserID))
	return nil
}

// LogoutEverywhere revokes every session of userID, including the caller's.
func (uc *UseCase) LogoutEverywhere(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrUnauthorized
	}
	revoked, err := uc.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if uc.ui != nil {
		uc.ui.Drop(userID)
	}
	uc.logger.Info("all sessions revoked", zap.String("user_id", userID), zap.Int("sessions", revoked))
	return revoked, nil
}

func (uc *UseCase) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// MarkOnboarded links the user to the profile created by onboarding.
func (uc *UseCase) MarkOnboarded(ctx context.Context, userID, profileID string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.ProfileID = profileID
	user.IsOnboarded = true
	user.UpdatedAt = time.Now()
	if err := uc.saveUser(ctx, user); err != nil {
		return nil, err
	}
	uc.remember(ctx, user, nil)
	return user, nil
}

func (uc *UseCase) saveUser(ctx context.Context, user *domain.User) error {
	err := uc.users.Upsert(ctx, user)
	if err == nil || uc.buffer == nil {
		return err
	}
	if bufErr := uc.buffer.BufferUser(ctx, user); bufErr != nil {
		return errors.Join(err, bufErr)
	}
	uc.logger.Warn("user write buffered", zap.String("user_id", user.ID), zap.Error(err))
	return nil
}

func (uc *UseCase) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().Add(ttl)
	return session, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) issueToken(user *domain.User, session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		ClaimUserID:    user.ID,
		ClaimSessionID: session.ID,
		ClaimRole:      user.Role,
		"iss":          uc.cfg.Issuer,
		"iat":          session.CreatedAt.Unix(),
		"exp":          session.ExpiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// remember mirrors the auth snapshot into the user's preferences.
func (uc *UseCase) remember(ctx context.Context, user *domain.User, session *domain.Session) {
	if uc.prefs == nil {
		return
	}
	if raw, err := json.Marshal(user); err == nil {
		if err := uc.prefs.Set(ctx, user.ID, repository.KeyUser, string(raw)); err != nil {
			uc.logger.Warn("failed to store user snapshot", zap.Error(err))
		}
	}
	if session != nil {
		if err := uc.prefs.Set(ctx, user.ID, repository.KeyToken, session.ID); err != nil {
			uc.logger.Warn("failed to store session token", zap.Error(err))
		}
	}
}

func displayName(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	if len(parts) == 0 {
		return email
	}
	return strings.Join(parts, " ")
}
