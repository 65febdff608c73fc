package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

// SessionRepository is the in-process fallback used when Redis is disabled.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	ttl      time.Duration
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{sessions: make(map[string]domain.Session), ttl: ttl}
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.IsExpired(time.Now()) {
		delete(r.sessions, id)
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *SessionRepository) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *SessionRepository) DeleteByUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var removed int
	for id, session := range r.sessions {
		if session.UserID != userID {
			continue
		}
		if !session.IsExpired(now) {
			removed++
		}
		delete(r.sessions, id)
	}
	return removed, nil
}

func (r *SessionRepository) Extend(_ context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Extend(time.Now(), duration)
	r.sessions[id] = session
	return nil
}

// UserRepository keeps user snapshots in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) Upsert(_ context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// PreferenceRepository keeps per-user key/value pairs in memory.
type PreferenceRepository struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewPreferenceRepository() *PreferenceRepository {
	return &PreferenceRepository{values: make(map[string]map[string]string)}
}

var _ repository.PreferenceRepository = (*PreferenceRepository)(nil)

func (r *PreferenceRepository) Get(_ context.Context, userID, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.values[userID][key]
	if !ok {
		return "", domain.ErrPreferenceMissing
	}
	return value, nil
}

func (r *PreferenceRepository) Set(_ context.Context, userID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.values[userID]
	if !ok {
		bucket = make(map[string]string)
		r.values[userID] = bucket
	}
	bucket[key] = value
	return nil
}

func (r *PreferenceRepository) Delete(_ context.Context, userID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values[userID], key)
	return nil
}

func (r *PreferenceRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, userID)
	return nil
}
