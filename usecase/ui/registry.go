package ui

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dealease/backend/repository"
)

// Registry hands out one Store per user.
type Registry struct {
	prefs  repository.PreferenceRepository
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(prefs repository.PreferenceRepository, cfg Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		prefs:  prefs,
		cfg:    cfg,
		logger: logger,
		stores: make(map[string]*Store),
	}
}

// For returns the user's store, creating it and restoring preferences on first use.
func (r *Registry) For(ctx context.Context, userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[userID]; ok {
		return s
	}
	s := NewStore(userID, r.prefs, r.cfg, r.logger)
	if err := s.LoadPreferences(ctx); err != nil {
		r.logger.Warn("failed to load ui preferences", zap.String("user_id", userID), zap.Error(err))
	}
	r.stores[userID] = s
	return s
}

// Drop discards the user's store, e.g. on logout.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	s, ok := r.stores[userID]
	delete(r.stores, userID)
	r.mu.Unlock()
	if ok {
		s.Reset()
	}
}

// Reset drops every user's store.
func (r *Registry) Reset() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*Store)
	r.mu.Unlock()
	for _, s := range stores {
		s.Reset()
	}
}
