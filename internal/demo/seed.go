// Package demo seeds the marketplace with sample data and keeps it looking alive.
package demo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/usecase/app"
)

// Seeder fills empty stores with the demo dataset.
type Seeder struct {
	stores *app.Stores
	users  repository.UserRepository
	prefs  repository.PreferenceRepository
	logger *zap.Logger
}

// NewSeeder wires the seeder. users and prefs may be nil.
func NewSeeder(stores *app.Stores, users repository.UserRepository, prefs repository.PreferenceRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{stores: stores, users: users, prefs: prefs, logger: logger.With(zap.String("component", "demo_seed"))}
}

// Seed restores the saved demo snapshot or, when none exists, loads the
// fixtures. Stores that already hold data are left alone and Seed reports false.
func (s *Seeder) Seed(ctx context.Context) (bool, error) {
	for _, n := range s.stores.Counts() {
		if n > 0 {
			s.logger.Debug("stores already populated, skipping demo seed")
			return false, nil
		}
	}

	if err := s.seedUsers(ctx); err != nil {
		return false, err
	}

	restored, err := s.stores.RestoreSnapshot(ctx)
	if err != nil {
		return false, err
	}
	if !restored {
		s.stores.Restore(Dataset(time.Now()))
		if err := s.stores.SaveSnapshot(ctx); err != nil {
			return false, err
		}
	}
	if s.prefs != nil {
		if err := s.prefs.Set(ctx, app.SystemScope, repository.KeyDemoMode, "true"); err != nil {
			return false, err
		}
	}

	s.logger.Info("demo data seeded", zap.Bool("from_snapshot", restored), zap.Any("counts", s.stores.Counts()))
	return true, nil
}

// Clear empties the stores and forgets the snapshot and the demo flag.
func (s *Seeder) Clear(ctx context.Context) error {
	s.stores.Reset()
	if s.prefs == nil {
		return nil
	}
	for _, key := range []string{repository.KeyDemoData, repository.KeyDemoMode} {
		if err := s.prefs.Delete(ctx, app.SystemScope, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context) error {
	if s.users == nil {
		return nil
	}
	now := time.Now()
	for _, u := range Users {
		user := u
		user.CreatedAt = now
		user.UpdatedAt = now
		if err := s.users.Upsert(ctx, &user); err != nil {
			return err
		}
	}
	return nil
}
