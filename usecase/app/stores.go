// Package app owns the marketplace stores for the lifetime of the process.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/usecase/buyer"
	"github.com/dealease/backend/usecase/chat"
	"github.com/dealease/backend/usecase/deal"
	"github.com/dealease/backend/usecase/entity"
	"github.com/dealease/backend/usecase/match"
	"github.com/dealease/backend/usecase/seller"
	"github.com/dealease/backend/usecase/ui"
)

// SystemScope is the preference owner for process-wide keys such as the demo snapshot.
const SystemScope = "_system"

type Config struct {
	UI   ui.Config
	Chat chat.Config
}

// Stores is the application root. Every store is constructed here and nowhere else.
type Stores struct {
	Buyers  *buyer.Store
	Sellers *seller.Store
	Matches *match.Store
	Chat    *chat.Store
	Deals   *deal.Store
	UI      *ui.Registry

	prefs  repository.PreferenceRepository
	logger *zap.Logger
}

// New builds every store on top of one document repository. docs and prefs may be nil.
func New(docs repository.DocumentRepository, prefs repository.PreferenceRepository, cfg Config, deps entity.Deps) *Stores {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Stores{
		UI:     ui.NewRegistry(prefs, cfg.UI, deps.Logger),
		prefs:  prefs,
		logger: deps.Logger,
	}

	if docs == nil {
		s.Buyers = buyer.New(nil, deps)
		s.Sellers = seller.New(nil, deps)
		s.Matches = match.New(nil, nil, deps)
		s.Deals = deal.New(nil, deps)
		s.Chat = chat.New(nil, nil, cfg.Chat, deps)
	} else {
		matches := repository.NewCollection(docs, domain.KindMatch,
			func(m domain.Match) string { return m.ID },
			func(m domain.Match) string { return m.BuyerID })
		s.Buyers = buyer.New(repository.NewCollection(docs, domain.KindBuyer,
			func(b domain.Buyer) string { return b.ID },
			func(b domain.Buyer) string { return b.UserID }), deps)
		s.Sellers = seller.New(repository.NewCollection(docs, domain.KindSeller,
			func(v domain.Seller) string { return v.ID },
			func(v domain.Seller) string { return v.UserID }), deps)
		s.Matches = match.New(matches, matches, deps)
		s.Deals = deal.New(repository.NewCollection(docs, domain.KindDeal,
			func(d domain.AcquisitionDeal) string { return d.ID },
			func(d domain.AcquisitionDeal) string { return d.BuyerID }), deps)
		s.Chat = chat.New(
			repository.NewCollection(docs, domain.KindMessage,
				func(m domain.Message) string { return m.ID },
				func(m domain.Message) string { return m.MatchID }),
			repository.NewCollection(docs, domain.KindNotification,
				func(n domain.Notification) string { return n.ID },
				func(n domain.Notification) string { return n.UserID }),
			cfg.Chat, deps)
	}
	s.Chat.Subscribe(s.Matches)
	return s
}

// Load fills every store from storage. A failing store keeps its previous
// contents and the remaining stores still load.
func (s *Stores) Load(ctx context.Context) error {
	var errs error
	for name, load := range map[string]func(context.Context) error{
		"buyers":  s.Buyers.Load,
		"sellers": s.Sellers.Load,
		"matches": s.Matches.Load,
		"deals":   s.Deals.Load,
		"chat":    s.Chat.Load,
	} {
		if err := load(ctx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errs
}

// Errors returns the outstanding error of every store that has one.
func (s *Stores) Errors() map[string]string {
	out := make(map[string]string)
	for name, msg := range map[string]string{
		"buyers":  s.Buyers.Error(),
		"sellers": s.Sellers.Error(),
		"matches": s.Matches.Error(),
		"deals":   s.Deals.Error(),
		"chat":    s.Chat.Error(),
	} {
		if msg != "" {
			out[name] = msg
		}
	}
	return out
}

func (s *Stores) ClearAllErrors() {
	s.Buyers.ClearError()
	s.Sellers.ClearError()
	s.Matches.ClearError()
	s.Deals.ClearError()
	s.Chat.ClearError()
}

// Reset empties every store.
func (s *Stores) Reset() {
	s.Buyers.Reset()
	s.Sellers.Reset()
	s.Matches.Reset()
	s.Deals.Reset()
	s.Chat.Reset()
	s.UI.Reset()
}

// Dataset is the serialised form of every domain collection.
type Dataset struct {
	Buyers        []domain.Buyer           `json:"buyers"`
	Sellers       []domain.Seller          `json:"sellers"`
	Matches       []domain.Match           `json:"matches"`
	Messages      []domain.Message         `json:"messages"`
	Notifications []domain.Notification    `json:"notifications"`
	Deals         []domain.AcquisitionDeal `json:"deals"`
	SavedAt       time.Time                `json:"saved_at"`
}

func (s *Stores) Snapshot() Dataset {
	return Dataset{
		Buyers:        s.Buyers.All(),
		Sellers:       s.Sellers.All(),
		Matches:       s.Matches.All(),
		Messages:      s.Chat.Messages().All(),
		Notifications: s.Chat.Notifications().All(),
		Deals:         s.Deals.All(),
		SavedAt:       time.Now(),
	}
}

// Restore replaces every collection without writing through to storage.
func (s *Stores) Restore(data Dataset) {
	s.Buyers.Replace(data.Buyers)
	s.Sellers.Replace(data.Sellers)
	s.Matches.Replace(data.Matches)
	s.Deals.Replace(data.Deals)
	s.Chat.Replace(data.Messages, data.Notifications)
}

// SaveSnapshot stores the dataset under the demo data preference key.
func (s *Stores) SaveSnapshot(ctx context.Context) error {
	if s.prefs == nil {
		return nil
	}
	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		return err
	}
	return s.prefs.Set(ctx, SystemScope, repository.KeyDemoData, string(raw))
}

// RestoreSnapshot loads a dataset saved by SaveSnapshot. It reports false when
// none exists.
func (s *Stores) RestoreSnapshot(ctx context.Context) (bool, error) {
	if s.prefs == nil {
		return false, nil
	}
	raw, err := s.prefs.Get(ctx, SystemScope, repository.KeyDemoData)
	if errors.Is(err, domain.ErrPreferenceMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var data Dataset
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		s.logger.Warn("discarding unreadable demo snapshot", zap.Error(err))
		return false, nil
	}
	s.Restore(data)
	return true, nil
}
