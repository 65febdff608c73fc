package demo

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/app"
)

// DefaultSchedule posts one simulated message every thirty seconds.
const DefaultSchedule = "@every 30s"

var cannedReplies = []string{
	"Just uploaded the latest P&L to the data room.",
	"Happy to set up a call with our operations lead next week.",
	"We had a record month, I'll send over the numbers.",
	"Our lawyer has a few comments on the draft agreement.",
	"Thanks for your patience, reviewing your questions now.",
}

// Simulator posts messages from sellers on active matches so the demo feels live.
type Simulator struct {
	stores   *app.Stores
	schedule string
	logger   *zap.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	cron    *cron.Cron
	running bool
}

func NewSimulator(stores *app.Stores, schedule string, logger *zap.Logger) *Simulator {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := uint64(time.Now().UnixNano())
	return &Simulator{
		stores:   stores,
		schedule: schedule,
		logger:   logger.With(zap.String("component", "demo_simulator")),
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// Start registers the cron job. Calling Start twice is a no-op.
func (s *Simulator) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.Tick(ctx); err != nil {
			s.logger.Warn("simulated activity failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.running = true
	s.logger.Info("demo simulator started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the schedule and waits for a running tick, bounded by ctx.
func (s *Simulator) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info("demo simulator stopped")
}

func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick posts one message from the seller of a random active match. It returns
// false when there is no active match.
func (s *Simulator) Tick(ctx context.Context) (bool, error) {
	active := s.stores.Matches.Where(func(m domain.Match) bool { return m.Status == domain.MatchActive })
	if len(active) == 0 {
		return false, nil
	}
	s.mu.Lock()
	m := active[s.rng.IntN(len(active))]
	content := cannedReplies[s.rng.IntN(len(cannedReplies))]
	s.mu.Unlock()

	msg, err := s.stores.Chat.SendMessage(ctx, domain.Message{
		MatchID:    m.ID,
		SenderID:   m.SellerID,
		ReceiverID: m.BuyerID,
		Content:    content,
		Type:       domain.MessageText,
	})
	if err != nil {
		return false, err
	}
	s.logger.Debug("simulated message posted", zap.String("match_id", m.ID), zap.String("message_id", msg.ID))
	return true, nil
}
