package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dealease/backend/internal/infrastructure/buffer"
)

// Backend names used in logs and metrics.
const (
	BackendPostgres = "postgresql"
	BackendRedis    = "redis"
	BackendBuffer   = "buffer"
)

// Observer receives the outcome of every backend check.
type Observer interface {
	SetBackendUp(backend string, up bool)
}

type backendCheck struct {
	name    string
	timeout time.Duration
	ping    func(ctx context.Context) error
}

// Monitor polls the configured backends. A nil pool or client means the backend
// is not in use and never counts against IsOnline.
type Monitor struct {
	checks []backendCheck
	buffer *buffer.Store

	mu        sync.RWMutex
	status    Status
	listeners []func(online bool)
	observer  Observer

	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	logger   *zap.Logger
}

func New(pg *pgxpool.Pool, redis *redislib.Client, buf *buffer.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		buffer:   buf,
		interval: interval,
		logger:   logger.With(zap.String("component", "monitor")),
	}
	if pg != nil {
		m.checks = append(m.checks, backendCheck{name: BackendPostgres, timeout: 3 * time.Second, ping: pg.Ping})
	}
	if redis != nil {
		m.checks = append(m.checks, backendCheck{name: BackendRedis, timeout: 2 * time.Second, ping: func(ctx context.Context) error {
			return redis.Ping(ctx).Err()
		}})
	}
	return m
}

// Observe reports each check outcome to o.
func (m *Monitor) Observe(o Observer) {
	m.mu.Lock()
	m.observer = o
	m.mu.Unlock()
}

// OnChange registers fn to run whenever IsOnline flips. It runs on the polling
// goroutine and must not block.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(ctx)
}

// Stop ends polling and waits for the loop to exit. It is safe to call more
// than once or without Start.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// Check refreshes the status synchronously.
func (m *Monitor) Check() Status {
	m.refresh(context.Background())
	return m.GetStatus()
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online(m.status)
}

// Configured reports which backends the monitor polls.
func (m *Monitor) Configured() (postgres, redis bool) {
	for _, p := range m.checks {
		switch p.name {
		case BackendPostgres:
			postgres = true
		case BackendRedis:
			redis = true
		}
	}
	return postgres, redis
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh(ctx)
	for {
		select {
		case <-ticker.C:
			m.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) online(s Status) bool {
	for _, p := range m.checks {
		switch p.name {
		case BackendPostgres:
			if !s.PostgreSQL {
				return false
			}
		case BackendRedis:
			if !s.Redis {
				return false
			}
		}
	}
	return true
}

func (m *Monitor) refresh(ctx context.Context) {
	status := Status{LastCheck: time.Now()}
	up := make(map[string]bool, len(m.checks)+1)
	for _, p := range m.checks {
		pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
		up[p.name] = p.ping(pingCtx) == nil
		cancel()
	}
	status.PostgreSQL = up[BackendPostgres]
	status.Redis = up[BackendRedis]
	status.Buffer, status.BufferSize, status.BufferByKind = m.checkBuffer()
	up[BackendBuffer] = status.Buffer

	m.mu.Lock()
	previous := m.status
	m.status = status
	observer := m.observer
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	if observer != nil {
		for name, ok := range up {
			observer.SetBackendUp(name, ok)
		}
	}

	if previous.LastCheck.IsZero() {
		return
	}
	wasOnline, isOnline := m.online(previous), m.online(status)
	if previous.PostgreSQL != status.PostgreSQL || previous.Redis != status.Redis {
		m.logger.Info("backend connectivity changed",
			zap.Bool(BackendPostgres, status.PostgreSQL),
			zap.Bool(BackendRedis, status.Redis))
	}
	if wasOnline != isOnline {
		for _, fn := range listeners {
			fn(isOnline)
		}
	}
}

func (m *Monitor) checkBuffer() (bool, int, map[string]int) {
	if m.buffer == nil {
		return false, 0, nil
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size, nil
	}
	if size == 0 {
		return true, 0, nil
	}
	byKind, err := m.buffer.CountByKind()
	if err != nil {
		m.logger.Warn("buffer breakdown failed", zap.Error(err))
	}
	return true, size, byKind
}
