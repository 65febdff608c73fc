package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/internal/infrastructure/buffer"
	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained. Zero
// Retention keeps items until replayed; zero MaxItems leaves the file unbounded.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	MaxItems   int
	Retention  time.Duration
}

// SizeObserver receives the buffer depth after every drain and enqueue.
type SizeObserver interface {
	SetBufferSize(n int)
}

// DrainReport summarises one pass over the buffer.
type DrainReport struct {
	Replayed int  `json:"replayed"`
	Retried  int  `json:"retried"`
	Dropped  int  `json:"dropped"`
	Expired  int  `json:"expired"`
	Skipped  bool `json:"skipped,omitempty"`
}

type replayFunc func(ctx context.Context, item buffer.Item) error

var (
	errUnknownEntity = errors.New("no replay handler for buffered entity")
	// ErrBufferFull is returned when a write cannot be applied and the buffer
	// already holds MaxItems.
	ErrBufferFull = errors.New("offline buffer is full")
)

// BufferProcessor replays buffered writes against the primary datastores.
// Each entity kind gets its own replay handler.
type BufferProcessor struct {
	store    *buffer.Store
	monitor  ConnectionHealth
	replay   map[string]replayFunc
	observer SizeObserver
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	docs repository.DocumentRepository,
	users repository.UserRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "buffer"))

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		replay:  make(map[string]replayFunc),
		logger:  logger,
		cfg:     cfg,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(logger))),
		)),
	}
	if docs != nil {
		bp.replay[buffer.EntityDocument] = replayDocument(docs)
	}
	if users != nil {
		bp.replay[buffer.EntityUser] = replayUser(users)
	}

	bp.cron.Schedule(cron.Every(cfg.Interval), cron.FuncJob(bp.drainAndLog))

	return bp
}

// Kick drains in the background without waiting for the next tick. The
// connection monitor calls it when the datastores come back.
func (bp *BufferProcessor) Kick() {
	if bp == nil {
		return
	}
	go bp.drainAndLog()
}

func (bp *BufferProcessor) drainAndLog() {
	ctx, cancel := context.WithTimeout(context.Background(), bp.cfg.Interval)
	defer cancel()
	report, err := bp.Drain(ctx)
	if err != nil {
		bp.logger.Error("buffer drain failed", zap.Error(err))
		return
	}
	if report.Replayed+report.Retried+report.Dropped+report.Expired > 0 {
		bp.logger.Info("buffer drained",
			zap.Int("replayed", report.Replayed),
			zap.Int("retried", report.Retried),
			zap.Int("dropped", report.Dropped),
			zap.Int("expired", report.Expired))
	}
}

// ObserveSize reports the buffer depth to o.
func (bp *BufferProcessor) ObserveSize(o SizeObserver) {
	bp.observer = o
	bp.reportSize()
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	select {
	case <-bp.cron.Stop().Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain replays one batch. Failed items go back to the queue until they
// exhaust MaxRetries.
func (bp *BufferProcessor) Drain(ctx context.Context) (DrainReport, error) {
	var report DrainReport
	if bp == nil || bp.store == nil {
		return report, nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		report.Skipped = true
		return report, nil
	}

	defer bp.reportSize()
	if bp.cfg.Retention > 0 {
		before := bp.Size()
		if err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention)); err != nil {
			return report, err
		}
		report.Expired = before - bp.Size()
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return report, err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		err := bp.apply(ctx, item)
		if err == nil {
			report.Replayed++
			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to purge replayed item", zap.String("target", item.Target), zap.Error(err))
			}
			continue
		}

		bp.logger.Error("failed to replay buffered item",
			zap.String("item_id", item.ID),
			zap.String("target", item.Target),
			zap.Int("retries", item.Retries),
			zap.Error(err))
		if bp.retry(item) {
			report.Retried++
		} else {
			report.Dropped++
		}
	}
	return report, nil
}

// retry requeues item and reports false when it was dropped instead.
func (bp *BufferProcessor) retry(item buffer.Item) bool {
	if err := bp.store.Remove(item); err != nil {
		bp.logger.Warn("failed to remove buffered item", zap.String("item_id", item.ID), zap.Error(err))
	}
	item.Retries++
	if _, known := bp.replay[item.Entity]; !known || item.Retries >= bp.cfg.MaxRetries {
		bp.logger.Warn("dropping buffered item", zap.String("item_id", item.ID), zap.String("target", item.Target))
		return false
	}
	if err := bp.store.Requeue(item); err != nil {
		bp.logger.Error("failed to requeue buffered item", zap.String("item_id", item.ID), zap.Error(err))
		return false
	}
	return true
}

// BufferOperation writes through when the datastores are online and persists
// the item otherwise.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.apply(ctx, item)
		if err == nil {
			return nil
		}
		bp.logger.Warn("write-through failed, buffering", zap.String("target", item.Target), zap.Error(err))
	}
	if bp.cfg.MaxItems > 0 && !bp.store.Pending(item.Target) && bp.Size() >= bp.cfg.MaxItems {
		bp.logger.Error("offline buffer full, write lost",
			zap.String("target", item.Target),
			zap.Int("max_items", bp.cfg.MaxItems))
		return ErrBufferFull
	}
	if err := bp.store.Enqueue(item); err != nil {
		return err
	}
	bp.logger.Info("operation buffered",
		zap.String("entity", item.Entity),
		zap.String("kind", item.Kind),
		zap.String("operation", item.Operation))
	bp.reportSize()
	return nil
}

// Debug command and query names.
const (
	CmdDrainBuffer = "drain_buffer"
	QryBuffer      = "buffer"
)

// RegisterDebug exposes a manual drain and the buffer breakdown on d.
func (bp *BufferProcessor) RegisterDebug(d *usecase.Dispatcher) {
	d.RegisterCommand(CmdDrainBuffer, func(ctx context.Context, _ any) (any, error) {
		return bp.Drain(ctx)
	})
	d.RegisterQuery(QryBuffer, func(context.Context, any) (any, error) {
		byKind, err := bp.store.CountByKind()
		if err != nil {
			return nil, err
		}
		return map[string]any{"size": bp.Size(), "by_kind": byKind}, nil
	})
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) reportSize() {
	if bp.observer != nil {
		bp.observer.SetBufferSize(bp.Size())
	}
}

func (bp *BufferProcessor) apply(ctx context.Context, item buffer.Item) error {
	fn, ok := bp.replay[item.Entity]
	if !ok {
		return fmt.Errorf("%w %q", errUnknownEntity, item.Entity)
	}
	return fn(ctx, item)
}

func replayDocument(docs repository.DocumentRepository) replayFunc {
	return func(ctx context.Context, item buffer.Item) error {
		var doc domain.Document
		if err := json.Unmarshal(item.Data, &doc); err != nil {
			return err
		}
		switch item.Operation {
		case buffer.OperationCreate, buffer.OperationUpdate:
			return docs.Save(ctx, &doc)
		case buffer.OperationDelete:
			err := docs.Delete(ctx, doc.Kind, doc.ID)
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil
			}
			return err
		default:
			return fmt.Errorf("unsupported operation %s", item.Operation)
		}
	}
}

func replayUser(users repository.UserRepository) replayFunc {
	return func(ctx context.Context, item buffer.Item) error {
		var user domain.User
		if err := json.Unmarshal(item.Data, &user); err != nil {
			return err
		}
		return users.Upsert(ctx, &user)
	}
}
