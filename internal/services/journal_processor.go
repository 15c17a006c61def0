package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/internal/infrastructure/journal"
	"github.com/wikigo/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how the journal is drained into the database.
type ProcessorConfig struct {
	// DrainSpec is a cron expression, e.g. "@every 30s".
	DrainSpec string
	BatchSize int
	// Retention bounds how long undrainable events are kept.
	Retention time.Duration
}

// JournalProcessor moves auth events from the local journal into Postgres on
// a schedule, skipping cycles while the database is offline.
type JournalProcessor struct {
	store   *journal.Store
	monitor ConnectionHealth
	events  repository.AuthEventRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewJournalProcessor(
	store *journal.Store,
	monitor ConnectionHealth,
	events repository.AuthEventRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *JournalProcessor {
	if cfg.DrainSpec == "" {
		cfg.DrainSpec = "@every 30s"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	jp := &JournalProcessor{
		store:   store,
		monitor: monitor,
		events:  events,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(),
	}

	_, _ = jp.cron.AddFunc(cfg.DrainSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := jp.Drain(ctx); err != nil {
			jp.logger.Error("journal drain failed", zap.Error(err))
		}
	})

	return jp
}

// Start launches the cron scheduler.
func (jp *JournalProcessor) Start() {
	if jp == nil || jp.cron == nil {
		return
	}
	jp.cron.Start()
	jp.logger.Info("journal processor started")
}

// Stop gracefully stops the scheduler and runs a final drain.
func (jp *JournalProcessor) Stop(ctx context.Context) {
	if jp == nil || jp.cron == nil {
		return
	}
	stopCtx := jp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	if err := jp.Drain(ctx); err != nil {
		jp.logger.Warn("final journal drain failed", zap.Error(err))
	}
	jp.logger.Info("journal processor stopped")
}

// Drain flushes one batch of journaled events into the database. Events stay
// journaled when the insert fails; events past retention are dropped so the
// journal cannot grow without bound.
func (jp *JournalProcessor) Drain(ctx context.Context) error {
	if jp == nil || jp.store == nil {
		return nil
	}
	if jp.monitor != nil && !jp.monitor.IsOnline() {
		jp.logger.Debug("skipping journal drain (offline)")
		return nil
	}

	if err := jp.store.Cleanup(time.Now().Add(-jp.cfg.Retention)); err != nil {
		jp.logger.Warn("journal cleanup failed", zap.Error(err))
	}

	batch, err := jp.store.Batch(jp.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	if err := jp.events.InsertBatch(ctx, batch); err != nil {
		return err
	}
	if err := jp.store.Remove(batch); err != nil {
		jp.logger.Warn("failed to purge drained events", zap.Error(err))
	}

	jp.logger.Info("journal drained", zap.Int("events", len(batch)))
	return nil
}

// Record persists one event: straight to the database when it is reachable,
// otherwise into the local journal.
func (jp *JournalProcessor) Record(ctx context.Context, event domain.AuthEvent) error {
	if jp == nil || jp.store == nil {
		return nil
	}

	if jp.monitor == nil || jp.monitor.IsOnline() {
		if err := jp.events.InsertBatch(ctx, []domain.AuthEvent{event}); err == nil {
			return nil
		} else {
			jp.logger.Warn("immediate event insert failed, journaling", zap.Error(err))
		}
	}
	return jp.store.Append(event)
}

// Size returns the number of journaled events.
func (jp *JournalProcessor) Size() int {
	if jp == nil || jp.store == nil {
		return 0
	}
	size, err := jp.store.Size()
	if err != nil {
		return 0
	}
	return size
}
