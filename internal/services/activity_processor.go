package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/internal/infrastructure/buffer"
	"github.com/fastygo/projecthub/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention bounds how long an undelivered activity may stay buffered.
	Retention time.Duration
}

// ActivityProcessor writes activities to the primary store and parks them in
// the local buffer while the store is unreachable.
type ActivityProcessor struct {
	buffer   *buffer.Store
	monitor  ConnectionHealth
	activity repository.ActivityRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewActivityProcessor(
	buf *buffer.Store,
	monitor ConnectionHealth,
	activity repository.ActivityRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) (*ActivityProcessor, error) {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ap := &ActivityProcessor{
		buffer:   buf,
		monitor:  monitor,
		activity: activity,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := ap.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := ap.Drain(ctx); err != nil {
			ap.logger.Error("activity drain failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule drain: %w", err)
	}
	if _, err := ap.cron.AddFunc("@hourly", ap.purgeStale); err != nil {
		return nil, fmt.Errorf("schedule cleanup: %w", err)
	}

	return ap, nil
}

// Start launches the cron scheduler.
func (ap *ActivityProcessor) Start() {
	if ap == nil || ap.cron == nil {
		return
	}
	ap.cron.Start()
	ap.logger.Info("activity processor started", zap.Duration("interval", ap.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (ap *ActivityProcessor) Stop(ctx context.Context) error {
	if ap == nil || ap.cron == nil {
		return nil
	}
	stopCtx := ap.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	ap.logger.Info("activity processor stopped")
	return nil
}

// Record appends the activity right away when the store is online and
// buffers it otherwise or when the write fails.
func (ap *ActivityProcessor) Record(ctx context.Context, activity domain.Activity) error {
	if ap == nil || ap.buffer == nil {
		return fmt.Errorf("activity processor not configured")
	}

	if ap.monitor == nil || ap.monitor.IsOnline() {
		err := ap.activity.Append(ctx, activity)
		if err == nil {
			return nil
		}
		ap.logger.Warn("activity append failed, buffering",
			zap.String("activity_id", activity.ID),
			zap.Error(err))
	}
	return ap.buffer.Enqueue(buffer.Item{Activity: activity})
}

// Drain replays one batch of buffered activities and returns how many were
// delivered.
func (ap *ActivityProcessor) Drain(ctx context.Context) (int, error) {
	if ap == nil || ap.buffer == nil {
		return 0, nil
	}
	if ap.monitor != nil && !ap.monitor.IsOnline() {
		ap.logger.Debug("skipping activity drain (offline)")
		return 0, nil
	}

	items, err := ap.buffer.Batch(ap.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if err := ap.activity.Append(ctx, item.Activity); err != nil {
			ap.retry(item, err)
			continue
		}
		if err := ap.buffer.Remove(item); err != nil {
			ap.logger.Warn("failed to purge delivered activity", zap.Error(err))
		}
		delivered++
	}
	if delivered > 0 {
		ap.logger.Info("buffered activities delivered", zap.Int("count", delivered))
	}
	return delivered, nil
}

func (ap *ActivityProcessor) retry(item buffer.Item, cause error) {
	item.Retries++
	if item.Retries >= ap.cfg.MaxRetries {
		ap.logger.Warn("dropping activity (max retries reached)",
			zap.String("activity_id", item.Activity.ID),
			zap.String("action", item.Activity.Action),
			zap.Error(cause))
		if err := ap.buffer.Remove(item); err != nil {
			ap.logger.Warn("failed to remove activity", zap.Error(err))
		}
		return
	}
	if err := ap.buffer.Requeue(item); err != nil {
		ap.logger.Error("failed to requeue activity", zap.Error(err))
	}
}

func (ap *ActivityProcessor) purgeStale() {
	removed, err := ap.buffer.Cleanup(time.Now().Add(-ap.cfg.Retention))
	if err != nil {
		ap.logger.Error("buffer cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		ap.logger.Warn("stale buffered activities discarded", zap.Int("count", removed))
	}
}

// Size returns the number of buffered items.
func (ap *ActivityProcessor) Size() int {
	if ap == nil || ap.buffer == nil {
		return 0
	}
	size, err := ap.buffer.Size()
	if err != nil {
		return 0
	}
	return size
}
