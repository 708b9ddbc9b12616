// Package cleanup runs the retention job named in spec §9: periodic,
// batched deletion of articles, events, and performance snapshots past
// their configured age, each run recorded as one cleanup_log row.
//
// Retention windows are read from system_config (seeded by the store
// migration; the web surface has no mutation for these keys) and fall back to the
// env-configured defaults when a key is unset, grounded in
// performance_config_manager.py's config-over-default resolution order.
package cleanup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// Store is the subset of *store.Store the cleanup job needs.
type Store interface {
	GetSystemConfig(ctx context.Context, key string) (string, bool, error)
	StartCleanupLog(ctx context.Context, cleanupType string) (int64, error)
	FinishCleanupLog(ctx context.Context, id int64, status models.CleanupStatus, recordsDeleted, batchCount int, errMsg *string) error
	DeleteOldArticlesBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error)
	DeleteOldEventsBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error)
	DeleteOldSnapshotsBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error)
}

// Defaults is the fallback retention configuration applied when a
// system_config key is absent, matching the rows store.go's migration
// seeds at startup.
type Defaults struct {
	ArticleRetentionHours int
	EventRetentionHours   int
	MetricsRetentionHours int
	BatchSize             int
}

// Job runs one retention pass at a time on a fixed interval.
type Job struct {
	st       Store
	log      zerolog.Logger
	defaults Defaults
	interval time.Duration
}

// NewJob builds a cleanup Job. interval is the ticker period between runs.
func NewJob(st Store, log zerolog.Logger, defaults Defaults, interval time.Duration) *Job {
	return &Job{st: st, log: log.With().Str("component", "cleanup").Logger(), defaults: defaults, interval: interval}
}

// Run blocks, executing one pass immediately and then on every tick, until
// ctx is cancelled.
func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.runPass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runPass(ctx)
		}
	}
}

func (j *Job) runPass(ctx context.Context) {
	articleHours := j.intConfig(ctx, "article_retention_hours", j.defaults.ArticleRetentionHours)
	eventHours := j.intConfig(ctx, "event_retention_hours", j.defaults.EventRetentionHours)
	metricsHours := j.intConfig(ctx, "metrics_retention_hours", j.defaults.MetricsRetentionHours)
	batchSize := j.intConfig(ctx, "cleanup_batch_size", j.defaults.BatchSize)

	now := time.Now().UTC()
	j.sweep(ctx, "articles", now.Add(-time.Duration(articleHours)*time.Hour), batchSize, j.st.DeleteOldArticlesBatch)
	j.sweep(ctx, "events", now.Add(-time.Duration(eventHours)*time.Hour), batchSize, j.st.DeleteOldEventsBatch)
	j.sweep(ctx, "performance_snapshots", now.Add(-time.Duration(metricsHours)*time.Hour), batchSize, j.st.DeleteOldSnapshotsBatch)
}

// sweep repeatedly deletes batches of one entity kind until a batch comes
// back smaller than batchSize, recording the whole sweep as one cleanup_log row.
func (j *Job) sweep(ctx context.Context, cleanupType string, cutoff time.Time, batchSize int, del func(context.Context, time.Time, int) (int, error)) {
	logID, err := j.st.StartCleanupLog(ctx, cleanupType)
	if err != nil {
		j.log.Error().Err(err).Str("cleanup_type", cleanupType).Msg("starting cleanup log")
		return
	}

	total, batches := 0, 0
	for {
		n, err := del(ctx, cutoff, batchSize)
		if err != nil {
			msg := err.Error()
			j.finish(ctx, logID, models.CleanupError, total, batches, &msg)
			j.log.Error().Err(err).Str("cleanup_type", cleanupType).Msg("retention cleanup batch failed")
			return
		}
		total += n
		batches++
		if n < batchSize {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	j.finish(ctx, logID, models.CleanupCompleted, total, batches, nil)
	if total > 0 {
		j.log.Info().Str("cleanup_type", cleanupType).Int("deleted", total).Int("batches", batches).Msg("retention cleanup complete")
	}
}

func (j *Job) finish(ctx context.Context, logID int64, status models.CleanupStatus, total, batches int, errMsg *string) {
	if err := j.st.FinishCleanupLog(ctx, logID, status, total, batches, errMsg); err != nil {
		j.log.Error().Err(err).Int64("cleanup_log_id", logID).Msg("closing cleanup log")
	}
}

func (j *Job) intConfig(ctx context.Context, key string, fallback int) int {
	value, ok, err := j.st.GetSystemConfig(ctx, key)
	if err != nil || !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		j.log.Warn().Str("key", key).Str("value", value).Msg(fmt.Sprintf("system_config %s is not an integer, using default", key))
		return fallback
	}
	return n
}
