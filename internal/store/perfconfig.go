package store

import (
	"context"
	"database/sql"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// InsertPerformanceSnapshot appends one row to the audit trail C10.2/C10.3
// read back from. Snapshots are never updated in place.
func (s *Store) InsertPerformanceSnapshot(ctx context.Context, snap models.PerformanceConfigSnapshot) (int64, error) {
	const q = `
		INSERT INTO performance_config_snapshots (
			min_shared_entities, entity_overlap_threshold, min_title_keywords, title_keyword_bonus,
			max_time_diff_hours, allow_same_outlet, min_entity_length, max_entity_length,
			entity_noise_threshold, articles_processed, events_created, processing_time_ms,
			entities_extracted_total, event_creation_rate, coverage_percentage,
			avg_articles_per_event, singleton_events_count, entities_per_article,
			performance_score, effectiveness_score, efficiency_score, coverage_score,
			precision_score, score_trend, config_source, service_instance, config_generation, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, q,
		snap.MinSharedEntities, snap.EntityOverlapThreshold, snap.MinTitleKeywords, snap.TitleKeywordBonus,
		snap.MaxTimeDiffHours, snap.AllowSameOutlet, snap.MinEntityLength, snap.MaxEntityLength,
		snap.EntityNoiseThreshold, snap.ArticlesProcessed, snap.EventsCreated, snap.ProcessingTimeMs,
		snap.EntitiesExtractedTotal, snap.EventCreationRate, snap.CoveragePercentage,
		snap.AvgArticlesPerEvent, snap.SingletonEventsCount, snap.EntitiesPerArticle,
		snap.PerformanceScore, snap.EffectivenessScore, snap.EfficiencyScore, snap.CoverageScore,
		snap.PrecisionScore, string(snap.ScoreTrend), string(snap.ConfigSource), snap.ServiceInstance,
		snap.ConfigGeneration, snap.Notes,
	).Scan(&id)
	if err != nil {
		return 0, classifyWriteErr("store.InsertPerformanceSnapshot", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recent snapshot for a service instance,
// or nil if none exists yet (first-ever run).
func (s *Store) LatestSnapshot(ctx context.Context, serviceInstance string) (*models.PerformanceConfigSnapshot, error) {
	const q = `
		SELECT id, snapshot_timestamp, min_shared_entities, entity_overlap_threshold,
		       min_title_keywords, title_keyword_bonus, max_time_diff_hours, allow_same_outlet,
		       min_entity_length, max_entity_length, entity_noise_threshold, articles_processed,
		       events_created, processing_time_ms, entities_extracted_total, event_creation_rate,
		       coverage_percentage, avg_articles_per_event, singleton_events_count,
		       entities_per_article, performance_score, effectiveness_score, efficiency_score,
		       coverage_score, precision_score, score_trend, config_source, service_instance,
		       config_generation, notes
		FROM performance_config_snapshots
		WHERE service_instance = $1
		ORDER BY snapshot_timestamp DESC
		LIMIT 1`
	return scanSnapshot(s.db.QueryRowContext(ctx, q, serviceInstance))
}

// BestRecentSnapshot picks the startup seed: the highest-scoring snapshot
// among the last N, falling back to the most recent if none carry a score
// yet, matching performance_config_manager.py's startup selection query.
func (s *Store) BestRecentSnapshot(ctx context.Context, serviceInstance string, lookback int) (*models.PerformanceConfigSnapshot, error) {
	const q = `
		SELECT id, snapshot_timestamp, min_shared_entities, entity_overlap_threshold,
		       min_title_keywords, title_keyword_bonus, max_time_diff_hours, allow_same_outlet,
		       min_entity_length, max_entity_length, entity_noise_threshold, articles_processed,
		       events_created, processing_time_ms, entities_extracted_total, event_creation_rate,
		       coverage_percentage, avg_articles_per_event, singleton_events_count,
		       entities_per_article, performance_score, effectiveness_score, efficiency_score,
		       coverage_score, precision_score, score_trend, config_source, service_instance,
		       config_generation, notes
		FROM (
			SELECT * FROM performance_config_snapshots
			WHERE service_instance = $1
			ORDER BY snapshot_timestamp DESC
			LIMIT $2
		) recent
		ORDER BY performance_score DESC NULLS LAST, snapshot_timestamp DESC
		LIMIT 1`
	return scanSnapshot(s.db.QueryRowContext(ctx, q, serviceInstance, lookback))
}

func scanSnapshot(row *sql.Row) (*models.PerformanceConfigSnapshot, error) {
	var snap models.PerformanceConfigSnapshot
	var trend, source string
	err := row.Scan(&snap.ID, &snap.SnapshotTimestamp, &snap.MinSharedEntities,
		&snap.EntityOverlapThreshold, &snap.MinTitleKeywords, &snap.TitleKeywordBonus,
		&snap.MaxTimeDiffHours, &snap.AllowSameOutlet, &snap.MinEntityLength, &snap.MaxEntityLength,
		&snap.EntityNoiseThreshold, &snap.ArticlesProcessed, &snap.EventsCreated,
		&snap.ProcessingTimeMs, &snap.EntitiesExtractedTotal, &snap.EventCreationRate,
		&snap.CoveragePercentage, &snap.AvgArticlesPerEvent, &snap.SingletonEventsCount,
		&snap.EntitiesPerArticle, &snap.PerformanceScore, &snap.EffectivenessScore,
		&snap.EfficiencyScore, &snap.CoverageScore, &snap.PrecisionScore, &trend, &source,
		&snap.ServiceInstance, &snap.ConfigGeneration, &snap.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.scanSnapshot", err)
	}
	snap.ScoreTrend = models.ScoreTrend(trend)
	snap.ConfigSource = models.ConfigSource(source)
	return &snap, nil
}

// InsertConfigChangeEvent appends one audit row for a grouping-config
// mutation, manual or auto-tune-suggested.
func (s *Store) InsertConfigChangeEvent(ctx context.Context, e models.ConfigChangeEvent) error {
	const q = `
		INSERT INTO config_change_events (parameter_name, old_value, new_value, change_reason,
		                                   previous_score, target_improvement, config_snapshot_id,
		                                   triggered_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := s.db.ExecContext(ctx, q, e.ParameterName, e.OldValue, e.NewValue, e.ChangeReason,
		e.PreviousScore, e.TargetImprovement, e.ConfigSnapshotID, e.TriggeredBy)
	if err != nil {
		return classifyWriteErr("store.InsertConfigChangeEvent", err)
	}
	return nil
}
