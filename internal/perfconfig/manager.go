package perfconfig

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// performanceThreshold is the minimum acceptable overall score, matching
// PerformanceConfigurationManager.performance_threshold.
const performanceThreshold = 70.0

// startupLookback bounds how many recent snapshots BestRecentSnapshot
// considers when picking a startup seed, standing in for the Python
// original's "last 30 days" window.
const startupLookback = 50

// Store is the subset of *store.Store this package depends on.
type Store interface {
	BestRecentSnapshot(ctx context.Context, serviceInstance string, lookback int) (*models.PerformanceConfigSnapshot, error)
	LatestSnapshot(ctx context.Context, serviceInstance string) (*models.PerformanceConfigSnapshot, error)
	InsertPerformanceSnapshot(ctx context.Context, snap models.PerformanceConfigSnapshot) (int64, error)
	InsertConfigChangeEvent(ctx context.Context, e models.ConfigChangeEvent) error
}

// Manager owns the live GroupingConfig, loads a startup seed, records
// runtime performance snapshots, and suggests auto-tune adjustments,
// matching PerformanceConfigurationManager.
type Manager struct {
	store            Store
	log              zerolog.Logger
	serviceInstance  string
	current          models.GroupingConfig
	configGeneration int
	autoTuneApply    bool
}

// NewManager builds a Manager. When autoTuneApply is true, auto-tune
// suggestions below performanceThreshold-10 are applied immediately via
// UpdateConfiguration instead of only being logged as change-event
// candidates for manual review, matching main.py's AUTO_TUNE_APPLY flag.
func NewManager(st Store, log zerolog.Logger, serviceInstance string, autoTuneApply bool) *Manager {
	return &Manager{store: st, log: log, serviceInstance: serviceInstance, configGeneration: 1, autoTuneApply: autoTuneApply}
}

// Current returns the live configuration.
func (m *Manager) Current() models.GroupingConfig {
	return m.current
}

// LoadStartupConfiguration seeds the manager from the best-scoring recent
// snapshot, falling back to the latest snapshot and finally to
// ConservativeDefaults, matching load_startup_configuration.
func (m *Manager) LoadStartupConfiguration(ctx context.Context) (models.GroupingConfig, error) {
	best, err := m.store.BestRecentSnapshot(ctx, m.serviceInstance, startupLookback)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to load startup configuration, falling back to conservative defaults")
		m.current = models.ConservativeDefaults()
		return m.current, nil
	}

	if best != nil && best.PerformanceScore != nil && *best.PerformanceScore >= performanceThreshold {
		m.current = best.GroupingConfig
		m.configGeneration = best.ConfigGeneration + 1
		m.log.Info().Float64("score", *best.PerformanceScore).Msg("loaded high-performing startup config")
	} else {
		latest, err := m.store.LatestSnapshot(ctx, m.serviceInstance)
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to load latest snapshot, falling back to conservative defaults")
			m.current = models.ConservativeDefaults()
		} else if latest != nil {
			m.current = latest.GroupingConfig
			m.log.Info().Msg("no high-scoring config found, using latest available config")
		} else {
			m.current = models.ConservativeDefaults()
			m.log.Info().Msg("no configuration history found, using conservative defaults")
		}
	}

	if err := m.saveStartupSnapshot(ctx); err != nil {
		m.log.Warn().Err(err).Msg("failed to save startup snapshot")
	}
	return m.current, nil
}

func (m *Manager) saveStartupSnapshot(ctx context.Context) error {
	snap := models.PerformanceConfigSnapshot{
		GroupingConfig:   m.current,
		ConfigSource:     models.ConfigSourceStartup,
		ServiceInstance:  m.serviceInstance,
		ConfigGeneration: m.configGeneration,
		Notes:            fmt.Sprintf("Startup configuration loaded for instance %s", m.serviceInstance),
	}
	_, err := m.store.InsertPerformanceSnapshot(ctx, snap)
	return err
}

// SavePerformanceSnapshot scores a batch's metrics, persists the snapshot,
// and triggers auto-tune consideration if the score is below threshold,
// matching save_performance_snapshot.
func (m *Manager) SavePerformanceSnapshot(ctx context.Context, metrics BatchMetrics, previousScore *float64) (int64, error) {
	score := CalculateOverallScore(metrics, previousScore)
	overall := score.Overall

	snap := models.PerformanceConfigSnapshot{
		GroupingConfig:          m.current,
		ArticlesProcessed:       metrics.ArticlesProcessed,
		EventsCreated:           metrics.EventsCreated,
		ProcessingTimeMs:        metrics.ProcessingTimeMs,
		EntitiesExtractedTotal:  metrics.EntitiesExtractedTotal,
		EventCreationRate:       metrics.EventCreationRate,
		CoveragePercentage:      metrics.CoveragePercentage,
		AvgArticlesPerEvent:     metrics.AvgArticlesPerEvent,
		SingletonEventsCount:    metrics.SingletonEventsCount,
		EntitiesPerArticle:      metrics.EntitiesPerArticle,
		PerformanceScore:        &overall,
		EffectivenessScore:      score.Components.Effectiveness,
		EfficiencyScore:         score.Components.Efficiency,
		CoverageScore:           score.Components.Coverage,
		PrecisionScore:          score.Components.Precision,
		ScoreTrend:              score.Trend,
		ConfigSource:            models.ConfigSourceRuntime,
		ServiceInstance:         m.serviceInstance,
		ConfigGeneration:        m.configGeneration,
		Notes:                   fmt.Sprintf("Runtime performance snapshot - %s trend", score.Trend),
	}

	id, err := m.store.InsertPerformanceSnapshot(ctx, snap)
	if err != nil {
		return 0, err
	}

	m.log.Info().Float64("score", overall).Str("trend", string(score.Trend)).Int64("snapshot_id", id).
		Msg("performance snapshot saved")

	if overall < performanceThreshold {
		m.considerAutoTuning(ctx, score, id)
	}

	return id, nil
}

// considerAutoTuning logs suggested config adjustments for the worst
// component when performance is significantly below threshold, matching
// _consider_auto_tuning.
func (m *Manager) considerAutoTuning(ctx context.Context, score Score, snapshotID int64) {
	if score.Overall >= performanceThreshold-10 {
		m.log.Info().Float64("score", score.Overall).Msg("performance below threshold but within tolerance")
		return
	}

	worst, worstScore := worstComponent(score.Components)
	m.log.Warn().Str("component", worst).Float64("score", worstScore).Msg("auto-tune consideration triggered")

	adjustments := m.generateAutoTuneAdjustments(worst, score)
	if len(adjustments) == 0 {
		return
	}

	for param, newValue := range adjustments {
		oldValue := fmt.Sprintf("%v", currentParam(m.current, param))
		event := models.ConfigChangeEvent{
			ParameterName:     param,
			OldValue:          oldValue,
			NewValue:          fmt.Sprintf("%v", newValue),
			ChangeReason:      "auto_tune_suggestion_" + worst,
			TargetImprovement: strPtr("improve_" + worst),
			ConfigSnapshotID:  &snapshotID,
			TriggeredBy:       "auto_tuner_" + m.serviceInstance,
		}
		if err := m.store.InsertConfigChangeEvent(ctx, event); err != nil {
			m.log.Warn().Err(err).Str("param", param).Msg("failed to log auto-tune suggestion")
		}
	}

	if !m.autoTuneApply {
		return
	}
	if err := m.UpdateConfiguration(ctx, adjustments, "auto_tune_apply_"+worst); err != nil {
		m.log.Warn().Err(err).Str("component", worst).Msg("failed to apply auto-tune adjustments")
	}
}

func worstComponent(c Components) (string, float64) {
	worst, worstScore := "effectiveness", c.Effectiveness
	for name, s := range map[string]float64{
		"efficiency": c.Efficiency,
		"coverage":   c.Coverage,
		"precision":  c.Precision,
	} {
		if s < worstScore {
			worst, worstScore = name, s
		}
	}
	return worst, worstScore
}

// generateAutoTuneAdjustments mirrors _generate_auto_tune_adjustments's
// per-component heuristics exactly.
func (m *Manager) generateAutoTuneAdjustments(worst string, score Score) map[string]interface{} {
	adjustments := map[string]interface{}{}
	cfg := m.current

	switch worst {
	case "effectiveness":
		if score.Components.Effectiveness < 0 {
			break
		}
		if cfg.MinSharedEntities > 1 {
			adjustments["min_shared_entities"] = maxInt(1, cfg.MinSharedEntities-1)
		}
		if cfg.EntityOverlapThreshold > 0.150 {
			adjustments["entity_overlap_threshold"] = maxFloat(0.150, cfg.EntityOverlapThreshold-0.050)
		}
		if cfg.MaxTimeDiffHours < 72 {
			adjustments["max_time_diff_hours"] = minInt(72, cfg.MaxTimeDiffHours+12)
		}

	case "efficiency":
		if cfg.MaxEntityLength > 30 {
			adjustments["max_entity_length"] = 30
		}
		if cfg.EntityNoiseThreshold < 0.300 {
			adjustments["entity_noise_threshold"] = 0.300
		}

	case "coverage":
		if cfg.MinSharedEntities > 1 {
			adjustments["min_shared_entities"] = cfg.MinSharedEntities - 1
		}
		if cfg.EntityOverlapThreshold > 0.200 {
			adjustments["entity_overlap_threshold"] = maxFloat(0.200, cfg.EntityOverlapThreshold-0.030)
		}

	case "precision":
		if cfg.MinSharedEntities < 3 {
			adjustments["min_shared_entities"] = cfg.MinSharedEntities + 1
		}
		if cfg.EntityOverlapThreshold < 0.350 {
			adjustments["entity_overlap_threshold"] = minFloat(0.350, cfg.EntityOverlapThreshold+0.050)
		}
	}

	return adjustments
}

func currentParam(cfg models.GroupingConfig, param string) interface{} {
	switch param {
	case "min_shared_entities":
		return cfg.MinSharedEntities
	case "entity_overlap_threshold":
		return cfg.EntityOverlapThreshold
	case "min_title_keywords":
		return cfg.MinTitleKeywords
	case "title_keyword_bonus":
		return cfg.TitleKeywordBonus
	case "max_time_diff_hours":
		return cfg.MaxTimeDiffHours
	case "allow_same_outlet":
		return cfg.AllowSameOutlet
	case "min_entity_length":
		return cfg.MinEntityLength
	case "max_entity_length":
		return cfg.MaxEntityLength
	case "entity_noise_threshold":
		return cfg.EntityNoiseThreshold
	default:
		return nil
	}
}

var validParams = map[string]bool{
	"min_shared_entities": true, "entity_overlap_threshold": true, "min_title_keywords": true,
	"title_keyword_bonus": true, "max_time_diff_hours": true, "allow_same_outlet": true,
	"min_entity_length": true, "max_entity_length": true, "entity_noise_threshold": true,
}

// UpdateConfiguration applies a partial parameter update (e.g. from the
// admin-guarded web surface), validating keys against validParams and
// bumping the generation counter, matching update_configuration.
func (m *Manager) UpdateConfiguration(ctx context.Context, updates map[string]interface{}, reason string) error {
	if len(updates) == 0 {
		return nil
	}
	for param := range updates {
		if !validParams[param] {
			return fmt.Errorf("invalid configuration parameter: %s", param)
		}
	}

	old := m.current
	applyUpdates(&m.current, updates)
	m.configGeneration++

	for param, newValue := range updates {
		m.log.Info().Str("param", param).Interface("old", currentParam(old, param)).
			Interface("new", newValue).Str("reason", reason).Msg("config update")
	}

	source := models.ConfigSourceAutoTune
	if len(reason) >= 6 && reason[:6] == "manual" {
		source = models.ConfigSourceManual
	}

	snap := models.PerformanceConfigSnapshot{
		GroupingConfig:   m.current,
		ConfigSource:     source,
		ServiceInstance:  m.serviceInstance,
		ConfigGeneration: m.configGeneration,
		Notes:            "Configuration updated: " + reason,
	}
	_, err := m.store.InsertPerformanceSnapshot(ctx, snap)
	return err
}

func applyUpdates(cfg *models.GroupingConfig, updates map[string]interface{}) {
	for param, v := range updates {
		switch param {
		case "min_shared_entities":
			if i, ok := toInt(v); ok {
				cfg.MinSharedEntities = i
			}
		case "entity_overlap_threshold":
			if f, ok := toFloat(v); ok {
				cfg.EntityOverlapThreshold = f
			}
		case "min_title_keywords":
			if i, ok := toInt(v); ok {
				cfg.MinTitleKeywords = i
			}
		case "title_keyword_bonus":
			if f, ok := toFloat(v); ok {
				cfg.TitleKeywordBonus = f
			}
		case "max_time_diff_hours":
			if i, ok := toInt(v); ok {
				cfg.MaxTimeDiffHours = i
			}
		case "allow_same_outlet":
			if b, ok := v.(bool); ok {
				cfg.AllowSameOutlet = b
			}
		case "min_entity_length":
			if i, ok := toInt(v); ok {
				cfg.MinEntityLength = i
			}
		case "max_entity_length":
			if i, ok := toInt(v); ok {
				cfg.MaxEntityLength = i
			}
		case "entity_noise_threshold":
			if f, ok := toFloat(v); ok {
				cfg.EntityNoiseThreshold = f
			}
		}
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func strPtr(s string) *string { return &s }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
