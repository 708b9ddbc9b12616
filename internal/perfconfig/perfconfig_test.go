package perfconfig

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

type fakeStore struct {
	best      *models.PerformanceConfigSnapshot
	latest    *models.PerformanceConfigSnapshot
	snapshots []models.PerformanceConfigSnapshot
	changes   []models.ConfigChangeEvent
}

func (f *fakeStore) BestRecentSnapshot(ctx context.Context, serviceInstance string, lookback int) (*models.PerformanceConfigSnapshot, error) {
	return f.best, nil
}
func (f *fakeStore) LatestSnapshot(ctx context.Context, serviceInstance string) (*models.PerformanceConfigSnapshot, error) {
	return f.latest, nil
}
func (f *fakeStore) InsertPerformanceSnapshot(ctx context.Context, snap models.PerformanceConfigSnapshot) (int64, error) {
	f.snapshots = append(f.snapshots, snap)
	return int64(len(f.snapshots)), nil
}
func (f *fakeStore) InsertConfigChangeEvent(ctx context.Context, e models.ConfigChangeEvent) error {
	f.changes = append(f.changes, e)
	return nil
}

func TestLoadStartupConfigurationFallsBackToConservativeDefaults(t *testing.T) {
	fs := &fakeStore{}
	m := NewManager(fs, zerolog.Nop(), "test-instance", false)
	cfg, err := m.LoadStartupConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ConservativeDefaults(), cfg)
	require.Len(t, fs.snapshots, 1)
	assert.Equal(t, models.ConfigSourceStartup, fs.snapshots[0].ConfigSource)
}

func TestLoadStartupConfigurationPrefersHighScoringSnapshot(t *testing.T) {
	score := 85.0
	best := &models.PerformanceConfigSnapshot{
		GroupingConfig:   models.GroupingConfig{MinSharedEntities: 5},
		PerformanceScore: &score,
		ConfigGeneration: 3,
	}
	fs := &fakeStore{best: best}
	m := NewManager(fs, zerolog.Nop(), "test-instance", false)
	cfg, err := m.LoadStartupConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MinSharedEntities)
}

func TestCalculateOverallScorePerfectRange(t *testing.T) {
	m := BatchMetrics{
		ArticlesProcessed:    100,
		EventsCreated:        30,
		EventCreationRate:    0.30,
		CoveragePercentage:   60.0,
		AvgArticlesPerEvent:  3.0,
		SingletonEventsCount: 0,
		ProcessingTimeMs:     10000,
	}
	score := CalculateOverallScore(m, nil)
	assert.Equal(t, models.TrendInitial, score.Trend)
	assert.InDelta(t, 100, score.Components.Effectiveness, 0.01)
	assert.InDelta(t, 100, score.Components.Coverage, 0.01)
	assert.InDelta(t, 100, score.Components.Precision, 0.01)
}

func TestCalculateOverallScoreTrendClassification(t *testing.T) {
	prev := 80.0
	m := BatchMetrics{ArticlesProcessed: 10, EventCreationRate: 0.05, CoveragePercentage: 10, AvgArticlesPerEvent: 1.0}
	score := CalculateOverallScore(m, &prev)
	assert.Equal(t, models.TrendDeclining, score.Trend)
}

func TestSavePerformanceSnapshotTriggersAutoTuneOnLowScore(t *testing.T) {
	fs := &fakeStore{}
	m := NewManager(fs, zerolog.Nop(), "test-instance", false)
	_, err := m.LoadStartupConfiguration(context.Background())
	require.NoError(t, err)

	metrics := BatchMetrics{ArticlesProcessed: 100, EventCreationRate: 0.02, CoveragePercentage: 5, AvgArticlesPerEvent: 1.0, ProcessingTimeMs: 50000}
	_, err = m.SavePerformanceSnapshot(context.Background(), metrics, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, fs.changes)
}

func TestUpdateConfigurationRejectsInvalidParam(t *testing.T) {
	fs := &fakeStore{}
	m := NewManager(fs, zerolog.Nop(), "test-instance", false)
	err := m.UpdateConfiguration(context.Background(), map[string]interface{}{"not_a_real_param": 1}, "manual_update")
	assert.Error(t, err)
}

func TestUpdateConfigurationAppliesValidParam(t *testing.T) {
	fs := &fakeStore{}
	m := NewManager(fs, zerolog.Nop(), "test-instance", false)
	_, err := m.LoadStartupConfiguration(context.Background())
	require.NoError(t, err)

	err = m.UpdateConfiguration(context.Background(), map[string]interface{}{"min_shared_entities": 5}, "manual_update")
	require.NoError(t, err)
	assert.Equal(t, 5, m.Current().MinSharedEntities)
}
