package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

type fakeStore struct {
	sysConfig map[string]string

	articleBatches []int
	eventBatches   []int
	snapshotBatch  []int

	finishedStatus []models.CleanupStatus
}

func (f *fakeStore) GetSystemConfig(ctx context.Context, key string) (string, bool, error) {
	v, ok := f.sysConfig[key]
	return v, ok, nil
}

func (f *fakeStore) StartCleanupLog(ctx context.Context, cleanupType string) (int64, error) {
	return 1, nil
}

func (f *fakeStore) FinishCleanupLog(ctx context.Context, id int64, status models.CleanupStatus, recordsDeleted, batchCount int, errMsg *string) error {
	f.finishedStatus = append(f.finishedStatus, status)
	return nil
}

func (f *fakeStore) DeleteOldArticlesBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	if len(f.articleBatches) == 0 {
		return 0, nil
	}
	n := f.articleBatches[0]
	f.articleBatches = f.articleBatches[1:]
	return n, nil
}

func (f *fakeStore) DeleteOldEventsBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	if len(f.eventBatches) == 0 {
		return 0, nil
	}
	n := f.eventBatches[0]
	f.eventBatches = f.eventBatches[1:]
	return n, nil
}

func (f *fakeStore) DeleteOldSnapshotsBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	if len(f.snapshotBatch) == 0 {
		return 0, nil
	}
	n := f.snapshotBatch[0]
	f.snapshotBatch = f.snapshotBatch[1:]
	return n, nil
}

func defaults() Defaults {
	return Defaults{ArticleRetentionHours: 336, EventRetentionHours: 720, MetricsRetentionHours: 2160, BatchSize: 10}
}

func TestRunPassSweepsUntilBatchUndersized(t *testing.T) {
	st := &fakeStore{
		sysConfig:      map[string]string{},
		articleBatches: []int{10, 10, 3},
	}
	j := NewJob(st, zerolog.Nop(), defaults(), time.Hour)
	j.runPass(context.Background())

	assert.Empty(t, st.articleBatches)
	require.Len(t, st.finishedStatus, 3)
	assert.Equal(t, models.CleanupCompleted, st.finishedStatus[0])
}

func TestRunPassPrefersSystemConfigOverDefaults(t *testing.T) {
	st := &fakeStore{sysConfig: map[string]string{"cleanup_batch_size": "5"}}
	j := NewJob(st, zerolog.Nop(), defaults(), time.Hour)

	assert.Equal(t, 5, j.intConfig(context.Background(), "cleanup_batch_size", 500))
	assert.Equal(t, 336, j.intConfig(context.Background(), "article_retention_hours", 336))
}

func TestIntConfigFallsBackOnUnparseableValue(t *testing.T) {
	st := &fakeStore{sysConfig: map[string]string{"cleanup_batch_size": "not-a-number"}}
	j := NewJob(st, zerolog.Nop(), defaults(), time.Hour)

	assert.Equal(t, 500, j.intConfig(context.Background(), "cleanup_batch_size", 500))
}

func TestSweepRecordsErrorStatusOnDeleteFailure(t *testing.T) {
	st := &fakeStore{sysConfig: map[string]string{}}
	failing := func(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
		return 0, assertErr
	}
	j := NewJob(st, zerolog.Nop(), defaults(), time.Hour)
	j.sweep(context.Background(), "articles", time.Now(), 10, failing)

	require.Len(t, st.finishedStatus, 1)
	assert.Equal(t, models.CleanupError, st.finishedStatus[0])
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
