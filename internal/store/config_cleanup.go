package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// GetSystemConfig reads one key, or ("", false) if unset.
func (s *Store) GetSystemConfig(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM system_config WHERE key = $1`
	var value string
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.New(errs.KindStoreUnavailable, "store.GetSystemConfig", err)
	}
	return value, true, nil
}

// SetSystemConfig inserts or replaces one system_config key. No HTTP route
// or GraphQL mutation of the web surface calls it.
func (s *Store) SetSystemConfig(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO system_config (key, value) VALUES ($1,$2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	_, err := s.db.ExecContext(ctx, q, key, value)
	if err != nil {
		return classifyWriteErr("store.SetSystemConfig", err)
	}
	return nil
}

// AllSystemConfig returns every configured key for the retention cleanup
// job to read its window sizes from.
func (s *Store) AllSystemConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM system_config`)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.AllSystemConfig", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.AllSystemConfig", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// StartCleanupLog opens a new cleanup_log row in the running state and
// returns its id.
func (s *Store) StartCleanupLog(ctx context.Context, cleanupType string) (int64, error) {
	const q = `INSERT INTO cleanup_log (cleanup_type, status) VALUES ($1,'running') RETURNING id`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, cleanupType).Scan(&id); err != nil {
		return 0, classifyWriteErr("store.StartCleanupLog", err)
	}
	return id, nil
}

// FinishCleanupLog closes a cleanup_log row with its final outcome.
func (s *Store) FinishCleanupLog(ctx context.Context, id int64, status models.CleanupStatus, recordsDeleted, batchCount int, errMsg *string) error {
	const q = `
		UPDATE cleanup_log SET completed_at = NOW(), status = $2, records_deleted = $3,
		                        batch_count = $4, error_message = $5
		WHERE id = $1`
	_, err := s.db.ExecContext(ctx, q, id, string(status), recordsDeleted, batchCount, errMsg)
	if err != nil {
		return classifyWriteErr("store.FinishCleanupLog", err)
	}
	return nil
}

// DeleteOldArticlesBatch deletes up to batchSize articles fetched before
// cutoff, cascading to their claims and event_articles links, and returns
// the number of rows removed. Repeated by the cleanup job until it
// returns fewer than batchSize, bounding lock duration the way a single giant DELETE would not.
func (s *Store) DeleteOldArticlesBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	const q = `
		DELETE FROM articles WHERE id IN (
			SELECT id FROM articles WHERE fetched_at < $1 ORDER BY fetched_at LIMIT $2
		)`
	res, err := s.db.ExecContext(ctx, q, cutoff, batchSize)
	if err != nil {
		return 0, classifyWriteErr("store.DeleteOldArticlesBatch", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteOldEventsBatch deletes up to batchSize events created before
// cutoff with no remaining linked articles, whether active or not.
func (s *Store) DeleteOldEventsBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	const q = `
		DELETE FROM events WHERE id IN (
			SELECT e.id FROM events e
			LEFT JOIN event_articles ea ON ea.event_id = e.id
			WHERE e.created_at < $1
			GROUP BY e.id
			HAVING COUNT(ea.article_id) = 0
			ORDER BY e.id
			LIMIT $2
		)`
	res, err := s.db.ExecContext(ctx, q, cutoff, batchSize)
	if err != nil {
		return 0, classifyWriteErr("store.DeleteOldEventsBatch", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteOldSnapshotsBatch deletes up to batchSize performance snapshots
// older than cutoff.
func (s *Store) DeleteOldSnapshotsBatch(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	const q = `
		DELETE FROM performance_config_snapshots WHERE id IN (
			SELECT id FROM performance_config_snapshots WHERE snapshot_timestamp < $1
			ORDER BY snapshot_timestamp LIMIT $2
		)`
	res, err := s.db.ExecContext(ctx, q, cutoff, batchSize)
	if err != nil {
		return 0, classifyWriteErr("store.DeleteOldSnapshotsBatch", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
