package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// ListActiveFeeds returns every feed with active=true, ordered by id, for
// the scheduler's poll loop.
func (s *Store) ListActiveFeeds(ctx context.Context) ([]models.Feed, error) {
	const q = `
		SELECT id, url, outlet_name, active, last_fetched, poll_interval_minutes,
		       agency_metrics_id, created_at, updated_at
		FROM feeds WHERE active = true ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ListActiveFeeds", err)
	}
	defer rows.Close()

	var out []models.Feed
	for rows.Next() {
		var f models.Feed
		if err := rows.Scan(&f.ID, &f.URL, &f.OutletName, &f.Active, &f.LastFetched,
			&f.PollIntervalMinutes, &f.AgencyMetricsID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.ListActiveFeeds", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ListActiveFeeds", err)
	}
	return out, nil
}

// DueFeeds filters feeds whose poll interval has elapsed, mirroring
// fetcher.py's should_fetch_feed: never fetched, or last_fetched older than
// poll_interval_minutes ago.
func DueFeeds(feeds []models.Feed, now time.Time) []models.Feed {
	var due []models.Feed
	for _, f := range feeds {
		if f.LastFetched == nil {
			due = append(due, f)
			continue
		}
		if now.Sub(*f.LastFetched) >= time.Duration(f.PollIntervalMinutes)*time.Minute {
			due = append(due, f)
		}
	}
	return due
}

// MarkFeedFetched stamps last_fetched=now for a feed after a fetch attempt,
// successful or not, so a failing feed waits out its poll interval like a
// healthy one instead of being retried on every tick.
func (s *Store) MarkFeedFetched(ctx context.Context, feedID int64, when time.Time) error {
	const q = `UPDATE feeds SET last_fetched = $2, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, q, feedID, when); err != nil {
		return errs.New(errs.KindStoreUnavailable, "store.MarkFeedFetched", err)
	}
	return nil
}

// GetFeed fetches a single feed by id.
func (s *Store) GetFeed(ctx context.Context, id int64) (*models.Feed, error) {
	const q = `
		SELECT id, url, outlet_name, active, last_fetched, poll_interval_minutes,
		       agency_metrics_id, created_at, updated_at
		FROM feeds WHERE id = $1`
	var f models.Feed
	err := s.db.QueryRowContext(ctx, q, id).Scan(&f.ID, &f.URL, &f.OutletName, &f.Active,
		&f.LastFetched, &f.PollIntervalMinutes, &f.AgencyMetricsID, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.GetFeed", err)
	}
	return &f, nil
}
