package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// ListRecentArticles serves the read-only web surface's article listing,
// newest-fetched first.
func (s *Store) ListRecentArticles(ctx context.Context, limit int) ([]models.Article, error) {
	const q = `
		SELECT id, url, outlet_name, title, author, published_at, fetched_at, text, raw_html,
		       feed_id, quality_score, quality_computed_at,
		       ner_persons, ner_organizations, ner_locations, ner_dates, ner_others,
		       ner_extracted_at, computed_event_id
		FROM articles
		ORDER BY fetched_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ListRecentArticles", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetArticle fetches a single article by id, or nil if it doesn't exist.
func (s *Store) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	const q = `
		SELECT id, url, outlet_name, title, author, published_at, fetched_at, text, raw_html,
		       feed_id, quality_score, quality_computed_at,
		       ner_persons, ner_organizations, ner_locations, ner_dates, ner_others,
		       ner_extracted_at, computed_event_id
		FROM articles WHERE id = $1`

	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.GetArticle", err)
	}
	defer rows.Close()
	articles, err := scanArticles(rows)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, nil
	}
	return &articles[0], nil
}

// ListRecentEvents serves the read-only web surface's event listing,
// newest-updated first. EQIS rows are not joined in; GetEventMetrics
// fetches them per event.
func (s *Store) ListRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	const q = `
		SELECT id, title, description, created_at, updated_at, active
		FROM events
		ORDER BY updated_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ListRecentEvents", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.CreatedAt, &e.UpdatedAt, &e.Active); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.ListRecentEvents", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ListRecentEvents", err)
	}
	return out, nil
}

// GetEventMetrics fetches the EQIS row for an event, or nil if C11 has
// never computed one.
func (s *Store) GetEventMetrics(ctx context.Context, eventID int64) (*models.EventMetrics, error) {
	const q = `
		SELECT event_id, computed_at, age_days, coverage_sites, keyword_coherence, best_source,
		       corroboration_ratio, contradiction_rate, correction_risk, eqis_score, components
		FROM event_metrics WHERE event_id = $1`

	var m models.EventMetrics
	var components []byte
	err := s.db.QueryRowContext(ctx, q, eventID).Scan(&m.EventID, &m.ComputedAt, &m.AgeDays,
		&m.CoverageSites, &m.KeywordCoherence, &m.BestSource, &m.CorroborationRatio,
		&m.ContradictionRate, &m.CorrectionRisk, &m.EQISScore, &components)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.GetEventMetrics", err)
	}
	if len(components) > 0 {
		if err := json.Unmarshal(components, &m.Components); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.GetEventMetrics", err)
		}
	}
	return &m, nil
}

// EventArticles returns every article belonging to an event, for the web
// surface's nested Event.articles resolver.
func (s *Store) EventArticles(ctx context.Context, eventID int64) ([]models.Article, error) {
	const q = `
		SELECT a.id, a.url, a.outlet_name, a.title, a.author, a.published_at, a.fetched_at,
		       a.text, a.raw_html, a.feed_id, a.quality_score, a.quality_computed_at,
		       a.ner_persons, a.ner_organizations, a.ner_locations, a.ner_dates, a.ner_others,
		       a.ner_extracted_at, a.computed_event_id
		FROM articles a
		JOIN event_articles ea ON ea.article_id = a.id
		WHERE ea.event_id = $1
		ORDER BY a.published_at ASC`

	rows, err := s.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.EventArticles", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ListFeeds serves the read-only web surface's feed listing.
func (s *Store) ListFeeds(ctx context.Context) ([]models.Feed, error) {
	const q = `
		SELECT id, url, outlet_name, active, last_fetched, poll_interval_minutes,
		       agency_metrics_id, created_at, updated_at
		FROM feeds
		ORDER BY outlet_name ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ListFeeds", err)
	}
	defer rows.Close()

	var out []models.Feed
	for rows.Next() {
		var f models.Feed
		if err := rows.Scan(&f.ID, &f.URL, &f.OutletName, &f.Active, &f.LastFetched,
			&f.PollIntervalMinutes, &f.AgencyMetricsID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.ListFeeds", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ListFeeds", err)
	}
	return out, nil
}
