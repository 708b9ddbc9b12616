package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// UpsertArticleByURL inserts a newly ingested article, or does nothing if
// the URL is already known, returning the row's id and whether it was
// newly inserted. Matches fetcher.py's save_article ON CONFLICT (url) DO
// NOTHING upsert — ingestion never overwrites an existing article's body.
func (s *Store) UpsertArticleByURL(ctx context.Context, a models.Article) (id int64, inserted bool, err error) {
	const q = `
		INSERT INTO articles (url, outlet_name, title, author, published_at, fetched_at,
		                       text, raw_html, feed_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`

	row := s.db.QueryRowContext(ctx, q, a.URL, a.OutletName, a.Title, a.Author, a.PublishedAt,
		a.FetchedAt, a.Text, a.RawHTML, a.FeedID)
	switch scanErr := row.Scan(&id); scanErr {
	case nil:
		return id, true, nil
	case sql.ErrNoRows:
		var existingID int64
		if err := s.db.QueryRowContext(ctx, `SELECT id FROM articles WHERE url = $1`, a.URL).Scan(&existingID); err != nil {
			return 0, false, errs.New(errs.KindStoreUnavailable, "store.UpsertArticleByURL", err)
		}
		return existingID, false, nil
	default:
		return 0, false, classifyWriteErr("store.UpsertArticleByURL", scanErr)
	}
}

// SelectUnprocessedArticles returns up to limit articles that have never
// had a quality score computed, oldest fetched_at first — the priority
// rule C9's batch loop uses so older articles never starve behind a
// constant stream of new ones.
func (s *Store) SelectUnprocessedArticles(ctx context.Context, limit int) ([]models.Article, error) {
	const q = `
		SELECT id, url, outlet_name, title, author, published_at, fetched_at, text, raw_html,
		       feed_id, quality_score, quality_computed_at,
		       ner_persons, ner_organizations, ner_locations, ner_dates, ner_others,
		       ner_extracted_at, computed_event_id
		FROM articles
		WHERE quality_computed_at IS NULL
		ORDER BY fetched_at ASC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.SelectUnprocessedArticles", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// SelectUngroupedArticles returns scored articles that have not yet been
// assigned to an event, for C10.1's grouping pass.
func (s *Store) SelectUngroupedArticles(ctx context.Context, since time.Time, limit int) ([]models.Article, error) {
	const q = `
		SELECT id, url, outlet_name, title, author, published_at, fetched_at, text, raw_html,
		       feed_id, quality_score, quality_computed_at,
		       ner_persons, ner_organizations, ner_locations, ner_dates, ner_others,
		       ner_extracted_at, computed_event_id
		FROM articles
		WHERE computed_event_id IS NULL AND quality_computed_at IS NOT NULL AND fetched_at >= $1
		ORDER BY fetched_at ASC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, q, since, limit)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.SelectUngroupedArticles", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

func scanArticles(rows *sql.Rows) ([]models.Article, error) {
	var out []models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.URL, &a.OutletName, &a.Title, &a.Author, &a.PublishedAt,
			&a.FetchedAt, &a.Text, &a.RawHTML, &a.FeedID, &a.QualityScore, &a.QualityComputedAt,
			&a.NERPersons, &a.NEROrganizations, &a.NERLocations, &a.NERDates, &a.NEROthers,
			&a.NERExtractedAt, &a.ComputedEventID); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.scanArticles", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.scanArticles", err)
	}
	return out, nil
}

// UpdateArticleScoresAndNER writes C9's composed quality score and C5's
// extracted entities in one statement, per spec §4.9 ("mutated exactly
// once").
func (s *Store) UpdateArticleScoresAndNER(ctx context.Context, a models.Article) error {
	const q = `
		UPDATE articles SET
			quality_score = $2, quality_computed_at = $3,
			ner_persons = $4, ner_organizations = $5, ner_locations = $6,
			ner_dates = $7, ner_others = $8, ner_extracted_at = $9
		WHERE id = $1`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.QualityScore, a.QualityComputedAt,
		a.NERPersons, a.NEROrganizations, a.NERLocations, a.NERDates, a.NEROthers, a.NERExtractedAt)
	if err != nil {
		return classifyWriteErr("store.UpdateArticleScoresAndNER", err)
	}
	return nil
}

// UpdateArticleComputedEventID stamps the winning event id onto every
// article id passed, inside one statement.
func (s *Store) UpdateArticleComputedEventID(ctx context.Context, articleIDs []int64, eventID int64) error {
	if len(articleIDs) == 0 {
		return nil
	}
	const q = `UPDATE articles SET computed_event_id = $1 WHERE id = ANY($2)`
	_, err := s.db.ExecContext(ctx, q, eventID, pq.Array(articleIDs))
	if err != nil {
		return classifyWriteErr("store.UpdateArticleComputedEventID", err)
	}
	return nil
}
