package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// InsertEventWithArticles creates a new event row and links every article
// id to it with the given relevance score, in one transaction, mirroring
// main.py's group_articles_into_events persistence step.
func (s *Store) InsertEventWithArticles(ctx context.Context, ev models.Event, links []models.EventArticleLink) (int64, error) {
	var eventID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		const insEvent = `
			INSERT INTO events (title, description, active) VALUES ($1,$2,true)
			RETURNING id`
		if err := tx.QueryRowContext(ctx, insEvent, ev.Title, ev.Description).Scan(&eventID); err != nil {
			return classifyWriteErr("store.InsertEventWithArticles.insertEvent", err)
		}

		const insLink = `
			INSERT INTO event_articles (event_id, article_id, relevance_score)
			VALUES ($1,$2,$3)
			ON CONFLICT (event_id, article_id) DO UPDATE SET relevance_score = EXCLUDED.relevance_score`
		for _, l := range links {
			if _, err := tx.ExecContext(ctx, insLink, eventID, l.ArticleID, l.RelevanceScore); err != nil {
				return classifyWriteErr("store.InsertEventWithArticles.insertLink", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return eventID, nil
}

// AddArticlesToEvent appends more articles to an already-existing event —
// the case where a new article matches a prior cluster rather than
// forming a fresh one.
func (s *Store) AddArticlesToEvent(ctx context.Context, eventID int64, links []models.EventArticleLink) error {
	if len(links) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO event_articles (event_id, article_id, relevance_score)
			VALUES ($1,$2,$3)
			ON CONFLICT (event_id, article_id) DO UPDATE SET relevance_score = EXCLUDED.relevance_score`
		for _, l := range links {
			if _, err := tx.ExecContext(ctx, q, eventID, l.ArticleID, l.RelevanceScore); err != nil {
				return classifyWriteErr("store.AddArticlesToEvent", err)
			}
		}
		const touch = `UPDATE events SET updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, touch, eventID); err != nil {
			return classifyWriteErr("store.AddArticlesToEvent.touch", err)
		}
		return nil
	})
}

// RecentActiveEvents returns active events with their member article ids,
// for C10.1's candidate-cluster matching window.
type EventWithMembers struct {
	models.Event
	ArticleIDs []int64
}

func (s *Store) RecentActiveEvents(ctx context.Context, limit int) ([]EventWithMembers, error) {
	const q = `
		SELECT e.id, e.title, e.description, e.created_at, e.updated_at, e.active,
		       COALESCE(array_agg(ea.article_id) FILTER (WHERE ea.article_id IS NOT NULL), '{}')
		FROM events e
		LEFT JOIN event_articles ea ON ea.event_id = e.id
		WHERE e.active = true
		GROUP BY e.id
		ORDER BY e.updated_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.RecentActiveEvents", err)
	}
	defer rows.Close()

	var out []EventWithMembers
	for rows.Next() {
		var ev EventWithMembers
		var ids pq.Int64Array
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.CreatedAt, &ev.UpdatedAt,
			&ev.Active, &ids); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.RecentActiveEvents", err)
		}
		ev.ArticleIDs = []int64(ids)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.RecentActiveEvents", err)
	}
	return out, nil
}

// UpsertEventMetrics replaces the EQIS row for an event wholesale, per
// spec §4.11 ("replaced wholesale on recomputation").
func (s *Store) UpsertEventMetrics(ctx context.Context, m models.EventMetrics) error {
	components, err := json.Marshal(m.Components)
	if err != nil {
		return errs.New(errs.KindInvalidConfiguration, "store.UpsertEventMetrics", err)
	}

	const q = `
		INSERT INTO event_metrics (event_id, computed_at, age_days, coverage_sites,
		                            keyword_coherence, best_source, corroboration_ratio,
		                            contradiction_rate, correction_risk, eqis_score, components)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (event_id) DO UPDATE SET
			computed_at = EXCLUDED.computed_at,
			age_days = EXCLUDED.age_days,
			coverage_sites = EXCLUDED.coverage_sites,
			keyword_coherence = EXCLUDED.keyword_coherence,
			best_source = EXCLUDED.best_source,
			corroboration_ratio = EXCLUDED.corroboration_ratio,
			contradiction_rate = EXCLUDED.contradiction_rate,
			correction_risk = EXCLUDED.correction_risk,
			eqis_score = EXCLUDED.eqis_score,
			components = EXCLUDED.components`

	_, err = s.db.ExecContext(ctx, q, m.EventID, m.ComputedAt, m.AgeDays, m.CoverageSites,
		m.KeywordCoherence, m.BestSource, m.CorroborationRatio, m.ContradictionRate,
		m.CorrectionRisk, m.EQISScore, components)
	if err != nil {
		return classifyWriteErr("store.UpsertEventMetrics", err)
	}
	return nil
}
