package store

import (
	"context"
	"database/sql"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// InsertClaims writes every extracted claim for an article in one
// transaction, including the single placeholder row C4 emits when no real
// claim sentence is found, so the article is never reprocessed.
func (s *Store) InsertClaims(ctx context.Context, claims []models.Claim) error {
	if len(claims) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO claims (article_id, claim_text, claim_type, verified_state,
			                     verification_source, confidence)
			VALUES ($1,$2,$3,$4,$5,$6)`
		for _, c := range claims {
			if _, err := tx.ExecContext(ctx, q, c.ArticleID, c.ClaimText, c.ClaimType,
				c.VerifiedState, c.VerificationSource, c.Confidence); err != nil {
				return classifyWriteErr("store.InsertClaims", err)
			}
		}
		return nil
	})
}

// ClaimsForArticle returns every claim row for one article, used by C9's
// composition step to read back C4's output without recomputing it.
func (s *Store) ClaimsForArticle(ctx context.Context, articleID int64) ([]models.Claim, error) {
	const q = `
		SELECT id, article_id, claim_text, claim_type, verified_state,
		       verification_source, confidence, created_at
		FROM claims WHERE article_id = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, articleID)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ClaimsForArticle", err)
	}
	defer rows.Close()

	var out []models.Claim
	for rows.Next() {
		var c models.Claim
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.ClaimText, &c.ClaimType, &c.VerifiedState,
			&c.VerificationSource, &c.Confidence, &c.CreatedAt); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.ClaimsForArticle", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ClaimsForArticle", err)
	}
	return out, nil
}
