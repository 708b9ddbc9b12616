package store

import (
	"context"
	"database/sql"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// GetAgencyReputationMetrics fetches the administered metrics row for an
// outlet, case-insensitively, or nil if no row exists yet.
func (s *Store) GetAgencyReputationMetrics(ctx context.Context, outletName string) (*models.AgencyReputationMetrics, error) {
	const q = `
		SELECT id, outlet_name, pulitzer_awards, murrow_awards, peabody_awards, emmy_awards,
		       george_polk_awards, dupont_awards, spj_awards, other_specialized_awards,
		       press_freedom_ranking, industry_memberships, editorial_independence_rating,
		       correction_policy_exists, retraction_transparency, ownership_transparency,
		       funding_disclosure, ethics_code_public, fact_checking_standards,
		       total_awards_score, professional_standing_score, credibility_score,
		       final_reputation_score, research_notes, created_at, updated_at
		FROM agency_reputation_metrics WHERE LOWER(outlet_name) = LOWER($1)`

	var m models.AgencyReputationMetrics
	err := s.db.QueryRowContext(ctx, q, outletName).Scan(&m.ID, &m.OutletName,
		&m.PulitzerAwards, &m.MurrowAwards, &m.PeabodyAwards, &m.EmmyAwards, &m.GeorgePolkAwards,
		&m.DuPontAwards, &m.SPJAwards, &m.OtherSpecializedAwards, &m.PressFreedomRanking,
		&m.IndustryMemberships, &m.EditorialIndependenceRating, &m.CorrectionPolicyExists,
		&m.RetractionTransparency, &m.OwnershipTransparency, &m.FundingDisclosure,
		&m.EthicsCodePublic, &m.FactCheckingStandards, &m.TotalAwardsScore,
		&m.ProfessionalStandingScore, &m.CredibilityScore, &m.FinalReputationScore,
		&m.ResearchNotes, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.GetAgencyReputationMetrics", err)
	}
	return &m, nil
}

// GetOutletAuthority reads the administered fallback score, or nil if the
// outlet has no entry (fallback chain's last resort).
func (s *Store) GetOutletAuthority(ctx context.Context, outletName string) (*models.OutletAuthority, error) {
	const q = `SELECT outlet_name, authority_score FROM outlet_authority WHERE LOWER(outlet_name) = LOWER($1)`
	var a models.OutletAuthority
	err := s.db.QueryRowContext(ctx, q, outletName).Scan(&a.OutletName, &a.AuthorityScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.GetOutletAuthority", err)
	}
	return &a, nil
}

// UpdateAgencyReputationScores writes C7's computed component scores back
// onto the administered row, matching reputation_analyzer.py's write-back
// of total_awards_score/professional_standing_score/credibility_score/
// final_reputation_score.
func (s *Store) UpdateAgencyReputationScores(ctx context.Context, m models.AgencyReputationMetrics) error {
	const q = `
		UPDATE agency_reputation_metrics SET
			total_awards_score = $2, professional_standing_score = $3,
			credibility_score = $4, final_reputation_score = $5, updated_at = NOW()
		WHERE id = $1`
	_, err := s.db.ExecContext(ctx, q, m.ID, m.TotalAwardsScore, m.ProfessionalStandingScore,
		m.CredibilityScore, m.FinalReputationScore)
	if err != nil {
		return classifyWriteErr("store.UpdateAgencyReputationScores", err)
	}
	return nil
}

// UpsertOutletReputationCache refreshes the materialized lookup row C9
// reads at composition time.
func (s *Store) UpsertOutletReputationCache(ctx context.Context, c models.OutletReputationCache) error {
	const q = `
		INSERT INTO outlet_reputation_scores (outlet_name, reputation_score, reputation_metrics_id,
		                                       total_major_awards, has_fact_checking,
		                                       press_freedom_tier, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT (outlet_name) DO UPDATE SET
			reputation_score = EXCLUDED.reputation_score,
			reputation_metrics_id = EXCLUDED.reputation_metrics_id,
			total_major_awards = EXCLUDED.total_major_awards,
			has_fact_checking = EXCLUDED.has_fact_checking,
			press_freedom_tier = EXCLUDED.press_freedom_tier,
			last_updated = NOW()`
	_, err := s.db.ExecContext(ctx, q, c.OutletName, c.ReputationScore, c.AgencyMetricsID,
		c.TotalMajorAwards, c.HasFactChecking, string(c.PressFreedomTier))
	if err != nil {
		return classifyWriteErr("store.UpsertOutletReputationCache", err)
	}
	return nil
}

// GetOutletReputationCache is C9's O(1) lookup at composition time.
func (s *Store) GetOutletReputationCache(ctx context.Context, outletName string) (*models.OutletReputationCache, error) {
	const q = `
		SELECT outlet_name, reputation_score, reputation_metrics_id, total_major_awards,
		       has_fact_checking, press_freedom_tier, last_updated
		FROM outlet_reputation_scores WHERE LOWER(outlet_name) = LOWER($1)`
	var c models.OutletReputationCache
	var tier string
	err := s.db.QueryRowContext(ctx, q, outletName).Scan(&c.OutletName, &c.ReputationScore,
		&c.AgencyMetricsID, &c.TotalMajorAwards, &c.HasFactChecking, &tier, &c.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.GetOutletReputationCache", err)
	}
	c.PressFreedomTier = models.PressFreedomTier(tier)
	return &c, nil
}

// ListOutletsNeedingReputationRefresh returns outlet names present in feeds
// that either have no cache row yet, or whose cache is older than the
// administered metrics' last update — C7's batch-refresh candidate set.
func (s *Store) ListOutletsNeedingReputationRefresh(ctx context.Context) ([]string, error) {
	const q = `
		SELECT DISTINCT f.outlet_name
		FROM feeds f
		LEFT JOIN outlet_reputation_scores c ON LOWER(c.outlet_name) = LOWER(f.outlet_name)
		LEFT JOIN agency_reputation_metrics m ON LOWER(m.outlet_name) = LOWER(f.outlet_name)
		WHERE c.outlet_name IS NULL OR (m.updated_at IS NOT NULL AND m.updated_at > c.last_updated)`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.ListOutletsNeedingReputationRefresh", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errs.New(errs.KindStoreUnavailable, "store.ListOutletsNeedingReputationRefresh", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
