// Package reputation implements C7: outlet reputation scoring from awards,
// professional standing and credibility/ethics indicators, ported from
// reputation_analyzer.py. Administered metrics live in Postgres (internal/
// store); this package is pure scoring plus the fallback chain and cache
// write-back.
package reputation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mkolb22/k8s-news-engine/internal/models"
	"github.com/mkolb22/k8s-news-engine/internal/store"
)

// Store is the subset of *store.Store this package depends on.
type Store interface {
	GetAgencyReputationMetrics(ctx context.Context, outletName string) (*models.AgencyReputationMetrics, error)
	GetOutletAuthority(ctx context.Context, outletName string) (*models.OutletAuthority, error)
	UpdateAgencyReputationScores(ctx context.Context, m models.AgencyReputationMetrics) error
	UpsertOutletReputationCache(ctx context.Context, c models.OutletReputationCache) error
	GetOutletReputationCache(ctx context.Context, outletName string) (*models.OutletReputationCache, error)
	ListOutletsNeedingReputationRefresh(ctx context.Context) ([]string, error)
}

// defaultUnknownOutletScore is returned when neither detailed metrics nor a
// basic authority row exist for an outlet, matching get_basic_authority_score.
const defaultUnknownOutletScore = 30.0

// Service computes and caches outlet reputation scores.
type Service struct {
	store Store
	log   zerolog.Logger
}

var _ Store = (*store.Store)(nil)

func NewService(st Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log}
}

// Score returns an outlet's reputation score (0-100), preferring the cache,
// then detailed agency metrics, then the basic authority fallback, then the
// unknown-outlet default — matching get_outlet_reputation's cache chain.
func (svc *Service) Score(ctx context.Context, outletName string) (float64, error) {
	cached, err := svc.store.GetOutletReputationCache(ctx, outletName)
	if err != nil {
		return 0, err
	}
	if cached != nil {
		return cached.ReputationScore, nil
	}
	return svc.Recompute(ctx, outletName)
}

// Recompute forces a fresh calculation, matching calculate_reputation_score.
// When a metrics row exists, the result is written back to it and upserted
// into the cache; the authority and unknown-outlet fallbacks are returned
// without caching.
func (svc *Service) Recompute(ctx context.Context, outletName string) (float64, error) {
	metrics, err := svc.store.GetAgencyReputationMetrics(ctx, outletName)
	if err != nil {
		return 0, err
	}
	if metrics == nil {
		return svc.basicAuthorityScore(ctx, outletName)
	}

	awards := awardsScore(*metrics)
	professional := professionalStandingScore(*metrics)
	credibility := credibilityScore(*metrics)

	total := awards + professional + credibility
	if total > 100 {
		total = 100
	}

	metrics.TotalAwardsScore = awards
	metrics.ProfessionalStandingScore = professional
	metrics.CredibilityScore = credibility
	metrics.FinalReputationScore = float64(total)

	if err := svc.store.UpdateAgencyReputationScores(ctx, *metrics); err != nil {
		return 0, err
	}

	tier := models.PressFreedomTierFromRanking(metrics.PressFreedomRanking)
	totalMajorAwards := metrics.PulitzerAwards + metrics.MurrowAwards + metrics.PeabodyAwards + metrics.EmmyAwards

	cache := models.OutletReputationCache{
		OutletName:       outletName,
		ReputationScore:  metrics.FinalReputationScore,
		AgencyMetricsID:  &metrics.ID,
		TotalMajorAwards: totalMajorAwards,
		HasFactChecking:  metrics.FactCheckingStandards,
		PressFreedomTier: tier,
	}
	if err := svc.store.UpsertOutletReputationCache(ctx, cache); err != nil {
		return 0, err
	}

	svc.log.Info().Str("outlet", outletName).Float64("score", metrics.FinalReputationScore).
		Int("awards", awards).Int("professional", professional).Int("credibility", credibility).
		Msg("recomputed outlet reputation")

	return metrics.FinalReputationScore, nil
}

// basicAuthorityScore is the fallback for outlets with no detailed metrics
// row, matching get_basic_authority_score: a 0-40 authority scale scaled by
// 2.5 to 0-100, or the unknown-outlet default.
func (svc *Service) basicAuthorityScore(ctx context.Context, outletName string) (float64, error) {
	authority, err := svc.store.GetOutletAuthority(ctx, outletName)
	if err != nil {
		return 0, err
	}
	if authority == nil {
		return defaultUnknownOutletScore, nil
	}
	score := float64(authority.AuthorityScore) * 2.5
	if score > 100 {
		score = 100
	}
	return score, nil
}

// RefreshStale recomputes every outlet whose cache is missing or older than
// its administered metrics, matching a batch sweep over get_outlet_reputation.
func (svc *Service) RefreshStale(ctx context.Context) (int, error) {
	outlets, err := svc.store.ListOutletsNeedingReputationRefresh(ctx)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, outlet := range outlets {
		if _, err := svc.Recompute(ctx, outlet); err != nil {
			svc.log.Warn().Err(err).Str("outlet", outlet).Msg("reputation refresh failed")
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// awardsScore is 0-60: major awards (10 pts each, max 40) plus
// regional/specialized awards (max 20), matching _calculate_awards_score.
func awardsScore(m models.AgencyReputationMetrics) int {
	major := minInt(40, (m.PulitzerAwards+m.MurrowAwards+m.PeabodyAwards+m.EmmyAwards)*10)
	specialized := minInt(20, (m.GeorgePolkAwards+m.DuPontAwards)*5+(m.SPJAwards+m.OtherSpecializedAwards)*2)
	return major + specialized
}

// professionalStandingScore is 0-25: press freedom + industry memberships +
// editorial independence + fact-checking standards, matching
// _calculate_professional_standing.
func professionalStandingScore(m models.AgencyReputationMetrics) int {
	score := pressFreedomScore(m.PressFreedomRanking)
	score += minInt(6, len(m.IndustryMemberships)*2)

	if m.EditorialIndependenceRating != nil {
		score += minInt(4, int(*m.EditorialIndependenceRating*0.4))
	}
	if m.FactCheckingStandards {
		score += 5
	}
	return minInt(25, score)
}

// credibilityScore is 0-15: five boolean ethics factors at 3 points each,
// matching _calculate_credibility_score.
func credibilityScore(m models.AgencyReputationMetrics) int {
	score := 0
	for _, factor := range []bool{
		m.CorrectionPolicyExists,
		m.RetractionTransparency,
		m.OwnershipTransparency,
		m.FundingDisclosure,
		m.EthicsCodePublic,
	} {
		if factor {
			score += 3
		}
	}
	return score
}

// pressFreedomScore converts a ranking to 0-10 points, matching
// _calculate_press_freedom_score. nil (unknown) gets the default 5.
func pressFreedomScore(ranking *int) int {
	if ranking == nil {
		return 5
	}
	r := *ranking
	switch {
	case r <= 20:
		return 10
	case r <= 50:
		return 8
	case r <= 100:
		return 6
	case r <= 150:
		return 4
	default:
		return 2
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
