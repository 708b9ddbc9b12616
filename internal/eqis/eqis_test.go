package eqis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

func constantAuthority(score float64) AuthorityFunc {
	return func(ctx context.Context, outlet string) (float64, error) { return score, nil }
}

func TestComputeZeroScoreWithNoArticles(t *testing.T) {
	m, err := Compute(context.Background(), 1, nil, nil, constantAuthority(50), nil, DefaultConfig(), DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.EQISScore)
	assert.Equal(t, int64(1), m.EventID)
}

func TestCoherenceZeroBelowMinArticles(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{ID: 1, OutletName: "Reuters", Text: "the president signed a new law today", PublishedAt: &now},
	}
	score := coherenceSubScore(articles, DefaultConfig())
	assert.Equal(t, 0.0, score)
}

func TestCoherenceHighForNearIdenticalBodies(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{ID: 1, OutletName: "Reuters", Text: "the senate passed the budget bill after a long debate", PublishedAt: &now},
		{ID: 2, OutletName: "AP", Text: "the senate passed the budget bill following a long debate", PublishedAt: &now},
	}
	score := coherenceSubScore(articles, DefaultConfig())
	assert.Greater(t, score, 50.0)
}

func TestCoverageSubScoreSaturates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoverageSaturation = 2
	articles := []Article{
		{OutletName: "Reuters"}, {OutletName: "AP"}, {OutletName: "BBC"},
	}
	score, distinct := coverageSubScore(articles, cfg)
	assert.Equal(t, 100.0, score)
	assert.Equal(t, 3, distinct)
}

func TestDaysSubScoreDecaysWithAge(t *testing.T) {
	recent := time.Now().Add(-1 * time.Hour)
	old := time.Now().Add(-240 * time.Hour)
	cfg := DefaultConfig()

	recentScore, _ := daysSubScore([]Article{{PublishedAt: &recent}}, cfg)
	oldScore, _ := daysSubScore([]Article{{PublishedAt: &old}}, cfg)
	assert.Greater(t, recentScore, oldScore)
}

func TestCorroborationSubScorePenalizesContested(t *testing.T) {
	claims := []Claim{
		{OutletName: "Reuters", VerifiedState: models.VerifiedYes},
		{OutletName: "Reuters", VerifiedState: models.VerifiedYes},
		{OutletName: "AP", VerifiedState: models.Contested},
	}
	score, contestedShare := corroborationSubScore(claims)
	assert.InDelta(t, 1.0/3, contestedShare, 0.001)
	// verifiedShare=2/3, contestedShare=1/3 -> 100 * (2/3) * (2/3) = 44.44
	assert.InDelta(t, 44.44, score, 0.1)
}

func TestCorrectionRiskSubScoreHighRateRaisesRisk(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{OutletName: "risky-outlet", PublishedAt: &now},
	}
	cfg := DefaultConfig()
	highRate := func(string) float64 { return 0.05 }
	risk := correctionRiskSubScore(articles, highRate, cfg)
	assert.InDelta(t, 0, risk, 0.01)

	lowRate := func(string) float64 { return 0.0 }
	safeRisk := correctionRiskSubScore(articles, lowRate, cfg)
	assert.InDelta(t, 100, safeRisk, 0.01)
}

func TestBestSourceSubScorePicksHigherAuthority(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{OutletName: "strong", PublishedAt: &now},
		{OutletName: "weak", PublishedAt: &now},
	}
	authority := func(ctx context.Context, outlet string) (float64, error) {
		if outlet == "strong" {
			return 90, nil
		}
		return 10, nil
	}
	best, score, err := bestSourceSubScore(context.Background(), articles, nil, authority)
	require.NoError(t, err)
	assert.Equal(t, "strong", best)
	assert.Greater(t, score, 0.0)
}

func TestComputeUsesDefaultCorrectionRateWhenFuncNil(t *testing.T) {
	now := time.Now()
	articles := []Article{{ID: 1, OutletName: "Reuters", Text: "a body of text about policy changes today", PublishedAt: &now}}
	m, err := Compute(context.Background(), 7, articles, nil, constantAuthority(50), nil, DefaultConfig(), DefaultWeights())
	require.NoError(t, err)
	assert.Contains(t, m.Components, "correction_risk")
	assert.Less(t, m.CorrectionRisk, 100.0)
}
