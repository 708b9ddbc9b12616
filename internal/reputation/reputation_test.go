package reputation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

type fakeStore struct {
	metrics   map[string]*models.AgencyReputationMetrics
	authority map[string]*models.OutletAuthority
	cache     map[string]*models.OutletReputationCache
	updated   *models.AgencyReputationMetrics
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		metrics:   map[string]*models.AgencyReputationMetrics{},
		authority: map[string]*models.OutletAuthority{},
		cache:     map[string]*models.OutletReputationCache{},
	}
}

func (f *fakeStore) GetAgencyReputationMetrics(ctx context.Context, outletName string) (*models.AgencyReputationMetrics, error) {
	return f.metrics[outletName], nil
}
func (f *fakeStore) GetOutletAuthority(ctx context.Context, outletName string) (*models.OutletAuthority, error) {
	return f.authority[outletName], nil
}
func (f *fakeStore) UpdateAgencyReputationScores(ctx context.Context, m models.AgencyReputationMetrics) error {
	f.updated = &m
	return nil
}
func (f *fakeStore) UpsertOutletReputationCache(ctx context.Context, c models.OutletReputationCache) error {
	f.cache[c.OutletName] = &c
	return nil
}
func (f *fakeStore) GetOutletReputationCache(ctx context.Context, outletName string) (*models.OutletReputationCache, error) {
	return f.cache[outletName], nil
}
func (f *fakeStore) ListOutletsNeedingReputationRefresh(ctx context.Context) ([]string, error) {
	var out []string
	for name := range f.metrics {
		out = append(out, name)
	}
	return out, nil
}

func TestRecomputeWithFullAwardsAndStanding(t *testing.T) {
	fs := newFakeStore()
	ranking := 15
	independence := 8.0
	fs.metrics["Reuters"] = &models.AgencyReputationMetrics{
		ID: 1, OutletName: "Reuters",
		PulitzerAwards: 2, MurrowAwards: 1, PeabodyAwards: 1, EmmyAwards: 1,
		GeorgePolkAwards: 1, DuPontAwards: 1, SPJAwards: 2, OtherSpecializedAwards: 2,
		PressFreedomRanking:         &ranking,
		IndustryMemberships:         models.StringArray{"a", "b", "c"},
		EditorialIndependenceRating: &independence,
		CorrectionPolicyExists:      true,
		RetractionTransparency:      true,
		OwnershipTransparency:       true,
		FundingDisclosure:           true,
		EthicsCodePublic:            true,
		FactCheckingStandards:       true,
	}

	svc := NewService(fs, zerolog.Nop())
	score, err := svc.Recompute(context.Background(), "Reuters")
	require.NoError(t, err)

	// awards: major=min(40,(2+1+1+1)*10)=40, specialized=min(20,(1+1)*5+(2+2)*2)=min(20,26)=20 -> 60
	// professional: press=10, memberships=min(6,6)=6, independence=min(4,int(3.2))=3, factcheck=5 -> 24
	// credibility: 5*3=15
	// total = min(100, 60+24+15) = 99
	assert.Equal(t, 99.0, score)
	require.NotNil(t, fs.updated)
	assert.Equal(t, 60, fs.updated.TotalAwardsScore)
	assert.Equal(t, 24, fs.updated.ProfessionalStandingScore)
	assert.Equal(t, 15, fs.updated.CredibilityScore)

	cache := fs.cache["Reuters"]
	require.NotNil(t, cache)
	assert.Equal(t, models.TierExcellent, cache.PressFreedomTier)
	assert.Equal(t, 5, cache.TotalMajorAwards)
}

func TestRecomputeFallsBackToBasicAuthority(t *testing.T) {
	fs := newFakeStore()
	fs.authority["Small Outlet"] = &models.OutletAuthority{OutletName: "Small Outlet", AuthorityScore: 20}

	svc := NewService(fs, zerolog.Nop())
	score, err := svc.Recompute(context.Background(), "Small Outlet")
	require.NoError(t, err)
	assert.Equal(t, 50.0, score)
}

func TestRecomputeUnknownOutletDefault(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs, zerolog.Nop())
	score, err := svc.Recompute(context.Background(), "Nobody Ever Heard Of")
	require.NoError(t, err)
	assert.Equal(t, defaultUnknownOutletScore, score)
}

func TestScorePrefersCache(t *testing.T) {
	fs := newFakeStore()
	fs.cache["Reuters"] = &models.OutletReputationCache{OutletName: "Reuters", ReputationScore: 77}
	svc := NewService(fs, zerolog.Nop())
	score, err := svc.Score(context.Background(), "Reuters")
	require.NoError(t, err)
	assert.Equal(t, 77.0, score)
}

func TestPressFreedomScoreBands(t *testing.T) {
	r20, r50, r100, r150, r200 := 20, 50, 100, 150, 200
	assert.Equal(t, 10, pressFreedomScore(&r20))
	assert.Equal(t, 8, pressFreedomScore(&r50))
	assert.Equal(t, 6, pressFreedomScore(&r100))
	assert.Equal(t, 4, pressFreedomScore(&r150))
	assert.Equal(t, 2, pressFreedomScore(&r200))
	assert.Equal(t, 5, pressFreedomScore(nil))
}
