package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

type fakeStore struct {
	feeds   []models.Feed
	metrics map[string]*models.AgencyReputationMetrics
}

func (f *fakeStore) ListActiveFeeds(ctx context.Context) ([]models.Feed, error) { return f.feeds, nil }
func (f *fakeStore) GetAgencyReputationMetrics(ctx context.Context, outletName string) (*models.AgencyReputationMetrics, error) {
	return f.metrics[outletName], nil
}

func TestValidateThreeWayStatus(t *testing.T) {
	fs := &fakeStore{
		feeds: []models.Feed{
			{ID: 1, OutletName: "Reuters", URL: "https://reuters.com/rss"},
			{ID: 2, OutletName: "Tiny Blog", URL: "https://tinyblog.example/rss"},
			{ID: 3, OutletName: "Unscored Wire", URL: "https://unscored.example/rss"},
		},
		metrics: map[string]*models.AgencyReputationMetrics{
			"Reuters":       {OutletName: "Reuters", FinalReputationScore: 92.5},
			"Unscored Wire": {OutletName: "Unscored Wire", FinalReputationScore: 0},
		},
	}

	results, err := Validate(context.Background(), fs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, StatusValid, results[0].Status)
	assert.Equal(t, StatusNoAgencyMapping, results[1].Status)
	assert.Equal(t, StatusAgencyMappedNoScore, results[2].Status)

	summary := Summarize(results)
	assert.Equal(t, 3, summary.TotalFeeds)
	assert.Equal(t, 2, summary.MappedToAgencies)
	assert.Equal(t, 1, summary.WithReputationScores)
	assert.Equal(t, 1, summary.UnmappedFeeds)
	assert.Equal(t, 1, summary.MappedButUnscored)
	assert.InDelta(t, 66.67, summary.MappingPercentage, 0.01)
	assert.InDelta(t, 33.33, summary.ScoringPercentage, 0.01)
}

func TestSuggestMappingsMatchesKnownVariation(t *testing.T) {
	unmapped := []FeedValidation{
		{OutletName: "BBC World News", Status: StatusNoAgencyMapping},
	}
	existing := []string{"BBC"}

	suggestions := SuggestMappings(unmapped, existing)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "BBC World News", suggestions[0].FeedOutletName)
	assert.Equal(t, "BBC", suggestions[0].SuggestedAgency)
}

func TestSuggestMappingsSubstringMatch(t *testing.T) {
	unmapped := []FeedValidation{
		{OutletName: "Washington Examiner", Status: StatusNoAgencyMapping},
	}
	existing := []string{"Washington Post"}

	suggestions := SuggestMappings(unmapped, existing)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Washington Post", suggestions[0].SuggestedAgency)
}

func TestSummarizeEmptyResultsNoDivideByZero(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.TotalFeeds)
	assert.Equal(t, 0.0, summary.MappingPercentage)
}
