// Package validator implements C8: an advisory check that every active feed
// has a corresponding outlet reputation mapping, ported from
// rss_agency_validator.py. Since this module's schema joins Feed to
// AgencyReputationMetrics on outlet_name directly (no separate news_agency_id
// foreign key), "has a mapping" here means a matching agency_reputation_metrics
// row exists for the feed's outlet_name.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// Status is the three-way validation outcome for one feed.
type Status string

const (
	StatusValid               Status = "VALID"
	StatusAgencyMappedNoScore Status = "AGENCY_MAPPED_NO_SCORE"
	StatusNoAgencyMapping     Status = "NO_AGENCY_MAPPING"
)

// FeedValidation is one feed's validation result, matching RSSFeedValidation.
type FeedValidation struct {
	FeedID            int64
	OutletName        string
	URL               string
	HasAgencyMapping  bool
	AgencyName        string
	ReputationScore   *float64
	Status            Status
	Recommendations   []string
}

// Store is the subset of *store.Store this package depends on.
type Store interface {
	ListActiveFeeds(ctx context.Context) ([]models.Feed, error)
	GetAgencyReputationMetrics(ctx context.Context, outletName string) (*models.AgencyReputationMetrics, error)
}

// Validate checks every active feed, matching validate_all_rss_feeds.
func Validate(ctx context.Context, st Store) ([]FeedValidation, error) {
	feeds, err := st.ListActiveFeeds(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]FeedValidation, 0, len(feeds))
	for _, feed := range feeds {
		metrics, err := st.GetAgencyReputationMetrics(ctx, feed.OutletName)
		if err != nil {
			return nil, err
		}
		results = append(results, validateSingle(feed, metrics))
	}
	return results, nil
}

func validateSingle(feed models.Feed, metrics *models.AgencyReputationMetrics) FeedValidation {
	v := FeedValidation{
		FeedID:     feed.ID,
		OutletName: feed.OutletName,
		URL:        feed.URL,
	}

	if metrics == nil {
		v.HasAgencyMapping = false
		v.Status = StatusNoAgencyMapping
		v.Recommendations = []string{
			"Add mapping in the outlet-name-to-agency lookup",
			fmt.Sprintf("Consider adding %q to agency_reputation_metrics", feed.OutletName),
			"Feed will use fallback outlet_authority scoring",
		}
		return v
	}

	v.HasAgencyMapping = true
	v.AgencyName = metrics.OutletName
	if metrics.FinalReputationScore != 0 {
		score := metrics.FinalReputationScore
		v.ReputationScore = &score
	}

	if v.ReputationScore == nil {
		v.Status = StatusAgencyMappedNoScore
		v.Recommendations = []string{
			fmt.Sprintf("Populate reputation data for %q in agency_reputation_metrics", v.AgencyName),
			"Run the reputation scorer to compute scores",
			"Verify journalism awards and professional metrics data",
		}
		return v
	}

	v.Status = StatusValid
	return v
}

// Summary is the aggregate report, matching get_validation_summary.
type Summary struct {
	TotalFeeds         int
	MappedToAgencies   int
	WithReputationScores int
	UnmappedFeeds      int
	MappedButUnscored  int
	MappingPercentage  float64
	ScoringPercentage  float64
}

func Summarize(results []FeedValidation) Summary {
	s := Summary{TotalFeeds: len(results)}
	for _, v := range results {
		if v.HasAgencyMapping {
			s.MappedToAgencies++
		}
		if v.ReputationScore != nil && *v.ReputationScore > 0 {
			s.WithReputationScores++
		}
	}
	s.UnmappedFeeds = s.TotalFeeds - s.MappedToAgencies
	s.MappedButUnscored = s.MappedToAgencies - s.WithReputationScores

	if s.TotalFeeds > 0 {
		s.MappingPercentage = round2(float64(s.MappedToAgencies) / float64(s.TotalFeeds) * 100)
		s.ScoringPercentage = round2(float64(s.WithReputationScores) / float64(s.TotalFeeds) * 100)
	}
	return s
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// Unmapped filters results down to feeds with no agency mapping at all,
// matching get_unmapped_rss_feeds.
func Unmapped(results []FeedValidation) []FeedValidation {
	var out []FeedValidation
	for _, v := range results {
		if !v.HasAgencyMapping {
			out = append(out, v)
		}
	}
	return out
}

// outletVariations mirrors _check_outlet_variations' hand-curated alias table.
var outletVariations = map[string][]string{
	"bbc":                   {"bbc news", "bbc world", "bbc"},
	"cnn":                   {"cnn", "cnn top stories", "cnn.com"},
	"reuters":               {"reuters", "reuters top news", "reuters.com"},
	"associated press":      {"ap", "ap news", "associated press"},
	"new york times":        {"nyt", "nytimes", "new york times"},
	"npr":                   {"npr", "npr news", "national public radio"},
	"washington post":       {"washington post", "washpost"},
	"guardian":              {"guardian", "theguardian.com"},
	"fox news":              {"fox", "fox news", "foxnews.com"},
}

// MappingSuggestion pairs an unmapped feed's outlet name with a candidate
// existing agency name, matching suggest_agency_mappings.
type MappingSuggestion struct {
	FeedOutletName    string
	SuggestedAgency   string
}

// SuggestMappings proposes agency matches for unmapped feeds by substring and
// known-alias matching against existingAgencies.
func SuggestMappings(unmapped []FeedValidation, existingAgencies []string) []MappingSuggestion {
	var suggestions []MappingSuggestion

	for _, feed := range unmapped {
		outlet := strings.ToLower(feed.OutletName)

		for _, agency := range existingAgencies {
			agencyLower := strings.ToLower(agency)

			matched := false
			for _, word := range strings.Fields(agencyLower) {
				if len(word) > 3 && strings.Contains(outlet, word) {
					matched = true
					break
				}
			}
			if !matched {
				matched = checkOutletVariation(outlet, agencyLower)
			}

			if matched {
				suggestions = append(suggestions, MappingSuggestion{
					FeedOutletName:  feed.OutletName,
					SuggestedAgency: agency,
				})
				break
			}
		}
	}
	return suggestions
}

func checkOutletVariation(outlet, agency string) bool {
	agencyKey := strings.TrimSpace(strings.TrimPrefix(agency, "the "))
	patterns, ok := outletVariations[agencyKey]
	if !ok {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(outlet, p) {
			return true
		}
	}
	return false
}
