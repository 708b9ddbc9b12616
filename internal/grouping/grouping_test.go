package grouping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

func entitySet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func TestGroupClustersSharedEntityArticles(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{Index: 0, ID: 1, Title: "Biden meets Netanyahu in Washington", OutletName: "Reuters",
			PublishedAt: &now, Entities: entitySet("joe biden", "benjamin netanyahu", "washington")},
		{Index: 1, ID: 2, Title: "Netanyahu and Biden hold Washington talks", OutletName: "AP",
			PublishedAt: &now, Entities: entitySet("joe biden", "benjamin netanyahu", "washington")},
		{Index: 2, ID: 3, Title: "Local weather forecast for the weekend", OutletName: "Local News",
			PublishedAt: &now, Entities: entitySet("weekend")},
	}

	config := models.ConservativeDefaults()
	clusters := Group(articles, config)

	assert.Len(t, clusters, 1)
	assert.ElementsMatch(t, []int{0, 1}, clusters[0].MemberIndexes)
}

func TestGroupRespectsOutletPolicy(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{Index: 0, OutletName: "Reuters", PublishedAt: &now, Entities: entitySet("joe biden", "nato")},
		{Index: 1, OutletName: "Reuters", PublishedAt: &now, Entities: entitySet("joe biden", "nato")},
	}

	config := models.ConservativeDefaults()
	config.AllowSameOutlet = false
	clusters := Group(articles, config)
	assert.Empty(t, clusters)

	config.AllowSameOutlet = true
	clusters = Group(articles, config)
	assert.Len(t, clusters, 1)
}

func TestGroupRespectsTimeWindow(t *testing.T) {
	t1 := time.Now()
	t2 := t1.Add(100 * time.Hour)
	articles := []Article{
		{Index: 0, OutletName: "Reuters", PublishedAt: &t1, Entities: entitySet("joe biden", "nato")},
		{Index: 1, OutletName: "AP", PublishedAt: &t2, Entities: entitySet("joe biden", "nato")},
	}

	config := models.ConservativeDefaults()
	clusters := Group(articles, config)
	assert.Empty(t, clusters)
}

func TestGroupTitleBonusRescuesPairBelowRawEntityRequirement(t *testing.T) {
	now := time.Now()
	// minEntities=4, threshold=1.0 => required=4; shared=3 alone falls
	// short, but a 2-keyword title match at bonus=0.5 credits 1.0 off
	// required, bringing the adjusted requirement down to 3.
	articles := []Article{
		{Index: 0, Title: "Rocket launch delayed news", OutletName: "Reuters", PublishedAt: &now,
			Entities: entitySet("a", "b", "c", "d")},
		{Index: 1, Title: "Rocket launch postponed update", OutletName: "AP", PublishedAt: &now,
			Entities: entitySet("a", "b", "c", "e")},
	}

	config := models.GroupingConfig{
		MinSharedEntities:      1,
		EntityOverlapThreshold: 1.0,
		MinTitleKeywords:       1,
		TitleKeywordBonus:      0.5,
		MaxTimeDiffHours:       48,
		AllowSameOutlet:        true,
	}

	clusters := Group(articles, config)
	assert.Len(t, clusters, 1)
	assert.ElementsMatch(t, []int{0, 1}, clusters[0].MemberIndexes)
}

func TestGroupTitleBonusInsufficientStillBlocksPair(t *testing.T) {
	now := time.Now()
	// Same raw entity shortfall as above, but no shared title keywords,
	// so no bonus applies and the pair stays below the required overlap.
	articles := []Article{
		{Index: 0, Title: "Weather update today", OutletName: "Reuters", PublishedAt: &now,
			Entities: entitySet("a", "b", "c", "d")},
		{Index: 1, Title: "Local forecast changes", OutletName: "AP", PublishedAt: &now,
			Entities: entitySet("a", "b", "c", "e")},
	}

	config := models.GroupingConfig{
		MinSharedEntities:      1,
		EntityOverlapThreshold: 1.0,
		MinTitleKeywords:       0,
		TitleKeywordBonus:      0.5,
		MaxTimeDiffHours:       48,
		AllowSameOutlet:        true,
	}

	clusters := Group(articles, config)
	assert.Empty(t, clusters)
}

func TestGroupDropsSingletons(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{Index: 0, OutletName: "Reuters", PublishedAt: &now, Entities: entitySet("unique entity")},
	}
	clusters := Group(articles, models.ConservativeDefaults())
	assert.Empty(t, clusters)
}
