// Package grouping implements C10.1: pairwise article clustering into
// events, a direct port of main.py's group_articles_into_events. Entity
// extraction comes from internal/ner; the clustering algorithm itself is
// pure and config-driven so internal/perfconfig can tune it at runtime.
package grouping

import (
	"regexp"
	"strings"
	"time"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// Article is the minimal view grouping needs, decoupled from the store's
// models.Article so tests don't need a database.
type Article struct {
	Index       int
	ID          int64
	Title       string
	Text        string
	OutletName  string
	PublishedAt *time.Time
	Entities    map[string]bool
}

// Cluster is one formed event: the member article indexes into the input
// slice, in the order they were added.
type Cluster struct {
	MemberIndexes []int
}

var titleWordPattern = regexp.MustCompile(`[a-z]{3,}`)

// commonTitleWords mirrors main.py's common_words stoplist verbatim.
var commonTitleWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "can": true, "had": true, "her": true, "was": true,
	"one": true, "our": true, "out": true, "day": true, "get": true, "has": true,
	"him": true, "his": true, "how": true, "man": true, "new": true, "now": true,
	"old": true, "see": true, "two": true, "who": true, "boy": true, "did": true,
	"its": true, "let": true, "put": true, "say": true, "she": true, "too": true,
	"use": true, "said": true, "says": true, "will": true,
}

func titleKeywords(title string) map[string]bool {
	words := titleWordPattern.FindAllString(strings.ToLower(title), -1)
	out := make(map[string]bool, len(words))
	for _, w := range words {
		if !commonTitleWords[w] {
			out[w] = true
		}
	}
	return out
}

// Group clusters articles into events using the supplied tunable config,
// matching group_articles_into_events's algorithm exactly: entity overlap
// (dynamic threshold with a title-match bonus), a time window, and an
// outlet policy. An event requires at least two members; singleton
// candidates are dropped, matching the Python original.
func Group(articles []Article, config models.GroupingConfig) []Cluster {
	used := make(map[int]bool, len(articles))
	var clusters []Cluster

	titleWords := make([]map[string]bool, len(articles))
	for i, a := range articles {
		titleWords[i] = titleKeywords(a.Title)
	}

	for i, a1 := range articles {
		if used[i] {
			continue
		}

		members := []int{i}
		used[i] = true

		for j := i + 1; j < len(articles); j++ {
			if used[j] {
				continue
			}
			a2 := articles[j]

			if !config.AllowSameOutlet && a2.OutletName == a1.OutletName {
				continue
			}

			if a1.PublishedAt != nil && a2.PublishedAt != nil {
				diff := a1.PublishedAt.Sub(*a2.PublishedAt)
				if diff < 0 {
					diff = -diff
				}
				if diff.Hours() > float64(config.MaxTimeDiffHours) {
					continue
				}
			}

			if len(a1.Entities) == 0 || len(a2.Entities) == 0 {
				continue
			}
			shared := sharedCount(a1.Entities, a2.Entities)
			minEntities := minInt(len(a1.Entities), len(a2.Entities))
			required := maxFloat(float64(config.MinSharedEntities), float64(minEntities)*config.EntityOverlapThreshold)

			// Title-keyword overlap can credit a reduction against required
			// before the entity-overlap gate is evaluated, so a title-matched
			// pair short of the raw entity requirement can still qualify.
			adjusted := required
			t1, t2 := titleWords[i], titleWords[j]
			if len(t1) > 0 && len(t2) > 0 {
				overlap := sharedCount(t1, t2)
				if overlap >= config.MinTitleKeywords {
					bonus := minFloat(float64(overlap)*config.TitleKeywordBonus, required*0.5)
					adjusted = maxFloat(1, required-bonus)
				} else if config.MinTitleKeywords > 0 {
					continue
				}
			}

			if float64(shared) < adjusted {
				continue
			}

			members = append(members, j)
			used[j] = true
		}

		if len(members) > 1 {
			clusters = append(clusters, Cluster{MemberIndexes: members})
		}
	}

	return clusters
}

func sharedCount(a, b map[string]bool) int {
	small, big := a, b
	if len(small) > len(big) {
		small, big = big, small
	}
	count := 0
	for k := range small {
		if big[k] {
			count++
		}
	}
	return count
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
