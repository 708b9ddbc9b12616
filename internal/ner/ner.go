// Package ner implements C5: named-entity extraction over article text.
//
// The spec frames a statistical model path as optional/pluggable; no NER
// model library exists in the retrieved pack, so Extractor always runs
// the regex path (ModelPath is carried as a field for a future model but
// is never populated here), directly porting
// quality-service/improved_ner.py's _extract_with_regex_fallback plus its
// shared cleaning/validation pipeline.
package ner

import (
	"regexp"
	"strings"
)

// Result holds one article's categorized entities. The regex-only path
// cannot categorize by type (unlike spaCy's labeled entities), so persons/
// organizations/locations stay empty and everything lands in Others —
// matching the Python original's regex-fallback branch exactly.
type Result struct {
	Persons       []string
	Organizations []string
	Locations     []string
	Dates         []string
	Others        []string
}

// FlatSet returns every entity across all categories, lowercased, for
// C10.1's similarity matching — extract_key_entities_for_grouping.
func (r Result) FlatSet() map[string]bool {
	set := make(map[string]bool)
	for _, list := range [][]string{r.Persons, r.Organizations, r.Locations, r.Others} {
		for _, e := range list {
			set[strings.ToLower(e)] = true
		}
	}
	return set
}

// Extractor runs the regex-fallback entity pipeline with an LRU cache
// keyed by cleaned text, matching @lru_cache(maxsize=1000) on
// extract_entities.
type Extractor struct {
	// ModelPath, if non-empty, would select a statistical-model path.
	// Always empty in this build; see package doc.
	ModelPath string

	cache *lruCache
}

// NewExtractor builds an Extractor with a 1000-entry cache.
func NewExtractor() *Extractor {
	return &Extractor{cache: newLRUCache(1000)}
}

var properNounPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\b`)

// comprehensiveNonEntities mirrors the Python regex fallback's stopword
// set verbatim (case preserved as in the original, matched case-sensitively
// before lowercasing).
var comprehensiveNonEntities = buildNonEntitySet()

func buildNonEntitySet() map[string]bool {
	words := []string{
		"The", "This", "That", "These", "Those", "There", "Here", "When", "Where",
		"What", "Who", "Why", "How", "According", "However", "Meanwhile", "Moreover",
		"Furthermore", "Therefore", "Published", "Recommended", "Related", "Associated",
		"View", "Comments", "Share", "Tweet", "Facebook", "Instagram", "Twitter",
		"Getty", "Images", "Photo", "Picture", "Video", "Audio", "More", "News",
		"Story", "Article", "Report", "Update", "Breaking", "Live", "Latest",
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
		"January", "February", "March", "April", "May", "June", "July", "August",
		"September", "October", "November", "December",
		"Said", "Told", "From", "With", "About", "Against", "Between", "Among",
		"Through", "During", "Before", "After", "Including", "But", "And", "Or",
		"For", "At", "In", "On", "By", "Without",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Extract extracts entities from (title, text), cached by the cleaned
// combined text so repeated calls for the same content are free.
func (e *Extractor) Extract(title, text string) Result {
	if text == "" {
		return Result{}
	}

	full := text
	if title != "" {
		full = title + ". " + text
	}
	cleaned := cleanText(full)
	if cleaned == "" {
		return Result{}
	}

	if cached, ok := e.cache.Get(cleaned); ok {
		return cached
	}

	result := extractWithRegexFallback(cleaned)
	e.cache.Put(cleaned, result)
	return result
}

func extractWithRegexFallback(text string) Result {
	matches := properNounPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var others []string
	for _, m := range matches {
		if comprehensiveNonEntities[m] {
			continue
		}
		if !isValidEntity(m, "UNKNOWN") {
			continue
		}
		lower := strings.ToLower(m)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		others = append(others, lower)
	}

	return Result{Others: others}
}
