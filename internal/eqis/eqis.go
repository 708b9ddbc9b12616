// Package eqis implements C11: the six-factor Event Quality Index Score
// computed per event from its member articles and claims, per spec §4.11.
// Coherence needs a TF-IDF/cosine-similarity pass; no vector/NLP library
// exists anywhere in the retrieved pack, so it is hand-written directly
// over term-frequency maps. Every other sub-score is a direct formula
// port and needs no library at all.
package eqis

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// Article is the minimal view eqis needs, decoupled from models.Article
// the way internal/grouping decouples its own Article type.
type Article struct {
	ID          int64
	OutletName  string
	Text        string
	PublishedAt *time.Time
}

// Claim is the minimal view eqis needs of a claim for corroboration and
// best-source scoring.
type Claim struct {
	OutletName    string
	VerifiedState models.VerifiedState
}

// Weights combines the six numeric sub-scores into the final EQIS value.
// They need not sum to 1; spec only says "weighted sum... loaded from
// configuration", so callers may load these from internal/store's
// system_config table and fall back to DefaultWeights.
type Weights struct {
	Days          float64
	Coverage      float64
	Coherence     float64
	BestSource    float64
	Corroboration float64
	Safety        float64 // applied directly to the CorrectionRisk sub-score, which is high when risk is low
}

// DefaultWeights gives every sub-score equal standing.
func DefaultWeights() Weights {
	return Weights{
		Days:          1.0 / 6,
		Coverage:      1.0 / 6,
		Coherence:     1.0 / 6,
		BestSource:    1.0 / 6,
		Corroboration: 1.0 / 6,
		Safety:        1.0 / 6,
	}
}

// Config holds the tunable constants named in spec §4.11.
type Config struct {
	RecencyTauDays        float64
	CoverageSaturation    float64
	CoherenceMinArticles  int
	HighRiskCap           float64
	DefaultCorrectionRate float64
}

// DefaultConfig matches spec §4.11's stated defaults.
func DefaultConfig() Config {
	return Config{
		RecencyTauDays:        5,
		CoverageSaturation:    20,
		CoherenceMinArticles:  2,
		HighRiskCap:           0.05,
		DefaultCorrectionRate: 0.02,
	}
}

// AuthorityFunc resolves an outlet's 0-100 authority score, backed by
// internal/reputation.Service.Score in production wiring.
type AuthorityFunc func(ctx context.Context, outletName string) (float64, error)

// CorrectionRateFunc resolves an outlet's historical correction rate.
// No per-outlet correction-rate table exists in this schema, so the
// production wiring always returns Config.DefaultCorrectionRate; the
// hook exists so a future administered table can override it without
// changing the formula.
type CorrectionRateFunc func(outletName string) float64

// Compute scores one event's articles and claims into the six sub-scores
// and their weighted composite, ready for store.UpsertEventMetrics.
func Compute(ctx context.Context, eventID int64, articles []Article, claims []Claim,
	authority AuthorityFunc, correctionRate CorrectionRateFunc, cfg Config, w Weights) (models.EventMetrics, error) {

	if correctionRate == nil {
		correctionRate = func(string) float64 { return cfg.DefaultCorrectionRate }
	}

	daysScore, ageDays := daysSubScore(articles, cfg)
	coverageScore, coverageSites := coverageSubScore(articles, cfg)
	coherenceScore := coherenceSubScore(articles, cfg)
	bestSource, bestSourceScore, err := bestSourceSubScore(ctx, articles, claims, authority)
	if err != nil {
		return models.EventMetrics{}, err
	}
	corroborationScore, contestedShare := corroborationSubScore(claims)
	correctionRisk := correctionRiskSubScore(articles, correctionRate, cfg)

	eqisScore := w.Days*daysScore + w.Coverage*coverageScore + w.Coherence*coherenceScore +
		w.BestSource*bestSourceScore + w.Corroboration*corroborationScore + w.Safety*correctionRisk

	return models.EventMetrics{
		EventID:            eventID,
		ComputedAt:         time.Now().UTC(),
		AgeDays:            ageDays,
		CoverageSites:      coverageSites,
		KeywordCoherence:   coherenceScore,
		BestSource:         bestSource,
		CorroborationRatio: corroborationScore / 100,
		ContradictionRate:  contestedShare,
		CorrectionRisk:     correctionRisk,
		EQISScore:          eqisScore,
		Components: map[string]float64{
			"days":          daysScore,
			"coverage":      coverageScore,
			"coherence":     coherenceScore,
			"best_source":   bestSourceScore,
			"corroboration": corroborationScore,
			"correction_risk": correctionRisk,
		},
	}, nil
}

// daysSubScore blends recency-of-latest-article decay with breadth of
// days covered, matching the Days formula in spec §4.11.
func daysSubScore(articles []Article, cfg Config) (score float64, ageDays float64) {
	var latest *time.Time
	days := make(map[string]bool)
	for _, a := range articles {
		if a.PublishedAt == nil {
			continue
		}
		if latest == nil || a.PublishedAt.After(*latest) {
			latest = a.PublishedAt
		}
		days[a.PublishedAt.UTC().Format("2006-01-02")] = true
	}
	if latest == nil {
		return 0, 0
	}

	daysSinceLatest := time.Since(*latest).Hours() / 24
	if daysSinceLatest < 0 {
		daysSinceLatest = 0
	}
	uniqueDays := len(days)

	recencyTerm := 0.6 * math.Exp(-daysSinceLatest/cfg.RecencyTauDays)
	breadthTerm := 0.4 * math.Log(1+float64(uniqueDays)) / math.Log(15)
	return 100 * (recencyTerm + breadthTerm), daysSinceLatest
}

// coverageSubScore rewards distinct outlets reporting the event.
func coverageSubScore(articles []Article, cfg Config) (score float64, distinctOutlets int) {
	outlets := make(map[string]bool)
	for _, a := range articles {
		if a.OutletName != "" {
			outlets[strings.ToLower(a.OutletName)] = true
		}
	}
	distinctOutlets = len(outlets)
	if cfg.CoverageSaturation <= 0 {
		return 0, distinctOutlets
	}
	ratio := float64(distinctOutlets) / cfg.CoverageSaturation
	if ratio > 1 {
		ratio = 1
	}
	return 100 * ratio, distinctOutlets
}

// coherenceSubScore is the mean pairwise TF-IDF cosine similarity over
// non-empty article bodies, matching spec §4.11's Coherence row.
func coherenceSubScore(articles []Article, cfg Config) float64 {
	var docs []string
	for _, a := range articles {
		if strings.TrimSpace(a.Text) != "" {
			docs = append(docs, a.Text)
		}
	}
	if len(docs) < cfg.CoherenceMinArticles {
		return 0
	}

	vectors := tfidfVectors(docs)
	var total float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			total += cosineSimilarity(vectors[i], vectors[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return (total / float64(pairs)) * 100
}

const maxTFIDFFeatures = 5000

var englishStopwords = buildStopwordSet()

func buildStopwordSet() map[string]bool {
	words := strings.Fields(`a about above after again against all am an and any are aren't as at be
		because been before being below between both but by can't cannot could couldn't did didn't do
		does doesn't doing don't down during each few for from further had hadn't has hasn't have
		haven't having he he'd he'll he's her here here's hers herself him himself his how how's i
		i'd i'll i'm i've if in into is isn't it it's its itself let's me more most mustn't my myself
		no nor not of off on once only or other ought our ours ourselves out over own same shan't she
		she'd she'll she's should shouldn't so some such than that that's the their theirs them
		themselves then there there's these they they'd they'll they're they've this those through to
		too under until up very was wasn't we we'd we'll we're we've were weren't what what's when
		when's where where's which while who who's whom why why's with won't would wouldn't you
		you'd you'll you're you've your yours yourself yourselves`)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var tfidfTokenPattern = strings.NewReplacer(
	".", " ", ",", " ", "\"", " ", "'", " ", "!", " ", "?", " ", ";", " ", ":", " ",
	"(", " ", ")", " ", "\n", " ", "\t", " ",
)

func tokenize(text string) []string {
	cleaned := tfidfTokenPattern.Replace(strings.ToLower(text))
	fields := strings.Fields(cleaned)
	out := make([]string, 0, len(fields))
	for _, w := range fields {
		if len(w) < 2 || englishStopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// tfidfVectors builds one TF-IDF vector per document, capped to the
// highest-collection-frequency maxTFIDFFeatures terms across the corpus.
func tfidfVectors(docs []string) []map[string]float64 {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	collectionFreq := make(map[string]int)
	for i, d := range docs {
		toks := tokenize(d)
		tokenized[i] = toks
		seen := make(map[string]bool, len(toks))
		for _, t := range toks {
			collectionFreq[t]++
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}

	vocab := make(map[string]bool, len(df))
	if len(df) <= maxTFIDFFeatures {
		for term := range df {
			vocab[term] = true
		}
	} else {
		type termCount struct {
			term  string
			count int
		}
		ranked := make([]termCount, 0, len(collectionFreq))
		for t, c := range collectionFreq {
			ranked = append(ranked, termCount{t, c})
		}
		sort.Slice(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })
		for i := 0; i < maxTFIDFFeatures && i < len(ranked); i++ {
			vocab[ranked[i].term] = true
		}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for term := range vocab {
		idf[term] = math.Log(n/float64(df[term])) + 1
	}

	vectors := make([]map[string]float64, len(docs))
	for i, toks := range tokenized {
		tf := make(map[string]float64)
		for _, t := range toks {
			if vocab[t] {
				tf[t]++
			}
		}
		total := float64(len(toks))
		if total == 0 {
			total = 1
		}
		vec := make(map[string]float64, len(tf))
		for term, count := range tf {
			vec[term] = (count / total) * idf[term]
		}
		vectors[i] = vec
	}
	return vectors
}

func cosineSimilarity(a, b map[string]float64) float64 {
	small, big := a, b
	if len(small) > len(big) {
		small, big = big, small
	}
	var dot float64
	for term, v := range small {
		dot += v * big[term]
	}
	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// bestSourceSubScore finds the outlet-name argmax of authority/primacy/
// verified-share, matching spec §4.11's Best source row.
func bestSourceSubScore(ctx context.Context, articles []Article, claims []Claim, authority AuthorityFunc) (string, float64, error) {
	if len(articles) == 0 {
		return "", 0, nil
	}

	var firstQuartileCutoff time.Time
	var published []time.Time
	for _, a := range articles {
		if a.PublishedAt != nil {
			published = append(published, *a.PublishedAt)
		}
	}
	if len(published) > 0 {
		sort.Slice(published, func(i, j int) bool { return published[i].Before(published[j]) })
		idx := (len(published) - 1) / 4
		firstQuartileCutoff = published[idx]
	}

	outletArticleCount := make(map[string]int)
	outletQuartileCount := make(map[string]int)
	for _, a := range articles {
		key := strings.ToLower(a.OutletName)
		outletArticleCount[key]++
		if a.PublishedAt != nil && !firstQuartileCutoff.IsZero() && !a.PublishedAt.After(firstQuartileCutoff) {
			outletQuartileCount[key]++
		}
	}

	outletClaimTotal := make(map[string]int)
	outletClaimVerified := make(map[string]int)
	for _, c := range claims {
		key := strings.ToLower(c.OutletName)
		outletClaimTotal[key]++
		if c.VerifiedState == models.VerifiedYes {
			outletClaimVerified[key]++
		}
	}

	var bestOutlet string
	var bestScore float64
	first := true
	for outlet, count := range outletArticleCount {
		auth, err := authority(ctx, outlet)
		if err != nil {
			return "", 0, err
		}
		primacy := float64(outletQuartileCount[outlet]) / float64(count)

		var verifiedShare float64
		if total := outletClaimTotal[outlet]; total > 0 {
			verifiedShare = float64(outletClaimVerified[outlet]) / float64(total)
		}

		score := 0.6*auth + 0.2*(primacy*100) + 0.2*(verifiedShare*100)
		if first || score > bestScore {
			bestScore = score
			bestOutlet = outlet
			first = false
		}
	}
	return bestOutlet, bestScore, nil
}

// corroborationSubScore rewards verified claims and penalizes contested
// ones, matching spec §4.11's Corroboration row.
func corroborationSubScore(claims []Claim) (score float64, contestedShare float64) {
	if len(claims) == 0 {
		return 0, 0
	}
	var verified, contested int
	for _, c := range claims {
		switch c.VerifiedState {
		case models.VerifiedYes:
			verified++
		case models.Contested:
			contested++
		}
	}
	total := float64(len(claims))
	verifiedShare := float64(verified) / total
	contestedShare = float64(contested) / total
	return 100 * verifiedShare * (1 - contestedShare), contestedShare
}

// correctionRiskSubScore weighs each outlet's share of the event's
// articles against its historical correction rate, matching spec §4.11's
// Correction risk row.
func correctionRiskSubScore(articles []Article, correctionRate CorrectionRateFunc, cfg Config) float64 {
	if len(articles) == 0 || cfg.HighRiskCap <= 0 {
		return 0
	}
	outletCount := make(map[string]int)
	for _, a := range articles {
		outletCount[strings.ToLower(a.OutletName)]++
	}
	total := float64(len(articles))
	var weighted float64
	for outlet, count := range outletCount {
		share := float64(count) / total
		weighted += share * correctionRate(outlet)
	}
	ratio := weighted / cfg.HighRiskCap
	if ratio > 1 {
		ratio = 1
	}
	return 100 * (1 - ratio)
}
