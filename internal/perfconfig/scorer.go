// Package perfconfig implements C10.2/C10.3: a weighted performance score
// over the grouping system's batch metrics, and the configuration manager
// that loads a startup seed, records runtime snapshots, and suggests
// auto-tune adjustments — ported from performance_scorer.py and
// performance_config_manager.py.
package perfconfig

import "github.com/mkolb22/k8s-news-engine/internal/models"

// BatchMetrics is the per-batch measurement set C9 hands off after a
// grouping pass, matching process_articles_batch's performance_metrics dict.
type BatchMetrics struct {
	ArticlesProcessed      int
	EventsCreated          int
	ProcessingTimeMs       int
	EntitiesExtractedTotal int
	EventCreationRate      float64
	CoveragePercentage     float64
	AvgArticlesPerEvent    float64
	SingletonEventsCount   int
	EntitiesPerArticle     float64
}

// weights must sum to 1.0, matching PerformanceScorer.weights.
const (
	weightEffectiveness = 0.35
	weightEfficiency    = 0.25
	weightCoverage      = 0.25
	weightPrecision     = 0.15
)

const (
	eventRateTarget         = 0.30
	coverageTarget          = 60.0
	processingTimeTargetMs  = 100.0
	articlesPerEventMin     = 2.0
	articlesPerEventMax     = 4.0
	articlesPerEventLimit   = 6.0
)

// Components holds the four 0-100 sub-scores, matching calculate_overall_score's
// 'components' dict.
type Components struct {
	Effectiveness float64
	Efficiency    float64
	Coverage      float64
	Precision     float64
}

// Score is the weighted overall result, matching calculate_overall_score's
// return dict (minus the echoed targets/weights, which are constants here).
type Score struct {
	Overall    float64
	Components Components
	Trend      models.ScoreTrend
}

// CalculateOverallScore computes the weighted composite score and its
// component trend against the previous score, matching calculate_overall_score.
func CalculateOverallScore(m BatchMetrics, previousScore *float64) Score {
	c := Components{
		Effectiveness: effectivenessScore(m),
		Efficiency:    efficiencyScore(m),
		Coverage:      coverageScore(m),
		Precision:     precisionScore(m),
	}
	overall := round2(c.Effectiveness*weightEffectiveness + c.Efficiency*weightEfficiency +
		c.Coverage*weightCoverage + c.Precision*weightPrecision)

	return Score{
		Overall:    overall,
		Components: c,
		Trend:      determineTrend(overall, previousScore),
	}
}

// effectivenessScore is event-creation effectiveness (35% of total),
// matching calculate_effectiveness_score.
func effectivenessScore(m BatchMetrics) float64 {
	articlesProcessed := m.ArticlesProcessed
	if articlesProcessed == 0 {
		articlesProcessed = 1
	}

	var rateScore float64
	if m.EventCreationRate >= eventRateTarget {
		rateScore = 100
	} else {
		rateScore = (m.EventCreationRate / eventRateTarget) * 100
	}

	var diversityBonus float64
	if m.EventsCreated > 0 {
		diversityRatio := float64(m.EventsCreated) / float64(articlesProcessed)
		diversityBonus = minFloat(15, diversityRatio*50)
	}

	var singletonPenalty float64
	if m.EventsCreated > 0 {
		singletonRatio := float64(m.SingletonEventsCount) / float64(m.EventsCreated)
		singletonPenalty = singletonRatio * 25
	}

	score := maxFloat(0, rateScore+diversityBonus-singletonPenalty)
	return minFloat(100, score)
}

// efficiencyScore is processing-speed efficiency (25% of total), matching
// calculate_efficiency_score.
func efficiencyScore(m BatchMetrics) float64 {
	if m.ProcessingTimeMs <= 0 || m.ArticlesProcessed <= 0 {
		return 50.0
	}

	timePerArticle := float64(m.ProcessingTimeMs) / float64(m.ArticlesProcessed)

	var score float64
	switch {
	case timePerArticle <= processingTimeTargetMs:
		score = 100
	case timePerArticle <= processingTimeTargetMs*2:
		excessRatio := (timePerArticle - processingTimeTargetMs) / processingTimeTargetMs
		score = 100 - excessRatio*50
	default:
		excessRatio := (timePerArticle - processingTimeTargetMs*2) / processingTimeTargetMs
		score = maxFloat(10, 50-excessRatio*20)
	}

	return minFloat(100, maxFloat(0, score))
}

// coverageScore is article-grouping coverage (25% of total), matching
// calculate_coverage_score.
func coverageScore(m BatchMetrics) float64 {
	var score float64
	switch {
	case m.CoveragePercentage >= coverageTarget:
		score = 100
	case m.CoveragePercentage >= coverageTarget*0.67:
		progress := (m.CoveragePercentage - coverageTarget*0.67) / (coverageTarget * 0.33)
		score = 70 + progress*30
	default:
		score = (m.CoveragePercentage / (coverageTarget * 0.67)) * 70
	}
	return minFloat(100, maxFloat(0, score))
}

// precisionScore is grouping-accuracy precision (15% of total), matching
// calculate_precision_score (without the optional manual-validation blend,
// which this system has no equivalent input for).
func precisionScore(m BatchMetrics) float64 {
	avg := m.AvgArticlesPerEvent
	if avg == 0 {
		avg = 1.0
	}

	var base float64
	switch {
	case avg >= articlesPerEventMin && avg <= articlesPerEventMax:
		base = 100
	case avg < articlesPerEventMin:
		if avg >= 1.5 {
			base = 60 + ((avg-1.5)/(articlesPerEventMin-1.5))*40
		} else {
			base = maxFloat(20, avg*40)
		}
	case avg <= articlesPerEventLimit:
		excess := avg - articlesPerEventMax
		maxExcess := articlesPerEventLimit - articlesPerEventMax
		base = 100 - (excess/maxExcess)*30
	default:
		base = maxFloat(10, 70-(avg-articlesPerEventLimit)*10)
	}

	return minFloat(100, maxFloat(0, base))
}

// determineTrend classifies the score relative to its predecessor, matching
// _determine_trend's ±2.0 stability band.
func determineTrend(current float64, previous *float64) models.ScoreTrend {
	if previous == nil {
		return models.TrendInitial
	}
	diff := current - *previous
	switch {
	case diff < 0:
		diff = -diff
		if diff < 2.0 {
			return models.TrendStable
		}
		return models.TrendDeclining
	default:
		if diff < 2.0 {
			return models.TrendStable
		}
		return models.TrendImproving
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
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
