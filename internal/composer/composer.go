// Package composer implements C9: the single-threaded batch loop that
// composes per-article quality scores and drives event grouping, directly
// grounded in quality-service/main.py's QualityService (run,
// process_articles_batch, calculate_article_quality_score).
package composer

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkolb22/k8s-news-engine/internal/claims"
	"github.com/mkolb22/k8s-news-engine/internal/eqis"
	"github.com/mkolb22/k8s-news-engine/internal/grouping"
	"github.com/mkolb22/k8s-news-engine/internal/models"
	"github.com/mkolb22/k8s-news-engine/internal/ner"
	"github.com/mkolb22/k8s-news-engine/internal/perfconfig"
	"github.com/mkolb22/k8s-news-engine/internal/writingquality"
)

// Store is the subset of *store.Store this package depends on.
type Store interface {
	SelectUnprocessedArticles(ctx context.Context, limit int) ([]models.Article, error)
	UpdateArticleScoresAndNER(ctx context.Context, a models.Article) error
	InsertClaims(ctx context.Context, claims []models.Claim) error
	InsertEventWithArticles(ctx context.Context, ev models.Event, links []models.EventArticleLink) (int64, error)
	UpdateArticleComputedEventID(ctx context.Context, articleIDs []int64, eventID int64) error
	UpsertEventMetrics(ctx context.Context, m models.EventMetrics) error
}

// ReputationScorer resolves an outlet's 0-100 reputation score, matching
// internal/reputation.Service.Score.
type ReputationScorer interface {
	Score(ctx context.Context, outletName string) (float64, error)
}

// NEREngine extracts categorized entities from an article, matching
// internal/ner.Extractor.Extract.
type NEREngine interface {
	Extract(title, text string) ner.Result
}

// PerfManager owns the live grouping config and records batch performance,
// matching internal/perfconfig.Manager.
type PerfManager interface {
	Current() models.GroupingConfig
	SavePerformanceSnapshot(ctx context.Context, metrics perfconfig.BatchMetrics, previousScore *float64) (int64, error)
}

// minArticleTextLen mirrors spec §8's "article text shorter than 100 chars
// is skipped by C9 selection" boundary.
const minArticleTextLen = 100

// exceptionFallbackAuthority stands in for main.py's authority_outlets
// dict default arm (dict.get(outlet, 15)) — no administered per-outlet
// override exists for this exception-only fallback, so it's a constant.
const exceptionFallbackAuthority = 15

// Service runs the batch composition loop.
type Service struct {
	store      Store
	reputation ReputationScorer
	ner        NEREngine
	perf       PerfManager

	log zerolog.Logger

	batchSize     int
	sleepInterval time.Duration

	lastScore *float64
}

func NewService(st Store, rep ReputationScorer, nerEngine NEREngine, perf PerfManager, log zerolog.Logger, batchSize int, sleepInterval time.Duration) *Service {
	return &Service{
		store:         st,
		reputation:    rep,
		ner:           nerEngine,
		perf:          perf,
		log:           log,
		batchSize:     batchSize,
		sleepInterval: sleepInterval,
	}
}

// Run drives the batch loop until ctx is cancelled, matching
// QualityService.run's sleep/backoff shape: empty batches double the
// sleep interval, non-empty batches use it as-is. The caller is
// responsible for wiring SIGINT/SIGTERM into ctx (signal.NotifyContext),
// generalizing the teacher's scheduler.go shutdown idiom.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("composer shutting down")
			return nil
		default:
		}

		n, err := s.ProcessBatch(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("batch processing failed")
		}

		sleep := s.sleepInterval
		if n == 0 {
			sleep *= 2
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleep):
		}
	}
}

// ProcessBatch pulls one batch of unprocessed articles, composes their
// quality scores, writes NER fields, groups the batch into events, and
// hands off performance metrics — matching process_articles_batch.
func (s *Service) ProcessBatch(ctx context.Context) (int, error) {
	start := time.Now()

	articles, err := s.store.SelectUnprocessedArticles(ctx, s.batchSize)
	if err != nil {
		return 0, err
	}
	if len(articles) == 0 {
		return 0, nil
	}

	groupable := make([]grouping.Article, 0, len(articles))
	claimsByArticle := make(map[int64][]models.Claim, len(articles))

	for i := range articles {
		a := &articles[i]
		if len(a.Text) < minArticleTextLen {
			continue
		}

		claimRows := s.extractAndVerifyClaims(*a)
		claimsByArticle[a.ID] = claimRows
		if err := s.store.InsertClaims(ctx, claimRows); err != nil {
			s.log.Warn().Err(err).Int64("article_id", a.ID).Msg("failed to persist claims")
		}

		nerResult := s.ner.Extract(a.Title, a.Text)
		writingScores := writingquality.Analyze(a.Text, a.Title)
		repScore, repErr := s.reputation.Score(ctx, a.OutletName)

		score := s.composeQualityScore(writingScores.TotalScore, repScore, repErr, a.OutletName, a.PublishedAt)
		now := time.Now().UTC()
		a.QualityScore = &score
		a.QualityComputedAt = &now
		a.NERPersons = models.StringArray(nerResult.Persons)
		a.NEROrganizations = models.StringArray(nerResult.Organizations)
		a.NERLocations = models.StringArray(nerResult.Locations)
		a.NERDates = models.StringArray(nerResult.Dates)
		a.NEROthers = models.StringArray(nerResult.Others)
		a.NERExtractedAt = &now

		if err := s.store.UpdateArticleScoresAndNER(ctx, *a); err != nil {
			s.log.Warn().Err(err).Int64("article_id", a.ID).Msg("failed to write article scores")
			continue
		}

		groupable = append(groupable, grouping.Article{
			Index:       len(groupable),
			ID:          a.ID,
			Title:       a.Title,
			Text:        a.Text,
			OutletName:  a.OutletName,
			PublishedAt: a.PublishedAt,
			Entities:    nerResult.FlatSet(),
		})
	}

	cfg := s.perf.Current()
	clusters := grouping.Group(groupable, cfg)

	eventsCreated := 0
	articlesInEvents := 0
	for _, c := range clusters {
		eventID, err := s.persistEvent(ctx, groupable, c)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to persist event")
			continue
		}
		eventsCreated++
		articlesInEvents += len(c.MemberIndexes)

		if err := s.recomputeEQIS(ctx, eventID, groupable, c, claimsByArticle); err != nil {
			s.log.Warn().Err(err).Int64("event_id", eventID).Msg("failed to recompute EQIS")
		}
	}

	metrics := s.buildBatchMetrics(len(articles), eventsCreated, articlesInEvents, time.Since(start))
	if _, err := s.perf.SavePerformanceSnapshot(ctx, metrics, s.lastScore); err != nil {
		s.log.Warn().Err(err).Msg("failed to save performance snapshot")
	} else {
		overall := perfconfig.CalculateOverallScore(metrics, s.lastScore).Overall
		s.lastScore = &overall
	}

	return len(articles), nil
}

func (s *Service) extractAndVerifyClaims(a models.Article) []models.Claim {
	candidates := claims.ExtractClaims(a.Title, a.Text)
	if len(candidates) == 0 {
		return []models.Claim{claims.PlaceholderClaim(a.ID)}
	}

	rows := make([]models.Claim, 0, len(candidates))
	for _, c := range candidates {
		verified, source := claims.VerifyClaim(c.Text, a.OutletName)
		rows = append(rows, models.Claim{
			ArticleID:          a.ID,
			ClaimText:          c.Text,
			ClaimType:          c.Type,
			VerifiedState:      verified,
			VerificationSource: source,
			Confidence:         c.Confidence,
		})
	}
	return rows
}

// composeQualityScore matches calculate_article_quality_score: a 0.6/0.4
// weighted blend of writing quality and a reputation-derived component,
// plus a recency bonus, rounded half-up-from-0.6 and capped at 100. A
// reputation lookup failure falls back to the outlet-authority-plus-35
// exception arm rather than aborting the whole batch.
func (s *Service) composeQualityScore(writingTotal int, repScore float64, repErr error, outlet string, publishedAt *time.Time) int {
	if repErr != nil {
		return minInt(100, exceptionFallbackAuthority+35)
	}

	outletReputationComponent := repScore * 0.4
	composite := float64(writingTotal)*0.6 + outletReputationComponent + recencyBonus(publishedAt)
	return capRound(composite)
}

// recencyBonus matches main.py's freshness bands exactly.
func recencyBonus(publishedAt *time.Time) float64 {
	if publishedAt == nil {
		return 0
	}
	age := time.Since(*publishedAt)
	switch {
	case age <= 6*time.Hour:
		return 5
	case age <= 24*time.Hour:
		return 3
	case age <= 48*time.Hour:
		return 1
	default:
		return 0
	}
}

// capRound applies the "half-up-from-0.6" rounding law from spec §8: the
// fractional part rounds up only when it exceeds 0.5, not at the usual
// 0.5 boundary — matching main.py's `decimal_part <= 0.5` branch.
func capRound(composite float64) int {
	floor := math.Floor(composite)
	frac := composite - floor
	rounded := floor
	if frac > 0.5 {
		rounded++
	}
	if rounded > 100 {
		rounded = 100
	}
	if rounded < 0 {
		rounded = 0
	}
	return int(rounded)
}

func (s *Service) persistEvent(ctx context.Context, pool []grouping.Article, c grouping.Cluster) (int64, error) {
	links := make([]models.EventArticleLink, 0, len(c.MemberIndexes))
	ids := make([]int64, 0, len(c.MemberIndexes))
	title := ""
	for n, idx := range c.MemberIndexes {
		a := pool[idx]
		if n == 0 {
			title = a.Title
		}
		links = append(links, models.EventArticleLink{ArticleID: a.ID, RelevanceScore: 1.0})
		ids = append(ids, a.ID)
	}

	eventID, err := s.store.InsertEventWithArticles(ctx, models.Event{Title: title}, links)
	if err != nil {
		return 0, err
	}
	if err := s.store.UpdateArticleComputedEventID(ctx, ids, eventID); err != nil {
		return 0, err
	}
	return eventID, nil
}

// recomputeEQIS runs C11 "on demand" immediately after an event is
// created or extended, per spec §4.9 ("C11 runs over events on demand").
func (s *Service) recomputeEQIS(ctx context.Context, eventID int64, pool []grouping.Article, c grouping.Cluster, claimsByArticle map[int64][]models.Claim) error {
	eqisArticles := make([]eqis.Article, 0, len(c.MemberIndexes))
	var eqisClaims []eqis.Claim
	for _, idx := range c.MemberIndexes {
		a := pool[idx]
		eqisArticles = append(eqisArticles, eqis.Article{
			ID:          a.ID,
			OutletName:  a.OutletName,
			Text:        a.Text,
			PublishedAt: a.PublishedAt,
		})
		for _, claim := range claimsByArticle[a.ID] {
			eqisClaims = append(eqisClaims, eqis.Claim{OutletName: a.OutletName, VerifiedState: claim.VerifiedState})
		}
	}

	metrics, err := eqis.Compute(ctx, eventID, eqisArticles, eqisClaims, s.reputation.Score, nil, eqis.DefaultConfig(), eqis.DefaultWeights())
	if err != nil {
		return err
	}
	return s.store.UpsertEventMetrics(ctx, metrics)
}

func (s *Service) buildBatchMetrics(articlesProcessed, eventsCreated, articlesInEvents int, elapsed time.Duration) perfconfig.BatchMetrics {
	if articlesProcessed == 0 {
		return perfconfig.BatchMetrics{}
	}

	var avgArticlesPerEvent float64
	if eventsCreated > 0 {
		avgArticlesPerEvent = float64(articlesInEvents) / float64(eventsCreated)
	}

	return perfconfig.BatchMetrics{
		ArticlesProcessed:   articlesProcessed,
		EventsCreated:       eventsCreated,
		ProcessingTimeMs:    int(elapsed.Milliseconds()),
		EventCreationRate:   float64(eventsCreated) / float64(articlesProcessed),
		CoveragePercentage:  100 * float64(articlesInEvents) / float64(articlesProcessed),
		AvgArticlesPerEvent: avgArticlesPerEvent,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
