// Package models defines the domain model for the news analysis engine.
//
// The model follows the pipeline's own stages: Feed → Article (ingestion),
// Article → Claim / NER fields (extraction), Article → Event (grouping),
// Event → EventMetrics (EQIS). Administered reference tables (OutletAuthority,
// AgencyReputationMetrics) and derived caches (OutletReputationCache) sit
// alongside the pipeline-owned rows.
//
// # Database mapping
//
// Structs use `db:"column_name"` tags for scanning and `json:"field_name"`
// for the read-only GraphQL surface. StringArray wraps Postgres text[]
// columns the way the teacher's models package does.
//
// # Outlet identity
//
// outlet_name is the sole join key for outlet-scoped data across Feed,
// Article, AgencyReputationMetrics and OutletReputationCache. A legacy
// "outlet" column, if present in an adapted schema, is aliased at the query
// boundary only (see internal/store) and never appears in business logic.
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// StringArray adapts a Go []string to a Postgres text[] column, following
// the teacher's models.StringArray Valuer/Scanner pair.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	return pq.Array([]string(a)).Value()
}

func (a *StringArray) Scan(src interface{}) error {
	var raw pq.StringArray
	if err := raw.Scan(src); err != nil {
		return fmt.Errorf("scanning StringArray: %w", err)
	}
	*a = StringArray(raw)
	return nil
}

// ClaimType classifies an extracted claim sentence.
type ClaimType string

const (
	ClaimFact       ClaimType = "fact"
	ClaimOpinion    ClaimType = "opinion"
	ClaimPrediction ClaimType = "prediction"
	ClaimNone       ClaimType = "none"
)

// VerifiedState is C4's heuristic verification label. Never treated as
// ground truth downstream (spec §9).
type VerifiedState string

const (
	VerifiedYes  VerifiedState = "verified"
	Contested    VerifiedState = "contested"
	Unverified   VerifiedState = "unverified"
)

// ConfigSource records provenance of a performance-config snapshot.
type ConfigSource string

const (
	ConfigSourceStartup   ConfigSource = "startup"
	ConfigSourceRuntime   ConfigSource = "runtime"
	ConfigSourceManual    ConfigSource = "manual"
	ConfigSourceAutoTune  ConfigSource = "auto_tune"
)

// CleanupStatus is the lifecycle state of one cleanup-log run.
type CleanupStatus string

const (
	CleanupRunning   CleanupStatus = "running"
	CleanupCompleted CleanupStatus = "completed"
	CleanupError     CleanupStatus = "error"
)

// PressFreedomTier buckets a press-freedom ranking into a coarse label.
type PressFreedomTier string

const (
	TierExcellent PressFreedomTier = "excellent"
	TierGood      PressFreedomTier = "good"
	TierFair      PressFreedomTier = "fair"
	TierPoor      PressFreedomTier = "poor"
	TierUnknown   PressFreedomTier = "unknown"
)

// PressFreedomTierFromRanking converts a press-freedom ranking to a tier,
// mirroring the thresholds used for scoring (§4.7).
func PressFreedomTierFromRanking(ranking *int) PressFreedomTier {
	if ranking == nil {
		return TierUnknown
	}
	r := *ranking
	switch {
	case r <= 20:
		return TierExcellent
	case r <= 50:
		return TierGood
	case r <= 100:
		return TierFair
	default:
		return TierPoor
	}
}

// ScoreTrend classifies a performance score relative to its predecessor.
type ScoreTrend string

const (
	TrendInitial   ScoreTrend = "initial"
	TrendStable    ScoreTrend = "stable"
	TrendImproving ScoreTrend = "improving"
	TrendDeclining ScoreTrend = "declining"
)

// Feed is an RSS/Atom acquisition source. outlet_name is the canonical name
// keyed across the system; last_fetched/poll_interval drive C2's scheduler.
type Feed struct {
	ID                  int64
	URL                 string
	OutletName          string
	Active              bool
	LastFetched         *time.Time
	PollIntervalMinutes int
	AgencyMetricsID     *int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Article is a single ingested story, identified by its source URL.
//
// Lifecycle: created by C3 (ingester) on first sight of a URL; mutated
// exactly once by C9 (quality score + NER fields, in one update); deleted
// by the retention cleanup job. Body text is capped at ingestion time;
// raw HTML is optional and bounded to 100,000 characters.
type Article struct {
	ID               int64
	URL              string
	OutletName       string
	Title            string
	Author           *string
	PublishedAt      *time.Time
	FetchedAt        time.Time
	Text             string
	RawHTML          *string
	FeedID           int64
	QualityScore     *int
	QualityComputedAt *time.Time

	NERPersons       StringArray
	NEROrganizations StringArray
	NERLocations     StringArray
	NERDates         StringArray
	NEROthers        StringArray
	NERExtractedAt   *time.Time

	ComputedEventID *int64
}

// Claim is one extracted, typed claim sentence belonging to an article.
// Every processed article has at least one real claim or exactly one
// placeholder row with ClaimType=none, so C9 never reprocesses it.
type Claim struct {
	ID                 int64
	ArticleID          int64
	ClaimText          string
	ClaimType          ClaimType
	VerifiedState      VerifiedState
	VerificationSource *string
	Confidence         float64
	CreatedAt          time.Time
}

// Event is a cluster of ≥2 articles judged to cover the same story.
type Event struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Active      bool
}

// EventArticleLink is the many-to-many join between Event and Article.
type EventArticleLink struct {
	EventID        int64
	ArticleID      int64
	RelevanceScore float64
	AddedAt        time.Time
}

// EventMetrics is the EQIS row, one per event, replaced wholesale on
// recomputation (ON CONFLICT DO UPDATE by event_id).
type EventMetrics struct {
	EventID           int64
	ComputedAt        time.Time
	AgeDays           float64
	CoverageSites     int
	KeywordCoherence  float64
	BestSource        string
	CorroborationRatio float64
	ContradictionRate float64
	CorrectionRisk    float64
	EQISScore         float64
	Components        map[string]float64
}

// OutletAuthority is an administered fallback table: outlet_name →
// authority score in [0,100], used only when no agency metrics exist.
type OutletAuthority struct {
	OutletName     string
	AuthorityScore int
}

// AgencyReputationMetrics is the administered+derived award/standing/
// credibility record C7 scores against. See internal/reputation for the
// exact point bands.
type AgencyReputationMetrics struct {
	ID         int64
	OutletName string

	PulitzerAwards         int
	MurrowAwards           int
	PeabodyAwards          int
	EmmyAwards             int
	GeorgePolkAwards       int
	DuPontAwards           int
	SPJAwards              int
	OtherSpecializedAwards int

	PressFreedomRanking        *int
	IndustryMemberships        StringArray
	EditorialIndependenceRating *float64

	CorrectionPolicyExists  bool
	RetractionTransparency  bool
	OwnershipTransparency   bool
	FundingDisclosure       bool
	EthicsCodePublic        bool
	FactCheckingStandards   bool

	TotalAwardsScore          int
	ProfessionalStandingScore int
	CredibilityScore          int
	FinalReputationScore      float64

	ResearchNotes string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OutletReputationCache is a materialized view refreshed only by C7,
// keyed by outlet_name, for O(1) lookups during quality composition.
type OutletReputationCache struct {
	OutletName        string
	ReputationScore   float64
	AgencyMetricsID   *int64
	TotalMajorAwards  int
	HasFactChecking   bool
	PressFreedomTier  PressFreedomTier
	LastUpdated       time.Time
}

// SystemConfig is a flat key/value store for retention/cleanup/publisher
// settings.
type SystemConfig struct {
	Key         string
	Value       string
	Description string
	UpdatedAt   time.Time
}

// Known system_config keys.
const (
	ConfigPublisherPageSize    = "publisher_page_size"
	ConfigMaxDisplayArticles   = "max_display_articles"
	ConfigArticleRetentionHrs  = "article_retention_hours"
	ConfigEventRetentionHrs    = "event_retention_hours"
	ConfigMetricsRetentionHrs  = "metrics_retention_hours"
	ConfigCleanupBatchSize     = "cleanup_batch_size"
)

// GroupingConfig is the tunable parameter set C10.1 reads and C10.3 tunes.
// Field bounds are documented in spec §4.10.1; ConservativeDefaults below
// matches the Python original's safe-startup values exactly.
type GroupingConfig struct {
	MinSharedEntities      int
	EntityOverlapThreshold float64
	MinTitleKeywords       int
	TitleKeywordBonus      float64
	MaxTimeDiffHours       int
	AllowSameOutlet        bool
	MinEntityLength        int
	MaxEntityLength        int
	EntityNoiseThreshold   float64
}

// ConservativeDefaults is the fallback configuration used when no
// performance history exists, ported verbatim from
// performance_config_manager.py's _get_conservative_defaults.
func ConservativeDefaults() GroupingConfig {
	return GroupingConfig{
		MinSharedEntities:      2,
		EntityOverlapThreshold: 0.250,
		MinTitleKeywords:       0,
		TitleKeywordBonus:      0.100,
		MaxTimeDiffHours:       48,
		AllowSameOutlet:        false,
		MinEntityLength:        3,
		MaxEntityLength:        50,
		EntityNoiseThreshold:   0.200,
	}
}

// PerformanceConfigSnapshot is one append-only row carrying the grouping
// config in effect, the batch metrics measured under it, and the derived
// scores — the audit trail the self-tuning loop reads back from.
type PerformanceConfigSnapshot struct {
	ID                int64
	SnapshotTimestamp time.Time

	GroupingConfig

	ArticlesProcessed       int
	EventsCreated           int
	ProcessingTimeMs        int
	EntitiesExtractedTotal  int
	EventCreationRate       float64
	CoveragePercentage      float64
	AvgArticlesPerEvent     float64
	SingletonEventsCount    int
	EntitiesPerArticle      float64

	PerformanceScore   *float64
	EffectivenessScore float64
	EfficiencyScore    float64
	CoverageScore      float64
	PrecisionScore     float64
	ScoreTrend         ScoreTrend

	ConfigSource     ConfigSource
	ServiceInstance  string
	ConfigGeneration int
	Notes            string
}

// ConfigChangeEvent is an append-only audit row for every configuration
// mutation, manual or auto-tune-suggested.
type ConfigChangeEvent struct {
	ID                 int64
	ParameterName      string
	OldValue           string
	NewValue           string
	ChangeReason       string
	PreviousScore      *float64
	TargetImprovement  *string
	ConfigSnapshotID   *int64
	TriggeredBy        string
	CreatedAt          time.Time
}

// CleanupLog is one row per retention-cleanup run.
type CleanupLog struct {
	ID             int64
	CleanupType    string
	StartedAt      time.Time
	CompletedAt    *time.Time
	RecordsDeleted int
	BatchCount     int
	Status         CleanupStatus
	ErrorMessage   *string
}

// ValidationStatus is C8's per-feed mapping status.
type ValidationStatus string

const (
	StatusValid                ValidationStatus = "VALID"
	StatusAgencyMappedNoScore  ValidationStatus = "AGENCY_MAPPED_NO_SCORE"
	StatusNoAgencyMapping      ValidationStatus = "NO_AGENCY_MAPPING"
)

// NormalizeOutletName lowercases and trims an outlet name for
// case-insensitive joins, matching the `LOWER(outlet_name)` comparisons
// used throughout the reputation/validator queries.
func NormalizeOutletName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
