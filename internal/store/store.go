// Package store is the C1 store adapter: typed operations over the
// durable relational store. Multi-statement writes run in one short
// transaction on a connection set to the UTC session timezone; single-
// statement reads and writes use the pool directly and do not set the
// session timezone. Directly grounded in the
// teacher's internal/database package (NewDB/Migrate shape) and the
// Python original's get_db_connection's `SET timezone = 'UTC'`.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
)

// Store wraps a *sql.DB with the operations every pipeline component needs.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to the configured database, pings it, and returns a Store.
// Retries 5 times with exponential backoff 1-2-4-8-16s on connection
// failure at startup, per spec §5.
func Open(ctx context.Context, databaseURL string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errs.New(errs.KindInvalidConfiguration, "store.Open", err)
	}

	backoff := time.Second
	var pingErr error
	for attempt := 1; attempt <= 5; attempt++ {
		pingErr = db.PingContext(ctx)
		if pingErr == nil {
			break
		}
		log.Warn().Err(pingErr).Int("attempt", attempt).Msg("database ping failed, retrying")
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.KindShutdownRequested, "store.Open", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if pingErr != nil {
		return nil, errs.New(errs.KindStoreUnavailable, "store.Open", pingErr)
	}

	return &Store{db: db, log: log.With().Str("component", "store").Logger()}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// withUTCConn runs fn with a connection whose session timezone is UTC.
func (s *Store) withUTCConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return errs.New(errs.KindStoreUnavailable, "store.withUTCConn", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET timezone = 'UTC'"); err != nil {
		return errs.New(errs.KindStoreUnavailable, "store.withUTCConn", err)
	}
	return fn(conn)
}

// withTx runs fn inside a single transaction with UTC session timezone,
// committing on success and rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withUTCConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return errs.New(errs.KindStoreUnavailable, "store.withTx", err)
		}
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r)
			}
		}()

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return classifyWriteErr("store.withTx.Commit", err)
		}
		return nil
	})
}

// classifyWriteErr maps a lib/pq error into the store error taxonomy.
// Constraint violations (unique/check/fk) are StoreConstraintViolated,
// conflicts during concurrent writes are StoreConflict, everything else
// that looks like a connectivity problem is StoreUnavailable.
func classifyWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case contains(msg, "duplicate key"), contains(msg, "violates check constraint"),
		contains(msg, "violates foreign key constraint"), contains(msg, "violates not-null constraint"):
		return errs.New(errs.KindStoreConstraint, op, err)
	case contains(msg, "deadlock detected"), contains(msg, "could not serialize"):
		return errs.New(errs.KindStoreConflict, op, err)
	default:
		return errs.New(errs.KindStoreUnavailable, op, err)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// Migrate creates every table named in spec §3 if it does not already
// exist, mirroring the teacher's single inline-SQL Migrate function.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migrationSQL)
	if err != nil {
		return errs.New(errs.KindStoreUnavailable, "store.Migrate", err)
	}
	s.log.Info().Msg("schema migration complete")
	return nil
}

var migrationSQL = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS feeds (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	outlet_name TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true,
	last_fetched TIMESTAMPTZ,
	poll_interval_minutes INTEGER NOT NULL DEFAULT 30 CHECK (poll_interval_minutes > 0),
	agency_metrics_id BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_feeds_active ON feeds(active);
CREATE INDEX IF NOT EXISTS idx_feeds_outlet_name ON feeds(outlet_name);

CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	outlet_name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	author TEXT,
	published_at TIMESTAMPTZ,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	text TEXT,
	raw_html TEXT,
	feed_id BIGINT REFERENCES feeds(id) ON DELETE SET NULL,
	quality_score INTEGER CHECK (quality_score IS NULL OR (quality_score BETWEEN 0 AND 100)),
	quality_computed_at TIMESTAMPTZ,
	ner_persons TEXT[] NOT NULL DEFAULT '{}',
	ner_organizations TEXT[] NOT NULL DEFAULT '{}',
	ner_locations TEXT[] NOT NULL DEFAULT '{}',
	ner_dates TEXT[] NOT NULL DEFAULT '{}',
	ner_others TEXT[] NOT NULL DEFAULT '{}',
	ner_extracted_at TIMESTAMPTZ,
	computed_event_id BIGINT
);
CREATE INDEX IF NOT EXISTS idx_articles_outlet_name ON articles(outlet_name);
CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_ner_extracted_at ON articles(ner_extracted_at);
CREATE INDEX IF NOT EXISTS idx_articles_quality_computed_at ON articles(quality_computed_at);

CREATE TABLE IF NOT EXISTS claims (
	id BIGSERIAL PRIMARY KEY,
	article_id BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
	claim_text TEXT NOT NULL,
	claim_type TEXT NOT NULL CHECK (claim_type IN ('fact','opinion','prediction','none')),
	verified_state TEXT NOT NULL CHECK (verified_state IN ('verified','contested','unverified')),
	verification_source TEXT,
	confidence NUMERIC(3,2) NOT NULL DEFAULT 0 CHECK (confidence BETWEEN 0 AND 1),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_claims_article_id ON claims(article_id);

CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	active BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS event_articles (
	event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	article_id BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
	relevance_score NUMERIC(4,3) NOT NULL DEFAULT 1.0 CHECK (relevance_score BETWEEN 0 AND 1),
	added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (event_id, article_id)
);
CREATE INDEX IF NOT EXISTS idx_event_articles_article_id ON event_articles(article_id);

CREATE TABLE IF NOT EXISTS event_metrics (
	event_id BIGINT PRIMARY KEY REFERENCES events(id) ON DELETE CASCADE,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	age_days NUMERIC(8,3) NOT NULL DEFAULT 0,
	coverage_sites INTEGER NOT NULL DEFAULT 0,
	keyword_coherence NUMERIC(6,3) NOT NULL DEFAULT 0,
	best_source TEXT NOT NULL DEFAULT '',
	corroboration_ratio NUMERIC(6,3) NOT NULL DEFAULT 0,
	contradiction_rate NUMERIC(6,3) NOT NULL DEFAULT 0,
	correction_risk NUMERIC(6,3) NOT NULL DEFAULT 0,
	eqis_score NUMERIC(6,3) NOT NULL DEFAULT 0,
	components JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS outlet_authority (
	outlet_name TEXT PRIMARY KEY,
	authority_score INTEGER NOT NULL CHECK (authority_score BETWEEN 0 AND 100)
);

CREATE TABLE IF NOT EXISTS agency_reputation_metrics (
	id BIGSERIAL PRIMARY KEY,
	outlet_name TEXT NOT NULL UNIQUE,
	pulitzer_awards INTEGER NOT NULL DEFAULT 0,
	murrow_awards INTEGER NOT NULL DEFAULT 0,
	peabody_awards INTEGER NOT NULL DEFAULT 0,
	emmy_awards INTEGER NOT NULL DEFAULT 0,
	george_polk_awards INTEGER NOT NULL DEFAULT 0,
	dupont_awards INTEGER NOT NULL DEFAULT 0,
	spj_awards INTEGER NOT NULL DEFAULT 0,
	other_specialized_awards INTEGER NOT NULL DEFAULT 0,
	press_freedom_ranking INTEGER,
	industry_memberships TEXT[] NOT NULL DEFAULT '{}',
	editorial_independence_rating NUMERIC(4,2),
	correction_policy_exists BOOLEAN NOT NULL DEFAULT false,
	retraction_transparency BOOLEAN NOT NULL DEFAULT false,
	ownership_transparency BOOLEAN NOT NULL DEFAULT false,
	funding_disclosure BOOLEAN NOT NULL DEFAULT false,
	ethics_code_public BOOLEAN NOT NULL DEFAULT false,
	fact_checking_standards BOOLEAN NOT NULL DEFAULT false,
	total_awards_score INTEGER NOT NULL DEFAULT 0,
	professional_standing_score INTEGER NOT NULL DEFAULT 0,
	credibility_score INTEGER NOT NULL DEFAULT 0,
	final_reputation_score NUMERIC(6,2) NOT NULL DEFAULT 0,
	research_notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS outlet_reputation_scores (
	outlet_name TEXT PRIMARY KEY,
	reputation_score NUMERIC(6,2) NOT NULL DEFAULT 0,
	reputation_metrics_id BIGINT REFERENCES agency_reputation_metrics(id),
	total_major_awards INTEGER NOT NULL DEFAULT 0,
	has_fact_checking BOOLEAN NOT NULL DEFAULT false,
	press_freedom_tier TEXT NOT NULL DEFAULT 'unknown',
	last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS system_config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS performance_config_snapshots (
	id BIGSERIAL PRIMARY KEY,
	snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	min_shared_entities INTEGER NOT NULL,
	entity_overlap_threshold NUMERIC(5,3) NOT NULL,
	min_title_keywords INTEGER NOT NULL,
	title_keyword_bonus NUMERIC(5,3) NOT NULL,
	max_time_diff_hours INTEGER NOT NULL,
	allow_same_outlet BOOLEAN NOT NULL,
	min_entity_length INTEGER NOT NULL,
	max_entity_length INTEGER NOT NULL,
	entity_noise_threshold NUMERIC(5,3) NOT NULL,
	articles_processed INTEGER NOT NULL DEFAULT 0,
	events_created INTEGER NOT NULL DEFAULT 0,
	processing_time_ms INTEGER NOT NULL DEFAULT 0,
	entities_extracted_total INTEGER NOT NULL DEFAULT 0,
	event_creation_rate NUMERIC(6,4) NOT NULL DEFAULT 0,
	coverage_percentage NUMERIC(6,2) NOT NULL DEFAULT 0,
	avg_articles_per_event NUMERIC(6,2) NOT NULL DEFAULT 0,
	singleton_events_count INTEGER NOT NULL DEFAULT 0,
	entities_per_article NUMERIC(6,2) NOT NULL DEFAULT 0,
	performance_score NUMERIC(6,2),
	effectiveness_score NUMERIC(6,2) NOT NULL DEFAULT 0,
	efficiency_score NUMERIC(6,2) NOT NULL DEFAULT 0,
	coverage_score NUMERIC(6,2) NOT NULL DEFAULT 0,
	precision_score NUMERIC(6,2) NOT NULL DEFAULT 0,
	score_trend TEXT NOT NULL DEFAULT 'unknown',
	config_source TEXT NOT NULL CHECK (config_source IN ('startup','runtime','manual','auto_tune')),
	service_instance TEXT NOT NULL DEFAULT '',
	config_generation INTEGER NOT NULL DEFAULT 1,
	notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_perf_snapshots_timestamp ON performance_config_snapshots(snapshot_timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_perf_snapshots_instance ON performance_config_snapshots(service_instance);

CREATE TABLE IF NOT EXISTS config_change_events (
	id BIGSERIAL PRIMARY KEY,
	parameter_name TEXT NOT NULL,
	old_value TEXT,
	new_value TEXT,
	change_reason TEXT NOT NULL,
	previous_score NUMERIC(6,2),
	target_improvement TEXT,
	config_snapshot_id BIGINT REFERENCES performance_config_snapshots(id),
	triggered_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cleanup_log (
	id BIGSERIAL PRIMARY KEY,
	cleanup_type TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ,
	records_deleted INTEGER NOT NULL DEFAULT 0,
	batch_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK (status IN ('running','completed','error')),
	error_message TEXT
);

INSERT INTO system_config (key, value, description) VALUES
	('publisher_page_size', '20', 'Default page size for the read-only web surface'),
	('max_display_articles', '200', 'Maximum articles returned per publisher query'),
	('article_retention_hours', '336', 'Hours to retain articles before cleanup'),
	('event_retention_hours', '720', 'Hours to retain events before cleanup'),
	('metrics_retention_hours', '2160', 'Hours to retain performance snapshots before cleanup'),
	('cleanup_batch_size', '500', 'Row batch size for retention cleanup passes')
ON CONFLICT (key) DO NOTHING;
`)
