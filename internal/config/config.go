// Package config binds the service's environment inputs through viper,
// the way CrlsMrls-dummybox's cmd package does, so the service boots with
// sane defaults and only DATABASE_URL strictly required.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every environment-configurable value named in spec §6 plus
// the retention/cleanup keys and grouping/EQIS defaults.
type Config struct {
	DatabaseURL     string
	BatchSize       int
	SleepInterval   time.Duration
	FetchInterval   time.Duration // scheduler tick, spec §6's FETCH_INTERVAL
	ServiceInstance string

	ArticleRetentionHours int
	EventRetentionHours   int
	MetricsRetentionHours int
	CleanupBatchSize      int

	SchedulerWorkers   int
	PerHostMinInterval time.Duration
	ShutdownDrain      time.Duration

	AutoTuneApply bool

	AdminPassword string
	JWTSecret     string

	HTTPAddr string
}

// Load reads environment variables (optionally overridden by flags) into a
// Config, applying defaults for everything but DATABASE_URL.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("BATCH_SIZE", 50)
	v.SetDefault("SLEEP_INTERVAL", 60)
	v.SetDefault("FETCH_INTERVAL", 300)
	v.SetDefault("TZ", "UTC")

	v.SetDefault("ARTICLE_RETENTION_HOURS", 24*14)
	v.SetDefault("EVENT_RETENTION_HOURS", 24*30)
	v.SetDefault("METRICS_RETENTION_HOURS", 24*90)
	v.SetDefault("CLEANUP_BATCH_SIZE", 500)

	v.SetDefault("SCHEDULER_WORKERS", 4)
	v.SetDefault("PER_HOST_MIN_INTERVAL_SECONDS", 2)
	v.SetDefault("SHUTDOWN_DRAIN_SECONDS", 10)

	v.SetDefault("AUTO_TUNE_APPLY", false)
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("HTTP_ADDR", ":8080")

	fs := pflag.NewFlagSet("news-engine", pflag.ContinueOnError)
	fs.String("database-url", "", "override DATABASE_URL")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	_ = v.BindPFlag("DATABASE_URL", fs.Lookup("database-url"))

	dbURL := v.GetString("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	instance := v.GetString("HOSTNAME")
	if instance == "" {
		instance, _ = os.Hostname()
	}
	if instance == "" {
		instance = "instance-" + uuid.NewString()
	}

	return &Config{
		DatabaseURL:     dbURL,
		BatchSize:       v.GetInt("BATCH_SIZE"),
		SleepInterval:   time.Duration(v.GetInt("SLEEP_INTERVAL")) * time.Second,
		FetchInterval:   time.Duration(v.GetInt("FETCH_INTERVAL")) * time.Second,
		ServiceInstance: instance,

		ArticleRetentionHours: v.GetInt("ARTICLE_RETENTION_HOURS"),
		EventRetentionHours:   v.GetInt("EVENT_RETENTION_HOURS"),
		MetricsRetentionHours: v.GetInt("METRICS_RETENTION_HOURS"),
		CleanupBatchSize:      v.GetInt("CLEANUP_BATCH_SIZE"),

		SchedulerWorkers:   v.GetInt("SCHEDULER_WORKERS"),
		PerHostMinInterval: time.Duration(v.GetInt("PER_HOST_MIN_INTERVAL_SECONDS")) * time.Second,
		ShutdownDrain:      time.Duration(v.GetInt("SHUTDOWN_DRAIN_SECONDS")) * time.Second,

		AutoTuneApply: v.GetBool("AUTO_TUNE_APPLY"),

		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		JWTSecret:     v.GetString("JWT_SECRET"),

		HTTPAddr: v.GetString("HTTP_ADDR"),
	}, nil
}
