// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
	"github.com/JakeFAU/rfp-radar/internal/score"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Retention RetentionConfig `mapstructure:"retention"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Health    HealthConfig    `mapstructure:"health"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig controls access to Postgres.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// ScraperConfig governs fetch behavior shared by all sources.
type ScraperConfig struct {
	UserAgent             string `mapstructure:"user_agent"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	FetchTimeoutSeconds   int    `mapstructure:"fetch_timeout_seconds"`
	RecentWindowHours     int    `mapstructure:"recent_window_hours"`
}

// BreakerConfig tunes the per-source circuit breakers.
type BreakerConfig struct {
	FailureThreshold       int `mapstructure:"failure_threshold"`
	RecoveryTimeoutSeconds int `mapstructure:"recovery_timeout_seconds"`
}

// ScoringConfig holds the relevance vocabulary and signal weights.
type ScoringConfig struct {
	Keywords []string      `mapstructure:"keywords"`
	Weights  WeightsConfig `mapstructure:"weights"`
}

// WeightsConfig mirrors score.Weights for configuration overrides.
type WeightsConfig struct {
	UrgencyHigh        float64 `mapstructure:"urgency_high"`
	UrgencyMedium      float64 `mapstructure:"urgency_medium"`
	UrgencyLow         float64 `mapstructure:"urgency_low"`
	ValueMillion       float64 `mapstructure:"value_million"`
	ValueThousand      float64 `mapstructure:"value_thousand"`
	KeywordTitle       float64 `mapstructure:"keyword_title"`
	KeywordDescription float64 `mapstructure:"keyword_description"`
	DeadlineWeek       float64 `mapstructure:"deadline_week"`
	DeadlineMonth      float64 `mapstructure:"deadline_month"`
}

// SourcesConfig selects the enabled adapters and points them at their
// origins.
type SourcesConfig struct {
	Enabled     []string `mapstructure:"enabled"`
	FederalURL  string   `mapstructure:"federal_url"`
	GovtechURLs []string `mapstructure:"govtech_urls"`
	RSSFeeds    []string `mapstructure:"rss_feeds"`
}

// RetentionConfig controls the archive sweep.
type RetentionConfig struct {
	ArchiveAfterDays int `mapstructure:"archive_after_days"`
}

// ScheduleConfig controls the watch loop cadence.
type ScheduleConfig struct {
	ScanIntervalHours int `mapstructure:"scan_interval_hours"`
}

// HealthConfig controls the connectivity probe.
type HealthConfig struct {
	ProbeURL string `mapstructure:"probe_url"`
}

// NotifyConfig controls report and Pub/Sub delivery.
type NotifyConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RFPRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	// Keys default to empty must still be registered, or AutomaticEnv never
	// surfaces them to Unmarshal.
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("scraper.user_agent", "rfp-radar-bot/0.1")
	v.SetDefault("scraper.request_timeout_seconds", 30)
	v.SetDefault("scraper.fetch_timeout_seconds", 60)
	v.SetDefault("scraper.recent_window_hours", 24)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.recovery_timeout_seconds", 60)
	v.SetDefault("scoring.keywords", score.DefaultKeywords())
	defaults := score.DefaultWeights()
	v.SetDefault("scoring.weights.urgency_high", defaults.UrgencyHigh)
	v.SetDefault("scoring.weights.urgency_medium", defaults.UrgencyMedium)
	v.SetDefault("scoring.weights.urgency_low", defaults.UrgencyLow)
	v.SetDefault("scoring.weights.value_million", defaults.ValueMillion)
	v.SetDefault("scoring.weights.value_thousand", defaults.ValueThousand)
	v.SetDefault("scoring.weights.keyword_title", defaults.KeywordTitle)
	v.SetDefault("scoring.weights.keyword_description", defaults.KeywordDescription)
	v.SetDefault("scoring.weights.deadline_week", defaults.DeadlineWeek)
	v.SetDefault("scoring.weights.deadline_month", defaults.DeadlineMonth)
	v.SetDefault("sources.enabled", []string{"federal", "govtech", "rssfeed"})
	v.SetDefault("sources.federal_url", "")
	v.SetDefault("sources.govtech_urls", []string{})
	v.SetDefault("sources.rss_feeds", []string{})
	v.SetDefault("retention.archive_after_days", 90)
	v.SetDefault("schedule.scan_interval_hours", 4)
	v.SetDefault("health.probe_url", "https://httpbin.org/get")
	v.SetDefault("notify.output_dir", "output")
	v.SetDefault("notify.project_id", "")
	v.SetDefault("notify.topic_name", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.request_timeout_seconds must be > 0")
	}
	if c.Scraper.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.fetch_timeout_seconds must be > 0")
	}
	if c.Breaker.FailureThreshold <= 0 {
		return fmt.Errorf("breaker.failure_threshold must be > 0")
	}
	if c.Retention.ArchiveAfterDays <= 0 {
		return fmt.Errorf("retention.archive_after_days must be > 0")
	}
	if c.Schedule.ScanIntervalHours <= 0 {
		return fmt.Errorf("schedule.scan_interval_hours must be > 0")
	}
	if len(c.Scoring.Keywords) == 0 {
		return fmt.Errorf("scoring.keywords must not be empty")
	}
	if c.Notify.TopicName != "" && c.Notify.ProjectID == "" {
		return fmt.Errorf("notify.project_id must be set when notify.topic_name is set")
	}
	return nil
}

// FetchConfig converts the scraper and source sections into the per-session
// value adapters consume.
func (c Config) FetchConfig() rfp.FetchConfig {
	return rfp.FetchConfig{
		UserAgent:      c.Scraper.UserAgent,
		RequestTimeout: time.Duration(c.Scraper.RequestTimeoutSeconds) * time.Second,
		FederalURL:     c.Sources.FederalURL,
		GovtechURLs:    c.Sources.GovtechURLs,
		RSSFeeds:       c.Sources.RSSFeeds,
	}
}

// FetchTimeout is the per-source deadline for one fan-out pass.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.FetchTimeoutSeconds) * time.Second
}

// RecoveryTimeout is the breaker cool-off window.
func (c Config) RecoveryTimeout() time.Duration {
	return time.Duration(c.Breaker.RecoveryTimeoutSeconds) * time.Second
}

// RecentWindow is the lookback for the recent-opportunities views.
func (c Config) RecentWindow() time.Duration {
	return time.Duration(c.Scraper.RecentWindowHours) * time.Hour
}

// ArchiveAge converts the retention setting into a duration.
func (c Config) ArchiveAge() time.Duration {
	return time.Duration(c.Retention.ArchiveAfterDays) * 24 * time.Hour
}

// ScanInterval converts the schedule setting into a duration.
func (c Config) ScanInterval() time.Duration {
	return time.Duration(c.Schedule.ScanIntervalHours) * time.Hour
}

// ScoreWeights converts the weights section into the scorer's type.
func (c Config) ScoreWeights() score.Weights {
	return score.Weights{
		UrgencyHigh:        c.Scoring.Weights.UrgencyHigh,
		UrgencyMedium:      c.Scoring.Weights.UrgencyMedium,
		UrgencyLow:         c.Scoring.Weights.UrgencyLow,
		ValueMillion:       c.Scoring.Weights.ValueMillion,
		ValueThousand:      c.Scoring.Weights.ValueThousand,
		KeywordTitle:       c.Scoring.Weights.KeywordTitle,
		KeywordDescription: c.Scoring.Weights.KeywordDescription,
		DeadlineWeek:       c.Scoring.Weights.DeadlineWeek,
		DeadlineMonth:      c.Scoring.Weights.DeadlineMonth,
	}
}
