// Package app wires the service's collaborators together for the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/clock/system"
	"github.com/JakeFAU/rfp-radar/internal/config"
	"github.com/JakeFAU/rfp-radar/internal/id/uuid"
	"github.com/JakeFAU/rfp-radar/internal/logging"
	"github.com/JakeFAU/rfp-radar/internal/metrics"
	"github.com/JakeFAU/rfp-radar/internal/notify"
	"github.com/JakeFAU/rfp-radar/internal/rfp"
	"github.com/JakeFAU/rfp-radar/internal/score"
	"github.com/JakeFAU/rfp-radar/internal/scrape"
	"github.com/JakeFAU/rfp-radar/internal/session"
	"github.com/JakeFAU/rfp-radar/internal/source/federal"
	"github.com/JakeFAU/rfp-radar/internal/source/govtech"
	"github.com/JakeFAU/rfp-radar/internal/source/rssfeed"
	"github.com/JakeFAU/rfp-radar/internal/store/memory"
	"github.com/JakeFAU/rfp-radar/internal/store/postgres"
)

// App holds every long-lived collaborator the commands need.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Clock    rfp.Clock
	Store    rfp.OpportunityStore
	Registry *prometheus.Registry
	Metrics  *metrics.Recorder
	Runner   *session.Runner
	Health   *session.HealthChecker

	pgStore      *postgres.Store
	pubsubClient *pubsub.Client
}

// New builds the full object graph from the config file at path. Without a
// database DSN the in-memory store backs the session, which suits local
// one-shot scans.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	clock := system.New()
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Clock:    clock,
		Registry: registry,
		Metrics:  recorder,
	}

	if cfg.DB.DSN != "" {
		pg, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		}, clock)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		a.pgStore = pg
		a.Store = pg
	} else {
		logger.Warn("db.dsn not configured, using in-memory store")
		a.Store = memory.New(clock)
	}

	sources, err := a.buildSources()
	if err != nil {
		a.Close()
		return nil, err
	}

	orchestrator := scrape.New(sources, recorder, clock, logger.Named("scrape"), scrape.Options{
		FetchTimeout:     cfg.FetchTimeout(),
		FailureThreshold: cfg.Breaker.FailureThreshold,
		RecoveryTimeout:  cfg.RecoveryTimeout(),
	})

	notifier, err := a.buildNotifier(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Health = session.NewHealthChecker(
		a.Store,
		&http.Client{Timeout: 10 * time.Second},
		cfg.Health.ProbeURL,
		recorder,
		logger.Named("health"),
	)
	a.Runner = session.New(
		orchestrator,
		a.Health,
		score.New(cfg.ScoreWeights(), cfg.Scoring.Keywords),
		a.Store,
		notifier,
		recorder,
		clock,
		uuid.New(),
		logger.Named("session"),
		cfg.FetchConfig(),
	)
	return a, nil
}

// buildSources registers every adapter whose origin is configured and
// resolves the enabled-by-name list against the registry. Enabled names
// without a configured origin are reported and skipped, never fatal.
func (a *App) buildSources() ([]rfp.Source, error) {
	registry := scrape.NewRegistry()
	if a.Config.Sources.FederalURL != "" {
		client := &http.Client{Timeout: time.Duration(a.Config.Scraper.RequestTimeoutSeconds) * time.Second}
		registry.Register(federal.New(client, a.Logger.Named(federal.Name)))
	}
	if len(a.Config.Sources.GovtechURLs) > 0 {
		registry.Register(govtech.New(a.Logger.Named(govtech.Name)))
	}
	if len(a.Config.Sources.RSSFeeds) > 0 {
		registry.Register(rssfeed.New(a.Logger.Named(rssfeed.Name)))
	}

	sources, unknown := registry.Enabled(a.Config.Sources.Enabled)
	if len(unknown) > 0 {
		a.Logger.Warn("enabled sources not available", zap.Strings("sources", unknown))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources available: set sources.federal_url, sources.govtech_urls, or sources.rss_feeds")
	}
	return sources, nil
}

func (a *App) buildNotifier(ctx context.Context) (rfp.Notifier, error) {
	notifiers := []rfp.Notifier{
		notify.NewCSVExporter(a.Config.Notify.OutputDir, a.Clock, a.Logger.Named("csv")),
	}
	if a.Config.Notify.TopicName != "" {
		client, err := pubsub.NewClient(ctx, a.Config.Notify.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("create pubsub client: %w", err)
		}
		a.pubsubClient = client
		notifiers = append(notifiers, notify.NewPubSub(client.Topic(a.Config.Notify.TopicName)))
	}
	return notify.NewMulti(a.Logger.Named("notify"), notifiers...), nil
}

// Archive flips stale active opportunities to archived.
func (a *App) Archive(ctx context.Context) (int64, error) {
	return a.Store.ArchiveOlderThan(ctx, a.Config.ArchiveAge())
}

// Close releases all held resources.
func (a *App) Close() {
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.pubsubClient != nil {
		_ = a.pubsubClient.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
