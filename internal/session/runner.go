// Package session runs the end-to-end scrape lifecycle: fan-out, scoring,
// persistence, notification, and the session audit record.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
	"github.com/JakeFAU/rfp-radar/internal/score"
	"github.com/JakeFAU/rfp-radar/internal/scrape"
)

// Fetcher is the fan-out surface the runner drives. *scrape.Orchestrator
// satisfies it.
type Fetcher interface {
	Run(ctx context.Context, cfg rfp.FetchConfig) scrape.Result
	Sources() []string
}

// Health gates a session on dependency readiness. *HealthChecker satisfies
// it; a nil Health skips the probe.
type Health interface {
	Check(ctx context.Context) error
}

// Runner executes scrape sessions. Every run produces exactly one session
// record, even when fetching or persistence fails.
type Runner struct {
	fetcher  Fetcher
	health   Health
	scorer   *score.Scorer
	store    rfp.OpportunityStore
	notifier rfp.Notifier
	metrics  rfp.MetricsRecorder
	clock    rfp.Clock
	ids      rfp.IDGenerator
	logger   *zap.Logger
	cfg      rfp.FetchConfig
}

// New wires a Runner.
func New(
	fetcher Fetcher,
	health Health,
	scorer *score.Scorer,
	store rfp.OpportunityStore,
	notifier rfp.Notifier,
	metrics rfp.MetricsRecorder,
	clock rfp.Clock,
	ids rfp.IDGenerator,
	logger *zap.Logger,
	cfg rfp.FetchConfig,
) *Runner {
	return &Runner{
		fetcher:  fetcher,
		health:   health,
		scorer:   scorer,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		clock:    clock,
		ids:      ids,
		logger:   logger,
		cfg:      cfg,
	}
}

// Run executes one session and returns its terminal record. The returned
// error is non-nil only when the session ends in the failed status.
func (r *Runner) Run(ctx context.Context, trigger rfp.SessionSource) (rfp.ScrapeSession, error) {
	id, err := r.ids.NewID()
	if err != nil {
		return rfp.ScrapeSession{}, err
	}

	session := rfp.ScrapeSession{
		ID:        id,
		StartedAt: r.clock.Now().UTC(),
		Status:    rfp.SessionStarted,
		Source:    trigger,
	}
	r.logger.Info("scrape session started",
		zap.String("session_id", session.ID),
		zap.String("trigger", string(trigger)),
		zap.Strings("sources", r.fetcher.Sources()),
	)

	// Finalization always runs, so a crash mid-pipeline still leaves an
	// audit record and session metrics behind.
	defer func() {
		session.EndedAt = r.clock.Now().UTC()
		session.Duration = session.EndedAt.Sub(session.StartedAt)
		if session.Status == rfp.SessionStarted {
			session.Status = rfp.SessionFailed
		}
		r.metrics.ObserveSession(session.Status, session.Duration)
		r.metrics.SetOpportunitiesFound(session.OpportunitiesFound)
		// The audit record must land even when the run's context was
		// canceled mid-session, as during watch-mode shutdown.
		if err := r.store.RecordSession(context.WithoutCancel(ctx), session); err != nil {
			r.logger.Error("session record failed",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}
		r.logger.Info("scrape session finished",
			zap.String("session_id", session.ID),
			zap.String("status", string(session.Status)),
			zap.Int("opportunities", session.OpportunitiesFound),
			zap.Duration("duration", session.Duration),
		)
	}()

	// An unhealthy dependency fails the session before any source is hit,
	// so a down database never burns the scrape budget.
	if r.health != nil {
		if err := r.health.Check(ctx); err != nil {
			session.Status = rfp.SessionFailed
			session.ErrorSummary = err.Error()
			return session, err
		}
	}

	result := r.fetcher.Run(ctx, r.cfg)
	session.ErrorSummary = summarizeErrors(result.Errors)

	if len(result.Errors) == len(r.fetcher.Sources()) && len(r.fetcher.Sources()) > 0 {
		session.Status = rfp.SessionFailed
		return session, fmt.Errorf("all sources failed: %s", session.ErrorSummary)
	}

	opportunities := r.process(ctx, result.Opportunities, &session)
	session.OpportunitiesFound = len(opportunities)

	switch {
	case len(opportunities) == 0:
		session.Status = rfp.SessionNoData
	case len(result.Errors) > 0 || session.ErrorSummary != "":
		session.Status = rfp.SessionPartial
	default:
		session.Status = rfp.SessionCompleted
	}

	if len(opportunities) > 0 {
		if err := r.notifier.Notify(ctx, opportunities, session); err != nil {
			// Delivery problems never change the session outcome.
			r.logger.Warn("notification failed",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}
	}
	return session, nil
}

// process derives urgency, scores, fingerprints, and persists each
// opportunity. A store error on one opportunity skips it and taints the
// session summary; the rest still land.
func (r *Runner) process(ctx context.Context, found []rfp.Opportunity, session *rfp.ScrapeSession) []rfp.Opportunity {
	now := r.clock.Now().UTC()
	var (
		kept       []rfp.Opportunity
		storeFails int
		newCount   int
	)
	for _, opp := range found {
		opp.Urgency = score.DeriveUrgency(opp.Deadline, now)
		opp.Score = r.scorer.Score(opp, now)
		opp.Fingerprint = opp.ComputeFingerprint()

		inserted, err := r.store.Upsert(ctx, opp)
		if err != nil {
			storeFails++
			r.logger.Error("opportunity upsert failed",
				zap.String("session_id", session.ID),
				zap.String("fingerprint", opp.Fingerprint),
				zap.Error(err),
			)
			continue
		}
		if inserted {
			newCount++
		}
		kept = append(kept, opp)
	}
	if storeFails > 0 {
		summary := session.ErrorSummary
		if summary != "" {
			summary += "; "
		}
		session.ErrorSummary = summary + fmt.Sprintf("store: %d upserts failed", storeFails)
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	r.logger.Info("opportunities processed",
		zap.String("session_id", session.ID),
		zap.Int("total", len(kept)),
		zap.Int("new", newCount),
		zap.Int("store_failures", storeFails),
	)
	return kept
}

func summarizeErrors(errs map[string]error) string {
	if len(errs) == 0 {
		return ""
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+errs[name].Error())
	}
	return strings.Join(parts, "; ")
}
