// Package scrape coordinates concurrent fan-out across source adapters.
package scrape

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/breaker"
	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

const defaultFetchTimeout = 60 * time.Second

// Options controls fan-out behavior. Zero values fall back to defaults.
type Options struct {
	FetchTimeout     time.Duration
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// Result carries everything one fan-out pass produced. Errors is keyed by
// source name and only holds sources that failed.
type Result struct {
	Opportunities []rfp.Opportunity
	Errors        map[string]error
}

// Orchestrator runs every registered source concurrently, each behind its
// own circuit breaker and per-source deadline, and merges the results in
// registration order.
type Orchestrator struct {
	sources  []rfp.Source
	breakers map[string]*breaker.Breaker
	timeout  time.Duration
	metrics  rfp.MetricsRecorder
	clock    rfp.Clock
	logger   *zap.Logger
}

// New wires an Orchestrator. Each source gets a dedicated breaker so one
// flaky site cannot trip fetching for the others.
func New(sources []rfp.Source, metrics rfp.MetricsRecorder, clock rfp.Clock, logger *zap.Logger, opts Options) *Orchestrator {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	breakers := make(map[string]*breaker.Breaker, len(sources))
	for _, src := range sources {
		breakers[src.Name()] = breaker.New(opts.FailureThreshold, opts.RecoveryTimeout, clock)
	}
	return &Orchestrator{
		sources:  sources,
		breakers: breakers,
		timeout:  timeout,
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
	}
}

// Sources returns the registered source names in registration order.
func (o *Orchestrator) Sources() []string {
	names := make([]string, len(o.sources))
	for i, src := range o.sources {
		names[i] = src.Name()
	}
	return names
}

// BreakerState reports the breaker state for one source, or an empty string
// for an unknown source.
func (o *Orchestrator) BreakerState(name string) breaker.State {
	b, ok := o.breakers[name]
	if !ok {
		return ""
	}
	return b.State()
}

// Run fans out to every source and blocks until all of them finish or time
// out. A failing source never blocks or discards another source's results.
func (o *Orchestrator) Run(ctx context.Context, cfg rfp.FetchConfig) Result {
	type outcome struct {
		opportunities []rfp.Opportunity
		err           error
	}

	outcomes := make(map[string]outcome, len(o.sources))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, src := range o.sources {
		wg.Add(1)
		go func(src rfp.Source) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			start := o.clock.Now()
			opportunities, err := o.breakers[src.Name()].Do(srcCtx, func(c context.Context) ([]rfp.Opportunity, error) {
				return src.Fetch(c, cfg)
			})
			duration := o.clock.Now().Sub(start)
			o.metrics.ObserveSource(src.Name(), duration, err)

			if err != nil {
				o.logger.Warn("source fetch failed",
					zap.String("source", src.Name()),
					zap.Duration("duration", duration),
					zap.Error(err),
				)
			} else {
				o.logger.Info("source fetch completed",
					zap.String("source", src.Name()),
					zap.Int("opportunities", len(opportunities)),
					zap.Duration("duration", duration),
				)
			}

			mu.Lock()
			outcomes[src.Name()] = outcome{opportunities: opportunities, err: err}
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	// Merge in registration order so repeated runs are deterministic.
	result := Result{Errors: make(map[string]error)}
	for _, src := range o.sources {
		out := outcomes[src.Name()]
		if out.err != nil {
			result.Errors[src.Name()] = &rfp.SourceError{Source: src.Name(), Err: out.err}
			continue
		}
		result.Opportunities = append(result.Opportunities, out.opportunities...)
	}
	return result
}
