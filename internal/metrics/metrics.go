// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// Recorder implements rfp.MetricsRecorder on top of Prometheus collectors.
type Recorder struct {
	scrapesTotal         *prometheus.CounterVec
	scrapeDuration       prometheus.Histogram
	opportunitiesCurrent prometheus.Gauge
	systemHealth         prometheus.Gauge
	sourceFetchDuration  *prometheus.HistogramVec
	sourceErrorsTotal    *prometheus.CounterVec
}

// New registers the collectors on the given registerer. Passing a fresh
// prometheus.NewRegistry keeps tests isolated; production wiring passes
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		scrapesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rfp_scrapes_total",
				Help: "Total number of scrape sessions, labeled by terminal status.",
			},
			[]string{"status"},
		),
		scrapeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rfp_scrape_duration_seconds",
				Help:    "Histogram of end-to-end scrape session durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		opportunitiesCurrent: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rfp_opportunities_current",
				Help: "Opportunities found by the most recent scrape session.",
			},
		),
		systemHealth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rfp_system_health",
				Help: "Overall system health, 1 healthy and 0 unhealthy.",
			},
		),
		sourceFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rfp_source_fetch_duration_seconds",
				Help:    "Histogram of per-source fetch durations.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 15, 30, 60},
			},
			[]string{"source"},
		),
		sourceErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rfp_source_errors_total",
				Help: "Total per-source fetch failures.",
			},
			[]string{"source"},
		),
	}
}

// ObserveSession records one terminal session outcome.
func (r *Recorder) ObserveSession(status rfp.SessionStatus, duration time.Duration) {
	r.scrapesTotal.WithLabelValues(string(status)).Inc()
	r.scrapeDuration.Observe(duration.Seconds())
}

// ObserveSource records one source fetch attempt.
func (r *Recorder) ObserveSource(name string, duration time.Duration, err error) {
	r.sourceFetchDuration.WithLabelValues(name).Observe(duration.Seconds())
	if err != nil {
		r.sourceErrorsTotal.WithLabelValues(name).Inc()
	}
}

// SetOpportunitiesFound updates the latest-session gauge.
func (r *Recorder) SetOpportunitiesFound(count int) {
	r.opportunitiesCurrent.Set(float64(count))
}

// SetHealthy updates the health gauge.
func (r *Recorder) SetHealthy(healthy bool) {
	if healthy {
		r.systemHealth.Set(1)
		return
	}
	r.systemHealth.Set(0)
}

// Handler exposes the gathered metrics over HTTP.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards every observation. Useful for tests and one-shot commands
// that do not serve a metrics endpoint.
type Noop struct{}

func (Noop) ObserveSession(rfp.SessionStatus, time.Duration) {}
func (Noop) ObserveSource(string, time.Duration, error)      {}
func (Noop) SetOpportunitiesFound(int)                       {}
func (Noop) SetHealthy(bool)                                 {}
