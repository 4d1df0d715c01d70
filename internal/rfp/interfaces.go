package rfp

import (
	"context"
	"time"
)

// Source fetches and normalizes listings from one external origin. A Source
// populates the descriptive opportunity fields only; urgency and score are
// derived later. Errors are reserved for connectivity/parse failures and
// count against the source's circuit breaker.
type Source interface {
	Name() string
	Fetch(ctx context.Context, cfg FetchConfig) ([]Opportunity, error)
}

// OpportunityStore persists deduplicated opportunities and session records.
type OpportunityStore interface {
	// Upsert inserts a new opportunity or updates the mutable fields of an
	// existing one keyed by fingerprint. DiscoveredAt is never overwritten.
	// The bool reports whether the row was newly inserted.
	Upsert(ctx context.Context, opp Opportunity) (bool, error)
	// RecentByDiscovery returns active opportunities first seen within the
	// window, most recent first.
	RecentByDiscovery(ctx context.Context, window time.Duration) ([]Opportunity, error)
	// RecentByUpdate is the same query windowed on the last sighting instead.
	RecentByUpdate(ctx context.Context, window time.Duration) ([]Opportunity, error)
	// ArchiveOlderThan flips active rows older than age to archived and
	// returns how many changed. Rows are never deleted.
	ArchiveOlderThan(ctx context.Context, age time.Duration) (int64, error)
	RecordSession(ctx context.Context, session ScrapeSession) error
	SessionStats(ctx context.Context, window time.Duration) (SessionStats, error)
	Ping(ctx context.Context) error
}

// Notifier receives the final opportunity set of a session. Implementations
// own their delivery concerns; a Notify error is reported, never fatal.
type Notifier interface {
	Notify(ctx context.Context, opportunities []Opportunity, session ScrapeSession) error
}

// MetricsRecorder is the injected observability hook for the session runner.
type MetricsRecorder interface {
	ObserveSession(status SessionStatus, duration time.Duration)
	ObserveSource(name string, duration time.Duration, err error)
	SetOpportunitiesFound(count int)
	SetHealthy(healthy bool)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces session IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
