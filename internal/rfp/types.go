// Package rfp defines core types shared across subsystems.
package rfp

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Urgency classifies how soon an opportunity closes.
type Urgency string

// Urgency values derived from the deadline; adapters never set these.
const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Status represents the retention state of a stored opportunity.
type Status string

// Opportunity status values. Archived rows are kept, never deleted.
const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Sentinel values substituted by adapters for missing source fields.
const (
	DeadlineTBD         = "TBD"
	ValueNotSpecified   = "Not specified"
	ContactSeePosting   = "See posting"
	MaxDescriptionRunes = 500
)

// Opportunity is a normalized procurement listing.
type Opportunity struct {
	Fingerprint  string    `json:"fingerprint"`
	Title        string    `json:"title"`
	Agency       string    `json:"agency"`
	Deadline     string    `json:"deadline"`
	Value        string    `json:"value"`
	Urgency      Urgency   `json:"urgency"`
	Contact      string    `json:"contact"`
	URL          string    `json:"url"`
	Description  string    `json:"description"`
	Keywords     []string  `json:"keywords"`
	Score        float64   `json:"score"`
	DiscoveredAt time.Time `json:"discovered_at"`
	LastUpdated  time.Time `json:"last_updated"`
	Status       Status    `json:"status"`
}

// ComputeFingerprint returns the dedup key for the opportunity: a hex SHA-256
// digest of the identifying fields. Two scrapes of the same listing always
// produce the same fingerprint.
func (o Opportunity) ComputeFingerprint() string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%s", o.Title, o.Agency, o.Deadline, o.URL))
	return hex.EncodeToString(sum[:])
}

// SessionStatus is the terminal outcome of a scrape session.
type SessionStatus string

// Session status values. SessionStarted is transient and never persisted.
const (
	SessionStarted   SessionStatus = "started"
	SessionCompleted SessionStatus = "completed"
	SessionPartial   SessionStatus = "partial"
	SessionFailed    SessionStatus = "failed"
	SessionNoData    SessionStatus = "no_data"
)

// SessionSource records what triggered a session.
type SessionSource string

// Session trigger values.
const (
	SessionManual    SessionSource = "manual"
	SessionScheduled SessionSource = "scheduled"
)

// ScrapeSession is the persisted record of one end-to-end run.
type ScrapeSession struct {
	ID                 string        `json:"id"`
	StartedAt          time.Time     `json:"started_at"`
	EndedAt            time.Time     `json:"ended_at"`
	Status             SessionStatus `json:"status"`
	OpportunitiesFound int           `json:"opportunities_found"`
	ErrorSummary       string        `json:"error_summary,omitempty"`
	Source             SessionSource `json:"source"`
	Duration           time.Duration `json:"duration"`
}

// Succeeded reports whether the session reached a healthy terminal state.
func (s ScrapeSession) Succeeded() bool {
	switch s.Status {
	case SessionCompleted, SessionPartial, SessionNoData:
		return true
	default:
		return false
	}
}

// SessionStats aggregates recent session outcomes for the ops endpoint.
type SessionStats struct {
	TotalSessions      int `json:"total_sessions"`
	SuccessfulSessions int `json:"successful_sessions"`
	TotalOpportunities int `json:"total_opportunities"`
}

// FetchConfig carries the per-session knobs an adapter needs. It is built
// once from configuration and passed by value; adapters never mutate it.
type FetchConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
	FederalURL     string
	GovtechURLs    []string
	RSSFeeds       []string
}
