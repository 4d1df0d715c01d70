// Package memory provides an in-memory store for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// Store holds opportunities and sessions behind an RWMutex. It honors the
// same dedup and retention semantics as the Postgres store.
type Store struct {
	mu            sync.RWMutex
	opportunities map[string]rfp.Opportunity
	sessions      []rfp.ScrapeSession
	clock         rfp.Clock
}

// New constructs a Store.
func New(clock rfp.Clock) *Store {
	return &Store{
		opportunities: make(map[string]rfp.Opportunity),
		clock:         clock,
	}
}

// Upsert inserts or refreshes an opportunity keyed by fingerprint. The first
// sighting's DiscoveredAt survives every later refresh.
func (s *Store) Upsert(_ context.Context, opp rfp.Opportunity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opp.Fingerprint == "" {
		opp.Fingerprint = opp.ComputeFingerprint()
	}
	now := s.clock.Now().UTC()
	opp.LastUpdated = now
	opp.Status = rfp.StatusActive

	existing, ok := s.opportunities[opp.Fingerprint]
	if ok {
		opp.DiscoveredAt = existing.DiscoveredAt
	} else {
		opp.DiscoveredAt = now
	}
	s.opportunities[opp.Fingerprint] = opp
	return !ok, nil
}

// RecentByDiscovery returns active opportunities first seen within the
// window, newest first.
func (s *Store) RecentByDiscovery(_ context.Context, window time.Duration) ([]rfp.Opportunity, error) {
	return s.recent(window, func(o rfp.Opportunity) time.Time { return o.DiscoveredAt }), nil
}

// RecentByUpdate returns active opportunities last seen within the window,
// newest first.
func (s *Store) RecentByUpdate(_ context.Context, window time.Duration) ([]rfp.Opportunity, error) {
	return s.recent(window, func(o rfp.Opportunity) time.Time { return o.LastUpdated }), nil
}

func (s *Store) recent(window time.Duration, at func(rfp.Opportunity) time.Time) []rfp.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.clock.Now().UTC().Add(-window)
	var out []rfp.Opportunity
	for _, opp := range s.opportunities {
		if opp.Status != rfp.StatusActive || at(opp).Before(cutoff) {
			continue
		}
		out = append(out, opp)
	}
	sort.Slice(out, func(i, j int) bool {
		return at(out[i]).After(at(out[j]))
	})
	return out
}

// ArchiveOlderThan flips stale active rows to archived. Nothing is deleted.
func (s *Store) ArchiveOlderThan(_ context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().UTC().Add(-age)
	var archived int64
	for fp, opp := range s.opportunities {
		if opp.Status != rfp.StatusActive || !opp.LastUpdated.Before(cutoff) {
			continue
		}
		opp.Status = rfp.StatusArchived
		s.opportunities[fp] = opp
		archived++
	}
	return archived, nil
}

// RecordSession appends a session record.
func (s *Store) RecordSession(_ context.Context, session rfp.ScrapeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, session)
	return nil
}

// SessionStats aggregates sessions started within the window.
func (s *Store) SessionStats(_ context.Context, window time.Duration) (rfp.SessionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.clock.Now().UTC().Add(-window)
	var stats rfp.SessionStats
	for _, session := range s.sessions {
		if session.StartedAt.Before(cutoff) {
			continue
		}
		stats.TotalSessions++
		if session.Succeeded() {
			stats.SuccessfulSessions++
		}
		stats.TotalOpportunities += session.OpportunitiesFound
	}
	return stats, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Len reports the total number of stored opportunities, archived included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.opportunities)
}
