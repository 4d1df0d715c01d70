// Package postgres provides the Postgres-backed opportunity store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store persists opportunities and scrape sessions in Postgres.
type Store struct {
	pool  dbPool
	clock rfp.Clock
}

// New creates a Store backed by a fresh connection pool.
func New(ctx context.Context, cfg Config, clock rfp.Clock) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, clock: clock}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool dbPool, clock rfp.Clock) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool, clock: clock}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS opportunities (
	fingerprint   TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	agency        TEXT NOT NULL,
	deadline      TEXT NOT NULL,
	value         TEXT NOT NULL,
	urgency       TEXT NOT NULL,
	contact       TEXT NOT NULL,
	url           TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	keywords      TEXT[] NOT NULL DEFAULT '{}',
	score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	discovered_at TIMESTAMPTZ NOT NULL,
	last_updated  TIMESTAMPTZ NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active'
);
CREATE INDEX IF NOT EXISTS idx_opportunities_discovered ON opportunities (discovered_at);
CREATE INDEX IF NOT EXISTS idx_opportunities_updated ON opportunities (last_updated);
CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities (status);

CREATE TABLE IF NOT EXISTS scrape_sessions (
	id                  TEXT PRIMARY KEY,
	started_at          TIMESTAMPTZ NOT NULL,
	ended_at            TIMESTAMPTZ NOT NULL,
	status              TEXT NOT NULL,
	opportunities_found INTEGER NOT NULL DEFAULT 0,
	error_summary       TEXT NOT NULL DEFAULT '',
	source              TEXT NOT NULL,
	duration_ms         BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON scrape_sessions (started_at);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO opportunities (
	fingerprint, title, agency, deadline, value, urgency, contact, url,
	description, keywords, score, discovered_at, last_updated, status
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12,'active')
ON CONFLICT (fingerprint) DO UPDATE SET
	title = EXCLUDED.title,
	agency = EXCLUDED.agency,
	deadline = EXCLUDED.deadline,
	value = EXCLUDED.value,
	urgency = EXCLUDED.urgency,
	contact = EXCLUDED.contact,
	url = EXCLUDED.url,
	description = EXCLUDED.description,
	keywords = EXCLUDED.keywords,
	score = EXCLUDED.score,
	last_updated = EXCLUDED.last_updated,
	status = 'active'
RETURNING (xmax = 0) AS inserted`

// Upsert inserts a new opportunity or refreshes the mutable fields of an
// existing row keyed by fingerprint. The conflict arm deliberately omits
// discovered_at so the first sighting is preserved.
func (s *Store) Upsert(ctx context.Context, opp rfp.Opportunity) (bool, error) {
	if opp.Fingerprint == "" {
		opp.Fingerprint = opp.ComputeFingerprint()
	}
	now := s.clock.Now().UTC()

	var inserted bool
	err := s.pool.QueryRow(ctx, upsertSQL,
		opp.Fingerprint, opp.Title, opp.Agency, opp.Deadline, opp.Value,
		string(opp.Urgency), opp.Contact, opp.URL, opp.Description,
		opp.Keywords, opp.Score, now,
	).Scan(&inserted)
	if err != nil {
		return false, &rfp.StoreError{Fingerprint: opp.Fingerprint, Err: fmt.Errorf("upsert opportunity: %w", err)}
	}
	return inserted, nil
}

const recentSQL = `
SELECT fingerprint, title, agency, deadline, value, urgency, contact, url,
	description, keywords, score, discovered_at, last_updated, status
FROM opportunities
WHERE status = 'active' AND %s >= $1
ORDER BY %s DESC`

// RecentByDiscovery returns active opportunities first seen within the
// window, newest first.
func (s *Store) RecentByDiscovery(ctx context.Context, window time.Duration) ([]rfp.Opportunity, error) {
	return s.recent(ctx, "discovered_at", window)
}

// RecentByUpdate returns active opportunities last seen within the window,
// newest first.
func (s *Store) RecentByUpdate(ctx context.Context, window time.Duration) ([]rfp.Opportunity, error) {
	return s.recent(ctx, "last_updated", window)
}

func (s *Store) recent(ctx context.Context, column string, window time.Duration) ([]rfp.Opportunity, error) {
	cutoff := s.clock.Now().UTC().Add(-window)
	query := fmt.Sprintf(recentSQL, column, column)
	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query recent opportunities: %w", err)
	}
	defer rows.Close()

	var out []rfp.Opportunity
	for rows.Next() {
		var (
			opp     rfp.Opportunity
			urgency string
			status  string
		)
		if err := rows.Scan(
			&opp.Fingerprint, &opp.Title, &opp.Agency, &opp.Deadline, &opp.Value,
			&urgency, &opp.Contact, &opp.URL, &opp.Description, &opp.Keywords,
			&opp.Score, &opp.DiscoveredAt, &opp.LastUpdated, &status,
		); err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opp.Urgency = rfp.Urgency(urgency)
		opp.Status = rfp.Status(status)
		out = append(out, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunities: %w", err)
	}
	return out, nil
}

const archiveSQL = `
UPDATE opportunities
SET status = 'archived'
WHERE status = 'active' AND last_updated < $1`

// ArchiveOlderThan flips stale active rows to archived and returns how many
// changed. Rows are never deleted.
func (s *Store) ArchiveOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := s.clock.Now().UTC().Add(-age)
	tag, err := s.pool.Exec(ctx, archiveSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive opportunities: %w", err)
	}
	return tag.RowsAffected(), nil
}

const recordSessionSQL = `
INSERT INTO scrape_sessions (
	id, started_at, ended_at, status, opportunities_found, error_summary, source, duration_ms
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

// RecordSession persists one terminal session record.
func (s *Store) RecordSession(ctx context.Context, session rfp.ScrapeSession) error {
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	_, err := s.pool.Exec(ctx, recordSessionSQL,
		session.ID, session.StartedAt.UTC(), session.EndedAt.UTC(), string(session.Status),
		session.OpportunitiesFound, session.ErrorSummary, string(session.Source),
		session.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

const sessionStatsSQL = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status IN ('completed','partial','no_data')),
	COALESCE(SUM(opportunities_found), 0)
FROM scrape_sessions
WHERE started_at >= $1`

// SessionStats aggregates sessions started within the window.
func (s *Store) SessionStats(ctx context.Context, window time.Duration) (rfp.SessionStats, error) {
	cutoff := s.clock.Now().UTC().Add(-window)
	var stats rfp.SessionStats
	err := s.pool.QueryRow(ctx, sessionStatsSQL, cutoff).Scan(
		&stats.TotalSessions, &stats.SuccessfulSessions, &stats.TotalOpportunities,
	)
	if err != nil {
		return rfp.SessionStats{}, fmt.Errorf("query session stats: %w", err)
	}
	return stats, nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
