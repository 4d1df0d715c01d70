package notify

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func sampleOpportunities() []rfp.Opportunity {
	return []rfp.Opportunity{
		{
			Title:        "Cloud Payment Processing Modernization",
			Agency:       "GSA",
			Deadline:     "2026-09-15",
			Value:        "$2 million",
			Urgency:      rfp.UrgencyHigh,
			Contact:      "co@gsa.gov",
			URL:          "https://sam.gov/opp/abc123",
			Description:  "Replace legacy payment rails.",
			Keywords:     []string{"cloud", "payment"},
			Score:        9.5,
			DiscoveredAt: testNow,
		},
		{
			Title:    "Road Resurfacing",
			Agency:   "County DOT",
			Deadline: rfp.DeadlineTBD,
			Value:    rfp.ValueNotSpecified,
			Urgency:  rfp.UrgencyMedium,
			Contact:  rfp.ContactSeePosting,
			URL:      "https://example.gov/rfps/42",
			Score:    3.0,
		},
	}
}

func sampleSession() rfp.ScrapeSession {
	return rfp.ScrapeSession{
		ID:        "sess-1",
		StartedAt: testNow,
		EndedAt:   testNow.Add(time.Minute),
		Status:    rfp.SessionCompleted,
	}
}

func TestCSVExporterWritesReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exporter := NewCSVExporter(dir, fixedClock{now: testNow}, zap.NewNop())

	err := exporter.Notify(context.Background(), sampleOpportunities(), sampleSession())
	require.NoError(t, err)

	path := filepath.Join(dir, "rfp_opportunities_20260801_120000_sess-1.csv")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, "Cloud Payment Processing Modernization", rows[1][0])
	require.Equal(t, "9.5", rows[1][8])
	require.Equal(t, "cloud, payment", rows[1][9])
	require.Equal(t, rfp.ValueNotSpecified, rows[2][3])
}

func TestCSVExporterDistinctFilesWithinSameSecond(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exporter := NewCSVExporter(dir, fixedClock{now: testNow}, zap.NewNop())

	first := sampleSession()
	second := sampleSession()
	second.ID = "sess-2"

	require.NoError(t, exporter.Notify(context.Background(), sampleOpportunities(), first))
	require.NoError(t, exporter.Notify(context.Background(), sampleOpportunities(), second))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestCSVExporterSkipsEmptySessions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exporter := NewCSVExporter(dir, fixedClock{now: testNow}, zap.NewNop())

	require.NoError(t, exporter.Notify(context.Background(), nil, sampleSession()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

// flaky fails a fixed number of times before succeeding.
type flaky struct {
	mu        sync.Mutex
	failures  int
	succeeded bool
	calls     int
}

func (f *flaky) Notify(context.Context, []rfp.Opportunity, rfp.ScrapeSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient")
	}
	f.succeeded = true
	return nil
}

func TestMultiRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	target := &flaky{failures: 2}
	multi := NewMulti(zap.NewNop(), target)

	err := multi.Notify(context.Background(), sampleOpportunities(), sampleSession())
	require.NoError(t, err)
	require.True(t, target.succeeded)
	require.Equal(t, 3, target.calls)
}

func TestMultiCollectsPersistentFailures(t *testing.T) {
	t.Parallel()

	broken := &flaky{failures: 100}
	memory := NewMemory()
	multi := NewMulti(zap.NewNop(), broken, memory)

	err := multi.Notify(context.Background(), sampleOpportunities(), sampleSession())
	require.Error(t, err)
	require.Equal(t, maxAttempts, broken.calls)

	// The broken notifier never blocks the healthy one.
	require.Len(t, memory.Deliveries(), 1)
	require.Equal(t, "sess-1", memory.Deliveries()[0].Session.ID)
}

func TestMultiStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	broken := &flaky{failures: 100}
	multi := NewMulti(zap.NewNop(), broken)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := multi.Notify(ctx, nil, sampleSession())
	require.ErrorIs(t, err, context.Canceled)
	require.LessOrEqual(t, broken.calls, 1)
}
