// Package notify delivers session results to downstream consumers.
package notify

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

var csvHeader = []string{
	"title", "agency", "deadline", "value", "urgency", "contact",
	"url", "description", "score", "keywords", "discovered_at",
}

// CSVExporter writes one timestamped report file per session.
type CSVExporter struct {
	dir    string
	clock  rfp.Clock
	logger *zap.Logger
}

// NewCSVExporter builds an exporter that writes under dir.
func NewCSVExporter(dir string, clock rfp.Clock, logger *zap.Logger) *CSVExporter {
	return &CSVExporter{dir: dir, clock: clock, logger: logger}
}

// Notify writes the session's opportunities to a new CSV file. Sessions with
// no opportunities produce no file.
func (e *CSVExporter) Notify(_ context.Context, opportunities []rfp.Opportunity, session rfp.ScrapeSession) error {
	if len(opportunities) == 0 {
		return nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// The session ID keeps reports from colliding when two sessions finish
	// within the same second.
	name := fmt.Sprintf("rfp_opportunities_%s_%s.csv", e.clock.Now().UTC().Format("20060102_150405"), session.ID)
	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, opp := range opportunities {
		row := []string{
			opp.Title, opp.Agency, opp.Deadline, opp.Value, string(opp.Urgency),
			opp.Contact, opp.URL, opp.Description,
			strconv.FormatFloat(opp.Score, 'f', 1, 64),
			strings.Join(opp.Keywords, ", "),
			opp.DiscoveredAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}

	e.logger.Info("csv report generated",
		zap.String("path", path),
		zap.String("session_id", session.ID),
		zap.Int("opportunities", len(opportunities)),
	)
	return nil
}
