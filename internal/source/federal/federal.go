// Package federal implements the adapter for JSON-based federal procurement
// APIs (SAM.gov and compatible mirrors).
package federal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
	"github.com/JakeFAU/rfp-radar/internal/source"
)

// Name is the registry key for this adapter.
const Name = "federal"

// Adapter fetches opportunities from a federal procurement search API.
type Adapter struct {
	client *http.Client
	logger *zap.Logger
}

// New builds an Adapter. A nil client falls back to http.DefaultClient; the
// per-request deadline comes from the caller's context.
func New(client *http.Client, logger *zap.Logger) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{client: client, logger: logger}
}

// Name implements rfp.Source.
func (a *Adapter) Name() string {
	return Name
}

// apiResponse mirrors the SAM.gov search response shape.
type apiResponse struct {
	OpportunitiesData []apiOpportunity `json:"opportunitiesData"`
}

type apiOpportunity struct {
	Title              string `json:"title"`
	FullParentPathName string `json:"fullParentPathName"`
	ResponseDeadline   string `json:"responseDeadLine"`
	NoticeID           string `json:"noticeId"`
	Description        string `json:"description"`
	EstimatedValue     string `json:"estimatedValue"`
	PointOfContact     struct {
		Email string `json:"email"`
	} `json:"pointOfContact"`
}

// Fetch retrieves and normalizes active listings. Connectivity and decode
// failures are returned to the caller and count against the circuit breaker;
// individually malformed entries are tolerated via sentinel substitution.
func (a *Adapter) Fetch(ctx context.Context, cfg rfp.FetchConfig) ([]rfp.Opportunity, error) {
	if cfg.FederalURL == "" {
		return nil, fmt.Errorf("federal: no API URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.FederalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("federal: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("federal: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("federal: unexpected status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("federal: decode response: %w", err)
	}

	opportunities := make([]rfp.Opportunity, 0, len(payload.OpportunitiesData))
	for _, entry := range payload.OpportunitiesData {
		if strings.TrimSpace(entry.Title) == "" {
			a.logger.Debug("skipping untitled federal entry", zap.String("notice_id", entry.NoticeID))
			continue
		}
		opportunities = append(opportunities, a.normalize(entry, cfg.FederalURL))
	}
	return opportunities, nil
}

func (a *Adapter) normalize(entry apiOpportunity, baseURL string) rfp.Opportunity {
	url := baseURL
	if entry.NoticeID != "" {
		url = "https://sam.gov/opp/" + entry.NoticeID
	}
	description := source.TruncateDescription(entry.Description)
	return rfp.Opportunity{
		Title:       strings.TrimSpace(entry.Title),
		Agency:      strings.TrimSpace(entry.FullParentPathName),
		Deadline:    source.NormalizeDate(entry.ResponseDeadline),
		Value:       source.NormalizeValue(entry.EstimatedValue),
		Contact:     source.NormalizeContact(entry.PointOfContact.Email),
		URL:         url,
		Description: description,
		Keywords:    source.ExtractKeywords(entry.Title + " " + description),
	}
}
