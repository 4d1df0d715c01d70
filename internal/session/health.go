package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// HealthChecker verifies the two dependencies a session needs: the store and
// outbound network connectivity.
type HealthChecker struct {
	store    rfp.OpportunityStore
	client   *http.Client
	probeURL string
	metrics  rfp.MetricsRecorder
	logger   *zap.Logger
}

// NewHealthChecker builds a checker. A nil client falls back to
// http.DefaultClient; an empty probeURL skips the network probe.
func NewHealthChecker(store rfp.OpportunityStore, client *http.Client, probeURL string, metrics rfp.MetricsRecorder, logger *zap.Logger) *HealthChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HealthChecker{
		store:    store,
		client:   client,
		probeURL: probeURL,
		metrics:  metrics,
		logger:   logger,
	}
}

// Check runs both probes and records the result on the health gauge.
func (h *HealthChecker) Check(ctx context.Context) error {
	var errs []error
	if err := h.store.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := h.probeNetwork(ctx); err != nil {
		errs = append(errs, fmt.Errorf("network: %w", err))
	}

	healthy := len(errs) == 0
	h.metrics.SetHealthy(healthy)
	if healthy {
		return nil
	}

	err := errors.Join(errs...)
	h.logger.Warn("health check failed", zap.Error(err))
	return fmt.Errorf("%w: %w", rfp.ErrHealthCheck, err)
}

func (h *HealthChecker) probeNetwork(ctx context.Context) error {
	if h.probeURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.probeURL, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}
