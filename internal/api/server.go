// Package api exposes the HTTP interface for the scraper service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/metrics"
	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// SessionRunner triggers one scrape session. *session.Runner satisfies it.
type SessionRunner interface {
	Run(ctx context.Context, trigger rfp.SessionSource) (rfp.ScrapeSession, error)
}

// HealthChecker probes the service dependencies. *session.HealthChecker
// satisfies it.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Server wires HTTP handlers to the store and session runner.
type Server struct {
	router        chi.Router
	store         rfp.OpportunityStore
	runner        SessionRunner
	health        HealthChecker
	logger        *zap.Logger
	defaultWindow time.Duration
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	store rfp.OpportunityStore,
	runner SessionRunner,
	health HealthChecker,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
	defaultWindow time.Duration,
) *Server {
	if defaultWindow <= 0 {
		defaultWindow = 24 * time.Hour
	}
	s := &Server{
		store:         store,
		runner:        runner,
		health:        health,
		logger:        logger,
		defaultWindow: defaultWindow,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scans", s.triggerScan)
		r.Get("/opportunities", s.listOpportunities)
		r.Get("/sessions/stats", s.sessionStats)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// triggerScan runs one manual session synchronously and returns its terminal
// record. A failed session still reports the session body alongside 502.
func (s *Server) triggerScan(w http.ResponseWriter, r *http.Request) {
	session, err := s.runner.Run(r.Context(), rfp.SessionManual)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"session": session,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (s *Server) listOpportunities(w http.ResponseWriter, r *http.Request) {
	window, err := s.windowParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var opportunities []rfp.Opportunity
	switch by := r.URL.Query().Get("by"); by {
	case "", "discovery":
		opportunities, err = s.store.RecentByDiscovery(r.Context(), window)
	case "update":
		opportunities, err = s.store.RecentByUpdate(r.Context(), window)
	default:
		writeError(w, http.StatusBadRequest, "by must be discovery or update")
		return
	}
	if err != nil {
		s.logger.Error("recent query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window_hours":  int(window.Hours()),
		"count":         len(opportunities),
		"opportunities": opportunities,
	})
}

func (s *Server) sessionStats(w http.ResponseWriter, r *http.Request) {
	window, err := s.windowParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := s.store.SessionStats(r.Context(), window)
	if err != nil {
		s.logger.Error("session stats query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) windowParam(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("window_hours")
	if raw == "" {
		return s.defaultWindow, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, errInvalidWindow
	}
	return time.Duration(hours) * time.Hour, nil
}

var errInvalidWindow = errors.New("window_hours must be a positive integer")

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
