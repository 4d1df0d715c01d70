package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/api"
	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

const timePrecision = time.Millisecond

// newWatchCmd creates the 'watch' subcommand: the long-running service mode
// with scheduled sessions, the nightly archive sweep, and the ops HTTP
// server.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Runs scheduled scrape sessions until interrupted",
		Long: `Starts the ops HTTP server and runs a scrape session at the configured
interval. Stale opportunities are archived once a day. SIGINT/SIGTERM drain
the current session before exit.`,

		RunE: runWatchCommand,
	}
}

func runWatchCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := a.Logger.Named("watch")

	apiServer := api.NewServer(a.Store, a.Runner, a.Health, a.Registry, a.Logger.Named("api"), a.Config.RecentWindow())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("ops server started", zap.Int("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", zap.Error(err))
			stop()
		}
	}()

	runSession := func() {
		if _, err := a.Runner.Run(ctx, rfp.SessionScheduled); err != nil && ctx.Err() == nil {
			logger.Error("scheduled session failed", zap.Error(err))
		}
	}
	runSweep := func() {
		archived, err := a.Archive(ctx)
		if err != nil {
			logger.Error("archive sweep failed", zap.Error(err))
			return
		}
		if archived > 0 {
			logger.Info("archive sweep completed", zap.Int64("archived", archived))
		}
	}

	scanTicker := time.NewTicker(a.Config.ScanInterval())
	defer scanTicker.Stop()
	sweepTicker := time.NewTicker(24 * time.Hour)
	defer sweepTicker.Stop()

	// First session runs immediately rather than one interval in.
	runSession()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown initiated")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("ops server shutdown error", zap.Error(err))
			}
			logger.Info("shutdown complete")
			return nil
		case <-scanTicker.C:
			runSession()
		case <-sweepTicker.C:
			runSweep()
		}
	}
}
