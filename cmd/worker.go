package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background maintenance workers of the console.`,
}

// Session janitor command
var sessionWorkerCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Start the expired session janitor",
	Long:  `Periodically delete expired sessions from the SQL session store`,
	Run: func(cmd *cobra.Command, args []string) {
		startSessionWorker()
	},
}

var (
	cleanupInterval time.Duration
	runOnce         bool
)

func init() {
	sessionWorkerCmd.Flags().DurationVar(&cleanupInterval, "interval", 0, "purge interval, defaults to session.cleanup_interval")
	sessionWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "purge once and exit")
	workerCmd.AddCommand(sessionWorkerCmd)
}

// Purger deletes expired sessions. *session.Manager satisfies it.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// SessionsPurgedRecorder counts purged sessions. *metrics.Metrics satisfies it.
type SessionsPurgedRecorder interface {
	AddSessionsPurged(n int64)
}

// runJanitor purges on every tick until ctx ends.
func runJanitor(ctx context.Context, p Purger, rec SessionsPurgedRecorder, interval time.Duration, once bool) {
	lg := logger.LoggerWrapper()
	purge := func() {
		n, err := p.Purge(ctx)
		if err != nil {
			lg.Error("Session janitor: purge failed", "error", err)
			return
		}
		if rec != nil {
			rec.AddSessionsPurged(n)
		}
		if n > 0 {
			lg.Info("Session janitor: purged expired sessions", "count", n)
		}
	}

	purge()
	if once {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purge()
		}
	}
}

func startSessionWorker() {
	cfg, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	store, err := openSessionStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			lg.Error("Session store close error", "error", err)
		}
	}()

	interval := cleanupInterval
	if interval <= 0 {
		interval = cfg.Session.CleanupInterval
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	sessions := session.NewManager(store.repo, nil, nil, cfg.Session, lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("session janitor started", "interval", interval, "store", cfg.Session.Store)
	runJanitor(ctx, sessions, nil, interval, runOnce)
	lg.Info("session janitor stopped")
}
