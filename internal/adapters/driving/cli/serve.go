package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coursewatch/coursewatch/internal/adapters/driven/config/file"
	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/services"
	"github.com/coursewatch/coursewatch/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scrape scheduler as a long-lived service",
	Long: `Scrapes every configured term on the configured interval until
interrupted. Config changes on disk are picked up without a restart;
rate limit settings apply to in-flight work immediately.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	cfg := cfgStore.Get()

	if len(cfg.Scheduler.Terms) == 0 {
		return fmt.Errorf("no terms configured: set scheduler.terms in %s", cfgStore.Path())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hot reload: retune the limiter when the config file changes.
	watcher := file.NewWatcher(cfgStore, func(next file.Config) {
		limiter.SetRate(next.RateLimit.RequestsPerSecond, next.RateLimit.Burst)
	})
	if err := watcher.Start(); err != nil {
		logger.Warn("Config hot reload unavailable: %v", err)
	} else {
		defer watcher.Stop()
	}

	// Log changes as they commit.
	sub := eventBus.Subscribe(cfg.Events.BufferSize)
	defer sub.Close()
	go func() {
		for ev := range sub.Events() {
			if e, ok := ev.(domain.AuditLogEvent); ok {
				logger.Info("Change: %s", formatAuditEntry(e.Entry))
			}
		}
	}()

	sched := services.NewScheduler(services.SchedulerConfig{
		Terms:       cfg.Scheduler.Terms,
		Interval:    cfg.Scheduler.Interval(),
		PageMaxSize: cfg.Scrape.PageMaxSize,
	}, scrapeOrchestrator)

	logger.Info("Serving: terms %v every %s", cfg.Scheduler.Terms, cfg.Scheduler.Interval())
	err := sched.Start(ctx)
	sched.Stop()
	logger.Info("Shutting down")

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
