// Package cli implements the coursewatch command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursewatch/coursewatch/internal/adapters/driven/config/file"
	"github.com/coursewatch/coursewatch/internal/adapters/driven/storage/sqlite"
	"github.com/coursewatch/coursewatch/internal/connectors/registrar"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
	"github.com/coursewatch/coursewatch/internal/core/ports/driving"
	"github.com/coursewatch/coursewatch/internal/core/services"
	"github.com/coursewatch/coursewatch/internal/events"
	"github.com/coursewatch/coursewatch/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired by ensureServices on first use. Tests inject fakes directly.
var (
	cfgStore           *file.Store
	limiter            *registrar.RateLimiter
	eventBus           *events.Bus
	scrapeOrchestrator driving.ScrapeOrchestrator
	auditStore         driven.AuditStore
	closeStorage       func() error
)

var (
	flagConfigDir string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "coursewatch",
	Short: "Course catalog scraper and change notifier",
	Long: `coursewatch scrapes a registrar's course catalog, reconciles each
scrape against local storage, and records every visible change in an
audit trail. Run 'coursewatch serve' to watch terms continuously.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default ~/.coursewatch)")
}

// Execute runs the root command.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

// ensureServices wires the full pipeline: config, storage, registrar
// connector, reconciler, orchestrator. Idempotent; a no-op when a test has
// already injected services.
func ensureServices() error {
	if scrapeOrchestrator != nil {
		return nil
	}

	var err error
	cfgStore, err = file.NewStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cfgStore.Get()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config (%s): %w", cfgStore.Path(), err)
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	closeStorage = store.Close

	login := registrar.NewLoginFlow(cfg.Upstream.BaseURL, cfg.Upstream.Username,
		cfg.Upstream.Password, cfg.Upstream.Timeout())
	sessions := registrar.NewSessionManager(login)
	limiter = registrar.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	client := registrar.NewClient(cfg.Upstream.BaseURL, sessions, limiter, cfg.Upstream.Timeout())
	scraper := registrar.NewScraper(client, cfg.Scrape.PageRetries, cfg.Scrape.RetryDelay())

	eventBus = events.NewBus()
	reconciler := services.NewReconciler(store.CourseStore(), eventBus,
		cfg.Reconcile.MaxAttempts, cfg.Reconcile.RetryDelay())
	scrapeOrchestrator = services.NewScrapeOrchestrator(scraper, reconciler,
		store.JobStore(), eventBus)
	auditStore = store.AuditStore()

	return nil
}

// teardown releases process-wide resources on exit.
func teardown() {
	if eventBus != nil {
		eventBus.Close()
	}
	if closeStorage != nil {
		closeStorage() //nolint:errcheck // best effort on exit
	}
}
