package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/services"
)

var watchCmd = &cobra.Command{
	Use:   "watch [term...]",
	Short: "Scrape terms periodically and print changes as they happen",
	Long: `Runs the scrape scheduler in the foreground and prints every catalog
change and job transition to stdout. Without arguments, the configured
scheduler terms are watched. Interrupt to stop.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	cfg := cfgStore.Get()

	terms := args
	if len(terms) == 0 {
		terms = cfg.Scheduler.Terms
	}
	if len(terms) == 0 {
		return fmt.Errorf("no terms to watch: pass them as arguments or set scheduler.terms in %s", cfgStore.Path())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub := eventBus.Subscribe(cfg.Events.BufferSize)
	defer sub.Close()

	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for ev := range sub.Events() {
			switch e := ev.(type) {
			case domain.AuditLogEvent:
				cmd.Println(formatAuditEntry(e.Entry))
			case domain.ScrapeJobEvent:
				if e.Job.State.Terminal() {
					cmd.Printf("job %s for term %s: %s\n", e.Job.ID, e.Job.Query.Term, e.Job.State)
				}
			}
		}
	}()

	cmd.Printf("Watching terms %v every %s\n", terms, cfg.Scheduler.Interval())
	sched := services.NewScheduler(services.SchedulerConfig{
		Terms:       terms,
		Interval:    cfg.Scheduler.Interval(),
		PageMaxSize: cfg.Scrape.PageMaxSize,
	}, scrapeOrchestrator)

	err := sched.Start(ctx)
	sched.Stop()
	sub.Close()
	<-printerDone

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
