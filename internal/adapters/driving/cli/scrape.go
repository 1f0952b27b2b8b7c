package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

var (
	scrapeSubject  string
	scrapePageSize int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <term>",
	Short: "Scrape a term's catalog and reconcile it against storage",
	Long: `Runs one scrape job: fetches every page of the term's catalog,
diffs the batch against storage, and applies the changes atomically.`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeSubject, "subject", "", "restrict the scrape to one subject code")
	scrapeCmd.Flags().IntVar(&scrapePageSize, "page-size", 0, "page size requested from the upstream (0 = configured default)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	pageSize := scrapePageSize
	if pageSize <= 0 && cfgStore != nil {
		pageSize = cfgStore.Get().Scrape.PageMaxSize
	}

	query := domain.SearchQuery{
		Term:        args[0],
		Subject:     scrapeSubject,
		PageMaxSize: pageSize,
	}

	cmd.Printf("Scraping term %s...\n", query.Term)
	job, err := scrapeOrchestrator.Run(cmd.Context(), query)
	if err != nil {
		if job != nil {
			cmd.Printf("Job %s ended as %s\n", job.ID, job.State)
		}
		return fmt.Errorf("scrape failed: %w", err)
	}

	cmd.Printf("Job %s completed: %d inserted, %d updated, %d removed, %d unchanged\n",
		job.ID, job.Counts.Inserted, job.Counts.Updated, job.Counts.Removed, job.Counts.Unchanged)
	return nil
}
