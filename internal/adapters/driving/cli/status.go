package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show scrape job status",
	Long: `Without arguments, lists recent scrape jobs newest first.
With a job ID, shows that job's full detail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "maximum number of jobs to list")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	if len(args) == 1 {
		job, err := scrapeOrchestrator.Status(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching job: %w", err)
		}
		printJob(cmd, job)
		return nil
	}

	jobs, err := scrapeOrchestrator.List(cmd.Context(), statusLimit)
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}
	if len(jobs) == 0 {
		cmd.Println("No scrape jobs recorded.")
		return nil
	}

	for i := range jobs {
		job := jobs[i]
		cmd.Printf("%s  %-9s  term %s  %s\n",
			job.ID, job.State, job.Query.Term, job.CreatedAt.Local().Format(time.RFC3339))
	}
	return nil
}

func printJob(cmd *cobra.Command, job *domain.ScrapeJob) {
	cmd.Printf("Job:     %s\n", job.ID)
	cmd.Printf("Term:    %s\n", job.Query.Term)
	if job.Query.Subject != "" {
		cmd.Printf("Subject: %s\n", job.Query.Subject)
	}
	cmd.Printf("State:   %s\n", job.State)
	if job.Error != "" {
		cmd.Printf("Error:   %s\n", job.Error)
	}
	cmd.Printf("Created: %s\n", job.CreatedAt.Local().Format(time.RFC3339))
	if !job.StartedAt.IsZero() {
		cmd.Printf("Started: %s\n", job.StartedAt.Local().Format(time.RFC3339))
	}
	if !job.EndedAt.IsZero() {
		cmd.Printf("Ended:   %s\n", job.EndedAt.Local().Format(time.RFC3339))
	}
	if job.State == domain.JobCompleted {
		cmd.Printf("Changes: %d inserted, %d updated, %d removed, %d unchanged\n",
			job.Counts.Inserted, job.Counts.Updated, job.Counts.Removed, job.Counts.Unchanged)
	}
}
