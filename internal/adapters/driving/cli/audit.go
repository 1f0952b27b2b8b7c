package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit <term>",
	Short: "Show the change history for a term",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "maximum number of entries to show (0 = all)")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	entries, err := auditStore.ListByTerm(cmd.Context(), args[0], auditLimit)
	if err != nil {
		return fmt.Errorf("listing audit entries: %w", err)
	}
	if len(entries) == 0 {
		cmd.Printf("No recorded changes for term %s.\n", args[0])
		return nil
	}

	for i := range entries {
		cmd.Println(formatAuditEntry(entries[i]))
	}
	return nil
}

// formatAuditEntry renders one change as a single line.
func formatAuditEntry(entry domain.AuditLogEntry) string {
	ts := entry.CreatedAt.Local().Format(time.RFC3339)
	switch entry.Kind {
	case domain.ChangeInsert:
		title := ""
		if entry.After != nil {
			title = entry.After.Title
		}
		return fmt.Sprintf("%s  + %s-%s  %s", ts, entry.Term, entry.CRN, title)
	case domain.ChangeRemove:
		title := ""
		if entry.Before != nil {
			title = entry.Before.Title
		}
		return fmt.Sprintf("%s  - %s-%s  %s", ts, entry.Term, entry.CRN, title)
	default:
		return fmt.Sprintf("%s  ~ %s-%s  changed: %s",
			ts, entry.Term, entry.CRN, strings.Join(entry.ChangedFields, ", "))
	}
}
