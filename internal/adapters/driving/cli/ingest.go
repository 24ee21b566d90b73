package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest archive files into the corpus",
	Long: `Parses the given files and directories (.enex, .mbox, .eml and
transcript .json), normalises them into documents and writes them to
the corpus. Re-ingesting the same archive updates documents in place
rather than duplicating them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	report, err := ingestOrchestrator.IngestPaths(ctx, args)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	snap := report.Snapshot()
	cmd.Printf("Files:     %d processed, %d skipped\n", snap.FilesProcessed, snap.FilesSkipped)
	cmd.Printf("Documents: %d written (%d chunks)\n", snap.DocumentsWritten, snap.ChunksWritten)

	if len(snap.Errors) > 0 {
		kinds := make([]string, 0, len(snap.Errors))
		for kind := range snap.Errors {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		cmd.Println("Errors:")
		for _, kind := range kinds {
			cmd.Printf("  %s: %d\n", kind, snap.Errors[domain.ErrorKind(kind)])
		}
	}

	if len(snap.NeedsReview) > 0 {
		cmd.Printf("Needs review (%d documents):\n", len(snap.NeedsReview))
		for _, id := range snap.NeedsReview {
			cmd.Printf("  %s\n", id)
		}
	}

	return nil
}
