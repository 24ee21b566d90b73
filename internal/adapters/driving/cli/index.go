package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the retrieval indexes",
	Long: `Posts all stored chunks into the keyword index and embeds chunks
that do not yet carry a vector. Chunks whose embedding fails remain
searchable by keyword only.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexBuilder == nil {
		return errors.New("index service not configured")
	}

	ctx := context.Background()
	unembedded, err := indexBuilder.BuildIndexes(ctx)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	if unembedded > 0 {
		cmd.Printf("Index built. %d chunks are keyword-only (embedding failed).\n", unembedded)
	} else {
		cmd.Println("Index built.")
	}
	return nil
}
