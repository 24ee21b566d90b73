package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

var (
	retrieveK            int
	retrieveAlpha        float64
	retrieveContentTypes []string
	retrieveSeasons      []string
	retrieveParticipants []string
	retrieveJSON         bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve relevant chunks from the corpus",
	Long: `Runs a hybrid keyword plus semantic query over the corpus and prints
the top ranked chunks. Filters are hard: a chunk failing a filter is
excluded entirely, never merely down-ranked.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "limit", "n", 0, "maximum number of results (0 uses the configured default)")
	retrieveCmd.Flags().Float64Var(&retrieveAlpha, "alpha", -1, "keyword weight in [0,1] (-1 uses the configured default)")
	retrieveCmd.Flags().StringSliceVar(&retrieveContentTypes, "type", nil, "restrict to content types (recap, trade-talk, roast, stats, lore, other)")
	retrieveCmd.Flags().StringSliceVar(&retrieveSeasons, "season", nil, "restrict to seasons (e.g. 2023)")
	retrieveCmd.Flags().StringSliceVar(&retrieveParticipants, "participant", nil, "restrict to documents mentioning all given members")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errors.New("retrieve service not configured")
	}

	opts := domain.RetrieveOptions{
		K:            retrieveK,
		Seasons:      retrieveSeasons,
		Participants: retrieveParticipants,
	}
	if retrieveAlpha >= 0 {
		alpha := retrieveAlpha
		opts.Alpha = &alpha
	}
	for _, raw := range retrieveContentTypes {
		ct := domain.ContentType(strings.ToLower(strings.TrimSpace(raw)))
		if !domain.ValidContentType(ct) {
			return fmt.Errorf("unknown content type %q", raw)
		}
		opts.ContentTypes = append(opts.ContentTypes, ct)
	}

	ctx := context.Background()
	results, err := retriever.Retrieve(ctx, args[0], opts)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, results)
	}
	return outputRetrieveText(cmd, results)
}

func outputRetrieveJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveText(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		title := r.Document.Title
		if title == "" {
			title = r.Document.ID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, r.Score)

		var details []string
		if r.Document.ContentType != nil {
			details = append(details, string(*r.Document.ContentType))
		}
		if r.Document.Season != nil {
			details = append(details, "season "+*r.Document.Season)
		}
		if r.Document.CreatedAt != nil {
			details = append(details, r.Document.CreatedAt.Format("2006-01-02"))
		}
		if len(details) > 0 {
			cmd.Printf("      %s\n", strings.Join(details, ", "))
		}
		cmd.Printf("      %s\n", snippet(r.Chunk.Text, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates text to at most n runes on a word boundary.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= n {
		return text
	}
	cut := text[:n]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
