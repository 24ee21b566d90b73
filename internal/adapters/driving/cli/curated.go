package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

var (
	curatedAddCategory     string
	curatedAddContext      string
	curatedAddParticipants []string
	curatedAddScore        int
	curatedListCategory    string
)

var curatedCmd = &cobra.Command{
	Use:   "curated",
	Short: "Manage hand-curated style examples",
	Long: `Curated examples are hand-picked exemplars of league writing kept
separate from the ingested corpus. They are created only by explicit
action here and never returned by retrieval.`,
}

var curatedAddCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Add a curated example",
	Args:  cobra.ExactArgs(1),
	RunE:  runCuratedAdd,
}

var curatedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List curated examples",
	Args:  cobra.NoArgs,
	RunE:  runCuratedList,
}

var curatedScoreCmd = &cobra.Command{
	Use:   "score [id] [score]",
	Short: "Edit a curated example's quality score",
	Args:  cobra.ExactArgs(2),
	RunE:  runCuratedScore,
}

func init() {
	curatedAddCmd.Flags().StringVar(&curatedAddCategory, "category", "", "grouping label, e.g. roast or recap (required)")
	curatedAddCmd.Flags().StringVar(&curatedAddContext, "context", "", "when/why this example landed")
	curatedAddCmd.Flags().StringSliceVar(&curatedAddParticipants, "participant", nil, "members the example concerns")
	curatedAddCmd.Flags().IntVar(&curatedAddScore, "score", 5, "quality score (1-10)")
	_ = curatedAddCmd.MarkFlagRequired("category")

	curatedListCmd.Flags().StringVar(&curatedListCategory, "category", "", "filter by category")

	curatedCmd.AddCommand(curatedAddCmd)
	curatedCmd.AddCommand(curatedListCmd)
	curatedCmd.AddCommand(curatedScoreCmd)
	rootCmd.AddCommand(curatedCmd)
}

func runCuratedAdd(cmd *cobra.Command, args []string) error {
	if curatedService == nil {
		return errors.New("curated service not configured")
	}

	saved, err := curatedService.Add(context.Background(), domain.CuratedExample{
		Category:     curatedAddCategory,
		Content:      args[0],
		Context:      curatedAddContext,
		Participants: curatedAddParticipants,
		QualityScore: curatedAddScore,
	})
	if err != nil {
		return fmt.Errorf("failed to add curated example: %w", err)
	}

	cmd.Printf("Added curated example %s\n", saved.ID)
	return nil
}

func runCuratedList(cmd *cobra.Command, _ []string) error {
	if curatedService == nil {
		return errors.New("curated service not configured")
	}

	examples, err := curatedService.List(context.Background(), curatedListCategory)
	if err != nil {
		return fmt.Errorf("failed to list curated examples: %w", err)
	}

	if len(examples) == 0 {
		cmd.Println("No curated examples.")
		return nil
	}

	for _, ex := range examples {
		cmd.Printf("%s  [%s, score %d]  %s\n", ex.ID, ex.Category, ex.QualityScore, snippet(ex.Content, 80))
		if len(ex.Participants) > 0 {
			cmd.Printf("    participants: %s\n", strings.Join(ex.Participants, ", "))
		}
	}
	return nil
}

func runCuratedScore(cmd *cobra.Command, args []string) error {
	if curatedService == nil {
		return errors.New("curated service not configured")
	}

	score, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("score must be an integer: %w", err)
	}

	if err := curatedService.Score(context.Background(), args[0], score); err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}

	cmd.Printf("Updated %s to score %d\n", args[0], score)
	return nil
}
