package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statsService == nil {
		return errors.New("stats service not configured")
	}

	stats, err := statsService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("gathering stats: %w", err)
	}

	cmd.Printf("Documents: %d\n", stats.Documents)
	cmd.Printf("Chunks:    %d\n", stats.Chunks)
	cmd.Printf("Vectors:   %d\n", stats.Vectors)
	if stats.Chunks != stats.Vectors {
		cmd.Println("Warning: vector count diverges from chunk count, consider re-ingesting")
	}

	printBreakdown(cmd, "Education levels", stats.EducationLevels)
	printBreakdown(cmd, "Subjects", stats.Subjects)
	printBreakdown(cmd, "Languages", stats.Languages)
	printCapabilities(cmd)

	if configStore != nil {
		cmd.Printf("\nConfig: %s\n", configStore.Path())
	}
	return nil
}

// printCapabilities pings the embedding and generation backends so operators
// can tell a cold model server apart from an empty corpus.
func printCapabilities(cmd *cobra.Command) {
	if embeddingService == nil && llmService == nil {
		return
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	cmd.Println("\nCapabilities:")
	if embeddingService != nil {
		cmd.Printf("  Embedding (%s): %s\n",
			embeddingService.ModelName(), pingState(embeddingService.Ping(ctx)))
	}
	if llmService != nil {
		cmd.Printf("  Generation (%s): %s\n",
			llmService.ModelName(), pingState(llmService.Ping(ctx)))
	}
}

func pingState(err error) string {
	if err != nil {
		return fmt.Sprintf("unreachable (%v)", err)
	}
	return "ok"
}

func printBreakdown(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cmd.Printf("\n%s:\n", title)
	for _, key := range keys {
		cmd.Printf("  %-20s %d\n", key, counts[key])
	}
}
