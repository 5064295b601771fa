package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge [document-id]",
	Short: "Remove a document and its indexed chunks",
	Long: `Purge removes a document's vectors from the index and its records
from the document store. Both deletions are idempotent; purging an unknown
document is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Purge(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("purging document %s: %w", args[0], err)
	}
	cmd.Printf("Purged document %s\n", args[0])
	return nil
}
