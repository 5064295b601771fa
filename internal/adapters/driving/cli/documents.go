package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	docs, err := docStore.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents ingested")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tLEVEL\tSUBJECT\tLANG\tPAGES\tCHUNKS\tSTATUS")
	for _, doc := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			doc.ID, doc.Filename, doc.EducationLevel, doc.Subject,
			doc.Language, doc.TotalPages, doc.TotalChunks, documentStatus(doc))
	}
	return w.Flush()
}

func documentStatus(doc domain.Document) string {
	if doc.Status == domain.StatusFailed && doc.ProcessingError != "" {
		return fmt.Sprintf("%s (%s)", doc.Status, doc.ProcessingError)
	}
	return doc.Status
}
