package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driving"
)

var (
	ingestLevel    string
	ingestSubject  string
	ingestLanguage string
	ingestFilename string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [pages-file]",
	Short: "Ingest an extracted document into the corpus",
	Long: `Ingest reads a pages file produced by the extraction step (a JSON
array of page objects with page_number, text, extraction_method and optional
confidence), segments the text into chunks, embeds them and stores the
vectors for retrieval.

Re-ingesting identical content is detected by content hash and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestLevel, "level", "", "education level of the document (required)")
	ingestCmd.Flags().StringVar(&ingestSubject, "subject", "", "subject of the document (required)")
	ingestCmd.Flags().StringVar(&ingestLanguage, "language", "en", "language code of the document")
	ingestCmd.Flags().StringVar(&ingestFilename, "filename", "", "source filename for citations (default: pages file base name)")
	ingestCmd.MarkFlagRequired("level")   //nolint:errcheck
	ingestCmd.MarkFlagRequired("subject") //nolint:errcheck

	rootCmd.AddCommand(ingestCmd)
}

// pageRecord is the wire form of one extracted page in the pages file.
type pageRecord struct {
	PageNumber       int      `json:"page_number"`
	Text             string   `json:"text"`
	ExtractionMethod string   `json:"extraction_method"`
	Confidence       *float64 `json:"confidence,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	pages, err := readPagesFile(args[0])
	if err != nil {
		return err
	}

	filename := ingestFilename
	if filename == "" {
		base := filepath.Base(args[0])
		filename = strings.TrimSuffix(base, filepath.Ext(base))
	}

	result, err := ingestService.Ingest(cmd.Context(), driving.IngestRequest{
		Filename:       filename,
		EducationLevel: ingestLevel,
		Subject:        ingestSubject,
		Language:       ingestLanguage,
		Pages:          pages,
	})
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", filename, err)
	}

	if result.Duplicate {
		cmd.Printf("Already ingested as document %s (%d chunks), skipping\n",
			result.DocumentID, result.ChunkCount)
		return nil
	}
	cmd.Printf("Ingested %s as document %s (%d chunks)\n",
		filename, result.DocumentID, result.ChunkCount)
	return nil
}

func readPagesFile(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pages file: %w", err)
	}

	var records []pageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing pages file %s: %w", path, err)
	}

	pages := make([]domain.Page, len(records))
	for i, rec := range records {
		method := rec.ExtractionMethod
		if method == "" {
			method = domain.ExtractionText
		}
		pages[i] = domain.Page{
			PageNumber:       rec.PageNumber,
			Text:             rec.Text,
			ExtractionMethod: method,
			Confidence:       rec.Confidence,
		}
	}
	return pages, nil
}
