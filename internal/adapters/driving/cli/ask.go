package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/logger"
)

var (
	askLevel    string
	askSubject  string
	askLanguage string
	askDocument string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the indexed corpus",
	Long: `Ask runs the full retrieval and synthesis pipeline: the question is
embedded, matched against indexed chunks under the given metadata filters,
and answered by the language model grounded in the retrieved evidence.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askLevel, "level", "", "filter by education level")
	askCmd.Flags().StringVar(&askSubject, "subject", "", "filter by subject")
	askCmd.Flags().StringVar(&askLanguage, "language", "", "filter by language code (en, sw)")
	askCmd.Flags().StringVar(&askDocument, "document", "", "restrict to a single document ID")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full answer record as JSON")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	filters := domain.Filter{
		EducationLevel: askLevel,
		Subject:        askSubject,
		Language:       askLanguage,
		DocumentID:     askDocument,
	}

	answer, err := answerService.Ask(cmd.Context(), args[0], filters)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	logAnswer(cmd, answer)

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswerText(cmd, answer)
	return nil
}

// logAnswer records the answered query for analytics. Logging failures must
// not spoil an otherwise successful answer.
func logAnswer(cmd *cobra.Command, answer *domain.Answer) {
	if docStore == nil {
		return
	}
	err := docStore.LogQuery(cmd.Context(), &domain.QueryLog{
		Query:            answer.Query,
		Filters:          answer.Filters,
		Response:         answer.Answer,
		ChunksUsed:       answer.ChunksUsed,
		ProcessingTimeMs: answer.ProcessingTimeMs,
	})
	if err != nil {
		logger.Warn("Failed to log query: %v", err)
	}
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Answer)
	cmd.Println()
	cmd.Printf("Confidence: %s", answer.Confidence)
	if answer.AverageSimilarity != nil {
		cmd.Printf(" (avg similarity %.3f)", *answer.AverageSimilarity)
	}
	cmd.Printf("  |  %d chunk(s) in %dms\n", answer.ChunksUsed, answer.ProcessingTimeMs)

	if len(answer.Sources) == 0 {
		return
	}
	cmd.Println("\nSources:")
	for _, src := range answer.Sources {
		cmd.Printf("  %d. %s, page %d (%s / %s, score %.3f)\n",
			src.Rank, src.Filename, src.Page, src.EducationLevel, src.Subject, src.Similarity)
		if src.Excerpt != "" {
			cmd.Printf("     %s\n", strings.ReplaceAll(src.Excerpt, "\n", " "))
		}
	}
}
