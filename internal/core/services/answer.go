package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driving"
	"github.com/elimu-hub/elimu-core/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Default answer-synthesis parameters.
const (
	DefaultMaxContextChunks = 5
	DefaultMaxTokens        = 2048
	DefaultTemperature      = 0.1
	DefaultTopP             = 0.9
	DefaultGenerateTimeout  = 120 * time.Second

	// Confidence grading thresholds over average similarity.
	DefaultHighConfidence   = 0.7
	DefaultMediumConfidence = 0.5
)

// Fixed user-facing strings for the pipeline's failure paths. Every path
// returns a displayable answer; none of these surface as Go errors.
const (
	noEvidenceAnswer = "I couldn't find relevant information to answer your question. " +
		"Please try rephrasing or check if documents for your topic have been uploaded."

	emptyResponseAnswer = "I apologize, but I couldn't generate a proper response. " +
		"Please try rephrasing your question."
)

// excerptLength is the citation excerpt size in characters.
const excerptLength = 200

// AnswerConfig holds tunable synthesis parameters.
type AnswerConfig struct {
	// MaxContextChunks caps the evidence passed to the generator (default: 5).
	MaxContextChunks int

	// MaxTokens caps generated output length (default: 2048).
	MaxTokens int

	// Temperature for generation (default: 0.1, near-deterministic).
	Temperature float64

	// TopP nucleus sampling parameter (default: 0.9).
	TopP float64

	// GenerateTimeout bounds one generation call (default: 120s).
	GenerateTimeout time.Duration

	// HighConfidence and MediumConfidence are the average-similarity
	// thresholds for confidence grading (defaults: 0.7 and 0.5).
	HighConfidence   float64
	MediumConfidence float64
}

// AnswerService orchestrates the question-answering pipeline: retrieve
// evidence, build a grounded prompt, generate, grade and cite.
type AnswerService struct {
	retriever Retriever
	llm       driven.LLMService
	cfg       AnswerConfig
}

// NewAnswerService creates an answer service. Zero config fields take their
// defaults.
func NewAnswerService(retriever Retriever, llm driven.LLMService, cfg AnswerConfig) *AnswerService {
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = DefaultMaxContextChunks
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = DefaultTopP
	}
	if cfg.GenerateTimeout == 0 {
		cfg.GenerateTimeout = DefaultGenerateTimeout
	}
	if cfg.HighConfidence == 0 {
		cfg.HighConfidence = DefaultHighConfidence
	}
	if cfg.MediumConfidence == 0 {
		cfg.MediumConfidence = DefaultMediumConfidence
	}

	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		cfg:       cfg,
	}
}

// Ask runs the full pipeline for one question. Generation failures are folded
// into the returned Answer; the error return is reserved for deployment-level
// faults such as an unreachable embedding service.
func (s *AnswerService) Ask(
	ctx context.Context, query string, filters domain.Filter,
) (*domain.Answer, error) {
	start := time.Now()

	logger.Section("Question Answering")
	logger.Debug("Query: %q", query)

	results, err := s.retriever.Retrieve(ctx, query, s.cfg.MaxContextChunks, filters)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}

	if len(results) == 0 {
		logger.Info("No evidence found for query")
		return &domain.Answer{
			Answer:           noEvidenceAnswer,
			Sources:          []domain.Citation{},
			Query:            query,
			Filters:          filters,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			ChunksUsed:       0,
			Confidence:       domain.ConfidenceLow,
		}, nil
	}

	logger.Debug("Using %d evidence chunks", len(results))

	prompt := s.buildPrompt(query, buildContext(results), filters.Language)

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	text, err := s.llm.Generate(genCtx, prompt, driven.GenerateOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		TopP:        s.cfg.TopP,
		Stop:        []string{"Question:", "Context Information:"},
	})
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return &domain.Answer{
			Answer: fmt.Sprintf(
				"Sorry, I encountered an error while processing your question: %v", err),
			Sources:          []domain.Citation{},
			Query:            query,
			Filters:          filters,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			ChunksUsed:       0,
			Confidence:       domain.ConfidenceError,
		}, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = emptyResponseAnswer
	}

	avg := averageSimilarity(results)
	confidence := s.gradeConfidence(avg)
	avgRounded := round3(avg)

	logger.Info("Answered in %dms using %d chunks (confidence: %s)",
		time.Since(start).Milliseconds(), len(results), confidence)

	return &domain.Answer{
		Answer:            text,
		Sources:           buildCitations(results),
		Query:             query,
		Filters:           filters,
		ProcessingTimeMs:  time.Since(start).Milliseconds(),
		ChunksUsed:        len(results),
		Confidence:        confidence,
		AverageSimilarity: &avgRounded,
	}, nil
}

// buildContext renders the evidence chunks as labelled source blocks.
func buildContext(results []domain.SearchResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		source := fmt.Sprintf("Source %d", i+1)
		if r.Metadata.Filename != "" {
			source += fmt.Sprintf(" (%s", r.Metadata.Filename)
			if r.Metadata.PageNumber > 0 {
				source += fmt.Sprintf(", page %d", r.Metadata.PageNumber)
			}
			source += ")"
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s\n", source, r.Content))
	}
	return strings.Join(parts, "\n")
}

// buildPrompt assembles the grounded generation prompt with the language
// directive for the requested response language.
func (s *AnswerService) buildPrompt(query, context, language string) string {
	var langInstruction string
	switch language {
	case "sw":
		langInstruction = "Please respond in Kiswahili (Swahili)."
	case "en":
		langInstruction = "Please respond in English."
	default:
		langInstruction = "Please respond in English unless the question is asked in Kiswahili."
	}

	return fmt.Sprintf(`You are Elimu Hub, an AI assistant specialized in Kenyan educational content. You help students, teachers, and parents with questions about Primary, Junior Secondary, and Secondary education curricula.

Context Information:
%s

Instructions:
1. Answer the question based ONLY on the provided context information
2. Be accurate and educational in your response
3. If the context doesn't contain enough information, say so clearly
4. Provide specific examples when possible
5. %s
6. Structure your answer clearly with proper formatting
7. If referring to specific sources, mention them naturally in your response

Question: %s

Answer:`, context, langInstruction, query)
}

// buildCitations converts the evidence list to the ordered citation list.
func buildCitations(results []domain.SearchResult) []domain.Citation {
	citations := make([]domain.Citation, 0, len(results))
	for i, r := range results {
		excerpt := r.Content
		if len(excerpt) > excerptLength {
			excerpt = excerpt[:excerptLength] + "..."
		}
		citations = append(citations, domain.Citation{
			Rank:           i + 1,
			Filename:       r.Metadata.Filename,
			Page:           r.Metadata.PageNumber,
			EducationLevel: r.Metadata.EducationLevel,
			Subject:        r.Metadata.Subject,
			Similarity:     round3(r.Similarity),
			Excerpt:        excerpt,
		})
	}
	return citations
}

// gradeConfidence maps average similarity to a confidence label.
func (s *AnswerService) gradeConfidence(avg float64) string {
	switch {
	case avg > s.cfg.HighConfidence:
		return domain.ConfidenceHigh
	case avg > s.cfg.MediumConfidence:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// averageSimilarity computes the mean similarity of the evidence set.
func averageSimilarity(results []domain.SearchResult) float64 {
	var sum float64
	for _, r := range results {
		sum += r.Similarity
	}
	return sum / float64(len(results))
}

// round3 rounds to three decimal places.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
