// Package cli implements the command-line driving adapter. Commands talk to
// the core through the driving port interfaces; Initialize wires concrete
// adapters from configuration.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	configfile "github.com/elimu-hub/elimu-core/internal/adapters/driven/config/file"
	ollamaembed "github.com/elimu-hub/elimu-core/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/elimu-hub/elimu-core/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/elimu-hub/elimu-core/internal/adapters/driven/llm/ollama"
	"github.com/elimu-hub/elimu-core/internal/adapters/driven/storage/sqlite"
	vectormemory "github.com/elimu-hub/elimu-core/internal/adapters/driven/vector/memory"
	vectorpg "github.com/elimu-hub/elimu-core/internal/adapters/driven/vector/pgvector"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driving"
	"github.com/elimu-hub/elimu-core/internal/core/services"
	"github.com/elimu-hub/elimu-core/internal/logger"
	"github.com/elimu-hub/elimu-core/internal/segmenter"
)

// version is set at build time via ldflags.
var version = "0.1.0"

// Services used by the commands. Wired by Initialize; tests swap these for
// fixtures.
var (
	configStore   driven.ConfigStore
	docStore      driven.DocumentStore
	ingestService driving.IngestService
	answerService driving.AnswerService
	statsService  driving.StatsService

	// Capability adapters kept for health checks in the status command.
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "elimu",
	Short: "Elimu Hub educational Q&A over a private document corpus",
	Long: `Elimu Hub ingests curriculum documents, indexes them for semantic
retrieval, and answers questions grounded in the indexed content with
source citations.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command under ctx, which cancels in-flight work on
// shutdown.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Initialize wires concrete adapters into the services the commands use and
// returns a cleanup function that releases them. Environment variables are
// loaded from .env when present; configuration comes from the TOML config
// store.
func Initialize(ctx context.Context) (func(), error) {
	_ = godotenv.Load() // a missing .env is not an error

	cfg, err := configfile.NewConfigStore(os.Getenv("ELIMU_CONFIG_DIR"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	configStore = cfg

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	docStore = store

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}

	vectorIndex, err := buildVectorIndex(ctx, cfg, embedder.Dimensions())
	if err != nil {
		store.Close() //nolint:errcheck
		embedder.Close() //nolint:errcheck
		return nil, err
	}

	llm := ollamallm.NewLLMService(ollamallm.Config{
		BaseURL: cfg.GetString("llm.base_url"),
		Model:   cfg.GetString("llm.model"),
	})
	embeddingService = embedder
	llmService = llm

	seg, err := buildSegmenter(cfg)
	if err != nil {
		store.Close() //nolint:errcheck
		embedder.Close() //nolint:errcheck
		vectorIndex.Close() //nolint:errcheck
		return nil, err
	}

	retriever := services.NewRetrievalService(embedder, vectorIndex, services.RetrievalConfig{
		MinScore: cfg.GetFloat("retrieval.min_score"),
	})
	answerService = services.NewAnswerService(retriever, llm, services.AnswerConfig{
		MaxContextChunks: cfg.GetInt("retrieval.max_chunks"),
		MaxTokens:        cfg.GetInt("llm.max_tokens"),
		Temperature:      cfg.GetFloat("llm.temperature"),
		TopP:             cfg.GetFloat("llm.top_p"),
	})
	ingestService = services.NewIngestService(store, embedder, vectorIndex, seg, services.IngestConfig{
		EmbedBatchSize: cfg.GetInt("ingest.batch_size"),
	})
	statsService = services.NewStatsService(store, vectorIndex)

	cleanup := func() {
		vectorIndex.Close() //nolint:errcheck
		embedder.Close()    //nolint:errcheck
		llm.Close()         //nolint:errcheck
		store.Close()       //nolint:errcheck
	}
	return cleanup, nil
}

// buildEmbedder constructs the configured embedding service. Ollama is the
// default; OpenAI is selected with embedding.provider = "openai" and takes
// its key from OPENAI_API_KEY.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	switch provider := cfg.GetString("embedding.provider"); provider {
	case "", "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// buildVectorIndex constructs the configured vector index. With a Postgres
// connection string (vector.conn_string or ELIMU_DATABASE_URL) the pgvector
// index is used; otherwise an in-process index serves single-run workloads.
func buildVectorIndex(
	ctx context.Context, cfg driven.ConfigStore, dimensions int,
) (driven.VectorIndex, error) {
	connString := cfg.GetString("vector.conn_string")
	if connString == "" {
		connString = os.Getenv("ELIMU_DATABASE_URL")
	}
	if connString == "" {
		logger.Debug("No Postgres connection configured, using in-memory vector index")
		return vectormemory.NewIndex(), nil
	}

	idx, err := vectorpg.NewIndex(ctx, vectorpg.Config{
		ConnString: connString,
		Table:      cfg.GetString("vector.table"),
		Dimensions: dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("connect vector index: %w", err)
	}
	return idx, nil
}

// buildSegmenter constructs the segmenter from configured chunking limits.
func buildSegmenter(cfg driven.ConfigStore) (*segmenter.Segmenter, error) {
	var opts []segmenter.Option
	if n := cfg.GetInt("ingest.chunk_chars"); n > 0 {
		opts = append(opts, segmenter.WithMaxChars(n))
	}
	if n := cfg.GetInt("ingest.overlap_chars"); n > 0 {
		opts = append(opts, segmenter.WithOverlap(n))
	}
	seg, err := segmenter.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("configure segmenter: %w", err)
	}
	return seg, nil
}
