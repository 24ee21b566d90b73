package main

import (
	"context"
	"fmt"
	"os"
	"time"

	classifierollama "github.com/leaguelore/leaguelore-cli/internal/adapters/driven/classify/ollama"
	"github.com/leaguelore/leaguelore-cli/internal/adapters/driven/config/file"
	embeddingollama "github.com/leaguelore/leaguelore-cli/internal/adapters/driven/embedding/ollama"
	"github.com/leaguelore/leaguelore-cli/internal/adapters/driven/embedding/openai"
	"github.com/leaguelore/leaguelore-cli/internal/adapters/driven/index/lexical"
	"github.com/leaguelore/leaguelore-cli/internal/adapters/driven/index/vector"
	"github.com/leaguelore/leaguelore-cli/internal/adapters/driven/storage/sqlite"
	"github.com/leaguelore/leaguelore-cli/internal/adapters/driving/cli"
	"github.com/leaguelore/leaguelore-cli/internal/canonical"
	"github.com/leaguelore/leaguelore-cli/internal/chunker"
	"github.com/leaguelore/leaguelore-cli/internal/classify"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
	"github.com/leaguelore/leaguelore-cli/internal/core/services"
	"github.com/leaguelore/leaguelore-cli/internal/entities"
	"github.com/leaguelore/leaguelore-cli/internal/parsers/enex"
	"github.com/leaguelore/leaguelore-cli/internal/parsers/mbox"
	"github.com/leaguelore/leaguelore-cli/internal/parsers/transcript"
	"github.com/leaguelore/leaguelore-cli/internal/segmenter"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.Load(os.Getenv("LEAGUELORE_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	roster, err := cfg.BuildRoster()
	if err != nil {
		return fmt.Errorf("building roster: %w", err)
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	docStore := store.DocumentStore()
	lex := lexical.New()
	vec := vector.New()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	// The indexes live in memory; rebuild them from the persisted
	// corpus so every command starts from a searchable state.
	if err := warmIndexes(context.Background(), docStore, lex, vec); err != nil {
		return fmt.Errorf("loading indexes: %w", err)
	}

	parsers := []driven.Parser{
		enex.New(enex.WithMinContentLength(cfg.Ingest.MinNoteLength)),
		mbox.New(mbox.WithMinBodyLength(cfg.Ingest.MinBodyLength)),
		transcript.New(),
	}

	seg := segmenter.New(
		segmenter.WithThreadWindow(time.Duration(cfg.Ingest.ThreadWindowDays) * 24 * time.Hour),
	)

	classifier := classify.New(
		buildClassifierModel(cfg),
		classify.WithConfidenceThreshold(cfg.Classifier.ConfidenceThreshold),
	)

	chk := chunker.New(
		chunker.WithMaxTokens(cfg.Chunking.MaxTokens),
		chunker.WithOverlapTokens(cfg.Chunking.OverlapTokens),
	)

	ingestSvc := services.NewIngestService(
		parsers,
		seg,
		canonical.New(roster),
		classifier,
		entities.NewTagger(roster),
		chk,
		docStore,
		lex,
		services.IngestConfig{
			Workers:         cfg.Ingest.Workers,
			SubjectKeywords: cfg.Ingest.SubjectKeywords,
		},
	)

	indexSvc := services.NewIndexService(docStore, lex, vec, embedder, services.IndexConfig{
		BatchSize:     cfg.Embedding.BatchSize,
		RatePerSecond: cfg.Embedding.RatePerSecond,
		MaxRetries:    cfg.Embedding.MaxRetries,
	})

	retrieveSvc := services.NewRetrieveService(docStore, lex, vec, embedder, services.RetrieveConfig{
		Alpha: cfg.Retrieval.Alpha,
		K:     cfg.Retrieval.K,
	})

	cli.SetServices(cli.Services{
		Ingest:  ingestSvc,
		Indexer: indexSvc,
		Query:   retrieveSvc,
		Curated: services.NewCuratedExampleService(store.CuratedStore()),
	})

	return cli.Execute(version)
}

// buildEmbedder constructs the configured embedding provider.
// "none" disables embeddings; the corpus stays keyword-only.
func buildEmbedder(cfg *file.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "", "none":
		return nil, nil
	case "ollama":
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		}), nil
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// buildClassifierModel constructs the configured model classifier.
// Nil means rule-tier classification only.
func buildClassifierModel(cfg *file.Config) driven.ClassifierService {
	if cfg.Classifier.Provider != "ollama" {
		return nil
	}
	return classifierollama.NewClassifierService(classifierollama.Config{
		BaseURL: cfg.Classifier.BaseURL,
		Model:   cfg.Classifier.Model,
	})
}

// warmIndexes loads persisted chunks into the in-memory indexes, so
// retrieval works without re-running the index build. No embedding
// calls happen here: chunks without a vector stay keyword-only until
// the next index build.
func warmIndexes(ctx context.Context, docStore driven.DocumentStore, lex driven.LexicalIndex, vec driven.VectorIndex) error {
	chunks, err := docStore.ListChunks(ctx)
	if err != nil {
		return err
	}

	vectors := make(map[string][]float32)
	for _, chunk := range chunks {
		if err := lex.Index(ctx, chunk.ID, chunk.Text); err != nil {
			return err
		}
		if len(chunk.Embedding) > 0 {
			vectors[chunk.ID] = chunk.Embedding
		}
	}
	return vec.Rebuild(ctx, vectors)
}
