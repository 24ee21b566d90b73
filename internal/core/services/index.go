package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driving"
	"github.com/leaguelore/leaguelore-cli/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexBuilder = (*IndexService)(nil)

// Default index build tuning.
const (
	DefaultEmbedBatchSize = 16
	DefaultEmbedRate      = 4 // calls per second
	DefaultEmbedRetries   = 3
)

// IndexConfig tunes the index build.
type IndexConfig struct {
	// BatchSize is how many chunks are embedded per capability call.
	BatchSize int

	// RatePerSecond caps embedding capability calls.
	RatePerSecond float64

	// MaxRetries bounds retry attempts per failed batch.
	MaxRetries int
}

// IndexService builds the retrieval indexes from stored chunks. The
// lexical index is posted in full; chunks without embeddings are
// embedded in paced batches, persisted, and the semantic index is
// rebuilt from every embedded chunk in one atomic swap.
type IndexService struct {
	docStore  driven.DocumentStore
	lexical   driven.LexicalIndex
	vector    driven.VectorIndex
	embedding driven.EmbeddingService
	limiter   *rate.Limiter
	cfg       IndexConfig
}

// NewIndexService creates the index builder. embedding may be nil, in
// which case the corpus stays lexical-only.
func NewIndexService(
	docStore driven.DocumentStore,
	lexical driven.LexicalIndex,
	vector driven.VectorIndex,
	embedding driven.EmbeddingService,
	cfg IndexConfig,
) *IndexService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbedBatchSize
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultEmbedRate
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultEmbedRetries
	}

	return &IndexService{
		docStore:  docStore,
		lexical:   lexical,
		vector:    vector,
		embedding: embedding,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cfg:       cfg,
	}
}

// BuildIndexes posts all stored chunks into the lexical index and
// embeds unembedded chunks into the semantic index. Chunks whose
// embedding fails after retries stay lexical-only; their count is
// returned.
func (s *IndexService) BuildIndexes(ctx context.Context) (int, error) {
	chunks, err := s.docStore.ListChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing chunks: %w", err)
	}

	logger.Section("Lexical index")
	for _, chunk := range chunks {
		if err := s.lexical.Index(ctx, chunk.ID, chunk.Text); err != nil {
			return 0, fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
		}
	}
	logger.Info("Posted %d chunks to the lexical index", len(chunks))

	unembedded := 0
	if s.embedding != nil {
		logger.Section("Embeddings")
		unembedded, err = s.embedMissing(ctx, chunks)
		if err != nil {
			return unembedded, err
		}
	}

	logger.Section("Semantic index")
	vectors := make(map[string][]float32)
	for _, chunk := range chunks {
		if len(chunk.Embedding) > 0 {
			vectors[chunk.ID] = chunk.Embedding
		}
	}
	if err := s.vector.Rebuild(ctx, vectors); err != nil {
		return unembedded, fmt.Errorf("rebuilding semantic index: %w", err)
	}
	logger.Info("Semantic index holds %d vectors", s.vector.Len())

	return unembedded, nil
}

// embedMissing embeds chunks lacking vectors, in paced batches,
// persisting each batch before moving on. chunks is mutated in place
// so the caller sees the new embeddings. Returns the count of chunks
// left without an embedding.
func (s *IndexService) embedMissing(ctx context.Context, chunks []domain.Chunk) (int, error) {
	var pending []int // indexes into chunks
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}
	logger.Info("Embedding %d chunks in batches of %d", len(pending), s.cfg.BatchSize)

	failed := 0
	for start := 0; start < len(pending); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, idx := range batch {
			texts[i] = chunks[idx].Text
		}

		vectors, itemErrs, err := s.embedBatchWithRetry(ctx, texts)
		if err != nil {
			// Whole batch failed after retries: those chunks stay
			// lexical-only, the build continues.
			logger.Warn("Embedding batch failed: %v", err)
			failed += len(batch)
			continue
		}

		var embedded []domain.Chunk
		for i, idx := range batch {
			if i < len(itemErrs) && itemErrs[i] != nil {
				logger.Debug("Chunk %s not embedded: %v", chunks[idx].ID, itemErrs[i])
				failed++
				continue
			}
			if i >= len(vectors) || len(vectors[i]) == 0 {
				failed++
				continue
			}
			chunks[idx].Embedding = vectors[i]
			embedded = append(embedded, chunks[idx])
		}

		if len(embedded) > 0 {
			if err := s.docStore.UpsertChunks(ctx, embedded); err != nil {
				return failed, fmt.Errorf("%w: persisting embeddings: %w", domain.ErrStoreUnavailable, err)
			}
		}
	}

	if failed > 0 {
		logger.Warn("%d chunks remain lexical-only", failed)
	}
	return failed, nil
}

// embedBatchWithRetry calls the embedding capability with rate pacing
// and bounded exponential backoff.
func (s *IndexService) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, []error, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			logger.Debug("Retrying embedding batch in %s (attempt %d)", backoff, attempt+1)
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		vectors, itemErrs, err := s.embedding.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, itemErrs, nil
		}
		lastErr = err
	}
	return nil, nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, lastErr)
}
