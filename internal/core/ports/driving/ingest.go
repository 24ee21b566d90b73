package driving

import (
	"context"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// IngestOrchestrator runs the offline ingestion batch:
// parse, segment, canonicalise, classify, tag, chunk, store.
type IngestOrchestrator interface {
	// IngestPaths processes the given files and directories.
	// Individually bad records and unreadable files are counted in the
	// returned report, not fatal. The returned error covers only
	// batch-level failures (context cancellation, store unavailable).
	IngestPaths(ctx context.Context, paths []string) (*domain.IngestReport, error)
}

// IndexBuilder populates the retrieval indexes from stored chunks.
type IndexBuilder interface {
	// BuildIndexes posts all stored chunks into the lexical index and
	// embeds unembedded chunks into the semantic index. Chunks whose
	// embedding fails stay lexical-only; the count of such chunks is
	// returned.
	BuildIndexes(ctx context.Context) (unembedded int, err error)
}

// Retriever answers ranked retrieval queries over the corpus.
type Retriever interface {
	// Retrieve returns at most opts.K chunks ranked by the hybrid
	// score, after hard pre-filtering.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievedChunk, error)
}

// CuratedService manages hand-curated style exemplars.
type CuratedService interface {
	// Add creates a new curated example.
	Add(ctx context.Context, example domain.CuratedExample) (*domain.CuratedExample, error)

	// List returns curated examples, optionally filtered by category.
	List(ctx context.Context, category string) ([]domain.CuratedExample, error)

	// Score edits an example's quality score.
	Score(ctx context.Context, id string, score int) error
}
