package driven

import "context"

// LexicalIndex provides token-based retrieval over chunks.
// Supports incremental posting: new chunks are indexed as they are
// written, without a full rebuild.
type LexicalIndex interface {
	// Index adds or updates a chunk's postings.
	Index(ctx context.Context, chunkID, text string) error

	// Delete removes a chunk's postings.
	Delete(ctx context.Context, chunkID string) error

	// Search scores chunks against the query and returns the top
	// matches. Scores are engine-native (TF-IDF); the retriever
	// normalises them per query.
	Search(ctx context.Context, query string, limit int) ([]LexicalHit, error)
}

// LexicalHit is a lexical search result.
type LexicalHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the engine-native relevance score.
	Score float64
}

// VectorIndex provides semantic similarity search over chunk embeddings.
// Rebuilds replace the searchable structure atomically: a query running
// concurrently with a rebuild sees either the old snapshot or the new
// one, never a torn index.
type VectorIndex interface {
	// Rebuild replaces the index contents with the given vectors.
	Rebuild(ctx context.Context, vectors map[string][]float32) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
