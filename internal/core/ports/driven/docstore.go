package driven

import (
	"context"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for durable storage; an in-memory twin backs tests.
type DocumentStore interface {
	// UpsertDocument stores or replaces a document and its chunks as a
	// single atomic unit: prior chunks for the same document id are
	// deleted and the given chunks inserted in the same transaction.
	// A reader never observes a half-updated document/chunk set.
	UpsertDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// UpsertChunks replaces stored chunk rows, used to persist
	// embeddings after indexing. Chunks must already belong to a
	// stored document.
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves a document's chunks in sequence order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument removes a document and cascades to its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Query returns documents matching the filter.
	Query(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// ListChunks returns every stored chunk, for index builds.
	ListChunks(ctx context.Context) ([]domain.Chunk, error)
}

// CuratedStore persists hand-curated style exemplars.
type CuratedStore interface {
	// SaveCuratedExample stores a new example.
	SaveCuratedExample(ctx context.Context, example *domain.CuratedExample) error

	// GetCuratedExample retrieves an example by ID.
	GetCuratedExample(ctx context.Context, id string) (*domain.CuratedExample, error)

	// ListCuratedExamples returns examples, optionally filtered by
	// category (empty string means all).
	ListCuratedExamples(ctx context.Context, category string) ([]domain.CuratedExample, error)

	// UpdateCuratedScore edits an example's quality score, the only
	// permitted mutation after creation.
	UpdateCuratedScore(ctx context.Context, id string, score int) error
}
