package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

func testDoc(id string) *domain.Document {
	return &domain.Document{
		ID:      id,
		Source:  domain.SourceNotebook,
		Title:   "Test Document",
		Content: "some content",
	}
}

func testChunks(docID string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:            domain.ChunkID(docID, i),
			DocumentID:    docID,
			SequenceIndex: i,
			Text:          "chunk text",
			TokenCount:    2,
		}
	}
	return chunks
}

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
}

func TestDocumentStore_UpsertDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	err := store.UpsertDocument(ctx, testDoc("doc-1"), testChunks("doc-1", 3))
	require.NoError(t, err)

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", saved.ID)

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestDocumentStore_UpsertDocument_ReplacesChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc-1"), testChunks("doc-1", 5)))
	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc-1"), testChunks("doc-1", 2)))

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 2, "old chunks must not survive an upsert")
}

func TestDocumentStore_UpsertChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc-1"), testChunks("doc-1", 2)))

	updated := testChunks("doc-1", 2)
	updated[1].Embedding = []float32{0.1, 0.2}
	require.NoError(t, store.UpsertChunks(ctx, updated[1:]))

	chunk, err := store.GetChunk(ctx, updated[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, chunk.Embedding)
}

func TestDocumentStore_UpsertChunks_UnknownDocument(t *testing.T) {
	store := NewDocumentStore()
	err := store.UpsertChunks(context.Background(), testChunks("missing", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_GetChunks_SequenceOrder(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	chunks := testChunks("doc-1", 3)
	// Store out of order.
	shuffled := []domain.Chunk{chunks[2], chunks[0], chunks[1]}
	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc-1"), shuffled))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	for i, chunk := range got {
		assert.Equal(t, i, chunk.SequenceIndex)
	}
}

func TestDocumentStore_DeleteDocument_Cascades(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc-1"), testChunks("doc-1", 2)))
	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDocumentStore_Query(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	recap := domain.ContentTypeRecap
	season2023 := "2023"
	oct := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)

	a := testDoc("doc-a")
	a.ContentType = &recap
	a.Season = &season2023
	a.CreatedAt = &oct
	b := testDoc("doc-b")
	b.Source = domain.SourceEmail
	require.NoError(t, store.UpsertDocument(ctx, a, nil))
	require.NoError(t, store.UpsertDocument(ctx, b, nil))

	t.Run("no filter returns all", func(t *testing.T) {
		docs, err := store.Query(ctx, domain.DocumentFilter{})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("source filter", func(t *testing.T) {
		docs, err := store.Query(ctx, domain.DocumentFilter{Source: domain.SourceEmail})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-b", docs[0].ID)
	})

	t.Run("content type filter", func(t *testing.T) {
		docs, err := store.Query(ctx, domain.DocumentFilter{ContentType: &recap})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-a", docs[0].ID)
	})

	t.Run("season filter", func(t *testing.T) {
		docs, err := store.Query(ctx, domain.DocumentFilter{Season: &season2023})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-a", docs[0].ID)
	})

	t.Run("time bounds exclude nil timestamps", func(t *testing.T) {
		after := oct.AddDate(0, -1, 0)
		docs, err := store.Query(ctx, domain.DocumentFilter{After: &after})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-a", docs[0].ID)
	})
}

func TestDocumentStore_ListChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc-a"), testChunks("doc-a", 2)))
	require.NoError(t, store.UpsertDocument(ctx, testDoc("doc-b"), testChunks("doc-b", 3)))

	chunks, err := store.ListChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, 5)
}

func TestDocumentStore_ConcurrentUpserts(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.UpsertDocument(ctx, testDoc("doc-1"), testChunks("doc-1", 3))
		}()
	}
	wg.Wait()

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 3, "concurrent upserts of one id must not interleave")
}
