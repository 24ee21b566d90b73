package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexAndSearch(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, "c1", "Mike traded his kicker for a defence"))
	require.NoError(t, idx.Index(ctx, "c2", "the weather was nice on draft day"))
	require.NoError(t, idx.Index(ctx, "c3", "another trade fell through for Mike"))

	hits, err := idx.Search(ctx, "mike kicker", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c1", hits[0].ChunkID, "chunk matching both terms ranks first")
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, "c1", "some text"))

	hits, err := idx.Search(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Stopwords and single characters tokenize to nothing.
	hits, err = idx.Search(ctx, "the a of", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New()
	hits, err := idx.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestReindexReplacesPostings(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, "c1", "waiver wire pickup"))
	require.NoError(t, idx.Index(ctx, "c1", "completely different content"))

	hits, err := idx.Search(ctx, "waiver", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "old postings must not survive a re-index")

	hits, err = idx.Search(ctx, "different", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, 1, idx.Len())
}

func TestDelete(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, "c1", "roast of the year"))
	require.NoError(t, idx.Delete(ctx, "c1"))

	hits, err := idx.Search(ctx, "roast", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Zero(t, idx.Len())

	// Deleting an unknown id is a no-op.
	assert.NoError(t, idx.Delete(ctx, "missing"))
}

func TestSearchLimit(t *testing.T) {
	idx := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		require.NoError(t, idx.Index(ctx, id, "trade deadline drama"))
	}

	hits, err := idx.Search(ctx, "trade", 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestRareTermsScoreHigher(t *testing.T) {
	idx := New()
	ctx := context.Background()

	// "trade" appears everywhere, "sacko" in one chunk.
	require.NoError(t, idx.Index(ctx, "c1", "trade trade trade"))
	require.NoError(t, idx.Index(ctx, "c2", "trade sacko"))
	require.NoError(t, idx.Index(ctx, "c3", "trade talk again"))

	hits, err := idx.Search(ctx, "sacko trade", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c2", hits[0].ChunkID)
}

func TestCaseInsensitive(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, "c1", "KELCE went OFF this week"))
	hits, err := idx.Search(ctx, "kelce", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}
