package vector

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildAndSearch(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Rebuild(ctx, map[string][]float32{
		"c1": {1, 0, 0},
		"c2": {0, 1, 0},
		"c3": {0.9, 0.1, 0},
	}))
	assert.Equal(t, 3, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "c3", hits[1].ChunkID)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New()
	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Rebuild(context.Background(), map[string][]float32{"c1": {1}}))

	hits, err := idx.Search(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRebuildReplacesContents(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Rebuild(ctx, map[string][]float32{"old": {1, 0}}))
	require.NoError(t, idx.Rebuild(ctx, map[string][]float32{"new": {1, 0}}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].ChunkID)
}

func TestRebuildSkipsEmptyVectors(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Rebuild(context.Background(), map[string][]float32{
		"c1": {1, 0},
		"c2": nil,
	}))
	assert.Equal(t, 1, idx.Len())
}

func TestSearchSkipsDimensionMismatch(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Rebuild(ctx, map[string][]float32{
		"c1": {1, 0, 0},
		"c2": {1, 0},
	}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestConcurrentSearchDuringRebuild(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Rebuild(ctx, map[string][]float32{"c1": {1, 0}}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hits, err := idx.Search(ctx, []float32{1, 0}, 5)
				assert.NoError(t, err)
				// Either snapshot is fine; a torn one is not.
				assert.LessOrEqual(t, len(hits), 1)
			}
		}()
	}
	for j := 0; j < 100; j++ {
		require.NoError(t, idx.Rebuild(ctx, map[string][]float32{"c1": {1, 0}}))
	}
	wg.Wait()
}
