// Package vector provides an in-process similarity index over chunk
// embeddings using exhaustive cosine search. Corpus sizes here are
// tens of thousands of chunks at most, where a scan beats the
// bookkeeping cost of an approximate structure.
package vector

import (
	"context"
	"math"
	"sort"
	"sync/atomic"

	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one indexed vector with its precomputed norm.
type entry struct {
	chunkID string
	vector  []float32
	norm    float64
}

// snapshot is an immutable set of entries. Searches read whichever
// snapshot is current; Rebuild swaps in a new one atomically.
type snapshot struct {
	entries []entry
}

// Index is a brute-force cosine similarity index.
type Index struct {
	current atomic.Pointer[snapshot]
}

// New creates an empty vector index.
func New() *Index {
	idx := &Index{}
	idx.current.Store(&snapshot{})
	return idx
}

// Rebuild replaces the index contents. The new snapshot becomes
// visible in one step: concurrent searches see either the old set or
// the new set, never a mix.
func (idx *Index) Rebuild(ctx context.Context, vectors map[string][]float32) error {
	entries := make([]entry, 0, len(vectors))
	for chunkID, vec := range vectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(vec) == 0 {
			continue
		}
		entries = append(entries, entry{
			chunkID: chunkID,
			vector:  vec,
			norm:    norm(vec),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].chunkID < entries[j].chunkID
	})

	idx.current.Store(&snapshot{entries: entries})
	return nil
}

// Search finds the k nearest neighbours to the query vector by cosine
// similarity. Entries with mismatched dimensions are skipped.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) == 0 || k <= 0 {
		return nil, nil
	}

	snap := idx.current.Load()
	queryNorm := norm(query)
	if queryNorm == 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(snap.entries))
	for i, e := range snap.entries {
		// Check for cancellation periodically on large corpora.
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(e.vector) != len(query) || e.norm == 0 {
			continue
		}
		sim := dot(query, e.vector) / (queryNorm * e.norm)
		hits = append(hits, driven.VectorHit{ChunkID: e.chunkID, Similarity: sim})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity == hits[j].Similarity {
			return hits[i].ChunkID < hits[j].ChunkID
		}
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	return len(idx.current.Load().entries)
}

// norm computes the Euclidean norm.
func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// dot computes the dot product. Slices must be the same length.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
