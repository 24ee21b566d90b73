package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driving"
	"github.com/leaguelore/leaguelore-cli/internal/logger"
)

// Ensure RetrieveService implements the interface.
var _ driving.Retriever = (*RetrieveService)(nil)

// Default retrieval tuning.
const (
	DefaultRetrieveK     = 10
	DefaultRetrieveAlpha = 0.3

	// candidatePoolFactor sizes the per-engine candidate pool
	// relative to K, so filtering and blending have headroom.
	candidatePoolFactor = 10
	candidatePoolMin    = 50
)

// RetrieveConfig tunes retrieval defaults.
type RetrieveConfig struct {
	// Alpha is the default lexical weight in [0, 1]. Zero is a valid
	// setting (pure semantic); values outside the range fall back to
	// DefaultRetrieveAlpha.
	Alpha float64

	// K is the default result count.
	K int
}

// RetrieveService answers hybrid retrieval queries: lexical and
// semantic candidates are pooled, hard pre-filters applied, the two
// score families min-max normalised independently, then blended.
// When no embedding capability is configured or the query embedding
// fails, retrieval degrades to lexical-only rather than erroring.
type RetrieveService struct {
	docStore  driven.DocumentStore
	lexical   driven.LexicalIndex
	vector    driven.VectorIndex
	embedding driven.EmbeddingService
	cfg       RetrieveConfig
}

// NewRetrieveService creates the retriever. embedding may be nil.
func NewRetrieveService(
	docStore driven.DocumentStore,
	lexical driven.LexicalIndex,
	vector driven.VectorIndex,
	embedding driven.EmbeddingService,
	cfg RetrieveConfig,
) *RetrieveService {
	if cfg.K <= 0 {
		cfg.K = DefaultRetrieveK
	}
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		cfg.Alpha = DefaultRetrieveAlpha
	}

	return &RetrieveService{
		docStore:  docStore,
		lexical:   lexical,
		vector:    vector,
		embedding: embedding,
		cfg:       cfg,
	}
}

// candidate accumulates per-chunk scores before blending.
type candidate struct {
	chunk    domain.Chunk
	document domain.Document
	lexical  float64
	semantic float64
	hasLex   bool
	hasSem   bool
}

// Retrieve returns at most opts.K chunks ranked by the hybrid score.
func (s *RetrieveService) Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	k := opts.K
	if k <= 0 {
		k = s.cfg.K
	}
	alpha := s.cfg.Alpha
	if opts.Alpha != nil {
		alpha = *opts.Alpha
		if alpha < 0 || alpha > 1 {
			return nil, fmt.Errorf("%w: alpha must be in [0, 1], got %g", domain.ErrInvalidInput, alpha)
		}
	}

	pool := k * candidatePoolFactor
	if pool < candidatePoolMin {
		pool = candidatePoolMin
	}

	candidates := make(map[string]*candidate)
	docs := make(map[string]*domain.Document)

	lexHits, err := s.lexical.Search(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	for _, hit := range lexHits {
		c, err := s.admit(ctx, hit.ChunkID, opts, candidates, docs)
		if err != nil {
			return nil, err
		}
		if c != nil {
			c.lexical = hit.Score
			c.hasLex = true
		}
	}

	semantic := s.semanticHits(ctx, query, pool)
	for _, hit := range semantic {
		c, err := s.admit(ctx, hit.ChunkID, opts, candidates, docs)
		if err != nil {
			return nil, err
		}
		if c != nil {
			c.semantic = hit.Similarity
			c.hasSem = true
		}
	}

	results := blend(candidates, alpha, len(semantic) > 0)
	rank(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// semanticHits embeds the query and searches the vector index.
// Any failure degrades to lexical-only.
func (s *RetrieveService) semanticHits(ctx context.Context, query string, pool int) []driven.VectorHit {
	if s.embedding == nil || s.vector == nil {
		return nil
	}
	vec, err := s.embedding.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, falling back to lexical-only: %v", err)
		return nil
	}
	hits, err := s.vector.Search(ctx, vec, pool)
	if err != nil {
		logger.Warn("Semantic search failed, falling back to lexical-only: %v", err)
		return nil
	}
	return hits
}

// admit loads a candidate chunk and applies the hard pre-filters.
// Returns nil when the chunk is filtered out; the decision is cached
// so each chunk is checked once.
func (s *RetrieveService) admit(
	ctx context.Context,
	chunkID string,
	opts domain.RetrieveOptions,
	candidates map[string]*candidate,
	docs map[string]*domain.Document,
) (*candidate, error) {
	if c, seen := candidates[chunkID]; seen {
		return c, nil
	}

	chunk, err := s.docStore.GetChunk(ctx, chunkID)
	if err != nil {
		// The indexes can briefly reference chunks removed from the
		// store. Skip rather than fail the query.
		logger.Debug("Chunk %s not in store, skipping", chunkID)
		candidates[chunkID] = nil
		return nil, nil
	}

	doc, ok := docs[chunk.DocumentID]
	if !ok {
		doc, err = s.docStore.GetDocument(ctx, chunk.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("loading document %s: %w", chunk.DocumentID, err)
		}
		docs[chunk.DocumentID] = doc
	}

	if !passesFilters(doc, opts) {
		candidates[chunkID] = nil
		return nil, nil
	}

	c := &candidate{chunk: *chunk, document: *doc}
	candidates[chunkID] = c
	return c, nil
}

// passesFilters applies the hard pre-filters: failing documents are
// excluded entirely, never down-ranked.
func passesFilters(doc *domain.Document, opts domain.RetrieveOptions) bool {
	if len(opts.ContentTypes) > 0 {
		if doc.ContentType == nil {
			return false
		}
		found := false
		for _, ct := range opts.ContentTypes {
			if *doc.ContentType == ct {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(opts.Seasons) > 0 {
		if doc.Season == nil {
			return false
		}
		found := false
		for _, season := range opts.Seasons {
			if *doc.Season == season {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Participant filters are conjunctive: the document must mention
	// every requested name.
	for _, want := range opts.Participants {
		found := false
		for _, p := range doc.Participants {
			if strings.EqualFold(p, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// blend normalises the two score families independently across the
// surviving candidates and combines them. When the semantic pool is
// empty the lexical score stands alone, unscaled by alpha.
func blend(candidates map[string]*candidate, alpha float64, hasSemantic bool) []domain.RetrievedChunk {
	var pool []*candidate
	for _, c := range candidates {
		if c != nil {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	normalise(pool, func(c *candidate) (float64, bool) { return c.lexical, c.hasLex },
		func(c *candidate, v float64) { c.lexical = v })
	normalise(pool, func(c *candidate) (float64, bool) { return c.semantic, c.hasSem },
		func(c *candidate, v float64) { c.semantic = v })

	results := make([]domain.RetrievedChunk, 0, len(pool))
	for _, c := range pool {
		score := alpha*c.lexical + (1-alpha)*c.semantic
		if !hasSemantic {
			score = c.lexical
		}
		results = append(results, domain.RetrievedChunk{
			Chunk:         c.chunk,
			Document:      c.document,
			Score:         score,
			LexicalScore:  c.lexical,
			SemanticScore: c.semantic,
		})
	}
	return results
}

// normalise min-max scales one score family in place across the
// candidates that have it. A family with a single distinct value maps
// to 1 for holders, leaving non-holders at 0.
func normalise(pool []*candidate, get func(*candidate) (float64, bool), set func(*candidate, float64)) {
	min, max := 0.0, 0.0
	first := true
	for _, c := range pool {
		v, ok := get(c)
		if !ok {
			continue
		}
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if first {
		return
	}

	span := max - min
	for _, c := range pool {
		v, ok := get(c)
		if !ok {
			set(c, 0)
			continue
		}
		if span == 0 {
			set(c, 1)
			continue
		}
		set(c, (v-min)/span)
	}
}

// rank sorts results by score descending, breaking ties by newer
// document created_at and then lower sequence index.
func rank(results []domain.RetrievedChunk) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		at, bt := a.Document.CreatedAt, b.Document.CreatedAt
		switch {
		case at != nil && bt != nil && !at.Equal(*bt):
			return at.After(*bt)
		case at != nil && bt == nil:
			return true
		case at == nil && bt != nil:
			return false
		}
		if a.Chunk.SequenceIndex != b.Chunk.SequenceIndex {
			return a.Chunk.SequenceIndex < b.Chunk.SequenceIndex
		}
		return a.Chunk.ID < b.Chunk.ID
	})
}
