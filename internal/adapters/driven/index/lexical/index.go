// Package lexical provides an in-process inverted index with TF-IDF
// scoring. Postings update incrementally as chunks are written, so
// lexical search is current immediately after ingestion.
package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// Index is an inverted index over chunk text.
type Index struct {
	mu sync.RWMutex

	// postings maps term -> chunk id -> term frequency.
	postings map[string]map[string]int

	// docTerms maps chunk id -> its term frequencies, for deletes
	// and length normalisation.
	docTerms map[string]map[string]int

	// docLen maps chunk id -> token count.
	docLen map[string]int

	totalLen int
}

// New creates an empty lexical index.
func New() *Index {
	return &Index{
		postings: make(map[string]map[string]int),
		docTerms: make(map[string]map[string]int),
		docLen:   make(map[string]int),
	}
}

// Index adds or updates a chunk's postings. Re-indexing an id replaces
// its previous postings.
func (idx *Index) Index(_ context.Context, chunkID, text string) error {
	terms := termFrequencies(text)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(chunkID)

	length := 0
	for term, freq := range terms {
		chunkFreqs, ok := idx.postings[term]
		if !ok {
			chunkFreqs = make(map[string]int)
			idx.postings[term] = chunkFreqs
		}
		chunkFreqs[chunkID] = freq
		length += freq
	}
	idx.docTerms[chunkID] = terms
	idx.docLen[chunkID] = length
	idx.totalLen += length
	return nil
}

// Delete removes a chunk's postings.
func (idx *Index) Delete(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(chunkID)
	return nil
}

// removeLocked drops all postings for chunkID. Caller holds the lock.
func (idx *Index) removeLocked(chunkID string) {
	terms, ok := idx.docTerms[chunkID]
	if !ok {
		return
	}
	for term := range terms {
		chunkFreqs := idx.postings[term]
		delete(chunkFreqs, chunkID)
		if len(chunkFreqs) == 0 {
			delete(idx.postings, term)
		}
	}
	idx.totalLen -= idx.docLen[chunkID]
	delete(idx.docTerms, chunkID)
	delete(idx.docLen, chunkID)
}

// Search scores chunks against the query with TF-IDF and returns the
// top limit hits, best first. An empty or all-stopword query returns
// no hits.
func (idx *Index) Search(_ context.Context, query string, limit int) ([]driven.LexicalHit, error) {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 || limit <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docCount := len(idx.docTerms)
	if docCount == 0 {
		return nil, nil
	}

	scores := make(map[string]float64)
	for _, term := range queryTerms {
		chunkFreqs, ok := idx.postings[term]
		if !ok {
			continue
		}
		idf := math.Log(1 + float64(docCount)/float64(len(chunkFreqs)))
		for chunkID, freq := range chunkFreqs {
			tf := float64(freq) / float64(idx.docLen[chunkID])
			scores[chunkID] += tf * idf
		}
	}

	hits := make([]driven.LexicalHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, driven.LexicalHit{ChunkID: chunkID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ChunkID < hits[j].ChunkID
		}
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docTerms)
}

// termFrequencies tokenizes text and counts term occurrences.
func termFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, term := range tokenize(text) {
		freqs[term]++
	}
	return freqs
}

// stopwords are dropped from both documents and queries.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"he": true, "in": true, "is": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "that": true, "the": true,
	"to": true, "was": true, "we": true, "were": true, "will": true,
	"with": true,
}

// tokenize lower-cases and splits text on non-alphanumeric runes,
// dropping stopwords and single characters.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() < 2 {
			current.Reset()
			return
		}
		term := current.String()
		current.Reset()
		if !stopwords[term] {
			tokens = append(tokens, term)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
