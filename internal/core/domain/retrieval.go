package domain

import "time"

// RetrieveOptions configures a retrieval query.
type RetrieveOptions struct {
	// K is the maximum number of chunks to return (default 10).
	K int

	// ContentTypes restricts results to documents with one of these
	// labels. Empty means no restriction. A hard pre-filter: failing
	// chunks are excluded before scoring, never down-ranked.
	ContentTypes []ContentType

	// Seasons restricts results to documents with one of these season
	// labels. Empty means no restriction.
	Seasons []string

	// Participants restricts results to documents mentioning all of
	// these canonical participant names. Empty means no restriction.
	Participants []string

	// Alpha overrides the configured lexical weight for this query.
	// nil uses the configured default. 0 means pure semantic,
	// 1 means pure lexical.
	Alpha *float64
}

// DocumentFilter selects documents in store queries.
// Zero-valued fields impose no constraint.
type DocumentFilter struct {
	// Source restricts to one source format.
	Source SourceFormat

	// ContentType restricts to one label.
	ContentType *ContentType

	// Season restricts to one season label.
	Season *string

	// After and Before bound CreatedAt. Documents with a nil
	// CreatedAt match only when neither bound is set.
	After  *time.Time
	Before *time.Time
}

// RetrievedChunk is a single ranked retrieval hit.
type RetrievedChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Document is the chunk's owning document.
	Document Document

	// Score is the combined, normalised relevance score in [0, 1].
	Score float64

	// LexicalScore and SemanticScore are the per-component normalised
	// scores that produced Score. SemanticScore is 0 for chunks with
	// no embedding.
	LexicalScore  float64
	SemanticScore float64
}
