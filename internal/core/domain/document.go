package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Entity kinds recognised by the tagger.
const (
	// EntityPlayers holds player/member names resolved via the roster.
	EntityPlayers = "players"

	// EntityTeams holds team names.
	EntityTeams = "teams"

	// EntityDates holds resolved date references in ISO form (2006-01-02).
	EntityDates = "dates"
)

// Document represents the canonical, durable unit of the corpus.
// One notebook note, one email thread or one transcript episode
// maps to exactly one document.
type Document struct {
	// ID is the stable identifier, derived from source format and
	// native id so re-ingestion upserts rather than duplicates.
	ID string

	// Source identifies the export format the document came from.
	Source SourceFormat

	// Title is the human-readable title.
	Title string

	// Content is the full normalised plain text before chunking.
	Content string

	// ContentType is the classifier's label; nil until classified.
	ContentType *ContentType

	// CreatedAt is the best-effort normalised timestamp (UTC).
	// Nil when the source timestamp was absent or unparseable.
	CreatedAt *time.Time

	// Participants are canonical participant names, sorted.
	Participants []string

	// Entities maps entity kind to extracted values (players, teams, dates).
	Entities map[string][]string

	// Tags are free-form labels, including low-confidence tagger output.
	Tags []string

	// Season is a year-like label ("2023"); nil when underivable.
	Season *string

	// Metadata contains source-specific key-value pairs
	// (thread id, episode number, notebook guid).
	Metadata map[string]any

	// IngestedAt is when the document was last written to the store.
	IngestedAt time.Time
}

// DocumentID derives the stable document identifier from the source
// format and the source's native id. The derivation is deterministic:
// re-ingesting the same record always yields the same id.
func DocumentID(format SourceFormat, nativeID string) string {
	sum := sha256.Sum256([]byte(string(format) + ":" + nativeID))
	return hex.EncodeToString(sum[:16])
}

// Chunk represents a bounded sub-span of a document's content,
// the unit indexed for retrieval. A chunk is owned by exactly one
// document and cannot outlive it.
type Chunk struct {
	// ID is the chunk identifier: document id + ":" + sequence index.
	ID string

	// DocumentID links to the owning document.
	DocumentID string

	// SequenceIndex is the 0-based position within the document.
	SequenceIndex int

	// Text is the chunk content, including any leading overlap
	// carried from the previous chunk.
	Text string

	// TokenCount is the approximate token count of Text.
	TokenCount int

	// OverlapTokens is how many leading tokens of Text are overlap
	// repeated from the previous chunk. 0 for the first chunk.
	// Reconstruction of the document skips these tokens.
	OverlapTokens int

	// Embedding is the vector representation; nil until embedded.
	Embedding []float32
}

// ChunkID builds a chunk identifier from its document and position.
func ChunkID(documentID string, sequenceIndex int) string {
	return documentID + ":" + strconv.Itoa(sequenceIndex)
}

// NonOverlapText returns the chunk text with the leading overlap span
// removed. Concatenating NonOverlapText across a document's chunks in
// sequence order reconstructs the document content up to whitespace
// normalisation.
func (c Chunk) NonOverlapText() string {
	if c.OverlapTokens <= 0 {
		return c.Text
	}
	fields := strings.Fields(c.Text)
	if c.OverlapTokens >= len(fields) {
		return ""
	}
	return strings.Join(fields[c.OverlapTokens:], " ")
}
