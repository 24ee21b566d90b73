// Package chunker splits document content into retrieval-sized chunks
// on sentence boundaries, with a token overlap between neighbours for
// embedding context.
package chunker

import (
	"regexp"
	"strings"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// DefaultMaxTokens is the default token budget per chunk.
const DefaultMaxTokens = 320

// DefaultOverlapTokens is the default overlap carried from the
// previous chunk.
const DefaultOverlapTokens = 32

// Chunker splits content into sentence-bounded chunks. A token is a
// whitespace-delimited word; sentences pack greedily up to the budget.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the token budget per chunk.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlapTokens sets the overlap between neighbouring chunks.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for new content in every chunk.
	if c.overlapTokens >= c.maxTokens {
		c.overlapTokens = c.maxTokens / 4
	}

	return c
}

// sentenceEnd finds sentence-terminating punctuation followed by
// whitespace. Newlines also terminate sentences so list-like content
// splits sanely.
var sentenceEnd = regexp.MustCompile(`([.!?]["')\]]?)(\s+)|(\n)`)

// Chunk splits the document content. Empty content yields no chunks.
// Every chunk id derives from the document id and sequence index, so
// re-chunking identical content is idempotent.
func (c *Chunker) Chunk(doc domain.Document) []domain.Chunk {
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil
	}

	sentences := splitSentences(content)

	var chunks []domain.Chunk
	var current []string // tokens of the chunk under construction
	overlap := 0         // leading overlap token count of current

	flush := func() {
		// Nothing beyond the overlap seed means nothing new to emit.
		if len(current) <= overlap {
			return
		}
		seq := len(chunks)
		text := strings.Join(current, " ")
		chunks = append(chunks, domain.Chunk{
			ID:            domain.ChunkID(doc.ID, seq),
			DocumentID:    doc.ID,
			SequenceIndex: seq,
			Text:          text,
			TokenCount:    len(current),
			OverlapTokens: overlap,
		})

		// Seed the next chunk with the tail of this one.
		tail := c.overlapTokens
		if tail > len(current) {
			tail = len(current)
		}
		current = append([]string(nil), current[len(current)-tail:]...)
		overlap = tail
	}

	for _, sentence := range sentences {
		tokens := strings.Fields(sentence)
		if len(tokens) == 0 {
			continue
		}

		// An oversized sentence becomes its own chunk rather than
		// splitting mid-sentence.
		if len(tokens) > c.maxTokens {
			flush()
			if overlap > 0 {
				tokens = append(current, tokens...)
			}
			seq := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:            domain.ChunkID(doc.ID, seq),
				DocumentID:    doc.ID,
				SequenceIndex: seq,
				Text:          strings.Join(tokens, " "),
				TokenCount:    len(tokens),
				OverlapTokens: overlap,
			})
			current = nil
			overlap = 0
			continue
		}

		if len(current)+len(tokens) > c.maxTokens {
			flush()
			// A near-budget sentence leaves no room for the full
			// overlap seed. Trim the seed so the chunk stays within
			// the token budget.
			if len(current)+len(tokens) > c.maxTokens {
				keep := c.maxTokens - len(tokens)
				current = current[len(current)-keep:]
				overlap = keep
			}
		}
		current = append(current, tokens...)
	}

	// Flush the trailing chunk without seeding another.
	if len(current) > overlap {
		seq := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:            domain.ChunkID(doc.ID, seq),
			DocumentID:    doc.ID,
			SequenceIndex: seq,
			Text:          strings.Join(current, " "),
			TokenCount:    len(current),
			OverlapTokens: overlap,
		})
	}

	return chunks
}

// splitSentences breaks content into sentences, keeping terminal
// punctuation with its sentence.
func splitSentences(content string) []string {
	var sentences []string
	rest := content
	for {
		loc := sentenceEnd.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		// End of the sentence includes the punctuation group when it
		// matched, otherwise the split is at the newline.
		end := loc[1]
		cut := end
		if loc[2] >= 0 {
			cut = loc[3]
		} else if loc[6] >= 0 {
			cut = loc[6]
		}
		if s := strings.TrimSpace(rest[:cut]); s != "" {
			sentences = append(sentences, s)
		}
		rest = rest[end:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
