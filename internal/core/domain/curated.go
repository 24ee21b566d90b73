package domain

import "time"

// Quality score bounds for curated examples.
const (
	MinQualityScore = 1
	MaxQualityScore = 10
)

// CuratedExample is a hand-picked style exemplar. It is created only
// by explicit human action, never derived from ingested documents, and
// is immutable once created except for quality score edits. Curated
// examples feed the downstream generation step directly; the retriever
// never returns them.
type CuratedExample struct {
	// ID is the unique identifier.
	ID string

	// Category is a free-form grouping label (e.g. "roast", "recap").
	Category string

	// Content is the exemplar text itself.
	Content string

	// Context is free text describing when/why the exemplar landed.
	Context string

	// Participants are the people the exemplar concerns.
	Participants []string

	// QualityScore rates the exemplar, bounded to [1, 10].
	QualityScore int

	// CreatedAt is when the example was curated.
	CreatedAt time.Time
}

// Validate checks the example's required fields and score bounds.
func (e CuratedExample) Validate() error {
	if e.Content == "" || e.Category == "" {
		return ErrInvalidInput
	}
	if e.QualityScore < MinQualityScore || e.QualityScore > MaxQualityScore {
		return ErrInvalidInput
	}
	return nil
}
