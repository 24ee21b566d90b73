package domain

import "sync"

// ErrorKind names a non-fatal error category in the run report.
type ErrorKind string

// Non-fatal error kinds accumulated per ingest run.
const (
	ErrorKindParse                 ErrorKind = "parse_error"
	ErrorKindFile                  ErrorKind = "file_error"
	ErrorKindTimestampAmbiguous    ErrorKind = "timestamp_ambiguous"
	ErrorKindClassifierUnavailable ErrorKind = "classifier_unavailable"
	ErrorKindEmbeddingUnavailable  ErrorKind = "embedding_unavailable"
)

// IngestReport accumulates per-run counters. Ingestion of a personal
// archive must survive individually bad records, so non-fatal errors
// are counted here rather than aborting the batch. Safe for use from
// concurrent ingest workers.
type IngestReport struct {
	mu sync.Mutex

	// FilesProcessed and FilesSkipped count whole source files.
	FilesProcessed int
	FilesSkipped   int

	// DocumentsWritten and ChunksWritten count successful upserts.
	DocumentsWritten int
	ChunksWritten    int

	// Errors counts non-fatal errors by kind.
	Errors map[ErrorKind]int

	// NeedsReview lists document ids flagged for manual review
	// (currently: unparseable timestamps).
	NeedsReview []string
}

// NewIngestReport creates an empty report.
func NewIngestReport() *IngestReport {
	return &IngestReport{Errors: make(map[ErrorKind]int)}
}

// AddError increments the counter for kind.
func (r *IngestReport) AddError(kind ErrorKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors[kind]++
}

// AddFile records a processed or skipped file.
func (r *IngestReport) AddFile(skipped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if skipped {
		r.FilesSkipped++
	} else {
		r.FilesProcessed++
	}
}

// AddDocument records a written document and its chunk count.
func (r *IngestReport) AddDocument(chunks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DocumentsWritten++
	r.ChunksWritten += chunks
}

// FlagForReview marks a document id for manual review.
func (r *IngestReport) FlagForReview(documentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NeedsReview = append(r.NeedsReview, documentID)
}

// ErrorCount returns the total across all kinds.
func (r *IngestReport) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.Errors {
		total += n
	}
	return total
}

// Snapshot returns a copy safe to read while workers are still running.
func (r *IngestReport) Snapshot() IngestReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make(map[ErrorKind]int, len(r.Errors))
	for k, v := range r.Errors {
		errs[k] = v
	}
	review := make([]string, len(r.NeedsReview))
	copy(review, r.NeedsReview)
	return IngestReport{
		FilesProcessed:   r.FilesProcessed,
		FilesSkipped:     r.FilesSkipped,
		DocumentsWritten: r.DocumentsWritten,
		ChunksWritten:    r.ChunksWritten,
		Errors:           errs,
		NeedsReview:      review,
	}
}
