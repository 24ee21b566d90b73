package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a file whose format no parser handles.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrParseRecord indicates a single malformed record inside an
	// otherwise readable file. The record is skipped and counted;
	// parsing of the file continues.
	ErrParseRecord = errors.New("malformed record")

	// ErrFileUnreadable indicates a whole source file that cannot be
	// read or parsed. The file is skipped and counted; the batch continues.
	ErrFileUnreadable = errors.New("file unreadable")

	// ErrTimestampAmbiguous indicates a record timestamp that could not
	// be parsed. Non-fatal: the document is kept with a nil timestamp
	// and flagged for manual review.
	ErrTimestampAmbiguous = errors.New("timestamp ambiguous")

	// ErrClassifierUnavailable indicates the classification capability
	// failed after retries. The document proceeds labelled "other".
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrEmbeddingUnavailable indicates the embedding capability failed
	// after retries. The chunk proceeds unembedded and stays retrievable
	// via the lexical index only.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRosterInvalid indicates malformed roster configuration.
	// Fatal at startup.
	ErrRosterInvalid = errors.New("roster configuration invalid")

	// ErrStoreUnavailable indicates the document store cannot be opened
	// or written. Fatal at startup.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
