package driven

import (
	"context"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// Parser turns one source file into a lazy sequence of raw records.
// Parsing is deterministic and side-effect-free: re-parsing the same
// file yields the same records.
//
// Records arrive on the first channel; per-record failures arrive on
// the second as domain.ErrParseRecord wraps and do not stop the file.
// A failure that aborts the whole file is sent as a domain.ErrFileUnreadable
// wrap. Both channels are closed when the file is exhausted.
type Parser interface {
	// Format returns the source format this parser produces.
	Format() domain.SourceFormat

	// Extensions returns the file extensions this parser handles
	// (lower-case, with leading dot).
	Extensions() []string

	// Parse streams raw records from the file at path.
	Parse(ctx context.Context, path string) (<-chan domain.RawRecord, <-chan error)
}
