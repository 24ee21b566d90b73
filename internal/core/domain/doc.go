// Package domain defines the core business entities for Leaguelore.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawRecord: A single parsed record from a source file, pre-canonicalisation
//   - Document: The canonical unit of the corpus (one note, thread or episode)
//   - Chunk: A bounded sub-span of a document, the unit indexed for retrieval
//   - CuratedExample: A hand-picked style exemplar, independent of the corpus
//   - Roster: The league member alias table loaded at startup
//   - IngestReport: Per-run accounting of what was ingested and what failed
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
