// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// Driven ports are what the core needs from the outside world: format
// parsers, the document store, the two retrieval indexes, and the
// external capabilities (embedding, classification). Adapters under
// internal/adapters/driven and internal/parsers implement them.
package driven
