// Package memory provides in-memory storage implementations, used by
// tests and as the reference semantics for the SQLite store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// UpsertDocument stores or replaces a document and its chunks under
// one lock acquisition, so readers never see a half-updated pair.
func (s *DocumentStore) UpsertDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	s.chunks[doc.ID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// UpsertChunks replaces stored chunk rows by id. Chunks for unknown
// documents are rejected.
func (s *DocumentStore) UpsertChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		stored, ok := s.chunks[chunk.DocumentID]
		if !ok {
			return domain.ErrNotFound
		}
		replaced := false
		for i := range stored {
			if stored[i].ID == chunk.ID {
				stored[i] = chunk
				replaced = true
				break
			}
		}
		if !replaced {
			return domain.ErrNotFound
		}
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunks retrieves a document's chunks in sequence order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	chunks := append([]domain.Chunk(nil), stored...)
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].SequenceIndex < chunks[j].SequenceIndex
	})
	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// Query returns documents matching the filter, ordered by id for
// deterministic output.
func (s *DocumentStore) Query(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if matchesFilter(doc, filter) {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ListChunks returns every stored chunk.
func (s *DocumentStore) ListChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunks := range s.chunks {
		result = append(result, chunks...)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// matchesFilter applies the zero-value-means-any filter semantics.
func matchesFilter(doc domain.Document, filter domain.DocumentFilter) bool {
	if filter.Source != "" && doc.Source != filter.Source {
		return false
	}
	if filter.ContentType != nil {
		if doc.ContentType == nil || *doc.ContentType != *filter.ContentType {
			return false
		}
	}
	if filter.Season != nil {
		if doc.Season == nil || *doc.Season != *filter.Season {
			return false
		}
	}
	if filter.After != nil || filter.Before != nil {
		if doc.CreatedAt == nil {
			return false
		}
		if filter.After != nil && doc.CreatedAt.Before(*filter.After) {
			return false
		}
		if filter.Before != nil && doc.CreatedAt.After(*filter.Before) {
			return false
		}
	}
	return true
}
