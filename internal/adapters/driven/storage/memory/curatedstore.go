package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
)

// Ensure CuratedStore implements the interface.
var _ driven.CuratedStore = (*CuratedStore)(nil)

// CuratedStore is an in-memory implementation of driven.CuratedStore.
type CuratedStore struct {
	mu       sync.RWMutex
	examples map[string]domain.CuratedExample
}

// NewCuratedStore creates a new in-memory curated example store.
func NewCuratedStore() *CuratedStore {
	return &CuratedStore{
		examples: make(map[string]domain.CuratedExample),
	}
}

// SaveCuratedExample stores a new example after validation.
func (s *CuratedStore) SaveCuratedExample(_ context.Context, example *domain.CuratedExample) error {
	if err := example.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.examples[example.ID] = *example
	return nil
}

// GetCuratedExample retrieves an example by ID.
func (s *CuratedStore) GetCuratedExample(_ context.Context, id string) (*domain.CuratedExample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	example, ok := s.examples[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &example, nil
}

// ListCuratedExamples returns examples, newest first. An empty
// category means all.
func (s *CuratedStore) ListCuratedExamples(_ context.Context, category string) ([]domain.CuratedExample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.CuratedExample
	for id := range s.examples {
		example := s.examples[id]
		if category != "" && example.Category != category {
			continue
		}
		result = append(result, example)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateCuratedScore edits an example's quality score.
func (s *CuratedStore) UpdateCuratedScore(_ context.Context, id string, score int) error {
	if score < domain.MinQualityScore || score > domain.MaxQualityScore {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	example, ok := s.examples[id]
	if !ok {
		return domain.ErrNotFound
	}
	example.QualityScore = score
	s.examples[id] = example
	return nil
}
