package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driving"
)

// Ensure CuratedExampleService implements the interface.
var _ driving.CuratedService = (*CuratedExampleService)(nil)

// CuratedExampleService manages hand-curated style exemplars. These
// are created by explicit human action only and never touched by
// ingestion or retrieval.
type CuratedExampleService struct {
	store driven.CuratedStore
}

// NewCuratedExampleService creates the service.
func NewCuratedExampleService(store driven.CuratedStore) *CuratedExampleService {
	return &CuratedExampleService{store: store}
}

// Add creates a new curated example. The ID and creation time are
// assigned here; a caller-supplied ID is ignored.
func (s *CuratedExampleService) Add(ctx context.Context, example domain.CuratedExample) (*domain.CuratedExample, error) {
	example.ID = uuid.New().String()
	if example.CreatedAt.IsZero() {
		example.CreatedAt = time.Now().UTC()
	}
	if err := example.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.SaveCuratedExample(ctx, &example); err != nil {
		return nil, fmt.Errorf("saving curated example: %w", err)
	}
	return &example, nil
}

// List returns curated examples, newest first, optionally filtered by
// category.
func (s *CuratedExampleService) List(ctx context.Context, category string) ([]domain.CuratedExample, error) {
	return s.store.ListCuratedExamples(ctx, category)
}

// Score edits an example's quality score, the only permitted mutation
// after creation.
func (s *CuratedExampleService) Score(ctx context.Context, id string, score int) error {
	return s.store.UpdateCuratedScore(ctx, id, score)
}
