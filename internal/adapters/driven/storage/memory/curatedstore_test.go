package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

func testExample(id, category string, createdAt time.Time) *domain.CuratedExample {
	return &domain.CuratedExample{
		ID:           id,
		Category:     category,
		Content:      "That trade was highway robbery and everyone knew it.",
		Context:      "after the 2019 deadline deal",
		Participants: []string{"Mike Jones"},
		QualityScore: 8,
		CreatedAt:    createdAt,
	}
}

func TestCuratedStore_SaveAndGet(t *testing.T) {
	store := NewCuratedStore()
	ctx := context.Background()

	example := testExample("ex-1", "roast", time.Now())
	require.NoError(t, store.SaveCuratedExample(ctx, example))

	got, err := store.GetCuratedExample(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, example.Content, got.Content)
	assert.Equal(t, 8, got.QualityScore)
}

func TestCuratedStore_SaveRejectsInvalid(t *testing.T) {
	store := NewCuratedStore()
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		example := testExample("ex-1", "roast", time.Now())
		example.Content = ""
		assert.ErrorIs(t, store.SaveCuratedExample(ctx, example), domain.ErrInvalidInput)
	})

	t.Run("score out of bounds", func(t *testing.T) {
		example := testExample("ex-1", "roast", time.Now())
		example.QualityScore = 11
		assert.ErrorIs(t, store.SaveCuratedExample(ctx, example), domain.ErrInvalidInput)
	})
}

func TestCuratedStore_ListByCategory(t *testing.T) {
	store := NewCuratedStore()
	ctx := context.Background()

	base := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveCuratedExample(ctx, testExample("ex-1", "roast", base)))
	require.NoError(t, store.SaveCuratedExample(ctx, testExample("ex-2", "recap", base.Add(time.Hour))))
	require.NoError(t, store.SaveCuratedExample(ctx, testExample("ex-3", "roast", base.Add(2*time.Hour))))

	all, err := store.ListCuratedExamples(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ex-3", all[0].ID, "newest first")

	roasts, err := store.ListCuratedExamples(ctx, "roast")
	require.NoError(t, err)
	assert.Len(t, roasts, 2)
}

func TestCuratedStore_UpdateScore(t *testing.T) {
	store := NewCuratedStore()
	ctx := context.Background()

	require.NoError(t, store.SaveCuratedExample(ctx, testExample("ex-1", "roast", time.Now())))
	require.NoError(t, store.UpdateCuratedScore(ctx, "ex-1", 3))

	got, err := store.GetCuratedExample(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.QualityScore)

	assert.ErrorIs(t, store.UpdateCuratedScore(ctx, "ex-1", 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.UpdateCuratedScore(ctx, "missing", 5), domain.ErrNotFound)
}
