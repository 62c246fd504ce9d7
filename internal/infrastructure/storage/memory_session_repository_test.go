package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"aoi-workspace/internal/domain/entity"
)

func TestMemorySessionRepository_GetCreatesWithDefaults(t *testing.T) {
	repo := NewMemorySessionRepository(func() entity.InspectionParameters {
		return entity.InspectionParameters{PartID: "lm358", PSM: "7"}
	})
	ctx := context.Background()

	s, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), s.ID)
	require.Equal(t, "lm358", s.Parameters().PartID)

	again, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	require.Same(t, s, again)
}

func TestMemorySessionRepository_Delete(t *testing.T) {
	repo := NewMemorySessionRepository(nil)
	ctx := context.Background()

	s, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, 1))

	fresh, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotSame(t, s, fresh)
}
