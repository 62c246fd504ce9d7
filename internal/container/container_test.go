package container

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"aoi-workspace/internal/domain/entity"
)

type partsSource []entity.CatalogEntry

func (p partsSource) ListParts(ctx context.Context) ([]entity.CatalogEntry, error) {
	return p, nil
}

func TestNew_SessionDefaultsFollowCatalog(t *testing.T) {
	c := New(partsSource{{PartID: "ne555"}, {PartID: "lm358"}}, nil, nil,
		entity.InspectionParameters{PSM: "6", Adaptive: true}, zerolog.Nop())
	ctx := context.Background()

	c.CatalogService.Load(ctx)

	s, err := c.WorkspaceService.Session(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "ne555", s.Parameters().PartID)
	require.Equal(t, "6", s.Parameters().PSM)
}

func TestNew_ExplicitDefaultPartWins(t *testing.T) {
	c := New(partsSource{{PartID: "ne555"}}, nil, nil,
		entity.InspectionParameters{PartID: "custom"}, zerolog.Nop())
	ctx := context.Background()
	c.CatalogService.Load(ctx)

	s, err := c.Sessions.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "custom", s.Parameters().PartID)
}
