package container

import (
	"github.com/rs/zerolog"

	app "aoi-workspace/internal/application"
	"aoi-workspace/internal/domain/entity"
	"aoi-workspace/internal/domain/port"
	"aoi-workspace/internal/infrastructure/storage"
)

type Container struct {
	CatalogService   *app.CatalogService
	WorkspaceService *app.WorkspaceService
	Sessions         port.SessionRepository
}

// New собирает сервисы. Новая сессия получает defaults, а деталь — из каталога,
// если в defaults она не задана.
func New(
	catalog port.CatalogSource,
	inspector port.Inspector,
	compositor port.OverlayCompositor,
	defaults entity.InspectionParameters,
	log zerolog.Logger,
) *Container {
	catalogService := app.NewCatalogService(catalog, log.With().Str("component", "catalog").Logger())

	sessions := storage.NewMemorySessionRepository(func() entity.InspectionParameters {
		params := defaults
		if params.PartID == "" {
			params.PartID = catalogService.Catalog().DefaultPartID()
		}
		return params
	})

	workspaceService := app.NewWorkspaceService(sessions, inspector, compositor, log.With().Str("component", "workspace").Logger())

	return &Container{
		CatalogService:   catalogService,
		WorkspaceService: workspaceService,
		Sessions:         sessions,
	}
}
