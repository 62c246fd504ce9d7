package port

import (
	"context"

	"aoi-workspace/internal/domain/entity"
)

// CatalogSource источник списка известных деталей
type CatalogSource interface {
	// ListParts возвращает детали в порядке, заданном сервисом
	ListParts(ctx context.Context) ([]entity.CatalogEntry, error)
}

// Inspector удалённый сервис инспекции
type Inspector interface {
	// Inspect отправляет изображение с параметрами и возвращает разобранный ответ
	Inspect(ctx context.Context, req *entity.InspectionRequest) (*entity.InspectionResult, error)
}
