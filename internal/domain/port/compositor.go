package port

import "aoi-workspace/internal/domain/entity"

// OverlayCompositor накладывает слой с рамкой на исходное изображение
type OverlayCompositor interface {
	// Compose возвращает JPEG исходника с нарисованной рамкой
	Compose(imageData []byte, overlay *entity.Overlay) ([]byte, error)
}
