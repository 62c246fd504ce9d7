package vision

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"aoi-workspace/internal/domain/entity"
	"aoi-workspace/internal/domain/port"
)

const (
	jpegQuality = 90
	fillAlpha   = 0.15
)

// checkSize сверяет размер исходника с буфером слоя: координаты не масштабируются.
func checkSize(bounds image.Rectangle, overlay *entity.Overlay) error {
	w, h := overlay.Size()
	if bounds.Dx() != w || bounds.Dy() != h {
		return fmt.Errorf("overlay %dx%d does not match image %dx%d", w, h, bounds.Dx(), bounds.Dy())
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.OverlayCompositor = (*Compositor)(nil)
