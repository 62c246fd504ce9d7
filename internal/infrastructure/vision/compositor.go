//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"aoi-workspace/internal/domain/entity"
)

// Compositor накладывает слой средствами image/draw (сборка без тега gocv).
type Compositor struct {
	Quality int
}

// NewCompositor создаёт компоновщик с качеством JPEG 90.
func NewCompositor() *Compositor {
	return &Compositor{Quality: jpegQuality}
}

// Compose рисует буфер слоя поверх исходника один к одному и кодирует JPEG.
func (c *Compositor) Compose(imageData []byte, overlay *entity.Overlay) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}
	if err := checkSize(src.Bounds(), overlay); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	draw.Draw(dst, dst.Bounds(), overlay.Buffer(), image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
