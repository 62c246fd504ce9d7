//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"gocv.io/x/gocv"

	"aoi-workspace/internal/domain/entity"
)

// Compositor накладывает рамку средствами OpenCV.
type Compositor struct {
	Quality int
}

// NewCompositor создаёт компоновщик с качеством JPEG 90.
func NewCompositor() *Compositor {
	return &Compositor{Quality: jpegQuality}
}

// Compose рисует рамку слоя поверх исходника и кодирует JPEG.
func (c *Compositor) Compose(imageData []byte, overlay *entity.Overlay) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if err := checkSize(image.Rect(0, 0, mat.Cols(), mat.Rows()), overlay); err != nil {
		return nil, err
	}

	if box := overlay.Box(); box != nil {
		rect := box.Rect().Intersect(image.Rect(0, 0, mat.Cols(), mat.Rows()))
		if !rect.Empty() {
			// Полупрозрачная заливка: смешиваем область с цветом рамки.
			roi := mat.Region(rect)
			fill := gocv.NewMatWithSizeFromScalar(
				gocv.NewScalar(float64(entity.StrokeColor.B), float64(entity.StrokeColor.G), float64(entity.StrokeColor.R), 0),
				rect.Dy(), rect.Dx(), gocv.MatTypeCV8UC3)
			gocv.AddWeighted(roi, 1-fillAlpha, fill, fillAlpha, 0, &roi)
			fill.Close()
			roi.Close()

			gocv.Rectangle(&mat, rect, entity.StrokeColor, overlay.StrokeWidth())
		}
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}
