//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"aoi-workspace/internal/domain/entity"
)

func grayPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompositor_DrawsBoxAtSourceCoordinates(t *testing.T) {
	src := grayPNG(t, 200, 100)
	overlay := entity.NewOverlay()
	overlay.Resize(200, 100)
	overlay.DrawBBox(&entity.BBox{50, 20, 100, 60})

	out, err := NewCompositor().Compose(src, overlay)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 100, img.Bounds().Dy())

	// Левая граница рамки заметно синее фона, фон вне рамки остаётся серым.
	r, _, b, _ := img.At(51, 50).RGBA()
	require.Greater(t, b, r)
	r, _, b, _ = img.At(10, 10).RGBA()
	require.InDelta(t, float64(r), float64(b), 2000)
}

func TestCompositor_SizeMismatch(t *testing.T) {
	overlay := entity.NewOverlay()
	overlay.Resize(10, 10)

	_, err := NewCompositor().Compose(grayPNG(t, 20, 20), overlay)
	require.Error(t, err)
}

func TestCompositor_InvalidImage(t *testing.T) {
	_, err := NewCompositor().Compose([]byte("not an image"), entity.NewOverlay())
	require.Error(t, err)
}
