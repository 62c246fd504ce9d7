package app

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"aoi-workspace/internal/domain/entity"
)

// MaxImagePixels ограничивает площадь изображения: буфер слоя занимает 4 байта на пиксель.
const MaxImagePixels = 40_000_000

// DecodeImage полностью декодирует изображение и узнаёт его собственный размер.
// Изображение считается загруженным только после успешного декодирования.
func DecodeImage(name string, data []byte, source entity.ImageSource) (*entity.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", entity.ErrImageDecode)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero size", entity.ErrImageDecode)
	}
	// Заголовок проверяется до декодирования, иначе размер из него уйдёт в аллокацию.
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", entity.ErrImageDecode, cfg.Width, cfg.Height, MaxImagePixels)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != cfg.Width || bounds.Dy() != cfg.Height {
		return nil, fmt.Errorf("%w: header %dx%d, pixels %dx%d", entity.ErrImageDecode, cfg.Width, cfg.Height, bounds.Dx(), bounds.Dy())
	}

	return &entity.Image{
		Name:   name,
		Data:   data,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Source: source,
	}, nil
}
