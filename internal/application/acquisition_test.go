package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"

	"aoi-workspace/internal/domain/entity"
)

// forgePNGSize переписывает размер в IHDR, оставляя пиксельные данные от исходного файла.
func forgePNGSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	// 8 байт сигнатуры, 4 байта длины, "IHDR", затем ширина и высота.
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage("chip.png", pngBytes(t, 30, 20), entity.SourceDrop)
	require.NoError(t, err)
	require.Equal(t, 30, img.Width)
	require.Equal(t, 20, img.Height)
	require.Equal(t, "png", img.Format)
	require.Equal(t, entity.SourceDrop, img.Source)
}

func TestDecodeImage_RejectsHugeHeader(t *testing.T) {
	forged := forgePNGSize(t, pngBytes(t, 1, 1), 60000, 60000)

	_, err := DecodeImage("huge.png", forged, entity.SourceChooser)
	require.ErrorIs(t, err, entity.ErrImageDecode)
}

func TestDecodeImage_RejectsMissingPixelData(t *testing.T) {
	// Размер в пределах лимита, но данных на такой размер нет.
	forged := forgePNGSize(t, pngBytes(t, 1, 1), 2000, 2000)

	_, err := DecodeImage("short.png", forged, entity.SourceChooser)
	require.ErrorIs(t, err, entity.ErrImageDecode)
}

func TestDecodeImage_RejectsTruncatedJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 64, 64)), nil))
	data := buf.Bytes()

	_, err := DecodeImage("cut.jpg", data[:len(data)/2], entity.SourceChooser)
	require.ErrorIs(t, err, entity.ErrImageDecode)
}

func TestWorkspace_HugeHeaderLeavesSessionWithoutImage(t *testing.T) {
	svc := newTestWorkspace(&stubInspector{})
	ctx := context.Background()

	_, err := svc.AcceptImage(ctx, 1, "ok.png", pngBytes(t, 10, 10), entity.SourceChooser)
	require.NoError(t, err)

	forged := forgePNGSize(t, pngBytes(t, 1, 1), 60000, 60000)
	_, err = svc.AcceptImage(ctx, 1, "huge.png", forged, entity.SourceChooser)
	require.ErrorIs(t, err, entity.ErrImageDecode)

	s, _ := svc.Session(ctx, 1)
	require.Nil(t, s.Image())
	s.WithOverlay(func(o *entity.Overlay) {
		w, h := o.Size()
		require.Zero(t, w)
		require.Zero(t, h)
	})
}
