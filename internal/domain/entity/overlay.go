package entity

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

var (
	// StrokeColor — цвет рамки (#3b82f6).
	StrokeColor = color.RGBA{R: 59, G: 130, B: 246, A: 255}
	// FillColor — полупрозрачная заливка, rgba(59,130,246,0.15), premultiplied.
	FillColor = color.RGBA{R: 9, G: 20, B: 37, A: 38}
)

// Overlay — слой поверх изображения. Его буфер всегда совпадает с собственным
// размером изображения, а координаты рамки не масштабируются.
type Overlay struct {
	buf     *image.RGBA
	ready   bool
	visible bool
	box     *BBox

	presentW int
	presentH int
}

// NewOverlay создаёт пустой скрытый слой.
func NewOverlay() *Overlay {
	return &Overlay{buf: image.NewRGBA(image.Rect(0, 0, 0, 0))}
}

// Resize задаёт буфер ровно под размер исходника и показывает слой.
func (o *Overlay) Resize(naturalW, naturalH int) {
	if naturalW < 0 {
		naturalW = 0
	}
	if naturalH < 0 {
		naturalH = 0
	}
	o.buf = image.NewRGBA(image.Rect(0, 0, naturalW, naturalH))
	o.ready = naturalW > 0 && naturalH > 0
	o.visible = true
	o.box = nil
}

// SetPresentationSize запоминает экранный размер. На координаты не влияет.
func (o *Overlay) SetPresentationSize(w, h int) {
	o.presentW, o.presentH = w, h
}

// PresentationSize возвращает экранный размер.
func (o *Overlay) PresentationSize() (int, int) {
	return o.presentW, o.presentH
}

// Size возвращает размер внутреннего буфера.
func (o *Overlay) Size() (int, int) {
	b := o.buf.Bounds()
	return b.Dx(), b.Dy()
}

// Ready сообщает, декодировано ли изображение под слоем.
func (o *Overlay) Ready() bool { return o.ready }

// Visible сообщает, показан ли слой.
func (o *Overlay) Visible() bool { return o.visible }

// Box возвращает нарисованную рамку, если она есть.
func (o *Overlay) Box() *BBox {
	if o.box == nil {
		return nil
	}
	b := *o.box
	return &b
}

// Buffer возвращает внутренний буфер.
func (o *Overlay) Buffer() *image.RGBA { return o.buf }

// Clear стирает всё нарисованное.
func (o *Overlay) Clear() {
	draw.Draw(o.buf, o.buf.Bounds(), image.Transparent, image.Point{}, draw.Src)
	o.box = nil
}

// Hide очищает и прячет слой вместе с изображением.
func (o *Overlay) Hide() {
	o.buf = image.NewRGBA(image.Rect(0, 0, 0, 0))
	o.ready = false
	o.visible = false
	o.box = nil
}

// StrokeWidth растёт с разрешением слоя, но не меньше 2 пикселей.
func (o *Overlay) StrokeWidth() int {
	w, _ := o.Size()
	return StrokeWidthFor(w)
}

// StrokeWidthFor возвращает толщину рамки для буфера заданной ширины.
func StrokeWidthFor(width int) int {
	sw := int(math.Round(float64(width) / 400))
	if sw < 2 {
		return 2
	}
	return sw
}

// Rect переводит рамку в прямоугольник буфера без масштабирования.
func (b BBox) Rect() image.Rectangle {
	x := int(math.Round(b.X()))
	y := int(math.Round(b.Y()))
	w := int(math.Round(b.W()))
	h := int(math.Round(b.H()))
	return image.Rect(x, y, x+w, y+h)
}

// DrawBBox заменяет прежний рисунок рамкой в координатах исходника.
// Без рамки или до декодирования изображения ничего не делает.
func (o *Overlay) DrawBBox(box *BBox) {
	if box == nil || !o.ready {
		return
	}
	o.Clear()

	rect := box.Rect().Intersect(o.buf.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(o.buf, rect, image.NewUniform(FillColor), image.Point{}, draw.Over)

	// Рамка рисуется внутрь, чтобы закрашенная область совпадала с bbox.
	sw := o.StrokeWidth()
	stroke := image.NewUniform(StrokeColor)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+sw),
		image.Rect(rect.Min.X, rect.Max.Y-sw, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+sw, rect.Max.Y),
		image.Rect(rect.Max.X-sw, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(o.buf, e.Intersect(rect), stroke, image.Point{}, draw.Src)
	}

	b := *box
	o.box = &b
}
