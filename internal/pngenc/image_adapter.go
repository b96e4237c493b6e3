package pngenc

import (
	"image"
	"image/color"

	"github.com/oriys/newtonfractal/internal/domain"
)

// rgbImageAdapter satisfies image.Image over an *domain.RGBImage without
// copying pixel data, so the standard library's png.Encode can consume
// it directly.
type rgbImageAdapter struct {
	img *domain.RGBImage
}

func (a *rgbImageAdapter) ColorModel() color.Model { return color.RGBAModel }

func (a *rgbImageAdapter) Bounds() image.Rectangle {
	return image.Rect(0, 0, a.img.Width, a.img.Height)
}

func (a *rgbImageAdapter) At(x, y int) color.Color {
	r, g, b := a.img.At(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
