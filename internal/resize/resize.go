// Package resize implements the two image operations the incremental
// draw and the asynchronous handler's layout stage need: an exact
// rectangle copy between two RGBImages, and a fixed-point bilinear
// resize used for the "approximate layout" fallback when only the
// viewport changed.
package resize

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/region"
)

// CopyImage blits the pixels of fromRect in `from` onto toRect in `to`.
// The two rectangles must have equal dimensions; this is the disjoint,
// lock-free write the incremental draw's copy task performs.
func CopyImage(from, to *domain.RGBImage, fromRect, toRect region.Rect) {
	fromY, toY := fromRect.YMin, toRect.YMin
	for ; fromY < fromRect.YMax; fromY, toY = fromY+1, toY+1 {
		fromX, toX := fromRect.XMin, toRect.XMin
		for ; fromX < fromRect.XMax; fromX, toX = fromX+1, toX+1 {
			r, g, b := from.At(fromX, fromY)
			to.Set(toX, toY, r, g, b)
		}
	}
}

const (
	fixedFactor = 2048
	fixedShift  = 11
)

type intRGB struct{ r, g, b int }

func fromByte(r, g, b byte) intRGB { return intRGB{int(r), int(g), int(b)} }

func (p intRGB) add(o intRGB) intRGB   { return intRGB{p.r + o.r, p.g + o.g, p.b + o.b} }
func (p intRGB) scale(k int) intRGB    { return intRGB{p.r * k, p.g * k, p.b * k} }
func (p intRGB) shift(k int) intRGB    { return intRGB{p.r >> k, p.g >> k, p.b >> k} }
func (p intRGB) bytes() (r, g, b byte) { return byte(p.r), byte(p.g), byte(p.b) }

// ResizeBilinear resamples fromRect of `from` into toRect of `to` using
// fixed-point bilinear interpolation. Pixels of `to` outside toRect, or
// whose source sample would fall outside `from`'s bounds, are left
// untouched — this is the "approximate layout" used while a fresh render
// is still in flight, so partial coverage is expected and the caller
// relies on `to` having already been initialized (e.g. via CopyImage, or
// as a freshly zeroed frame).
func ResizeBilinear(from, to *domain.RGBImage, fromRect, toRect region.Rect) {
	if toRect.Width() <= 0 || toRect.Height() <= 0 {
		return
	}
	xScale := int(float64(fixedFactor)*float64(fromRect.Width())/float64(toRect.Width()) + 0.5)
	yScale := int(float64(fixedFactor)*float64(fromRect.Height())/float64(toRect.Height()) + 0.5)

	for y := 0; y < toRect.Height(); y++ {
		toY := y + toRect.YMin
		fromYFixed := y*yScale + fromRect.YMin*fixedFactor
		fromY0 := fromYFixed >> fixedShift
		fromYFrac := fromYFixed - (fromY0 << fixedShift)

		if fromY0 < 0 || fromY0+1 >= from.Height {
			continue
		}

		for x := 0; x < toRect.Width(); x++ {
			toX := x + toRect.XMin
			fromXFixed := x*xScale + fromRect.XMin*fixedFactor
			fromX0 := fromXFixed >> fixedShift
			fromXFrac := fromXFixed - (fromX0 << fixedShift)

			if fromX0 < 0 || fromX0+1 >= from.Width {
				continue
			}

			r00, g00, b00 := from.At(fromX0, fromY0)
			r01, g01, b01 := from.At(fromX0+1, fromY0)
			r10, g10, b10 := from.At(fromX0, fromY0+1)
			r11, g11, b11 := from.At(fromX0+1, fromY0+1)

			p00 := fromByte(r00, g00, b00).scale((fixedFactor - fromXFrac) * (fixedFactor - fromYFrac))
			p01 := fromByte(r01, g01, b01).scale(fromXFrac * (fixedFactor - fromYFrac))
			p10 := fromByte(r10, g10, b10).scale((fixedFactor - fromXFrac) * fromYFrac)
			p11 := fromByte(r11, g11, b11).scale(fromXFrac * fromYFrac)

			blend := p00.add(p01).add(p10).add(p11)
			blend = intRGB{
				r: blend.r + fixedFactor*fixedFactor/2,
				g: blend.g + fixedFactor*fixedFactor/2,
				b: blend.b + fixedFactor*fixedFactor/2,
			}.shift(2 * fixedShift)

			r, g, b := blend.bytes()
			to.Set(toX, toY, r, g, b)
		}
	}
}

// ResizeFull resizes the whole of `from` to exactly fill `to` using
// golang.org/x/image/draw's general-purpose bilinear scaler. Unlike
// ResizeBilinear (which implements the original fixed-point algorithm
// exactly, for the overlap-region layout path where matching behavior
// matters), this is used where only a correct, good-quality resize is
// needed and no particular numeric scheme is being preserved — e.g. a
// debug/preview endpoint rendering a thumbnail of a saved image.
func ResizeFull(from *domain.RGBImage, toWidth, toHeight int) *domain.RGBImage {
	src := image.NewRGBA(image.Rect(0, 0, from.Width, from.Height))
	for y := 0; y < from.Height; y++ {
		for x := 0; x < from.Width; x++ {
			r, g, b := from.At(x, y)
			src.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, toWidth, toHeight))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)

	out := domain.NewRGBImage(toWidth, toHeight)
	for y := 0; y < toHeight; y++ {
		for x := 0; x < toWidth; x++ {
			c := dst.RGBAAt(x, y)
			out.Set(x, y, c.R, c.G, c.B)
		}
	}
	return out
}
