// Package region implements the overlap and delta algebra between two
// viewports: the pan-only overlap (bit-exact, computed by replaying the
// same floating-point accumulation the draw loop uses) and the general,
// zoom-aware overlap (an affine-transform-and-clamp approximation), plus
// the ImageDelta that tiles a new image's complement of the overlap into
// disjoint "b-only" rectangles.
package region

import (
	"math"

	"github.com/oriys/newtonfractal/internal/domain"
)

// Rect is a half-open rectangle in pixel space: [XMin, XMax) x [YMin, YMax).
type Rect struct {
	XMin, XMax, YMin, YMax int
}

// Width returns x_max - x_min.
func (r Rect) Width() int { return r.XMax - r.XMin }

// Height returns y_max - y_min.
func (r Rect) Height() int { return r.YMax - r.YMin }

// CountPixels returns the pixel area of the rectangle.
func (r Rect) CountPixels() int { return r.Width() * r.Height() }

// Empty reports whether the rectangle has zero area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Overlap is a correspondence between a region of image a and a region
// of image b, expressed as one rectangle in each image's own pixel
// space.
type Overlap struct {
	ARegion Rect
	BRegion Rect
}

// Delta describes how to produce image b given image a: an optional
// overlap to copy, plus the rectangles unique to b that must be freshly
// rendered.
type Delta struct {
	Overlap *Overlap
	BOnly   []Rect
}

// rangeOverlap computes the 1-D overlap between two axes starting at
// aMin and bMin with the given step, over numPixels steps, by replaying
// the same accumulating addition the draw loop uses. This reproduces the
// exact floating-point drift of the renderer so overlapping pixels are
// bit-identical to a fresh render — no seams from a simplified formula.
func rangeOverlap(aMin, bMin, step float64, numPixels int) (aOff, bOff, extent int, ok bool) {
	start := math.Min(aMin, bMin)
	end := math.Max(aMin, bMin)

	offset := 0
	curr := start
	prev := start
	for offset < numPixels && curr < end {
		offset++
		prev = curr
		curr += step
	}
	if offset > 0 && math.Abs(end-prev) < math.Abs(end-curr) {
		offset--
	}
	if offset == numPixels {
		return 0, 0, 0, false
	}

	if aMin < bMin {
		return offset, 0, numPixels - offset, true
	}
	return 0, offset, numPixels - offset, true
}

// PanOnlyOverlap computes the bit-exact overlap between a and b, which
// must satisfy domain.PanOnlyDiffer. Returns ok=false if there is no
// overlap at all.
func PanOnlyOverlap(a, b domain.Params) (Overlap, bool) {
	step := a.RDelta()

	rAOff, rBOff, rExtent, ok := rangeOverlap(a.RMin, b.RMin, step, a.Width)
	if !ok {
		return Overlap{}, false
	}
	iAOff, iBOff, iExtent, ok := rangeOverlap(a.IMin, b.IMin, step, a.Height)
	if !ok {
		return Overlap{}, false
	}

	height := a.Height
	return Overlap{
		ARegion: Rect{
			XMin: rAOff, XMax: rAOff + rExtent,
			YMin: height - iAOff - iExtent, YMax: height - iAOff,
		},
		BRegion: Rect{
			XMin: rBOff, XMax: rBOff + rExtent,
			YMin: height - iBOff - iExtent, YMax: height - iBOff,
		},
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// xOfR maps a real coordinate into p's pixel-x space.
func xOfR(p domain.Params, r float64) float64 {
	return (r - p.RMin) / p.RDelta()
}

// yOfI maps an imaginary coordinate into p's pixel-y space. y and i run
// in opposite directions: the top row (y=0) has the highest i.
func yOfI(p domain.Params, i float64) float64 {
	return float64(p.Height) - (i-p.IMin)/p.RDelta()
}

// GeneralOverlap computes the overlap between a and b when the viewport
// may have zoomed as well as panned: a's full rectangle is mapped into
// b's coordinate space via the affine transform implied by each's
// viewport, clamped to b's bounds, then round-tripped back to a's space
// and clamped again. Returns ok=false if either side's rectangle has
// zero area.
func GeneralOverlap(a, b domain.Params) (Overlap, bool) {
	rMinA, rMaxA := a.RMin, a.RMin+a.RRange
	iMinA, iMaxA := a.IMin, a.IMin+a.IRange()

	bx0 := clamp(xOfR(b, rMinA), 0, float64(b.Width))
	bx1 := clamp(xOfR(b, rMaxA), 0, float64(b.Width))
	by0 := clamp(yOfI(b, iMaxA), 0, float64(b.Height))
	by1 := clamp(yOfI(b, iMinA), 0, float64(b.Height))

	bRect := Rect{
		XMin: int(math.Round(bx0)), XMax: int(math.Round(bx1)),
		YMin: int(math.Round(by0)), YMax: int(math.Round(by1)),
	}
	if bRect.Empty() {
		return Overlap{}, false
	}

	rMinB := b.RMin + float64(bRect.XMin)*b.RDelta()
	rMaxB := b.RMin + float64(bRect.XMax)*b.RDelta()
	iMaxB := b.IMin + (float64(b.Height)-float64(bRect.YMin))*b.RDelta()
	iMinB := b.IMin + (float64(b.Height)-float64(bRect.YMax))*b.RDelta()

	ax0 := clamp(xOfR(a, rMinB), 0, float64(a.Width))
	ax1 := clamp(xOfR(a, rMaxB), 0, float64(a.Width))
	ay0 := clamp(yOfI(a, iMaxB), 0, float64(a.Height))
	ay1 := clamp(yOfI(a, iMinB), 0, float64(a.Height))

	aRect := Rect{
		XMin: int(math.Round(ax0)), XMax: int(math.Round(ax1)),
		YMin: int(math.Round(ay0)), YMax: int(math.Round(ay1)),
	}
	if aRect.Empty() {
		return Overlap{}, false
	}

	// At an unchanged scale, independent rounding can leave the two
	// rectangles off by a pixel; trim both to their common size then. A
	// zoom gives the two rectangles legitimately different sizes, which
	// are kept so that they still cover the same part of the plane.
	dw, dh := aRect.Width()-bRect.Width(), aRect.Height()-bRect.Height()
	if dw >= -1 && dw <= 1 && dh >= -1 && dh <= 1 {
		w := min(aRect.Width(), bRect.Width())
		h := min(aRect.Height(), bRect.Height())
		aRect.XMax, aRect.YMax = aRect.XMin+w, aRect.YMin+h
		bRect.XMax, bRect.YMax = bRect.XMin+w, bRect.YMin+h
	}

	return Overlap{ARegion: aRect, BRegion: bRect}, true
}

// ComputeDelta builds the Delta for a draw of b given the overlap found
// between a and b (pan-only or general; both produce a BRegion in b's
// pixel space). If overlap is nil, the whole of b is unique.
func ComputeDelta(overlap *Overlap, bWidth, bHeight int) Delta {
	if overlap == nil {
		return Delta{BOnly: []Rect{{XMin: 0, XMax: bWidth, YMin: 0, YMax: bHeight}}}
	}

	bRegion := overlap.BRegion
	var bOnly []Rect
	if bRegion.XMin > 0 {
		bOnly = append(bOnly, Rect{XMin: 0, XMax: bRegion.XMin, YMin: 0, YMax: bHeight})
	}
	if bRegion.XMax < bWidth {
		bOnly = append(bOnly, Rect{XMin: bRegion.XMax, XMax: bWidth, YMin: 0, YMax: bHeight})
	}
	if bRegion.YMin > 0 {
		bOnly = append(bOnly, Rect{XMin: bRegion.XMin, XMax: bRegion.XMax, YMin: 0, YMax: bRegion.YMin})
	}
	if bRegion.YMax < bHeight {
		bOnly = append(bOnly, Rect{XMin: bRegion.XMin, XMax: bRegion.XMax, YMin: bRegion.YMax, YMax: bHeight})
	}

	return Delta{Overlap: overlap, BOnly: bOnly}
}
