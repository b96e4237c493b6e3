// Package pixelstream implements the row-major, y-decreasing pixel
// enumerator every draw strategy pulls from. It must produce exactly the
// same (r, i) accumulation order that internal/region's pan-only overlap
// computation assumes, or overlapping pixels would drift from a fresh
// render by a fraction of a step and show up as a visible seam.
package pixelstream

import "github.com/oriys/newtonfractal/internal/domain"

// Options bounds a Stream to a sub-rectangle of an image of the given
// width/height, with fixed per-pixel deltas and an origin. x ranges over
// [XMin, XMax); y ranges over [YMin, YMax) and is allowed to be negative
// since the stream decrements it.
type Options[T domain.Float] struct {
	RMin, IMin     T
	RDelta, IDelta T
	Width, Height  int

	XMin, XMax int
	YMin, YMax int
}

// FillMissing fills an Options whose x/y ranges were left at their zero
// value with "the whole image".
func (o *Options[T]) FillMissing() {
	if o.XMin == 0 && o.XMax == 0 {
		o.XMax = o.Width
	}
	if o.YMin == 0 && o.YMax == 0 {
		o.YMax = o.Height
	}
}

// Stream is a restartable, finite lazy pixel enumerator. Iteration is
// row-major with y decreasing, so the math coordinate i increases
// monotonically as the stream advances.
type Stream[T domain.Float] struct {
	opt Options[T]

	rStart T
	rCurr  T
	iCurr  T
	x      int
	y      int
}

// New returns a Stream over opt, positioned at its first pixel.
func New[T domain.Float](opt Options[T]) *Stream[T] {
	opt.FillMissing()

	s := &Stream[T]{opt: opt, rCurr: opt.RMin, iCurr: opt.IMin, x: 0, y: opt.Height - 1}

	for ; s.x < opt.XMin; s.x++ {
		s.rCurr += opt.RDelta
	}
	s.rStart = s.rCurr

	for ; s.y >= opt.YMax; s.y-- {
		s.iCurr += opt.IDelta
	}

	return s
}

// Done reports whether every pixel in the range has been produced.
func (s *Stream[T]) Done() bool {
	return s.y < s.opt.YMin
}

// Next returns the next (r, i, metadata) triple, or a nil metadata if the
// stream is already done.
func (s *Stream[T]) Next() (r, i T, meta *domain.PixelMetadata) {
	if s.Done() {
		var zero T
		return zero, zero, nil
	}

	r, i = s.rCurr, s.iCurr
	meta = &domain.PixelMetadata{X: s.x, Y: s.y, IterationCount: 0}

	s.x++
	s.rCurr += s.opt.RDelta
	if s.x >= s.opt.XMax {
		s.x = s.opt.XMin
		s.rCurr = s.rStart
		s.y--
		s.iCurr += s.opt.IDelta
	}

	return r, i, meta
}
