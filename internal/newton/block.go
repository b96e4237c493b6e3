// Package newton implements the dynamic-block Newton iterator: N pixels
// in flight at once in a SIMD-friendly parallel-array layout, refilling
// finalized slots from a pixel stream until the stream and every slot are
// exhausted.
package newton

import (
	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/pixelstream"
	"github.com/oriys/newtonfractal/internal/region"
)

// BlockWidth is the number of pixels iterated together. A power of two,
// chosen to be SIMD-friendly; see DescribeCPU for whether the running
// CPU can actually vectorize a block this wide.
const BlockWidth = 32

// block holds BlockWidth complex values as two parallel arrays (real,
// imaginary) with a parallel metadata array; a nil metadata entry marks
// an empty slot whose numeric value is stale and ignored.
type block[T domain.Float] struct {
	rs, is []T
	meta   []*domain.PixelMetadata
}

func newBlock[T domain.Float](n int) *block[T] {
	return &block[T]{rs: make([]T, n), is: make([]T, n), meta: make([]*domain.PixelMetadata, n)}
}

func (b *block[T]) hasActive() bool {
	for _, m := range b.meta {
		if m != nil {
			return true
		}
	}
	return false
}

// convergedZeroIndex returns the index of a zero the point z has landed
// within the convergence radius of, if any.
func convergedZeroIndex[T domain.Float](poly domain.AnalyzedPolynomial[T], z domain.Complex[T]) (int, bool) {
	for i, zero := range poly.Zeros {
		if z.CloseTo(zero, poly.ConvergenceRadius, poly.SqrConvergenceRadius) {
			return i, true
		}
	}
	return 0, false
}

// newtonResult increments meta's iteration count and decides whether the
// pixel is finalized: either it has exhausted max_iters (closest-zero
// fallback, guaranteeing every pixel gets a color) or it has converged to
// some zero's basin.
func newtonResult[T domain.Float](z domain.Complex[T], meta *domain.PixelMetadata, poly domain.AnalyzedPolynomial[T], maxIters int) (zeroIndex int, done bool) {
	meta.IterationCount++
	if meta.IterationCount >= maxIters {
		return poly.ClosestZeroIndex(z), true
	}
	return convergedZeroIndex(poly, z)
}

// FillRegion runs the dynamic-block iterator over rect of a width x
// height image described by params, writing the color of each pixel's
// basin into img, and returns the total number of Newton iterations
// performed (diagnostic only).
func FillRegion[T domain.Float](params domain.Params, poly domain.AnalyzedPolynomial[T], rect region.Rect, img *domain.RGBImage) int {
	delta := T(params.RDelta())
	stream := pixelstream.New(pixelstream.Options[T]{
		RMin: T(params.RMin), IMin: T(params.IMin),
		RDelta: delta, IDelta: delta,
		Width: params.Width, Height: params.Height,
		XMin: rect.XMin, XMax: rect.XMax,
		YMin: rect.YMin, YMax: rect.YMax,
	})

	b := newBlock[T](BlockWidth)
	for i := 0; i < BlockWidth; i++ {
		b.rs[i], b.is[i], b.meta[i] = stream.Next()
	}

	totalIters := 0
	for !stream.Done() || b.hasActive() {
		// One Newton step on every slot, including empty ones: their
		// output is ignored, so there is no need to branch per-slot
		// here.
		for i := 0; i < BlockWidth; i++ {
			z := poly.NewtonStep(domain.NewComplex(b.rs[i], b.is[i]))
			b.rs[i], b.is[i] = z.R, z.I
		}
		totalIters += BlockWidth

		for i := 0; i < BlockWidth; i++ {
			meta := b.meta[i]
			if meta == nil {
				continue
			}
			z := domain.NewComplex(b.rs[i], b.is[i])
			idx, done := newtonResult(z, meta, poly, params.MaxIters)
			if !done {
				continue
			}
			zero := params.Zeros[idx]
			img.Set(meta.X, meta.Y, zero.Red, zero.Green, zero.Blue)
			b.rs[i], b.is[i], b.meta[i] = stream.Next()
		}
	}

	return totalIters
}
