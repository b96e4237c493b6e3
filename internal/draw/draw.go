// Package draw implements the orchestrator that picks a draw strategy
// from params.Strategy and dispatches it onto the shared worker pool.
package draw

import (
	"sync"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/newton"
	"github.com/oriys/newtonfractal/internal/region"
	"github.com/oriys/newtonfractal/internal/resize"
	"github.com/oriys/newtonfractal/internal/workerpool"
)

// rowsPerTask is the strip height used by block_threaded.
const rowsPerTask = 50

// desiredPixelsPerTask is the fixed (non-adaptive) per-task pixel budget
// used to size b-only region tasks in the incremental strategy. The
// original implementation's own TODO acknowledges this underutilizes
// the pool when per-pixel work is heavy; kept fixed so task counts stay
// exact and assertable (see DESIGN.md's Open Question decisions).
const desiredPixelsPerTask = 50 * 2000

// Stats carries diagnostics about one Draw call, enough for tests to
// assert orchestrator behavior (copy/fresh pixel counts, strategy used)
// without reaching into internals.
type Stats struct {
	Strategy    domain.Strategy
	TotalIters  int
	CopyTasks   int
	CopyPixels  int
	FreshPixels int
	FreshTasks  int
}

// Previous bundles the prior frame's params and image, used by the
// incremental strategy to decide whether a copy-plus-fresh-strips draw is
// possible.
type Previous struct {
	Params domain.Params
	Image  *domain.RGBImage
}

// Draw renders params into image (which must already be allocated at
// params.Width x params.Height) using the shared pool, choosing a
// strategy per params.Strategy and params.Precision.
func Draw[T domain.Float](params domain.Params, image *domain.RGBImage, previous *Previous, pool *workerpool.Pool) Stats {
	poly := domain.NewAnalyzedPolynomial(domain.ZeroComplexes[T](params.Zeros))

	switch params.Strategy {
	case domain.StrategyNaive:
		return Stats{Strategy: params.Strategy, TotalIters: naiveDraw(params, poly, image)}
	case domain.StrategyBlock:
		whole := region.Rect{XMin: 0, XMax: params.Width, YMin: 0, YMax: params.Height}
		return Stats{Strategy: params.Strategy, TotalIters: newton.FillRegion(params, poly, whole, image)}
	case domain.StrategyBlockThreaded:
		iters, tasks := blockThreadedDraw(params, poly, image, pool)
		return Stats{Strategy: params.Strategy, TotalIters: iters, FreshTasks: tasks, FreshPixels: params.Width * params.Height}
	default: // StrategyBlockThreadedIncremental
		return incrementalDraw(params, poly, image, previous, pool)
	}
}

// Dispatch picks the float32 or float64 instantiation of Draw based on
// params.Precision. Correctness is identical between the two; single
// precision is preferred for throughput and is sufficient until deep
// zoom.
func Dispatch(params domain.Params, image *domain.RGBImage, previous *Previous, pool *workerpool.Pool) Stats {
	if params.Precision == domain.PrecisionDouble {
		return Draw[float64](params, image, previous, pool)
	}
	return Draw[float32](params, image, previous, pool)
}

func naiveDraw[T domain.Float](params domain.Params, poly domain.AnalyzedPolynomial[T], image *domain.RGBImage) int {
	totalIters := 0
	delta := T(params.RDelta())
	i := T(params.IMin)
	for y := params.Height - 1; y >= 0; y-- {
		r := T(params.RMin)
		for x := 0; x < params.Width; x++ {
			z := domain.NewComplex(r, i)
			iters := 0
			for iters < params.MaxIters {
				converged := false
				for _, zero := range poly.Zeros {
					if z.CloseTo(zero, poly.ConvergenceRadius, poly.SqrConvergenceRadius) {
						converged = true
						break
					}
				}
				if converged {
					break
				}
				z = poly.NewtonStep(z)
				iters++
			}
			totalIters += iters
			idx := poly.ClosestZeroIndex(z)
			zero := params.Zeros[idx]
			image.Set(x, y, zero.Red, zero.Green, zero.Blue)
			r += delta
		}
		i += delta
	}
	return totalIters
}

func blockThreadedDraw[T domain.Float](params domain.Params, poly domain.AnalyzedPolynomial[T], image *domain.RGBImage, pool *workerpool.Pool) (totalIters, numTasks int) {
	group := workerpool.NewTaskGroup(pool)
	var mu sync.Mutex

	for startRow := 0; startRow < params.Height; startRow += rowsPerTask {
		endRow := min(startRow+rowsPerTask, params.Height)
		rect := region.Rect{XMin: 0, XMax: params.Width, YMin: startRow, YMax: endRow}
		numTasks++
		group.Add(func() {
			iters := newton.FillRegion(params, poly, rect, image)
			mu.Lock()
			totalIters += iters
			mu.Unlock()
		})
	}
	group.WaitUntilDone()
	return totalIters, numTasks
}

func incrementalDraw[T domain.Float](params domain.Params, poly domain.AnalyzedPolynomial[T], image *domain.RGBImage, previous *Previous, pool *workerpool.Pool) Stats {
	if previous == nil || previous.Image == nil || !domain.PanOnlyDiffer(params, previous.Params) {
		iters, tasks := blockThreadedDraw(params, poly, image, pool)
		return Stats{Strategy: params.Strategy, TotalIters: iters, FreshTasks: tasks, FreshPixels: params.Width * params.Height}
	}

	overlap, ok := region.PanOnlyOverlap(previous.Params, params)
	var delta region.Delta
	if ok {
		delta = region.ComputeDelta(&overlap, params.Width, params.Height)
	} else {
		delta = region.ComputeDelta(nil, params.Width, params.Height)
	}

	group := workerpool.NewTaskGroup(pool)
	var mu sync.Mutex
	stats := Stats{Strategy: params.Strategy}

	if delta.Overlap != nil {
		stats.CopyTasks = 1
		stats.CopyPixels = delta.Overlap.BRegion.CountPixels()
		group.Add(func() {
			resize.CopyImage(previous.Image, image, delta.Overlap.ARegion, delta.Overlap.BRegion)
		})
	}

	for _, rect := range delta.BOnly {
		rowsPerTaskHere := max(desiredPixelsPerTask/rect.Width(), 1)
		for startRow := rect.YMin; startRow < rect.YMax; startRow += rowsPerTaskHere {
			endRow := min(startRow+rowsPerTaskHere, rect.YMax)
			taskRect := region.Rect{XMin: rect.XMin, XMax: rect.XMax, YMin: startRow, YMax: endRow}
			stats.FreshTasks++
			stats.FreshPixels += taskRect.CountPixels()
			group.Add(func() {
				iters := newton.FillRegion(params, poly, taskRect, image)
				mu.Lock()
				stats.TotalIters += iters
				mu.Unlock()
			})
		}
	}

	group.WaitUntilDone()
	return stats
}
