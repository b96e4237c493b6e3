package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/oriys/newtonfractal/internal/concurrency"
	"github.com/oriys/newtonfractal/internal/coordinator"
	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/draw"
	"github.com/oriys/newtonfractal/internal/history"
	"github.com/oriys/newtonfractal/internal/logging"
	"github.com/oriys/newtonfractal/internal/metrics"
	"github.com/oriys/newtonfractal/internal/pngenc"
	"github.com/oriys/newtonfractal/internal/region"
	"github.com/oriys/newtonfractal/internal/resize"
	"github.com/oriys/newtonfractal/internal/workerpool"
)

// layoutCatchUpTimeout bounds how long the layout loop waits for a pan-only
// recompute to finish before falling back to an approximate resize.
const layoutCatchUpTimeout = 50 * time.Millisecond

// trailMaxElements and trailBucketSize size the asynchronous handler's zoom
// history: up to this many distinct zoom levels are kept, adjacent levels
// differing by this factor in r_range.
const (
	trailMaxElements = 16
	trailBucketSize  = 2.0
)

// AsyncHandler adds a layout stage between compute and encode: when a
// viewport changes faster than the exact recompute can keep up, it serves
// an immediate approximate frame produced by bilinear-resizing the most
// recent fully computed image (or, failing an overlap with that, a more
// zoomed-out ancestor from its zoom history) instead of blocking.
type AsyncHandler struct {
	pool *workerpool.Pool
	coord *coordinator.Coordinator

	guard sessionGuard

	latestParams *concurrency.Slot[domain.Params, int64]
	latestImage  *concurrency.Slot[renderedImage, int64]
	viewport     *concurrency.PairedSlots[domain.Params, renderedImage, int64]
	latestPNG    *concurrency.Slot[[]byte, domain.ImageVersion]

	trailMu sync.Mutex
	trail   *history.Trail

	wg sync.WaitGroup
}

// NewAsyncHandler returns an AsyncHandler with its compute and layout loops
// already running. Both loops queue their per-frame work onto the shared
// pool through a coordinator, as computation and layout task classes that
// can be awaited independently without one's bookkeeping blocking the
// other's.
func NewAsyncHandler(pool *workerpool.Pool) *AsyncHandler {
	h := &AsyncHandler{
		pool:         pool,
		coord:        coordinator.NewWithPool(pool),
		latestParams: concurrency.NewSlot[domain.Params, int64]("async_params"),
		latestImage:  concurrency.NewSlot[renderedImage, int64]("async_image"),
		viewport:     concurrency.NewPairedSlots[domain.Params, renderedImage, int64](),
		latestPNG:    concurrency.NewSlot[[]byte, domain.ImageVersion]("async_png"),
		trail:        history.New(trailMaxElements, trailBucketSize),
	}
	h.startLoops()
	return h
}

func (h *AsyncHandler) startLoops() {
	h.wg.Add(2)
	go func() { defer h.wg.Done(); h.computeLoop() }()
	go func() { defer h.wg.Done(); h.layoutLoop() }()
}

func (h *AsyncHandler) rebuild() {
	h.latestParams.Kill()
	h.latestImage.Kill()
	h.viewport.Kill()
	h.latestPNG.Kill()
	h.wg.Wait()
	h.coord.WaitUntilComputationDone()
	h.coord.WaitUntilLayoutDone()

	h.latestParams.Reset()
	h.latestImage.Reset()
	h.viewport.Reset()
	h.latestPNG.Reset()
	h.trailMu.Lock()
	h.trail.Clear()
	h.trailMu.Unlock()

	h.startLoops()
}

func (h *AsyncHandler) computeLoop() {
	var lastSeen int64
	var previous *draw.Previous
	for {
		res := h.latestParams.GetAboveVersion(lastSeen)
		if res.State == concurrency.StateDead {
			return
		}
		params := res.Value
		lastSeen = res.Version

		done := make(chan struct{})
		h.coord.QueueComputation(func() {
			defer close(done)

			image := domain.NewRGBImage(params.Width, params.Height)
			draw.Dispatch(params, image, previous, h.pool)
			previous = &draw.Previous{Params: params, Image: image}

			computed := renderedImage{Params: params, Image: image}
			h.latestImage.Set(computed, res.Version)
			h.viewport.SetSecond(computed, res.Version)

			h.trailMu.Lock()
			h.trail.Insert(history.Element{Params: params, Image: image})
			h.trailMu.Unlock()
		})
		<-done
	}
}

func (h *AsyncHandler) layoutLoop() {
	var lastParamsSeen, lastImageSeen int64
	for {
		result := h.viewport.GetBothWithAtLeastOneAboveVersion(lastParamsSeen, lastImageSeen)
		if result.Dead {
			return
		}
		lastParamsSeen, lastImageSeen = result.V1, result.V2
		viewportParams, computed := result.First, result.Second

		var outImage *domain.RGBImage
		var dataID, viewportID int64

		switch classifyLayout(viewportParams, computed.Params, result.V1, result.V2) {
		case decisionNone:
			// Step 2: the compute that produced this image already targets
			// exactly this viewport. No layout needed.
			outImage, dataID, viewportID = computed.Image, result.V2, result.V1

		case decisionPanCatchUp:
			// Step 3: only a pan separates them. Give the in-flight
			// recompute a short grace period before settling for an
			// approximation.
			caughtUp := h.latestImage.GetAtVersionWithTimeout(result.V1, layoutCatchUpTimeout)
			if caughtUp.State == concurrency.StateAlive {
				outImage, dataID, viewportID = caughtUp.Value.Image, caughtUp.Version, result.V1
				lastImageSeen = caughtUp.Version
				metrics.Global().RecordPanCatchUp()
			} else {
				outImage = h.approximateLayout(viewportParams, computed)
				dataID, viewportID = result.V2, result.V1
				metrics.Global().RecordApproximateLayout()
			}

		case decisionApproximate:
			// Step 4: pan and/or zoom. Serve an immediate approximate frame.
			outImage = h.approximateLayout(viewportParams, computed)
			dataID, viewportID = result.V2, result.V1
			metrics.Global().RecordApproximateLayout()

		default: // decisionFundamental
			// Step 5: a fundamental change (polynomial, colors, resolution,
			// ...) makes the stale image useless even as a resize source.
			// Wait out the fresh recompute and bypass layout entirely.
			fresh := h.latestImage.GetAboveVersion(result.V2)
			if fresh.State == concurrency.StateDead {
				return
			}
			outImage, dataID, viewportID = fresh.Value.Image, fresh.Version, fresh.Version
			lastImageSeen = fresh.Version
		}

		// Encoding is queued as layout-class work: it can run on the shared
		// pool concurrently with the next paired-slot wait, independent of
		// any outstanding computation-class work.
		encoder, img, id := viewportParams.PNGEncoder, outImage, domain.NewImageVersion(dataID, viewportID)
		sessionID := viewportParams.SessionID
		h.coord.QueueLayout(func() {
			png, err := pngenc.Encode(encoder, img)
			if err != nil {
				logging.OpForSession(sessionID).Error("async layout encode failed", "error", err, "data_id", id.DataID(), "viewport_id", id.ViewportID())
				return
			}
			h.latestPNG.Set(png, id)
		})
	}
}

// layoutDecision is the result of classifyLayout: which of §4.9.3's five
// branches the layout loop should take for one (viewport, computed) pair.
type layoutDecision int

const (
	// decisionNone means the image already targets this exact viewport
	// version; pass it through unchanged.
	decisionNone layoutDecision = iota
	// decisionPanCatchUp means only a pan separates viewport from the
	// image's params; worth a short wait for the exact recompute.
	decisionPanCatchUp
	// decisionApproximate means the viewport changed (pan and/or zoom) but
	// the polynomial/resolution are unchanged; bilinear-resize.
	decisionApproximate
	// decisionFundamental means the polynomial, colors, or resolution
	// changed; no resize can help, wait for a fresh exact compute.
	decisionFundamental
)

// classifyLayout picks a layoutDecision from the two params and the two
// versions retrieved from the paired slot, implementing §4.9.3's decision
// tree as a pure function independent of any blocking I/O.
func classifyLayout(viewportParams, computedParams domain.Params, viewportVersion, computedVersion int64) layoutDecision {
	switch {
	case viewportVersion == computedVersion:
		return decisionNone
	case domain.PanOnlyDiffer(viewportParams, computedParams):
		return decisionPanCatchUp
	case domain.ViewportOnlyDiffer(viewportParams, computedParams):
		return decisionApproximate
	default:
		return decisionFundamental
	}
}

// approximateLayout bilinear-resizes the overlapping pixels of computed's
// image into a fresh image sized for viewportParams, leaving uncovered
// pixels at their zero default. If computed itself has no usable overlap
// with the requested viewport (e.g. the user zoomed back out past it), a
// more zoomed-out ancestor from the zoom history is tried instead.
func (h *AsyncHandler) approximateLayout(viewportParams domain.Params, computed renderedImage) *domain.RGBImage {
	out := domain.NewRGBImage(viewportParams.Width, viewportParams.Height)

	if overlap, ok := region.GeneralOverlap(computed.Params, viewportParams); ok {
		resize.ResizeBilinear(computed.Image, out, overlap.ARegion, overlap.BRegion)
		return out
	}

	h.trailMu.Lock()
	ancestor, ok := h.trail.GetNextLargest(viewportParams)
	h.trailMu.Unlock()
	if ok {
		if overlap, ok := region.GeneralOverlap(ancestor.Params, viewportParams); ok {
			resize.ResizeBilinear(ancestor.Image, out, overlap.ARegion, overlap.BRegion)
		}
	}
	return out
}

// HandleParamsRequest records params as both the compute loop's input and
// the layout loop's viewport side.
func (h *AsyncHandler) HandleParamsRequest(params domain.Params) error {
	if h.guard.checkAndSwap(params.SessionID) {
		h.rebuild()
	}
	h.latestParams.Set(params, params.RequestID)
	h.viewport.SetFirst(params, params.RequestID)
	return nil
}

// HandleFractalRequest records params, then waits for an encoded image
// whose (data_id, viewport_id) strictly exceeds the client's watermark.
func (h *AsyncHandler) HandleFractalRequest(_ context.Context, params domain.Params) (RenderResult, error) {
	if h.guard.checkAndSwap(params.SessionID) {
		h.rebuild()
	}
	h.latestParams.Set(params, params.RequestID)
	h.viewport.SetFirst(params, params.RequestID)

	watermark := domain.NewImageVersion(params.LastDataID, params.LastViewportID)
	res := h.latestPNG.GetAboveVersion(watermark)
	if res.State == concurrency.StateDead {
		return RenderResult{}, ErrPipelineDead
	}
	return RenderResult{
		PNGBytes:   res.Value,
		DataID:     res.Version.DataID(),
		ViewportID: res.Version.ViewportID(),
	}, nil
}
