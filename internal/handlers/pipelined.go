package handlers

import (
	"context"
	"sync"

	"github.com/oriys/newtonfractal/internal/concurrency"
	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/draw"
	"github.com/oriys/newtonfractal/internal/logging"
	"github.com/oriys/newtonfractal/internal/pngenc"
	"github.com/oriys/newtonfractal/internal/workerpool"
)

// PipelinedHandler overlaps compute and encode across two long-lived
// goroutines, joined by three versioned slots: latest_params, latest_image,
// latest_png, all versioned by request_id. A params update while compute is
// mid-draw is simply superseded: compute finishes the current frame, then
// its next GetAboveVersion skips straight to the newest, discarding every
// version in between. The same supersession happens between compute and
// encode.
type PipelinedHandler struct {
	pool *workerpool.Pool

	guard sessionGuard

	latestParams *concurrency.Slot[domain.Params, int64]
	latestImage  *concurrency.Slot[renderedImage, int64]
	latestPNG    *concurrency.Slot[[]byte, int64]

	wg sync.WaitGroup
}

// NewPipelinedHandler returns a PipelinedHandler with its compute and
// encode loops already running.
func NewPipelinedHandler(pool *workerpool.Pool) *PipelinedHandler {
	h := &PipelinedHandler{
		pool:         pool,
		latestParams: concurrency.NewSlot[domain.Params, int64]("pipelined_params"),
		latestImage:  concurrency.NewSlot[renderedImage, int64]("pipelined_image"),
		latestPNG:    concurrency.NewSlot[[]byte, int64]("pipelined_png"),
	}
	h.startLoops()
	return h
}

func (h *PipelinedHandler) startLoops() {
	h.wg.Add(2)
	go func() { defer h.wg.Done(); h.computeLoop() }()
	go func() { defer h.wg.Done(); h.encodeLoop() }()
}

// rebuild kills every slot (unblocking and exiting both loops), joins them,
// resets the slots to alive-empty, and starts fresh loops. Called exactly
// once per session_id change, before the triggering request is processed
// any further.
func (h *PipelinedHandler) rebuild() {
	h.latestParams.Kill()
	h.latestImage.Kill()
	h.latestPNG.Kill()
	h.wg.Wait()

	h.latestParams.Reset()
	h.latestImage.Reset()
	h.latestPNG.Reset()

	h.startLoops()
}

func (h *PipelinedHandler) computeLoop() {
	var lastSeen int64
	var previous *draw.Previous
	for {
		res := h.latestParams.GetAboveVersion(lastSeen)
		if res.State == concurrency.StateDead {
			return
		}
		params := res.Value
		lastSeen = res.Version

		image := domain.NewRGBImage(params.Width, params.Height)
		draw.Dispatch(params, image, previous, h.pool)
		previous = &draw.Previous{Params: params, Image: image}

		h.latestImage.Set(renderedImage{Params: params, Image: image}, res.Version)
	}
}

func (h *PipelinedHandler) encodeLoop() {
	var lastSeen int64
	for {
		res := h.latestImage.GetAboveVersion(lastSeen)
		if res.State == concurrency.StateDead {
			return
		}
		lastSeen = res.Version

		png, err := pngenc.Encode(res.Value.Params.PNGEncoder, res.Value.Image)
		if err != nil {
			logging.Op().Error("pipelined encode failed", "error", err, "version", res.Version)
			continue
		}
		h.latestPNG.Set(png, res.Version)
	}
}

// HandleParamsRequest records params as the latest intent.
func (h *PipelinedHandler) HandleParamsRequest(params domain.Params) error {
	if h.guard.checkAndSwap(params.SessionID) {
		h.rebuild()
	}
	h.latestParams.Set(params, params.RequestID)
	return nil
}

// HandleFractalRequest records params, then waits for an encoded image
// whose version exceeds the client's watermark.
func (h *PipelinedHandler) HandleFractalRequest(_ context.Context, params domain.Params) (RenderResult, error) {
	if h.guard.checkAndSwap(params.SessionID) {
		h.rebuild()
	}
	h.latestParams.Set(params, params.RequestID)

	watermark := params.LastDataID
	if params.LastViewportID > watermark {
		watermark = params.LastViewportID
	}

	res := h.latestPNG.GetAboveVersion(watermark)
	if res.State == concurrency.StateDead {
		return RenderResult{}, ErrPipelineDead
	}
	return RenderResult{
		PNGBytes:   res.Value,
		DataID:     res.Version,
		ViewportID: res.Version,
	}, nil
}
