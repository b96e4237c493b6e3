package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/draw"
	"github.com/oriys/newtonfractal/internal/metrics"
	"github.com/oriys/newtonfractal/internal/pngenc"
	"github.com/oriys/newtonfractal/internal/workerpool"
)

// SyncHandler draws and encodes inline on the calling goroutine, using the
// shared pool only for the draw's internal fan-out. It keeps the previous
// frame around so the next call can draw incrementally, and implicitly
// serializes fractal requests: if a second request arrives while the first
// is still drawing, that overlap is the web layer's problem, not this
// handler's — there is no queue here.
type SyncHandler struct {
	pool *workerpool.Pool

	guard sessionGuard

	mu       sync.Mutex
	previous *draw.Previous
}

// NewSyncHandler returns a SyncHandler with no prior frame.
func NewSyncHandler(pool *workerpool.Pool) *SyncHandler {
	return &SyncHandler{pool: pool}
}

// HandleParamsRequest is a no-op acknowledgement: the synchronous handler
// has no background loop to prime with intent, only a per-call draw.
func (h *SyncHandler) HandleParamsRequest(params domain.Params) error {
	h.resetOnSessionChange(params.SessionID)
	return nil
}

func (h *SyncHandler) resetOnSessionChange(sessionID string) {
	if h.guard.checkAndSwap(sessionID) {
		h.mu.Lock()
		h.previous = nil
		h.mu.Unlock()
	}
}

// HandleFractalRequest draws params — incrementally against whatever frame
// this handler produced last, if the viewport only panned — and encodes
// the result inline.
func (h *SyncHandler) HandleFractalRequest(_ context.Context, params domain.Params) (RenderResult, error) {
	h.resetOnSessionChange(params.SessionID)

	h.mu.Lock()
	previous := h.previous
	h.mu.Unlock()

	image := domain.NewRGBImage(params.Width, params.Height)
	renderStart := time.Now()
	stats := draw.Dispatch(params, image, previous, h.pool)
	metrics.RecordRenderDuration("SYNCHRONOUS", strategyLabel(params.Strategy), precisionLabel(params.Precision), float64(time.Since(renderStart).Milliseconds()))

	encodeStart := time.Now()
	png, err := pngenc.Encode(params.PNGEncoder, image)
	metrics.RecordEncodeDuration(pngEncoderLabel(params.PNGEncoder), float64(time.Since(encodeStart).Milliseconds()))
	if err != nil {
		return RenderResult{}, err
	}

	h.mu.Lock()
	h.previous = &draw.Previous{Params: params, Image: image}
	h.mu.Unlock()

	return RenderResult{
		PNGBytes:   png,
		DataID:     params.RequestID,
		ViewportID: params.RequestID,
		Stats:      stats,
	}, nil
}
