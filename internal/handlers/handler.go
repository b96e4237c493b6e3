// Package handlers implements the three interchangeable request/render
// scheduling modes (synchronous, pipelined, asynchronous-with-layout) and
// the group that routes to whichever one a request names, tearing down and
// rebuilding a handler's pipeline whenever its session_id changes.
//
// # Design rationale
//
// All three modes expose the same two operations — record intent, wait for
// a fresh frame — but trade latency for complexity differently. Sync is the
// simplest and cheapest per request but serializes on the caller; pipelined
// overlaps compute and encode across two long-lived loops; async adds a
// third loop that can answer a zoom-in-progress request immediately with an
// approximate resized frame while the exact recompute is still in flight.
// The versioned slots in internal/concurrency are what let all three share
// one "newest wins" discipline without the modes needing to know about each
// other.
//
// # Concurrency model
//
// Sync does all its work on the calling goroutine, parallelized only
// through the shared pool. Pipelined and async each own long-lived loop
// goroutines that block on slot reads; a session change kills every slot
// (unblocking and exiting every loop), joins them, resets the slots, and
// restarts fresh loops before the new session's request is processed.
//
// # Invariants
//
//   - No HandleFractalRequest call ever observes a frame computed under a
//     different, already-superseded session_id: the session guard kills
//     every slot before any new-session work is queued.
//   - HandleParamsRequest never blocks on rendering.
package handlers

import (
	"context"
	"errors"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/draw"
)

// ErrPipelineDead is returned when a blocking read observed a killed slot —
// the session changed out from under an in-flight request. Callers map this
// to HTTP 500; the client's next request will carry the new session_id and
// rebuild the pipeline.
var ErrPipelineDead = errors.New("handlers: pipeline was reset by a session change")

// RenderResult is the outcome of a successful HandleFractalRequest: the
// encoded frame plus the (data_id, viewport_id) pair that identifies it.
type RenderResult struct {
	PNGBytes   []byte
	DataID     int64
	ViewportID int64
	Stats      draw.Stats
}

// Handler is the operation set every scheduling mode implements.
type Handler interface {
	// HandleParamsRequest records params as the latest intent. Always fast
	// and non-blocking.
	HandleParamsRequest(params domain.Params) error

	// HandleFractalRequest blocks until an encoded image whose
	// (data_id, viewport_id) strictly exceeds params' watermark is
	// available, then returns it.
	HandleFractalRequest(ctx context.Context, params domain.Params) (RenderResult, error)
}

// renderedImage bundles a freshly computed raw frame with the params that
// produced it, the unit of currency between the compute loop and whatever
// reads it (encode loop, or the async handler's layout loop).
type renderedImage struct {
	Params domain.Params
	Image  *domain.RGBImage
}
