package handlers

import (
	"context"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/draw"
	"github.com/oriys/newtonfractal/internal/pngenc"
	"github.com/oriys/newtonfractal/internal/resize"
	"github.com/oriys/newtonfractal/internal/save"
	"github.com/oriys/newtonfractal/internal/workerpool"
)

// Group holds one instance of each scheduling mode and routes every
// incoming call to the one named by params.Handler. Save, load, and list
// are dispatched only to the synchronous code path: they are one-shot
// renders with no pipeline state of their own to pick a mode for.
type Group struct {
	sync      *SyncHandler
	pipelined *PipelinedHandler
	async     *AsyncHandler

	pool  *workerpool.Pool
	store *save.Store
}

// NewGroup returns a Group with all three handlers running against the
// shared pool, persisting saves under store.
func NewGroup(pool *workerpool.Pool, store *save.Store) *Group {
	return &Group{
		sync:      NewSyncHandler(pool),
		pipelined: NewPipelinedHandler(pool),
		async:     NewAsyncHandler(pool),
		pool:      pool,
		store:     store,
	}
}

func (g *Group) selected(kind domain.HandlerKind) Handler {
	switch kind {
	case domain.HandlerPipelined:
		return g.pipelined
	case domain.HandlerAsync:
		return g.async
	default:
		return g.sync
	}
}

// HandleParamsRequest routes to the handler named by params.Handler.
func (g *Group) HandleParamsRequest(params domain.Params) error {
	return g.selected(params.Handler).HandleParamsRequest(params)
}

// HandleFractalRequest routes to the handler named by params.Handler.
func (g *Group) HandleFractalRequest(ctx context.Context, params domain.Params) (RenderResult, error) {
	return g.selected(params.Handler).HandleFractalRequest(ctx, params)
}

// SaveRequest is one /save call: render params at scale*width by
// scale*height, then persist the encoded image and metadata under File.
type SaveRequest struct {
	Params   domain.Params
	Scale    int
	File     string
	Metadata string
}

// SaveResult mirrors the JSON body /save returns: success never carries an
// HTTP error status, only a success flag and an optional message.
type SaveResult struct {
	Success      bool
	ErrorMessage string
}

// HandleSaveRequest re-renders req.Params at req.Scale and writes the
// result to disk. This never reuses or updates any handler's incremental-
// draw cache: a save is a one-off render at a different resolution, wholly
// independent of the live viewport pipeline.
func (g *Group) HandleSaveRequest(req SaveRequest) SaveResult {
	scaled := req.Params
	scaled.Width *= req.Scale
	scaled.Height *= req.Scale

	image := domain.NewRGBImage(scaled.Width, scaled.Height)
	draw.Dispatch(scaled, image, nil, g.pool)

	pngBytes, err := pngenc.Encode(scaled.PNGEncoder, image)
	if err != nil {
		return SaveResult{Success: false, ErrorMessage: err.Error()}
	}

	if err := g.store.Save(req.File, pngBytes, req.Metadata); err != nil {
		return SaveResult{Success: false, ErrorMessage: err.Error()}
	}
	return SaveResult{Success: true}
}

// HandleLoadRequest returns the metadata sidecar for a previously saved
// name.
func (g *Group) HandleLoadRequest(name string) (string, error) {
	return g.store.Load(name)
}

// HandleListRequest returns every previously saved name.
func (g *Group) HandleListRequest() ([]string, error) {
	return g.store.List()
}

// HandleThumbnailRequest loads a previously saved image and full-resizes it
// to width x height, re-encoding with the A backend. Unlike the live
// viewport path, this always resamples the whole frame rather than
// blitting a pan-only overlap, since a saved image has no "previous frame"
// to diff against.
func (g *Group) HandleThumbnailRequest(name string, width, height int) ([]byte, error) {
	pngBytes, err := g.store.LoadImage(name)
	if err != nil {
		return nil, err
	}
	img, err := pngenc.Decode(pngBytes)
	if err != nil {
		return nil, err
	}
	thumb := resize.ResizeFull(img, width, height)
	return pngenc.Encode(domain.PNGEncoderA, thumb)
}
