package handlers

import (
	"context"
	"testing"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/workerpool"
)

// seedParams returns the S1 seed scenario's viewport and polynomial (z^3 - 1
// with red/green/blue basins), shrunk to a 16x16 render with 30 iterations
// so it renders quickly in tests.
func seedParams() domain.Params {
	return domain.Params{
		SessionID: "session-1",
		RequestID: 1,
		RMin:      -2, IMin: -2, RRange: 4,
		Width: 16, Height: 16, MaxIters: 30,
		Zeros: []domain.Zero{
			{R: 1, I: 0, Red: 255},
			{R: -0.5, I: 0.866, Green: 255},
			{R: -0.5, I: -0.866, Blue: 255},
		},
		Strategy: domain.StrategyBlock,
	}
}

func TestSyncHandlerProducesAnImageEveryCall(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Stop()
	h := NewSyncHandler(pool)

	p := seedParams()
	if err := h.HandleParamsRequest(p); err != nil {
		t.Fatalf("HandleParamsRequest: %v", err)
	}

	res, err := h.HandleFractalRequest(context.Background(), p)
	if err != nil {
		t.Fatalf("HandleFractalRequest: %v", err)
	}
	if len(res.PNGBytes) == 0 {
		t.Fatal("expected non-empty PNG bytes")
	}
	if res.DataID != p.RequestID || res.ViewportID != p.RequestID {
		t.Fatalf("got (data_id=%d, viewport_id=%d), want both %d", res.DataID, res.ViewportID, p.RequestID)
	}
}

func TestSyncHandlerSessionChangeDropsPreviousFrame(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Stop()
	h := NewSyncHandler(pool)

	p1 := seedParams()
	if _, err := h.HandleFractalRequest(context.Background(), p1); err != nil {
		t.Fatalf("first HandleFractalRequest: %v", err)
	}
	if h.previous == nil {
		t.Fatal("expected a cached previous frame after the first render")
	}

	p2 := p1
	p2.SessionID = "session-2"
	p2.RequestID = 1
	if _, err := h.HandleFractalRequest(context.Background(), p2); err != nil {
		t.Fatalf("second HandleFractalRequest: %v", err)
	}
	// The cache is repopulated by the second render itself, so check it
	// reflects session-2's params rather than asserting it's nil here.
	h.mu.Lock()
	got := h.previous.Params.SessionID
	h.mu.Unlock()
	if got != "session-2" {
		t.Fatalf("previous.Params.SessionID = %q, want session-2", got)
	}
}
