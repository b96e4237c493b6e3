package handlers

import (
	"context"
	"testing"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/history"
	"github.com/oriys/newtonfractal/internal/workerpool"
)

func TestClassifyLayout(t *testing.T) {
	base := seedParams()

	panOnly := base
	panOnly.RMin += base.RRange / 4

	zoomed := base
	zoomed.RRange /= 2

	fundamental := base
	fundamental.Zeros = []domain.Zero{{R: -1, I: 0, Red: 255}, {R: 1, I: 0, Green: 255}}

	tests := []struct {
		name               string
		viewport, computed domain.Params
		v1, v2             int64
		want               layoutDecision
	}{
		{"same version is never laid out", base, base, 5, 5, decisionNone},
		{"pan-only differing versions wait for catch-up", panOnly, base, 2, 1, decisionPanCatchUp},
		{"zoom differing versions get an approximation", zoomed, base, 2, 1, decisionApproximate},
		{"polynomial change bypasses layout entirely", fundamental, base, 2, 1, decisionFundamental},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyLayout(tt.viewport, tt.computed, tt.v1, tt.v2)
			if got != tt.want {
				t.Fatalf("classifyLayout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApproximateLayoutResizesOverlap(t *testing.T) {
	h := &AsyncHandler{trail: history.New(trailMaxElements, trailBucketSize)}

	base := seedParams()
	image := domain.NewRGBImage(base.Width, base.Height)
	for y := 0; y < base.Height; y++ {
		for x := 0; x < base.Width; x++ {
			image.Set(x, y, 10, 20, 30)
		}
	}
	computed := renderedImage{Params: base, Image: image}

	zoomed := base
	zoomed.RRange /= 2 // zoom into the (r_min, i_min) corner: should fully overlap

	out := h.approximateLayout(zoomed, computed)
	if out.Width != zoomed.Width || out.Height != zoomed.Height {
		t.Fatalf("output size = %dx%d, want %dx%d", out.Width, out.Height, zoomed.Width, zoomed.Height)
	}
	r, g, b := out.At(zoomed.Width/2, zoomed.Height/2)
	if r == 0 && g == 0 && b == 0 {
		t.Fatal("expected the center pixel to be covered by the resized overlap, got the uncovered default")
	}
}

func TestApproximateLayoutFallsBackToHistory(t *testing.T) {
	trail := history.New(trailMaxElements, trailBucketSize)
	h := &AsyncHandler{trail: trail}

	wide := seedParams()
	wide.RRange = 64
	wideImage := domain.NewRGBImage(wide.Width, wide.Height)
	for y := 0; y < wide.Height; y++ {
		for x := 0; x < wide.Width; x++ {
			wideImage.Set(x, y, 40, 50, 60)
		}
	}
	trail.Insert(history.Element{Params: wide, Image: wideImage})

	// computed covers a viewport far away from the requested one: no direct
	// overlap, so the history ancestor (wide) should be used instead.
	narrowFarAway := seedParams()
	narrowFarAway.RMin = 1000
	narrowImage := domain.NewRGBImage(narrowFarAway.Width, narrowFarAway.Height)
	computed := renderedImage{Params: narrowFarAway, Image: narrowImage}

	requested := seedParams()
	requested.RRange = 32 // a zoom level the wide ancestor can cover

	out := h.approximateLayout(requested, computed)
	if out.Width != requested.Width || out.Height != requested.Height {
		t.Fatalf("output size = %dx%d, want %dx%d", out.Width, out.Height, requested.Width, requested.Height)
	}
}

func TestAsyncHandlerRoundTrip(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Stop()
	h := NewAsyncHandler(pool)

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

func TestAsyncHandlerSessionIsolation(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Stop()
	h := NewAsyncHandler(pool)

	p1 := seedParams()
	if _, err := h.HandleFractalRequest(context.Background(), p1); err != nil {
		t.Fatalf("first HandleFractalRequest: %v", err)
	}

	p2 := p1
	p2.SessionID = "session-2"
	p2.RequestID = 1
	res, err := h.HandleFractalRequest(context.Background(), p2)
	if err != nil {
		t.Fatalf("HandleFractalRequest after session change: %v", err)
	}
	if res.DataID != 1 || res.ViewportID != 1 {
		t.Fatalf("got (data_id=%d, viewport_id=%d), want both 1 in the rebuilt pipeline's version space", res.DataID, res.ViewportID)
	}
}
