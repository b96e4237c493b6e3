package region

import (
	"testing"

	"github.com/oriys/newtonfractal/internal/domain"
)

func panParams() (domain.Params, domain.Params) {
	a := domain.Params{RMin: -2, IMin: -2, RRange: 4, Width: 64, Height: 64}
	b := a
	b.RMin += b.RRange / 4 // pan right by a quarter of the viewport
	return a, b
}

func TestPanOnlyOverlapNonEmpty(t *testing.T) {
	a, b := panParams()
	ov, ok := PanOnlyOverlap(a, b)
	if !ok {
		t.Fatal("expected an overlap for a small pan")
	}
	if ov.ARegion.Width() != ov.BRegion.Width() || ov.ARegion.Height() != ov.BRegion.Height() {
		t.Fatalf("a/b overlap region dimensions differ: %+v vs %+v", ov.ARegion, ov.BRegion)
	}
	// Panning right by a quarter of the width should overlap ~3/4 of it.
	wantWidth := a.Width * 3 / 4
	if d := ov.BRegion.Width() - wantWidth; d < -2 || d > 2 {
		t.Fatalf("overlap width = %d, want ~%d", ov.BRegion.Width(), wantWidth)
	}
}

func TestPanOnlyOverlapNoOverlapWhenPannedPastWidth(t *testing.T) {
	a, b := panParams()
	b.RMin = a.RMin + a.RRange*2 // panned entirely out of view
	if _, ok := PanOnlyOverlap(a, b); ok {
		t.Fatal("expected no overlap when panned past the full viewport")
	}
}

func TestComputeDeltaPartitionsB(t *testing.T) {
	a, b := panParams()
	ov, ok := PanOnlyOverlap(a, b)
	if !ok {
		t.Fatal("expected overlap")
	}
	delta := ComputeDelta(&ov, b.Width, b.Height)

	covered := make([][]bool, b.Height)
	for y := range covered {
		covered[y] = make([]bool, b.Width)
	}

	mark := func(r Rect) {
		for y := r.YMin; y < r.YMax; y++ {
			for x := r.XMin; x < r.XMax; x++ {
				if covered[y][x] {
					t.Fatalf("pixel (%d,%d) covered twice", x, y)
				}
				covered[y][x] = true
			}
		}
	}

	mark(delta.Overlap.BRegion)
	for _, r := range delta.BOnly {
		mark(r)
	}

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !covered[y][x] {
				t.Fatalf("pixel (%d,%d) not covered by overlap or any b_only rect", x, y)
			}
		}
	}
}

func TestComputeDeltaNoOverlapMeansWholeImageIsBOnly(t *testing.T) {
	delta := ComputeDelta(nil, 10, 20)
	if len(delta.BOnly) != 1 {
		t.Fatalf("len(BOnly) = %d, want 1", len(delta.BOnly))
	}
	r := delta.BOnly[0]
	if r.XMin != 0 || r.XMax != 10 || r.YMin != 0 || r.YMax != 20 {
		t.Fatalf("BOnly rect = %+v, want whole image", r)
	}
}

func TestGeneralOverlapIdenticalParamsCoversWholeImage(t *testing.T) {
	a := domain.Params{RMin: -2, IMin: -2, RRange: 4, Width: 64, Height: 64}
	b := a
	ov, ok := GeneralOverlap(a, b)
	if !ok {
		t.Fatal("expected an overlap for identical params")
	}
	if ov.ARegion != (Rect{0, 64, 0, 64}) || ov.BRegion != (Rect{0, 64, 0, 64}) {
		t.Fatalf("overlap = %+v, want full image on both sides", ov)
	}
}

func TestGeneralOverlapZoomedOutHasNoOverlapBeyondBounds(t *testing.T) {
	a := domain.Params{RMin: -2, IMin: -2, RRange: 4, Width: 64, Height: 64}
	b := a
	b.RMin, b.IMin, b.RRange = -32, -32, 64 // zoomed far out: a is a 4x4-pixel patch in b
	ov, ok := GeneralOverlap(a, b)
	if !ok {
		t.Fatal("expected a (small) overlap")
	}
	if ov.BRegion.CountPixels() > a.Width*a.Height {
		t.Fatalf("b-side overlap %+v implausibly large", ov.BRegion)
	}
}
