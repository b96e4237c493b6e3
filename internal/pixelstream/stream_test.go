package pixelstream

import "testing"

func TestStreamVisitsEveryPixelExactlyOnce(t *testing.T) {
	opt := Options[float64]{
		RMin: -2, IMin: -2, RDelta: 0.1, IDelta: 0.1,
		Width: 5, Height: 4,
	}
	s := New(opt)

	seen := make(map[[2]int]bool)
	count := 0
	for !s.Done() {
		_, _, meta := s.Next()
		if meta == nil {
			t.Fatal("nil metadata before Done")
		}
		key := [2]int{meta.X, meta.Y}
		if seen[key] {
			t.Fatalf("pixel (%d,%d) visited twice", meta.X, meta.Y)
		}
		seen[key] = true
		count++
	}

	if count != opt.Width*opt.Height {
		t.Fatalf("visited %d pixels, want %d", count, opt.Width*opt.Height)
	}
	for y := 0; y < opt.Height; y++ {
		for x := 0; x < opt.Width; x++ {
			if !seen[[2]int{x, y}] {
				t.Fatalf("pixel (%d,%d) never visited", x, y)
			}
		}
	}
}

func TestStreamYDecreasesIIncreases(t *testing.T) {
	opt := Options[float64]{RMin: 0, IMin: 0, RDelta: 1, IDelta: 1, Width: 3, Height: 3}
	s := New(opt)

	lastI := -1.0
	lastY := opt.Height
	for !s.Done() {
		_, i, meta := s.Next()
		if meta.Y == lastY {
			continue // same row, x increasing, i constant — fine
		}
		if meta.Y > lastY && lastY != opt.Height {
			t.Fatalf("y increased across rows: %d -> %d", lastY, meta.Y)
		}
		if i < lastI {
			t.Fatalf("i decreased across rows: %v -> %v", lastI, i)
		}
		lastY = meta.Y
		lastI = i
	}
}

func TestStreamSubRectangleRespectsBounds(t *testing.T) {
	opt := Options[float64]{
		RMin: 0, IMin: 0, RDelta: 1, IDelta: 1, Width: 10, Height: 10,
		XMin: 2, XMax: 5, YMin: 3, YMax: 7,
	}
	s := New(opt)

	count := 0
	for !s.Done() {
		_, _, meta := s.Next()
		if meta.X < opt.XMin || meta.X >= opt.XMax {
			t.Fatalf("x=%d out of [%d,%d)", meta.X, opt.XMin, opt.XMax)
		}
		if meta.Y < opt.YMin || meta.Y >= opt.YMax {
			t.Fatalf("y=%d out of [%d,%d)", meta.Y, opt.YMin, opt.YMax)
		}
		count++
	}
	want := (opt.XMax - opt.XMin) * (opt.YMax - opt.YMin)
	if count != want {
		t.Fatalf("count = %d, want %d", count, want)
	}
}

func TestStreamMatchesPanOverlapAccumulationOrder(t *testing.T) {
	// Sanity check that consecutive r values accumulate by exactly
	// RDelta, matching what region.rangeOverlap assumes when replaying
	// the same addition.
	opt := Options[float64]{RMin: -1, IMin: -1, RDelta: 0.37, IDelta: 0.37, Width: 4, Height: 1}
	s := New(opt)

	var rs []float64
	for !s.Done() {
		r, _, _ := s.Next()
		rs = append(rs, r)
	}
	for i := 1; i < len(rs); i++ {
		got := rs[i] - rs[i-1]
		if got != opt.RDelta {
			t.Fatalf("step %d: delta = %v, want exactly %v", i, got, opt.RDelta)
		}
	}
}
