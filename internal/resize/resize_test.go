package resize

import (
	"testing"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/region"
)

func solidImage(w, h int, r, g, b byte) *domain.RGBImage {
	img := domain.NewRGBImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, r, g, b)
		}
	}
	return img
}

func TestCopyImageCopiesExactRegion(t *testing.T) {
	from := solidImage(10, 10, 10, 20, 30)
	to := domain.NewRGBImage(10, 10)

	CopyImage(from, to, region.Rect{XMin: 2, XMax: 6, YMin: 3, YMax: 7}, region.Rect{XMin: 0, XMax: 4, YMin: 0, YMax: 4})

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			r, g, b := to.At(x, y)
			if r != 10 || g != 20 || b != 30 {
				t.Fatalf("(%d,%d) = (%d,%d,%d), want (10,20,30)", x, y, r, g, b)
			}
		}
	}
	// Outside the copied rect must be untouched (zero).
	r, g, b := to.At(5, 5)
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("outside copy rect = (%d,%d,%d), want zero", r, g, b)
	}
}

func TestResizeBilinearUpscalesSolidColor(t *testing.T) {
	from := solidImage(4, 4, 100, 150, 200)
	to := domain.NewRGBImage(8, 8)

	ResizeBilinear(from, to, region.Rect{XMin: 0, XMax: 4, YMin: 0, YMax: 4}, region.Rect{XMin: 0, XMax: 8, YMin: 0, YMax: 8})

	// A solid-color source should resize to (approximately) the same
	// solid color everywhere the sampler had valid neighbors.
	r, g, b := to.At(3, 3)
	if absDiff(int(r), 100) > 2 || absDiff(int(g), 150) > 2 || absDiff(int(b), 200) > 2 {
		t.Fatalf("center pixel = (%d,%d,%d), want ~(100,150,200)", r, g, b)
	}
}

func absDiff(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}

func TestResizeFullProducesRequestedDimensions(t *testing.T) {
	from := solidImage(20, 10, 1, 2, 3)
	out := ResizeFull(from, 5, 5)
	if out.Width != 5 || out.Height != 5 {
		t.Fatalf("dims = %dx%d, want 5x5", out.Width, out.Height)
	}
}
