package newton

import (
	"testing"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/region"
)

func seedParams() domain.Params {
	return domain.Params{
		RMin: -2, IMin: -2, RRange: 4,
		Width: 64, Height: 64, MaxIters: 50,
		Zeros: []domain.Zero{
			{R: 1, I: 0, Red: 255},
			{R: -0.5, I: 0.866, Green: 255},
			{R: -0.5, I: -0.866, Blue: 255},
		},
	}
}

func TestFillRegionCenterPixelIsRedBasin(t *testing.T) {
	p := seedParams()
	poly := domain.NewAnalyzedPolynomial(domain.ZeroComplexes[float64](p.Zeros))
	img := domain.NewRGBImage(p.Width, p.Height)

	whole := region.Rect{XMin: 0, XMax: p.Width, YMin: 0, YMax: p.Height}
	FillRegion(p, poly, whole, img)

	r, g, b := img.At(p.Width/2, p.Height/2)
	if r != 255 || g != 0 || b != 0 {
		t.Fatalf("center pixel = (%d,%d,%d), want red (real-axis basin)", r, g, b)
	}
}

func TestFillRegionEveryPixelColored(t *testing.T) {
	p := seedParams()
	p.Width, p.Height = 16, 16
	poly := domain.NewAnalyzedPolynomial(domain.ZeroComplexes[float64](p.Zeros))
	img := domain.NewRGBImage(p.Width, p.Height)

	whole := region.Rect{XMin: 0, XMax: p.Width, YMin: 0, YMax: p.Height}
	FillRegion(p, poly, whole, img)

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			r, g, b := img.At(x, y)
			if r == 0 && g == 0 && b == 0 {
				// Black is not one of our seed colors, so a black
				// pixel means it was never written.
				t.Fatalf("pixel (%d,%d) never colored", x, y)
			}
		}
	}
}

func TestFillRegionIsDeterministic(t *testing.T) {
	p := seedParams()
	p.Width, p.Height = 32, 32
	poly := domain.NewAnalyzedPolynomial(domain.ZeroComplexes[float64](p.Zeros))

	whole := region.Rect{XMin: 0, XMax: p.Width, YMin: 0, YMax: p.Height}

	img1 := domain.NewRGBImage(p.Width, p.Height)
	FillRegion(p, poly, whole, img1)

	img2 := domain.NewRGBImage(p.Width, p.Height)
	FillRegion(p, poly, whole, img2)

	for i := range img1.Pix {
		if img1.Pix[i] != img2.Pix[i] {
			t.Fatalf("render is not deterministic: byte %d differs", i)
		}
	}
}

func TestFillRegionSubRectMatchesWholeImageRender(t *testing.T) {
	p := seedParams()
	p.Width, p.Height = 20, 20
	poly := domain.NewAnalyzedPolynomial(domain.ZeroComplexes[float64](p.Zeros))

	whole := region.Rect{XMin: 0, XMax: p.Width, YMin: 0, YMax: p.Height}
	reference := domain.NewRGBImage(p.Width, p.Height)
	FillRegion(p, poly, whole, reference)

	strip := region.Rect{XMin: 0, XMax: p.Width, YMin: 5, YMax: 12}
	img := domain.NewRGBImage(p.Width, p.Height)
	FillRegion(p, poly, strip, img)

	for y := strip.YMin; y < strip.YMax; y++ {
		for x := 0; x < p.Width; x++ {
			wr, wg, wb := reference.At(x, y)
			gr, gg, gb := img.At(x, y)
			if wr != gr || wg != gg || wb != gb {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want (%d,%d,%d)", x, y, gr, gg, gb, wr, wg, wb)
			}
		}
	}
}
