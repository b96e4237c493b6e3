package pngenc

import (
	"bytes"
	stdpng "image/png"
	"testing"

	"github.com/oriys/newtonfractal/internal/domain"
)

func checkerboardImage(w, h int) *domain.RGBImage {
	img := domain.NewRGBImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, 255, 0, 128)
			} else {
				img.Set(x, y, 10, 200, 30)
			}
		}
	}
	return img
}

func TestEncodeADecodesToSamePixels(t *testing.T) {
	img := checkerboardImage(17, 13)
	data, err := Encode(domain.PNGEncoderA, img)
	if err != nil {
		t.Fatalf("Encode A: %v", err)
	}
	assertDecodesToImage(t, data, img)
}

func TestEncodeBDecodesToSamePixels(t *testing.T) {
	img := checkerboardImage(17, 13)
	data, err := Encode(domain.PNGEncoderB, img)
	if err != nil {
		t.Fatalf("Encode B: %v", err)
	}
	assertDecodesToImage(t, data, img)
}

func TestEncodeAAndBProduceDifferentBytesButSamePixels(t *testing.T) {
	img := checkerboardImage(33, 9)
	a, err := Encode(domain.PNGEncoderA, img)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(domain.PNGEncoderB, img)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("encoder A and B produced byte-identical output; they should be genuinely different implementations")
	}
	assertDecodesToImage(t, a, img)
	assertDecodesToImage(t, b, img)
}

func assertDecodesToImage(t *testing.T, data []byte, want *domain.RGBImage) {
	t.Helper()
	decoded, err := stdpng.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != want.Width || bounds.Dy() != want.Height {
		t.Fatalf("decoded dims = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), want.Width, want.Height)
	}
	for y := 0; y < want.Height; y++ {
		for x := 0; x < want.Width; x++ {
			wr, wg, wb := want.At(x, y)
			r, g, b, _ := decoded.At(x, y).RGBA()
			if byte(r>>8) != wr || byte(g>>8) != wg || byte(b>>8) != wb {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want (%d,%d,%d)", x, y, r>>8, g>>8, b>>8, wr, wg, wb)
			}
		}
	}
}
