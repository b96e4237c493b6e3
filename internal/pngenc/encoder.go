// Package pngenc provides two opaque, correctness-equivalent PNG encoder
// backends, selected per request by params.PNGEncoder. Only latency
// differs between them; callers never branch on which one produced a
// given byte stream.
package pngenc

import (
	"bytes"
	stdpng "image/png"

	"github.com/oriys/newtonfractal/internal/domain"
)

// Encode renders img to PNG bytes using the selected backend.
func Encode(encoder domain.PNGEncoder, img *domain.RGBImage) ([]byte, error) {
	switch encoder {
	case domain.PNGEncoderB:
		return encodeB(img)
	default:
		return encodeA(img)
	}
}

// encodeA uses the standard library's image/png encoder directly.
func encodeA(img *domain.RGBImage) ([]byte, error) {
	var buf bytes.Buffer
	if err := stdpng.Encode(&buf, &rgbImageAdapter{img}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads pngBytes back into a domain.RGBImage, discarding alpha.
// Both encoder backends produce PNGs the standard library can always
// decode, so this one path covers either.
func Decode(pngBytes []byte) (*domain.RGBImage, error) {
	decoded, err := stdpng.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, err
	}
	bounds := decoded.Bounds()
	out := domain.NewRGBImage(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := decoded.At(x, y).RGBA()
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return out, nil
}
