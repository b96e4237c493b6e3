package domain

// RGBImage is a dense width x height array of 8-bit RGB pixels, row-major
// with y growing downward. It is created empty and written once by the
// draw engine; after that it is read-only and safely shared between
// stages (Go's garbage collector is the reference count).
type RGBImage struct {
	Width, Height int
	// Pix holds width*height*3 bytes, row-major, 3 bytes (R,G,B) per
	// pixel.
	Pix []byte
}

// NewRGBImage allocates a zeroed (black) image of the given dimensions.
func NewRGBImage(width, height int) *RGBImage {
	return &RGBImage{Width: width, Height: height, Pix: make([]byte, width*height*3)}
}

// offset returns the byte offset of pixel (x, y). Callers are expected to
// have already validated bounds; this is a hot-path helper.
func (img *RGBImage) offset(x, y int) int {
	return (y*img.Width + x) * 3
}

// At returns the RGB bytes at (x, y).
func (img *RGBImage) At(x, y int) (r, g, b byte) {
	o := img.offset(x, y)
	return img.Pix[o], img.Pix[o+1], img.Pix[o+2]
}

// Set writes the RGB bytes at (x, y).
func (img *RGBImage) Set(x, y int, r, g, b byte) {
	o := img.offset(x, y)
	img.Pix[o] = r
	img.Pix[o+1] = g
	img.Pix[o+2] = b
}

// InBounds reports whether (x, y) is within the image.
func (img *RGBImage) InBounds(x, y int) bool {
	return x >= 0 && x < img.Width && y >= 0 && y < img.Height
}
