package pngenc

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/klauspost/compress/zlib"

	"github.com/oriys/newtonfractal/internal/domain"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// encodeB hand-assembles a baseline (non-interlaced, 8-bit truecolor,
// filter-none) PNG file, using klauspost/compress's zlib implementation
// for the IDAT stream instead of the standard library's compress/flate.
// This is a genuinely distinct code path from encodeA, not just a
// relabeling, so params.PNGEncoder actually selects between two
// different compressors.
func encodeB(img *domain.RGBImage) ([]byte, error) {
	var out bytes.Buffer
	out.Write(pngSignature)

	writeChunk(&out, "IHDR", ihdrData(img.Width, img.Height))

	idat, err := idatData(img)
	if err != nil {
		return nil, err
	}
	writeChunk(&out, "IDAT", idat)

	writeChunk(&out, "IEND", nil)

	return out.Bytes(), nil
}

func ihdrData(width, height int) []byte {
	buf := make([]byte, 13)
	binary.BigEndian.PutUint32(buf[0:4], uint32(width))
	binary.BigEndian.PutUint32(buf[4:8], uint32(height))
	buf[8] = 8  // bit depth
	buf[9] = 2  // color type: truecolor (RGB)
	buf[10] = 0 // compression method
	buf[11] = 0 // filter method
	buf[12] = 0 // interlace method: none
	return buf
}

func idatData(img *domain.RGBImage) ([]byte, error) {
	var raw bytes.Buffer
	raw.Grow(img.Height * (1 + img.Width*3))
	for y := 0; y < img.Height; y++ {
		raw.WriteByte(0) // filter type 0: none
		rowStart := y * img.Width * 3
		raw.Write(img.Pix[rowStart : rowStart+img.Width*3])
	}

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	if _, err := w.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return compressed.Bytes(), nil
}

func writeChunk(out *bytes.Buffer, chunkType string, data []byte) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	out.Write(length)

	typeAndData := append([]byte(chunkType), data...)
	out.Write(typeAndData)

	crc := crc32.ChecksumIEEE(typeAndData)
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc)
	out.Write(crcBuf)
}
