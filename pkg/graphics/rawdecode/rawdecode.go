// Package rawdecode is the decoder adapter (spec.md §4, component D). It
// loads an Image's on-disk bytes into an in-memory *image.NRGBA raster,
// either by handing arbitrary container formats to the standard decoders
// (autodetect, format 100) or by interpreting raw RGB/RGBA pixel streams
// directly, with optional zlib inflation.
package rawdecode

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

// ErrDimensions is returned when width or height is not positive.
var ErrDimensions = errors.New("rawdecode: width and height must be positive")

// ErrInsufficientData is returned when the payload is shorter than
// width*height*bytesPerPixel.
var ErrInsufficientData = errors.New("rawdecode: payload shorter than declared dimensions")

// ErrUnsupportedFormat is returned for any format value other than
// 24 (RGB) or 32 (RGBA).
var ErrUnsupportedFormat = errors.New("rawdecode: unsupported raw pixel format")

// Inflate reverses zlib (RFC 1950) compression, as used by the "o=z"
// wire option. It is the only compression spec.md recognizes.
func Inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("rawdecode: zlib reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("rawdecode: zlib inflate: %w", err)
	}
	return out, nil
}

// DecodeAuto hands data to the standard library's format-sniffing
// decoders (registered for PNG, JPEG, and GIF, matching the set the
// teacher's pkg/image/renderer.go registers). It is used for format 100
// (autodetect).
func DecodeAuto(data []byte) (*image.NRGBA, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("rawdecode: decode image file: %w", err)
	}
	nrgba := toNRGBA(img)
	b := nrgba.Bounds()
	return nrgba, b.Dx(), b.Dy(), nil
}

// DecodeRaw interprets data as a raw RGB (format 24) or RGBA (format 32)
// pixel stream of the given dimensions, in R,G,B[,A] byte order as the
// wire protocol documents. The source byte order is explicit here rather
// than relying on a pointer cast, because the decoder's native raster
// representation is not guaranteed to share the wire's byte order
// (spec.md §9 design note on endianness) — Go's image.NRGBA happens to
// store bytes in R,G,B,A order, but this function would still need to
// translate explicitly if it didn't.
func DecodeRaw(data []byte, format uint32, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrDimensions
	}

	var bpp int
	switch format {
	case 24:
		bpp = 3
	case 32:
		bpp = 4
	default:
		return nil, ErrUnsupportedFormat
	}

	need := width * height * bpp
	if len(data) < need {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrInsufficientData, len(data), need)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	switch bpp {
	case 3:
		for i := 0; i < width*height; i++ {
			src := data[i*3 : i*3+3]
			dst := img.Pix[i*4 : i*4+4]
			dst[0] = src[0] // R
			dst[1] = src[1] // G
			dst[2] = src[2] // B
			dst[3] = 0xFF   // A: raw RGB carries no alpha channel
		}
	case 4:
		for i := 0; i < width*height; i++ {
			src := data[i*4 : i*4+4]
			dst := img.Pix[i*4 : i*4+4]
			dst[0] = src[0] // R
			dst[1] = src[1] // G
			dst[2] = src[2] // B
			dst[3] = src[3] // A
		}
	}

	return img, nil
}

// toNRGBA converts any image.Image to *image.NRGBA for uniform pixel
// access downstream (placement scaling, RAM accounting).
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	return dst
}
