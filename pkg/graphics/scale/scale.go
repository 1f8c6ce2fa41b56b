// Package scale composes a placement's scaled raster from a source image
// and a target pixel rectangle, implementing the four scale policies
// (Fill, None, NoneOrContain, Contain). It is grounded on the teacher's
// pkg/image/resize.go, which drives the same golang.org/x/image/draw
// CatmullRom resampler; the unsharpen/box-blur post-processing there is
// dropped since beyond-blit scaling quality is an explicit non-goal here.
package scale

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Mode selects how the source rectangle is mapped onto the target
// pixel rectangle.
type Mode int

const (
	ModeNone Mode = iota
	ModeFill
	ModeContain
	ModeNoneOrContain
)

// Compose renders src (restricted to srcRect) into a freshly allocated
// image.NRGBA of size targetW x targetH, according to mode.
func Compose(src image.Image, srcRect image.Rectangle, targetW, targetH int, mode Mode) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))

	effective := mode
	if effective == ModeNoneOrContain {
		if fits(srcRect, targetW, targetH) {
			effective = ModeNone
		} else {
			effective = ModeContain
		}
	}

	switch effective {
	case ModeFill:
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, xdraw.Over, nil)
	case ModeNone:
		draw.Draw(dst, image.Rect(0, 0, srcRect.Dx(), srcRect.Dy()), src, srcRect.Min, draw.Src)
	case ModeContain:
		composeContain(dst, src, srcRect, targetW, targetH)
	}

	return dst
}

// fits reports whether the source rectangle, drawn 1:1, fits within the
// target without needing to scale (the ModeNoneOrContain test).
func fits(srcRect image.Rectangle, targetW, targetH int) bool {
	return srcRect.Dx() <= targetW && srcRect.Dy() <= targetH
}

// composeContain fits srcRect into targetW x targetH preserving aspect
// ratio, centered along the non-fitted axis, leaving the rest of dst
// transparent (spec: "the target is first cleared to fully transparent",
// which image.NewNRGBA already guarantees via its zero value).
func composeContain(dst *image.NRGBA, src image.Image, srcRect image.Rectangle, targetW, targetH int) {
	srcW, srcH := srcRect.Dx(), srcRect.Dy()
	if srcW <= 0 || srcH <= 0 {
		return
	}

	// Compare scaled_w*src_h vs src_w*scaled_h to choose fit axis, exactly
	// as spec.md §4.3 specifies (avoids floating-point division).
	var fitW, fitH int
	if targetW*srcH <= srcW*targetH {
		fitW = targetW
		fitH = (srcH*targetW + srcW/2) / srcW
	} else {
		fitH = targetH
		fitW = (srcW*targetH + srcH/2) / srcH
	}
	if fitW < 1 {
		fitW = 1
	}
	if fitH < 1 {
		fitH = 1
	}

	offX := (targetW - fitW) / 2
	offY := (targetH - fitH) / 2
	dstRect := image.Rect(offX, offY, offX+fitW, offY+fitH)

	xdraw.CatmullRom.Scale(dst, dstRect, src, srcRect, xdraw.Over, nil)
}
