package graphics

import (
	"image"

	"github.com/tinyland-lab/kittygfx/pkg/graphics/scale"
)

// ceilDiv returns ceil(a/b) for positive b.
func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// clampSrcRect normalizes a placement's source rectangle against the
// image's pixel dimensions (spec.md §4.3): negative offsets clamp to 0,
// the origin clamps into the image, and a zero or out-of-range extent is
// replaced by "source from origin to image edge".
func clampSrcRect(p *Placement, img *Image) image.Rectangle {
	x, y := p.SrcPixX, p.SrcPixY
	w, h := p.SrcPixWidth, p.SrcPixHeight

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > img.PixWidth {
		x = img.PixWidth
	}
	if y > img.PixHeight {
		y = img.PixHeight
	}

	if w <= 0 || x+w > img.PixWidth {
		w = img.PixWidth - x
	}
	if h <= 0 || y+h > img.PixHeight {
		h = img.PixHeight - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}

	return image.Rect(x, y, x+w, y+h)
}

// inferGeometry fills in p.Cols/p.Rows when either is 0, following
// spec.md §4.3's inference rules, and returns the clamped source
// rectangle.
func inferGeometry(p *Placement, img *Image, cellW, cellH int) image.Rectangle {
	src := clampSrcRect(p, img)
	srcW, srcH := src.Dx(), src.Dy()

	switch {
	case p.Cols == 0 && p.Rows == 0:
		p.Cols = ceilDiv(srcW, cellW)
		p.Rows = ceilDiv(srcH, cellH)

	case p.Cols == 0:
		if p.ScaleMode == ScaleContain && cellH > 0 && srcH > 0 {
			targetH := p.Rows * cellH
			p.Cols = ceilDiv(targetH*srcW/srcH, cellW)
		} else {
			p.Cols = ceilDiv(srcW, cellW)
		}

	case p.Rows == 0:
		if p.ScaleMode == ScaleContain && cellW > 0 && srcW > 0 {
			targetW := p.Cols * cellW
			p.Rows = ceilDiv(targetW*srcH/srcW, cellH)
		} else {
			p.Rows = ceilDiv(srcH, cellH)
		}
	}

	return src
}

// LoadPlacement infers the placement's cell geometry (if unset) and
// composes its scaled raster from img's original_raster, enforcing the
// per-placement RAM budget (spec.md §4.3). p is marked Protected only
// while the raster is composed; the flag is cleared before LoadPlacement
// returns, so it does not shield the new raster from the check_limits
// call that runs after the command.
func LoadPlacement(p *Placement, img *Image, cellW, cellH int, maxSingleImageRAMBytes int64) error {
	if img.OriginalRaster == nil {
		return newError(CodeENOENT, "image has no loaded raster")
	}

	src := inferGeometry(p, img, cellW, cellH)

	if p.Cols <= 0 || p.Rows <= 0 {
		return newError(CodeEINVAL, "placement has zero columns or rows")
	}

	scaledW := p.Cols * cellW
	scaledH := p.Rows * cellH

	if ramSize(scaledW, scaledH) > maxSingleImageRAMBytes {
		return newError(CodeEFBIG, "scaled placement exceeds max_single_image_ram")
	}

	p.Protected = true
	defer func() { p.Protected = false }()

	p.ScaledRaster = scale.Compose(img.OriginalRaster, src, scaledW, scaledH, scaleModeToScale(p.ScaleMode))
	p.ScaledCW = cellW
	p.ScaledCH = cellH

	return nil
}

func scaleModeToScale(m ScaleMode) scale.Mode {
	switch m {
	case ScaleFill:
		return scale.ModeFill
	case ScaleContain:
		return scale.ModeContain
	case ScaleNoneOrContain:
		return scale.ModeNoneOrContain
	default:
		return scale.ModeNone
	}
}

// InvalidateIfStale discards p's scaled raster if the cell size it was
// built for no longer matches (a font change), per spec.md §3: "if the
// cell size changes, the scaled raster is discarded and rebuilt."
func InvalidateIfStale(p *Placement, cellW, cellH int) {
	if p.ScaledRaster != nil && (p.ScaledCW != cellW || p.ScaledCH != cellH) {
		p.ScaledRaster = nil
		p.ScaledCW = 0
		p.ScaledCH = 0
	}
}
