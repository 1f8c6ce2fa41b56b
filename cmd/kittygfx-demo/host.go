package main

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
)

// defaultCellW and defaultCellH are fallback cell pixel dimensions used
// when TIOCGWINSZ detection fails, matching the teacher's
// imgDefaultCellW/imgDefaultCellH fallbacks in pkg/image/pixelsize.go.
const (
	defaultCellW = 8
	defaultCellH = 16
)

const (
	defaultGridCols = 80
	defaultGridRows = 24
)

// hostGeometry implements graphics.CellGeometry for the demo: it queries
// TIOCGWINSZ once at startup (cached thereafter, same as the teacher's
// imgDetectCellSize strategy-then-fallback pattern) and falls back to
// fixed defaults when unavailable (no controlling terminal, e.g. a CI
// runner or a piped non-tty stdin).
type hostGeometry struct {
	mu               sync.Mutex
	cellW, cellH     int
	cols, rows       int
}

func newHostGeometry(log *slog.Logger) *hostGeometry {
	h := &hostGeometry{cellW: defaultCellW, cellH: defaultCellH, cols: defaultGridCols, rows: defaultGridRows}

	if w, ht, err := ioctlCellSize(); err == nil {
		h.cellW, h.cellH = w, ht
	} else {
		log.Debug("cell size detection unavailable, using defaults", "error", err)
	}
	if c, r, err := ioctlGridSize(); err == nil {
		h.cols, h.rows = c, r
	} else {
		log.Debug("grid size detection unavailable, using defaults", "error", err)
	}

	return h
}

func (h *hostGeometry) CellSize() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cellW, h.cellH
}

func (h *hostGeometry) GridSize() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cols, h.rows
}

// logBlitter is a Blitter that records each draw call instead of writing
// to a real back buffer, so the demo can run headless.
type logBlitter struct {
	log   *slog.Logger
	count int
}

func (b *logBlitter) Blit(raster *image.NRGBA, xPix, yPix int, reverse bool) error {
	b.count++
	bounds := raster.Bounds()
	b.log.Info("blit",
		"n", b.count,
		"x", xPix, "y", yPix,
		"w", bounds.Dx(), "h", bounds.Dy(),
		"reverse", reverse,
	)
	return nil
}

func (b *logBlitter) summary() string {
	return fmt.Sprintf("%d rectangle(s) blitted", b.count)
}
