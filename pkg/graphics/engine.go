package graphics

import (
	"image"
	"log/slog"
)

// CellGeometry is the emulator-supplied cell-grid geometry query the core
// consumes (spec.md §1): the pixel size of one character cell (which may
// change across a font change), and the grid's column/row count, needed
// to drive the per-cell delete callback (spec.md §6).
type CellGeometry interface {
	CellSize() (cellW, cellH int)
	GridSize() (cols, rows int)
}

// Blitter draws a scaled raster rectangle onto the emulator's back buffer
// (spec.md §1's "blit primitive"). When reverse is true the blit applies
// a color-inversion transform, as the draw-rect coalescer requires for
// rectangles appended with reverse video active.
type Blitter interface {
	Blit(raster *image.NRGBA, xPix, yPix int, reverse bool) error
}

// DeleteCellFunc is the per-cell callback the dispatcher invokes when a
// delete command implies cell iteration (spec.md §6): the core asks the
// emulator what occupies (col, row); the emulator reports the owning
// image/placement id, whether it is a classic (non-virtual) placement,
// and whether it cleared the cell in its own buffer.
type DeleteCellFunc func(col, row int) (imageID, placementID uint32, isClassic, cleared bool)

// Stats is a point-in-time snapshot of the store's budget-relevant
// totals, exposed so a host can drive its own monitoring without
// reaching into package internals.
type Stats struct {
	ImageCount     int
	PlacementCount int
	DiskBytes      int64
	RamBytes       int64
}

// Engine is the top-level entry point wiring every component together:
// the cache store (A), eviction (B), disk layer (C), decoder adapter (D),
// placement geometry (E), upload state machine (F), command parser and
// dispatcher (G, H), draw-rect coalescer (I), and response channel (J).
//
// Per spec.md §5, an Engine is single-threaded: every exported method
// runs a command or frame operation to completion without yielding, and
// callers must not invoke it concurrently from multiple goroutines.
type Engine struct {
	store *Store
	disk  *DiskCache
	cfg   *Config
	log   *slog.Logger

	cells       CellGeometry
	blit        Blitter
	deleteCells DeleteCellFunc

	coalescer *coalescer

	// currentUploadImageID is the continuation target for direct
	// transmissions with no id/number and an in-progress chunked upload
	// (spec.md §4.4). Zero means no continuation is pending.
	currentUploadImageID uint32

	// pendingPut stashes an a=T put's geometry for an image whose direct
	// transmission has not yet completed (spec.md §4.6): the continuation
	// chunk that finally finishes the upload runs the put then.
	pendingPut map[uint32]*putParams

	globalCommandIndex uint64
}

// NewEngine constructs an Engine with its own private disk cache
// directory (see DiskCache). Callers should call Close when the
// terminal session ends to remove that directory (spec.md §5).
func NewEngine(cfg *Config, cells CellGeometry, blit Blitter, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	disk, err := NewDiskCache(cfg.CacheDirPrefix)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:      NewStore(),
		disk:       disk,
		cfg:        cfg,
		log:        log,
		cells:      cells,
		blit:       blit,
		coalescer:  newCoalescer(),
		pendingPut: make(map[uint32]*putParams),
	}, nil
}

// Close removes the engine's private cache directory.
func (e *Engine) Close() error {
	return e.disk.Close()
}

// Stats returns a snapshot of the store's current totals.
func (e *Engine) Stats() Stats {
	return Stats{
		ImageCount:     e.store.ImageCount(),
		PlacementCount: e.store.PlacementCount(),
		DiskBytes:      e.store.DiskBytes(),
		RamBytes:       e.store.RamBytes(),
	}
}

// ProcessCommand is the command-processing entry point (spec.md §1): it
// parses a raw escape-sequence payload, dispatches it, runs check_limits,
// and returns the formatted wire response (empty if the command's quiet
// level or intermediate-chunk status suppresses it).
func (e *Engine) ProcessCommand(payload []byte) string {
	e.globalCommandIndex++

	cmd, perr := parseCommand(payload)
	if perr != nil {
		res := &Result{}
		res.fail(perr)
		return res.format()
	}

	res := e.dispatch(cmd)
	e.checkLimits()
	return res.format()
}

// DrawCell is the per-cell rectangle-append entry point the emulator
// calls while scanning a frame's Unicode-placeholder cells (spec.md §1,
// §4.8). col/row are the cell's column and row within the placement (as
// encoded by its placeholder diacritics); xPix/yPix are the cell's
// top-left pixel position on screen.
func (e *Engine) DrawCell(imageID, placementID uint32, col, row int, xPix, yPix int, reverse bool) {
	cellW, cellH := e.cells.CellSize()
	e.coalescer.append(imageID, placementID, col, col+1, row, row+1, xPix, yPix, cellW, cellH, reverse, e.drawRect)
}

// EndFrame is the frame-drawing entry point's completion call: it flushes
// every pending coalesced rectangle through the placement loader and the
// blit primitive.
func (e *Engine) EndFrame() {
	e.coalescer.flush(e.drawRect)
}

// drawRect resolves a coalesced rectangle to its placement's scaled
// raster, (re)building that raster through LoadPlacement when it is
// missing or was scaled for a different cell size, and blits the columns
// and rows the rectangle covers, relative to the placement's own raster
// origin. Nothing is drawn if the raster cannot be built (for example,
// when the image's original raster is not loaded).
func (e *Engine) drawRect(r pendingRect) {
	img, ok := e.store.FindImage(r.imageID)
	if !ok {
		return
	}
	p, ok := e.store.FindPlacement(img, r.placementID)
	if !ok {
		return
	}
	InvalidateIfStale(p, r.cellW, r.cellH)
	if p.ScaledRaster == nil {
		if err := LoadPlacement(p, img, r.cellW, r.cellH, e.cfg.MaxSingleImageRAMBytes); err != nil {
			return
		}
	}
	img.Atime = e.store.Tick()
	p.Atime = img.Atime

	bounds := p.ScaledRaster.Bounds()
	left := bounds.Min.X + r.startCol*r.cellW
	right := bounds.Min.X + r.endCol*r.cellW
	if right > bounds.Max.X {
		right = bounds.Max.X
	}
	top := bounds.Min.Y + r.startRow*r.cellH
	bottom := bounds.Min.Y + r.endRow*r.cellH
	if bottom > bounds.Max.Y {
		bottom = bounds.Max.Y
	}
	if left >= right || top >= bottom {
		return
	}

	sub, ok := p.ScaledRaster.SubImage(image.Rect(left, top, right, bottom)).(*image.NRGBA)
	if !ok {
		return
	}
	_ = e.blit.Blit(sub, r.xPix, r.yPix, r.reverse)
}
