package graphics

// coalescerBankSize is the fixed number of pending rectangle slots
// (spec.md §4.8, §9: "a fixed-size bank to avoid per-frame allocation in
// the hot path").
const coalescerBankSize = 20

// pendingRect is one occupied slot in the coalescer's bank.
type pendingRect struct {
	occupied bool

	imageID     uint32
	placementID uint32

	startCol, endCol int
	startRow, endRow int

	xPix, yPix   int
	cellW, cellH int
	reverse      bool
}

// bottomPix is the pixel row immediately below this rectangle, the
// value two rectangles must match to be considered vertically
// contiguous.
func (r pendingRect) bottomPix() int {
	return r.yPix + (r.endRow-r.startRow)*r.cellH
}

// coalescer implements the deferred draw-rectangle bank (component I).
type coalescer struct {
	bank [coalescerBankSize]pendingRect
}

func newCoalescer() *coalescer {
	return &coalescer{}
}

// append adds a cell rectangle, merging it into a matching contiguous
// slot if one exists, otherwise taking an empty slot or evicting the
// rectangle with the lowest (greatest) bottom pixel (spec.md §4.8). An
// evicted rectangle is drawn via draw first, so the final set of pixels
// drawn for a frame does not depend on the eviction point (spec.md §5).
func (c *coalescer) append(imageID, placementID uint32, startCol, endCol, startRow, endRow, xPix, yPix, cellW, cellH int, reverse bool, draw func(pendingRect)) {
	if imageID == 0 || endRow <= startRow || endCol <= startCol {
		return
	}

	next := pendingRect{
		occupied:    true,
		imageID:     imageID,
		placementID: placementID,
		startCol:    startCol,
		endCol:      endCol,
		startRow:    startRow,
		endRow:      endRow,
		xPix:        xPix,
		yPix:        yPix,
		cellW:       cellW,
		cellH:       cellH,
		reverse:     reverse,
	}

	for i := range c.bank {
		slot := &c.bank[i]
		if !slot.occupied {
			continue
		}
		if slot.imageID != imageID || slot.placementID != placementID ||
			slot.cellW != cellW || slot.cellH != cellH || slot.reverse != reverse {
			continue
		}
		if slot.endRow != startRow || slot.bottomPix() != yPix {
			continue
		}
		if slot.startCol != startCol || slot.endCol != endCol || slot.xPix != xPix {
			continue
		}
		slot.endRow = endRow
		return
	}

	for i := range c.bank {
		if !c.bank[i].occupied {
			c.bank[i] = next
			return
		}
	}

	worst := 0
	for i := 1; i < len(c.bank); i++ {
		if c.bank[i].bottomPix() > c.bank[worst].bottomPix() {
			worst = i
		}
	}
	if draw != nil {
		draw(c.bank[worst])
	}
	c.bank[worst] = next
}

// flush draws every occupied slot via draw, then clears the bank.
func (c *coalescer) flush(draw func(pendingRect)) {
	for i := range c.bank {
		if c.bank[i].occupied {
			draw(c.bank[i])
			c.bank[i] = pendingRect{}
		}
	}
}
