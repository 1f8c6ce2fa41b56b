package graphics

// SetDeleteCellFunc wires the emulator's per-cell lookup callback used by
// cell-iterating delete specifiers (spec.md §6). Optional: delete
// specifiers that don't require cell iteration work without it.
func (e *Engine) SetDeleteCellFunc(fn DeleteCellFunc) {
	e.deleteCells = fn
}

// dispatch routes a parsed command to its handler (component H,
// spec.md §4.6-§4.7).
func (e *Engine) dispatch(cmd *command) *Result {
	if cmd.action == 0 && cmd.hasMore {
		return e.continuationChunk(cmd)
	}

	switch cmd.action {
	case 't':
		_, _, res := e.runTransmit(cmd, false)
		return res
	case 'q':
		return e.handleQuery(cmd)
	case 'p':
		return e.handlePut(cmd)
	case 'T':
		return e.handleTransmitAndPut(cmd)
	case 'd':
		return e.handleDelete(cmd)
	case 0:
		return (&Result{}).withHeaders(cmd).fail(newError(CodeEINVAL, "missing action 'a'"))
	default:
		return (&Result{}).withHeaders(cmd).fail(newError(CodeEINVAL, "unsupported action 'a'"))
	}
}

// handleQuery runs a transmission against a fresh ephemeral image,
// discarding it once the load/error response is formed (spec.md §4.6).
func (e *Engine) handleQuery(cmd *command) *Result {
	img, _, res := e.runTransmit(cmd, true)
	if img != nil && img.QueryID != 0 {
		if img.openFile != nil {
			_ = img.openFile.Close()
		}
		_ = e.disk.Remove(img.ImageID)
		e.store.DeleteImage(img.ImageID)
	}
	return res
}

// resolveImage finds the target image by id, falling back to lookup by
// image_number, per spec.md §4.6's "(id, number)" resolution.
func (e *Engine) resolveImage(cmd *command) (*Image, bool) {
	if cmd.hasImageID {
		return e.store.FindImage(cmd.imageID)
	}
	if cmd.hasImageNumber {
		return e.store.FindImageByNumber(cmd.imageNumber)
	}
	return nil, false
}

// handlePut implements a=p (spec.md §4.6).
func (e *Engine) handlePut(cmd *command) *Result {
	res := (&Result{}).withHeaders(cmd)

	img, ok := e.resolveImage(cmd)
	if !ok {
		return res.fail(newError(CodeENOENT, "image not found"))
	}

	p := &Placement{
		PlacementID: cmd.placementID,
		SrcPixX:     cmd.srcX, SrcPixY: cmd.srcY,
		SrcPixWidth: cmd.srcW, SrcPixHeight: cmd.srcH,
		Cols: cmd.cols, Rows: cmd.rows,
		Virtual:         cmd.virtual,
		DoNotMoveCursor: cmd.doNotMoveCursor,
	}
	p.ScaleMode = choosePlacementScaleMode(p.Virtual, cmd.cols, cmd.rows)

	e.store.InsertPlacement(img, p)
	img.Atime = e.store.Tick()
	p.Atime = img.Atime

	if img.OriginalRaster != nil {
		cellW, cellH := e.cells.CellSize()
		if err := LoadPlacement(p, img, cellW, cellH, e.cfg.MaxSingleImageRAMBytes); err != nil {
			return res.fail(err)
		}
	}

	if !p.Virtual && img.Status == StatusRamLoadOk {
		res.Placeholder = &PlaceholderCreation{
			ImageID:         img.ImageID,
			PlacementID:     p.PlacementID,
			Columns:         p.Cols,
			Rows:            p.Rows,
			DoNotMoveCursor: p.DoNotMoveCursor,
		}
	}

	return res.ok()
}

// handleTransmitAndPut implements a=T (spec.md §4.6): transmit, then put
// unless this command's transmission is a continuation still in
// progress, in which case the put geometry is stashed for the
// continuation chunk that eventually finishes the upload.
func (e *Engine) handleTransmitAndPut(cmd *command) *Result {
	img, finished, res := e.runTransmit(cmd, false)
	if img == nil {
		return res
	}

	pp := &putParams{
		placementID:     cmd.placementID,
		hasPlacementID:  cmd.hasPlacementID,
		srcX:            cmd.srcX, srcY: cmd.srcY,
		srcW: cmd.srcW, srcH: cmd.srcH,
		cols: cmd.cols, rows: cmd.rows,
		virtual:         cmd.virtual,
		doNotMoveCursor: cmd.doNotMoveCursor,
	}

	if !finished {
		e.pendingPut[img.ImageID] = pp
		return res
	}

	if img.Status != StatusRamLoadOk {
		return res
	}

	p := &Placement{
		PlacementID: pp.placementID,
		SrcPixX:     pp.srcX, SrcPixY: pp.srcY,
		SrcPixWidth: pp.srcW, SrcPixHeight: pp.srcH,
		Cols: pp.cols, Rows: pp.rows,
		Virtual:         pp.virtual,
		DoNotMoveCursor: pp.doNotMoveCursor,
	}
	p.ScaleMode = choosePlacementScaleMode(p.Virtual, pp.cols, pp.rows)
	e.store.InsertPlacement(img, p)
	img.InitialPlacementID = p.PlacementID
	img.Atime = e.store.Tick()
	p.Atime = img.Atime

	cellW, cellH := e.cells.CellSize()
	if err := LoadPlacement(p, img, cellW, cellH, e.cfg.MaxSingleImageRAMBytes); err != nil {
		return res.fail(err)
	}

	if !p.Virtual {
		res.Placeholder = &PlaceholderCreation{
			ImageID:         img.ImageID,
			PlacementID:     p.PlacementID,
			Columns:         p.Cols,
			Rows:            p.Rows,
			DoNotMoveCursor: p.DoNotMoveCursor,
		}
	}

	return res
}

// handleDelete implements a=d (spec.md §4.7).
func (e *Engine) handleDelete(cmd *command) *Result {
	res := (&Result{}).withHeaders(cmd)

	spec := cmd.deleteSpec
	upper := spec >= 'A' && spec <= 'Z'
	lower := toLowerRune(spec)

	switch lower {
	case 0, 'a':
		e.deleteAllVisible()
		return res.ok()

	case 'i':
		img, ok := e.resolveImage(cmd)
		if !ok {
			return res.fail(newError(CodeENOENT, "image not found"))
		}
		e.deleteByImage(img, cmd, upper)
		return res.ok()

	case 'n':
		if !cmd.hasImageNumber {
			return res.fail(newError(CodeEINVAL, "delete specifier 'n' requires I="))
		}
		img, ok := e.store.FindImageByNumber(cmd.imageNumber)
		if !ok {
			return res.fail(newError(CodeENOENT, "image not found"))
		}
		e.deleteByImage(img, cmd, upper)
		return res.ok()

	default:
		// Unrecognized specifier: warning, ignored (spec.md §4.7).
		e.log.Warn("graphics: unrecognized delete specifier", "specifier", string(spec))
		return res.ok()
	}
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// deleteByImage unlinks placements of img (optionally narrowed to one
// placement id), and — when upper is true — deletes the image object
// once no placements remain, or outright if the command had no explicit
// placement id (spec.md §4.7: "the only way to remove an image whose
// placements are all virtual"). With no explicit placement id, every
// placement of img is unlinked regardless of Virtual: only the
// none/a specifier (deleteAllVisible) is restricted to non-virtual
// classic placements; i/n unlink virtual placements too, which is why
// the uppercase variant is needed to also remove the image object when
// all of its placements were virtual.
func (e *Engine) deleteByImage(img *Image, cmd *command, upper bool) {
	if cmd.hasPlacementID {
		e.store.DeletePlacement(img, cmd.placementID)
	} else {
		for id := range img.Placements {
			e.store.DeletePlacement(img, id)
		}
	}

	if upper && len(img.Placements) == 0 {
		e.deleteImageObject(img)
	}
}

// deleteAllVisible deletes every non-virtual classic placement across
// every image, by asking the emulator's per-cell callback what occupies
// each grid cell (spec.md §4.7, §6). If no callback is wired, every
// classic placement is unlinked directly instead (a degraded but safe
// fallback for hosts that don't track a cell grid).
func (e *Engine) deleteAllVisible() {
	if e.deleteCells == nil {
		for _, img := range e.store.Images() {
			for id, p := range img.Placements {
				if !p.Virtual {
					e.store.DeletePlacement(img, id)
				}
			}
		}
		return
	}

	cols, rows := e.cells.GridSize()
	seen := make(map[uint64]bool)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			imageID, placementID, isClassic, cleared := e.deleteCells(col, row)
			if !isClassic || !cleared || imageID == 0 {
				continue
			}
			key := uint64(imageID)<<32 | uint64(placementID)
			if seen[key] {
				continue
			}
			seen[key] = true
			if img, ok := e.store.FindImage(imageID); ok {
				e.store.DeletePlacement(img, placementID)
			}
		}
	}
}

// deleteImageObject closes any open upload handle, removes the disk
// file, and removes img from the store (spec.md §5: "image deletion
// closes open_file first").
func (e *Engine) deleteImageObject(img *Image) {
	if img.openFile != nil {
		_ = img.openFile.Close()
		img.openFile = nil
	}
	_ = e.disk.Remove(img.ImageID)
	e.clearContinuationIfMatches(img.ImageID)
	delete(e.pendingPut, img.ImageID)
	e.store.DeleteImage(img.ImageID)
}
