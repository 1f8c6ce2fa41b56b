package graphics

import "sort"

// checkLimits runs the four-budget eviction policy (component B,
// spec.md §4.2) in order. Each budget only triggers once it exceeds
// limit*(1+tolerance), and eviction then reduces it to limit or below
// (protected placements are skipped, so the placement budgets can stay
// above limit when only protected placements remain).
func (e *Engine) checkLimits() {
	t := e.cfg.ExcessToleranceRatio

	e.evictImageCount(t)
	e.evictPlacementCount(t)
	e.evictDiskBytes(t)
	e.evictImageRAM(t)
	e.evictPlacementRAM(t)
}

// imagesByAtime returns every image, oldest atime first, ties broken by
// image id for a stable, deterministic order.
func (e *Engine) imagesByAtime() []*Image {
	imgs := e.store.Images()
	sort.Slice(imgs, func(i, j int) bool {
		if imgs[i].Atime != imgs[j].Atime {
			return imgs[i].Atime < imgs[j].Atime
		}
		return imgs[i].ImageID < imgs[j].ImageID
	})
	return imgs
}

type placementRef struct {
	img *Image
	p   *Placement
}

// placementsByAtime returns every placement across every image, oldest
// atime first, ties broken by (image id, placement id).
func (e *Engine) placementsByAtime() []placementRef {
	var out []placementRef
	for _, img := range e.store.Images() {
		for _, p := range img.Placements {
			out = append(out, placementRef{img: img, p: p})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].p.Atime != out[j].p.Atime {
			return out[i].p.Atime < out[j].p.Atime
		}
		if out[i].img.ImageID != out[j].img.ImageID {
			return out[i].img.ImageID < out[j].img.ImageID
		}
		return out[i].p.PlacementID < out[j].p.PlacementID
	})
	return out
}

func tolerated(limit int, t float64) int {
	return int(float64(limit) * (1 + t))
}

func toleratedBytes(limit int64, t float64) int64 {
	return int64(float64(limit) * (1 + t))
}

// evictImageCount is budget 1: delete whole images (file + object +
// placements), oldest first, until image count <= limit.
func (e *Engine) evictImageCount(t float64) {
	limit := e.cfg.MaxPlacements
	if e.store.ImageCount() <= tolerated(limit, t) {
		return
	}
	for _, img := range e.imagesByAtime() {
		if e.store.ImageCount() <= limit {
			return
		}
		e.deleteImageObject(img)
	}
}

// evictPlacementCount is budget 2: delete placements (excluding
// protected), oldest first, until placement count <= limit.
func (e *Engine) evictPlacementCount(t float64) {
	limit := e.cfg.MaxPlacements
	if e.store.PlacementCount() <= tolerated(limit, t) {
		return
	}
	for _, ref := range e.placementsByAtime() {
		if e.store.PlacementCount() <= limit {
			return
		}
		if ref.p.Protected {
			continue
		}
		e.store.DeletePlacement(ref.img, ref.p.PlacementID)
	}
}

// evictDiskBytes is budget 3: delete disk files only (object and RAM
// raster survive), oldest image first, until disk bytes <= limit.
func (e *Engine) evictDiskBytes(t float64) {
	limit := e.cfg.MaxTotalFileCacheBytes
	if e.store.DiskBytes() <= toleratedBytes(limit, t) {
		return
	}
	for _, img := range e.imagesByAtime() {
		if e.store.DiskBytes() <= limit {
			return
		}
		if img.DiskSize == 0 {
			continue
		}
		_ = e.disk.Remove(img.ImageID)
		img.DiskSize = 0
	}
}

// evictImageRAM is budget 4: unload original rasters, oldest image
// first, until images_ram_bytes <= limit.
func (e *Engine) evictImageRAM(t float64) {
	limit := e.cfg.MaxTotalRAMBytes
	if e.store.RamBytes() <= toleratedBytes(limit, t) {
		return
	}
	for _, img := range e.imagesByAtime() {
		if e.store.RamBytes() <= limit {
			return
		}
		if img.OriginalRaster == nil {
			continue
		}
		img.OriginalRaster = nil
		if img.Status == StatusRamLoadOk {
			img.Status = StatusRamLoadErr
		}
	}
}

// evictPlacementRAM is the second half of budget 4 (same RAM total):
// unload scaled rasters, oldest placement first, skipping protected
// placements, until images_ram_bytes <= limit.
func (e *Engine) evictPlacementRAM(t float64) {
	limit := e.cfg.MaxTotalRAMBytes
	if e.store.RamBytes() <= toleratedBytes(limit, t) {
		return
	}
	for _, ref := range e.placementsByAtime() {
		if e.store.RamBytes() <= limit {
			return
		}
		if ref.p.Protected || ref.p.ScaledRaster == nil {
			continue
		}
		ref.p.ScaledRaster = nil
		ref.p.ScaledCW, ref.p.ScaledCH = 0, 0
	}
}
