package graphics

import (
	"image/color"
	"testing"
)

func newEvictionTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CacheDirPrefix = "kittygfx-evict-test"
	return newTestEngine(t, cfg)
}

func insertTestImage(e *Engine, id uint32, diskSize int64, atime uint64) *Image {
	img := &Image{ImageID: id, DiskSize: diskSize, Atime: atime, Status: StatusRamLoadOk}
	e.store.InsertImage(img)
	return img
}

func TestEvictImageCountDeletesOldestFirst(t *testing.T) {
	e := newEvictionTestEngine(t)
	e.cfg.MaxPlacements = 2
	e.cfg.ExcessToleranceRatio = 0

	insertTestImage(e, 1, 0, 1)
	insertTestImage(e, 2, 0, 2)
	insertTestImage(e, 3, 0, 3)

	e.evictImageCount(e.cfg.ExcessToleranceRatio)

	if _, ok := e.store.FindImage(1); ok {
		t.Error("image 1 (oldest atime) should have been evicted")
	}
	if e.store.ImageCount() != 2 {
		t.Errorf("ImageCount() = %d, want 2", e.store.ImageCount())
	}
}

func TestEvictImageCountRespectsTolerance(t *testing.T) {
	e := newEvictionTestEngine(t)
	e.cfg.MaxPlacements = 2
	e.cfg.ExcessToleranceRatio = 1.0 // tolerated() == 4

	insertTestImage(e, 1, 0, 1)
	insertTestImage(e, 2, 0, 2)
	insertTestImage(e, 3, 0, 3)

	e.evictImageCount(e.cfg.ExcessToleranceRatio)

	if e.store.ImageCount() != 3 {
		t.Errorf("ImageCount() = %d, want 3 (within tolerance, no eviction expected)", e.store.ImageCount())
	}
}

func TestEvictPlacementCountSkipsProtected(t *testing.T) {
	e := newEvictionTestEngine(t)
	e.cfg.MaxPlacements = 1
	e.cfg.ExcessToleranceRatio = 0

	img := insertTestImage(e, 1, 0, 1)
	protected := &Placement{PlacementID: 1, Atime: 1, Protected: true}
	other := &Placement{PlacementID: 2, Atime: 2}
	e.store.InsertPlacement(img, protected)
	e.store.InsertPlacement(img, other)

	e.evictPlacementCount(e.cfg.ExcessToleranceRatio)

	if _, ok := img.Placements[1]; !ok {
		t.Error("protected placement should survive eviction")
	}
	if _, ok := img.Placements[2]; ok {
		t.Error("unprotected placement should have been evicted")
	}
}

func TestEvictDiskBytesClearsFileNotObject(t *testing.T) {
	e := newEvictionTestEngine(t)
	e.cfg.MaxTotalFileCacheBytes = 10
	e.cfg.ExcessToleranceRatio = 0

	img := insertTestImage(e, 1, 20, 1)
	img.OriginalRaster = nil // disk-only for this test

	e.evictDiskBytes(e.cfg.ExcessToleranceRatio)

	if img.DiskSize != 0 {
		t.Errorf("DiskSize = %d, want 0", img.DiskSize)
	}
	if _, ok := e.store.FindImage(1); !ok {
		t.Error("image object should survive a disk-bytes eviction")
	}
}

func TestEvictImageRAMUnloadsOldestFirst(t *testing.T) {
	e := newEvictionTestEngine(t)
	e.cfg.MaxTotalRAMBytes = 4 * 100 * 100 * 4 // room for exactly one 200x200 raster
	e.cfg.ExcessToleranceRatio = 0

	img1 := insertTestImage(e, 1, 0, 1)
	img1.OriginalRaster = makeSolidImage(200, 200, color.White)
	img2 := insertTestImage(e, 2, 0, 2)
	img2.OriginalRaster = makeSolidImage(200, 200, color.White)

	e.evictImageRAM(e.cfg.ExcessToleranceRatio)

	if img1.OriginalRaster != nil {
		t.Error("image 1 (oldest atime) should have had its raster unloaded")
	}
	if img1.Status != StatusRamLoadErr {
		t.Errorf("image 1 status = %v, want RamLoadErr", img1.Status)
	}
	if img2.OriginalRaster == nil {
		t.Error("image 2 should still be loaded: only enough RAM needed to be freed")
	}
}

func TestEvictPlacementRAMSkipsProtected(t *testing.T) {
	e := newEvictionTestEngine(t)
	e.cfg.MaxTotalRAMBytes = 1 // force both placements to appear over budget
	e.cfg.ExcessToleranceRatio = 0

	img := insertTestImage(e, 1, 0, 1)
	img.OriginalRaster = nil
	protected := &Placement{PlacementID: 1, Atime: 1, Protected: true, ScaledRaster: makeSolidImage(10, 10, color.White)}
	other := &Placement{PlacementID: 2, Atime: 2, ScaledRaster: makeSolidImage(10, 10, color.White)}
	e.store.InsertPlacement(img, protected)
	e.store.InsertPlacement(img, other)

	e.evictPlacementRAM(e.cfg.ExcessToleranceRatio)

	if protected.ScaledRaster == nil {
		t.Error("protected placement's raster should survive eviction")
	}
	if other.ScaledRaster != nil {
		t.Error("unprotected placement's raster should have been unloaded")
	}
}
