package graphics

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func makeSolidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func TestInferGeometryBothZero(t *testing.T) {
	img := &Image{PixWidth: 100, PixHeight: 50, OriginalRaster: makeSolidImage(100, 50, color.White)}
	p := &Placement{}
	src := inferGeometry(p, img, 10, 20)
	if p.Cols != 10 || p.Rows != 3 {
		t.Errorf("cols,rows = %d,%d, want 10,3", p.Cols, p.Rows)
	}
	if src.Dx() != 100 || src.Dy() != 50 {
		t.Errorf("src rect = %v, want full image", src)
	}
}

func TestClampSrcRectNegativeAndOutOfRange(t *testing.T) {
	img := &Image{PixWidth: 100, PixHeight: 50}
	p := &Placement{SrcPixX: -10, SrcPixY: -5, SrcPixWidth: 1000, SrcPixHeight: 1000}
	src := clampSrcRect(p, img)
	if src.Min.X != 0 || src.Min.Y != 0 {
		t.Errorf("origin = %v, want (0,0)", src.Min)
	}
	if src.Max.X != 100 || src.Max.Y != 50 {
		t.Errorf("extent = %v, want (100,50)", src.Max)
	}
}

func TestLoadPlacementRamBudget(t *testing.T) {
	img := &Image{PixWidth: 1000, PixHeight: 1000, OriginalRaster: makeSolidImage(1000, 1000, color.White)}
	p := &Placement{Cols: 100, Rows: 100}
	err := LoadPlacement(p, img, 10, 10, 1024) // 100*10 * 100*10 * 4 way over 1024
	if err == nil {
		t.Fatal("expected RAM budget error")
	}
	we, ok := err.(*wireError)
	if !ok || we.code != CodeEFBIG {
		t.Errorf("err = %v, want EFBIG", err)
	}
}

func TestLoadPlacementClearsProtectedAfterCompose(t *testing.T) {
	img := &Image{PixWidth: 10, PixHeight: 10, OriginalRaster: makeSolidImage(10, 10, color.White)}
	p := &Placement{Cols: 1, Rows: 1, ScaleMode: ScaleFill}
	if err := LoadPlacement(p, img, 8, 16, 1<<20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Protected {
		t.Error("placement left Protected=true after LoadPlacement returned")
	}
	if p.ScaledRaster == nil {
		t.Fatal("expected a scaled raster")
	}
	if b := p.ScaledRaster.Bounds(); b.Dx() != 8 || b.Dy() != 16 {
		t.Errorf("scaled raster size = %v, want 8x16", b)
	}
}

func TestInvalidateIfStale(t *testing.T) {
	p := &Placement{ScaledRaster: image.NewNRGBA(image.Rect(0, 0, 8, 16)), ScaledCW: 8, ScaledCH: 16}
	InvalidateIfStale(p, 8, 16)
	if p.ScaledRaster == nil {
		t.Error("raster discarded even though cell size did not change")
	}
	InvalidateIfStale(p, 9, 16)
	if p.ScaledRaster != nil {
		t.Error("raster kept even though cell size changed")
	}
}
