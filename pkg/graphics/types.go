// Package graphics implements the terminal-side image store and
// graphics-command engine for the Kitty graphics protocol with the
// Unicode-placeholder extension: escape-sequence parsing, a two-tier
// disk+RAM image/placement cache with age-based eviction, the chunked
// upload state machine, scaled-placement geometry, and the deferred
// draw-rectangle coalescer.
package graphics

import (
	"image"
)

// Format is the pixel format carried on an image transmission (the wire
// "f=" key).
type Format uint32

const (
	FormatAuto Format = 0   // external decoder autodetects the container format
	FormatRGB  Format = 24  // raw RGB, 3 bytes/pixel
	FormatRGBA Format = 32  // raw RGBA, 4 bytes/pixel
	FormatFile Format = 100 // image-file format handled by the external decoder
)

// Compression identifies the optional payload compression (wire "o=").
type Compression byte

const (
	CompressionNone Compression = 0
	CompressionZlib Compression = 'z'
)

// Status is the lifecycle state of an Image, per spec.md §3.
type Status int

const (
	StatusUninit Status = iota
	StatusUploading
	StatusUploadErr
	StatusUploadOk
	StatusRamLoadErr
	StatusRamLoadOk
)

func (s Status) String() string {
	switch s {
	case StatusUninit:
		return "uninit"
	case StatusUploading:
		return "uploading"
	case StatusUploadErr:
		return "upload-err"
	case StatusUploadOk:
		return "upload-ok"
	case StatusRamLoadErr:
		return "ram-load-err"
	case StatusRamLoadOk:
		return "ram-load-ok"
	default:
		return "unknown"
	}
}

// UploadFailure records why an upload moved to StatusUploadErr.
type UploadFailure int

const (
	FailureNone UploadFailure = iota
	FailureOverSizeLimit
	FailureCannotOpenCachedFile
	FailureUnexpectedSize
	FailureCannotCopyFile
)

// Quiet levels for the wire "q=" key.
const (
	QuietNone     = 0 // emit every response
	QuietOK       = 1 // suppress OK responses
	QuietEverything = 2 // suppress OK and error responses
)

// ScaleMode chooses how a placement's source rectangle is composed into
// its target cell rectangle (spec.md §4.3).
type ScaleMode int

const (
	ScaleNone ScaleMode = iota
	ScaleFill
	ScaleContain
	ScaleNoneOrContain
)

// Image is the original, unscaled raster kept on disk and optionally in
// RAM, plus its transmission and lifecycle metadata. See spec.md §3.
type Image struct {
	ImageID            uint32
	QueryID            uint32 // nonzero => ephemeral, discarded after the query response
	ImageNumber        uint32
	GlobalCommandIndex uint64
	Atime              uint64

	DiskSize     int64
	ExpectedSize int64

	Format      Format
	Compression Compression
	PixWidth    int
	PixHeight   int

	Status           Status
	UploadingFailure UploadFailure
	Quiet            int

	// openFile is non-nil exactly while a chunked direct upload is in
	// progress for this image (spec.md §3 invariant).
	openFile *diskFile

	// OriginalRaster is the decoded RAM copy of the image, if loaded.
	OriginalRaster *image.NRGBA

	Placements         map[uint32]*Placement
	DefaultPlacement   uint32
	InitialPlacementID uint32
}

// ramSize is the RGBA RAM footprint of a width×height raster.
func ramSize(w, h int) int64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	return int64(w) * int64(h) * 4
}

// RamBytes returns the RAM footprint currently attributable to this image:
// its own original raster plus every placement's scaled raster.
func (img *Image) RamBytes() int64 {
	var total int64
	if img.OriginalRaster != nil {
		b := img.OriginalRaster.Bounds()
		total += ramSize(b.Dx(), b.Dy())
	}
	for _, p := range img.Placements {
		if p.ScaledRaster != nil {
			b := p.ScaledRaster.Bounds()
			total += ramSize(b.Dx(), b.Dy())
		}
	}
	return total
}

// Placement is a sized, cropped, scaled view of an Image, owned by that
// Image. It borrows its owning image by id, not by pointer (spec.md §9).
type Placement struct {
	PlacementID uint32
	ImageID     uint32

	Atime           uint64
	Protected       bool // transient: forbids eviction while set
	Virtual         bool // true => annotates Unicode placeholder cells only
	ScaleMode       ScaleMode
	DoNotMoveCursor bool

	Cols, Rows int // cell dimensions; 0 = infer

	SrcPixX, SrcPixY           int
	SrcPixWidth, SrcPixHeight int

	ScaledRaster *image.NRGBA
	ScaledCW     int // cell pixel width the raster was scaled for
	ScaledCH     int // cell pixel height the raster was scaled for
}
