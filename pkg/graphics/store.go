package graphics

import (
	"math/rand/v2"
)

// Store is the in-memory image/placement cache (spec.md §4.1, component
// A). It owns every Image; each Image owns its Placements by id.
//
// The engine is single-threaded by design (spec.md §5): Store performs no
// locking of its own.
type Store struct {
	images map[uint32]*Image
	clock  uint64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{images: make(map[uint32]*Image)}
}

// Tick advances and returns the store's monotonic clock. Every touch
// (creation, append, place, draw) calls this to update an Image's or
// Placement's atime.
func (s *Store) Tick() uint64 {
	s.clock++
	return s.clock
}

// ImageCount returns the number of images currently in the store.
func (s *Store) ImageCount() int { return len(s.images) }

// PlacementCount returns the total number of placements across every
// image.
func (s *Store) PlacementCount() int {
	n := 0
	for _, img := range s.images {
		n += len(img.Placements)
	}
	return n
}

// DiskBytes returns images_disk_bytes: the sum of every image's DiskSize.
func (s *Store) DiskBytes() int64 {
	var total int64
	for _, img := range s.images {
		total += img.DiskSize
	}
	return total
}

// RamBytes returns images_ram_bytes: the sum of every image's and
// placement's loaded raster footprint.
func (s *Store) RamBytes() int64 {
	var total int64
	for _, img := range s.images {
		total += img.RamBytes()
	}
	return total
}

// Images returns a snapshot slice of every image. The caller must not
// mutate the map through it in ways that race with the store (there is
// only one goroutine touching the store per spec.md §5, so this is a
// plain slice, not a copy-on-write view).
func (s *Store) Images() []*Image {
	out := make([]*Image, 0, len(s.images))
	for _, img := range s.images {
		out = append(out, img)
	}
	return out
}

// FindImage returns the image with the given id, if any.
func (s *Store) FindImage(id uint32) (*Image, bool) {
	img, ok := s.images[id]
	return img, ok
}

// FindImageByNumber returns the image sharing image_number n with the
// highest global_command_index, or (nil, false) if none match
// (spec.md §4.1, §9 open question resolution: newest by
// global_command_index).
func (s *Store) FindImageByNumber(n uint32) (*Image, bool) {
	var best *Image
	for _, img := range s.images {
		if img.ImageNumber != n {
			continue
		}
		if best == nil || img.GlobalCommandIndex > best.GlobalCommandIndex {
			best = img
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// FindPlacement resolves a placement on img by id, falling back to the
// image's default_placement when placementID is 0 (spec.md §9 open
// question resolution: "generate if zero, fall back to the image's
// default_placement only when looking up").
func (s *Store) FindPlacement(img *Image, placementID uint32) (*Placement, bool) {
	if img == nil {
		return nil, false
	}
	if placementID == 0 {
		placementID = img.DefaultPlacement
	}
	if placementID == 0 {
		return nil, false
	}
	p, ok := img.Placements[placementID]
	return p, ok
}

// InsertImage adds img to the store, assigning it a generated id first if
// img.ImageID is 0.
func (s *Store) InsertImage(img *Image) {
	if img.ImageID == 0 {
		img.ImageID = s.newImageID()
	}
	if img.Placements == nil {
		img.Placements = make(map[uint32]*Placement)
	}
	s.images[img.ImageID] = img
}

// DeleteImage removes img from the store by id. It does not touch disk
// state; callers (the upload/dispatch layer) are responsible for closing
// open_file and removing the cache file before or after calling this, per
// spec.md §5 ("Image deletion closes open_file first").
func (s *Store) DeleteImage(id uint32) {
	delete(s.images, id)
}

// InsertPlacement adds p to img, assigning a generated id first if
// p.PlacementID is 0, and setting img.DefaultPlacement if this is the
// image's first placement.
func (s *Store) InsertPlacement(img *Image, p *Placement) {
	if p.PlacementID == 0 {
		p.PlacementID = s.newPlacementID(img)
	}
	if img.Placements == nil {
		img.Placements = make(map[uint32]*Placement)
	}
	if len(img.Placements) == 0 {
		img.DefaultPlacement = p.PlacementID
	}
	p.ImageID = img.ImageID
	img.Placements[p.PlacementID] = p
}

// DeletePlacement removes placement id from img, clearing
// img.DefaultPlacement if it pointed at the removed placement.
func (s *Store) DeletePlacement(img *Image, id uint32) {
	delete(img.Placements, id)
	if img.DefaultPlacement == id {
		img.DefaultPlacement = 0
		for pid := range img.Placements {
			img.DefaultPlacement = pid
			break
		}
	}
}

// newImageID generates a nonzero 32-bit id such that neither the top byte
// nor the middle two bytes are zero (spec.md §3), retrying until unique.
func (s *Store) newImageID() uint32 {
	for {
		id := rand.Uint32()
		if id == 0 {
			continue
		}
		top := (id >> 24) & 0xFF
		mid := (id >> 8) & 0xFFFF
		if top == 0 || mid == 0 {
			continue
		}
		if _, exists := s.images[id]; exists {
			continue
		}
		return id
	}
}

// newPlacementID generates a nonzero 24-bit id for img, avoiding ids
// whose middle two bytes (bits 8-23) are zero, retrying until unique
// within img.
func (s *Store) newPlacementID(img *Image) uint32 {
	for {
		id := rand.Uint32() & 0xFFFFFF
		if id == 0 {
			continue
		}
		mid := (id >> 8) & 0xFFFF
		if mid == 0 {
			continue
		}
		if img.Placements != nil {
			if _, exists := img.Placements[id]; exists {
				continue
			}
		}
		return id
	}
}
