// Package physimage provides a physical memory backend made of byte slices.
// Each segment holds a copy of (or a host mapping for) a window of physical
// memory starting at a known physical base address. An Image can be plugged
// into any code that accesses physical memory through an mm.RegionMapFn,
// which is how the ACPI locators are exercised by tests and by the host-side
// scanning tool.
package physimage

import (
	"sort"
	"unsafe"

	"github.com/MaxRS07/max-os/kernel"
)

var (
	errSegmentOverlap = &kernel.Error{Module: "physimage", Message: "segment overlaps an existing segment"}
	errEmptySegment   = &kernel.Error{Module: "physimage", Message: "segment contains no data"}
	errUnmapped       = &kernel.Error{Module: "physimage", Message: "physical range is not backed by any segment"}
)

// Segment is a window of physical memory starting at Base.
type Segment struct {
	Base uintptr
	Data []byte
}

// End returns the physical address one past the last byte of the segment.
func (s Segment) End() uintptr {
	return s.Base + uintptr(len(s.Data))
}

// Image is a sparse physical memory image. Segments never overlap and are
// kept sorted by base address.
type Image struct {
	segments []Segment
}

// New returns an Image populated with the given segments.
func New(segments ...Segment) (*Image, *kernel.Error) {
	img := &Image{}
	for _, seg := range segments {
		if err := img.Add(seg.Base, seg.Data); err != nil {
			return nil, err
		}
	}

	return img, nil
}

// Add registers data as the contents of physical memory starting at base.
// The image keeps a reference to data; callers must not resize it.
func (img *Image) Add(base uintptr, data []byte) *kernel.Error {
	if len(data) == 0 {
		return errEmptySegment
	}

	seg := Segment{Base: base, Data: data}
	for _, other := range img.segments {
		if seg.Base < other.End() && other.Base < seg.End() {
			return errSegmentOverlap
		}
	}

	img.segments = append(img.segments, seg)
	sort.Slice(img.segments, func(i, j int) bool {
		return img.segments[i].Base < img.segments[j].Base
	})

	return nil
}

// Segments returns the registered segments in ascending base order.
func (img *Image) Segments() []Segment {
	return img.segments
}

// MapRegion implements mm.RegionMapFn. The whole range must be backed by a
// single segment. A zero-sized range only requires physAddr to fall inside
// a segment or at its end.
func (img *Image) MapRegion(physAddr, size uintptr) (uintptr, *kernel.Error) {
	for _, seg := range img.segments {
		if physAddr < seg.Base || physAddr > seg.End() {
			continue
		}

		offset := physAddr - seg.Base
		if size > uintptr(len(seg.Data))-offset {
			continue
		}

		// Segment data lives on the heap which is never moved by the
		// Go garbage collector, so the address stays valid as long as
		// the image references the slice.
		return uintptr(unsafe.Pointer(unsafe.SliceData(seg.Data))) + offset, nil
	}

	return 0, errUnmapped
}

// Covers reports whether the physical range [physAddr, physAddr+size) is
// backed by a single segment.
func (img *Image) Covers(physAddr, size uintptr) bool {
	_, err := img.MapRegion(physAddr, size)
	return err == nil
}
