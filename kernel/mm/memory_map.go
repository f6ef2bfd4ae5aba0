package mm

// RegionKind classifies a physical memory region reported by the boot loader.
type RegionKind uint8

// The list of supported region kinds.
const (
	RegionUnknown RegionKind = iota
	RegionUsable
	RegionReserved
	RegionACPIReclaimable
	RegionACPINVS
	RegionBad
)

// String implements fmt.Stringer for RegionKind.
func (k RegionKind) String() string {
	switch k {
	case RegionUsable:
		return "usable"
	case RegionReserved:
		return "reserved"
	case RegionACPIReclaimable:
		return "ACPI (reclaimable)"
	case RegionACPINVS:
		return "ACPI NVS"
	case RegionBad:
		return "bad"
	default:
		return "unknown"
	}
}

// FrameRange is the half-open frame interval [Start, End).
type FrameRange struct {
	Start, End Frame
}

// StartAddress returns the physical address of the first byte in the range.
func (r FrameRange) StartAddress() uintptr {
	return r.Start.Address()
}

// EndAddress returns the physical address one past the last byte in the range.
func (r FrameRange) EndAddress() uintptr {
	return r.End.Address()
}

// MemoryRegion is a single memory map entry.
type MemoryRegion struct {
	Range FrameRange
	Kind  RegionKind
}

// RegionVisitor is invoked for each region of a MemoryMap. It returns false
// to stop the iteration.
type RegionVisitor func(MemoryRegion) bool

// MemoryMap is implemented by objects that can enumerate the physical memory
// regions of the machine in ascending address order.
type MemoryMap interface {
	VisitRegions(RegionVisitor)
}

// RegionList is a MemoryMap backed by a slice.
type RegionList []MemoryRegion

// VisitRegions implements MemoryMap.
func (l RegionList) VisitRegions(visitor RegionVisitor) {
	for _, region := range l {
		if !visitor(region) {
			return
		}
	}
}
