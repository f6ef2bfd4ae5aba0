// Package multiboot reads the boot information structure that a multiboot2
// compliant boot loader passes to the kernel.
package multiboot

import (
	"strings"

	"github.com/MaxRS07/max-os/kernel/mem"
	"github.com/MaxRS07/max-os/kernel/mm"
)

type tagType uint32

// nolint
const (
	tagMbSectionEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
	tagModules
	tagBasicMemoryInfo
	tagBiosBootDevice
	tagMemoryMap
)

// tagHeader describes the header the preceedes each tag.
type tagHeader struct {
	// The type of the tag
	tagType tagType

	// The size of the tag including the header but *not* including any
	// padding. Each tag starts at a 8-byte aligned address.
	size uint32
}

// mmapHeader describes the header for a memory map specification.
type mmapHeader struct {
	// The size of each entry.
	entrySize uint32

	// The version of the entries that follow.
	entryVersion uint32
}

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

var (
	infoData  uintptr
	cmdLineKV map[string]string
)

// MemRegionVisitor defies a visitor function that gets invoked by VisitMemRegions
// for each memory region provided by the boot loader. The visitor must return true
// to continue or false to abort the scan.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemReserved:
		return "reserved"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	default:
		return "unknown"
	}
}

// regionKind maps a multiboot entry type to the matching mm.RegionKind.
func (t MemoryEntryType) regionKind() mm.RegionKind {
	switch t {
	case MemAvailable:
		return mm.RegionUsable
	case MemAcpiReclaimable:
		return mm.RegionACPIReclaimable
	case MemNvs:
		return mm.RegionACPINVS
	default:
		return mm.RegionReserved
	}
}

// SetInfoPtr updates the internal multiboot information pointer to the given
// value. This function must be invoked before invoking any other function
// exported by this package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
	cmdLineKV = nil
}

// VisitMemRegions will invoke the supplied visitor for each memory region that
// is defined by the multiboot info data that we received from the bootloader.
func VisitMemRegions(visitor MemRegionVisitor) {
	curPtr, size := findTagByType(tagMemoryMap)
	if size == 0 {
		return
	}

	// curPtr points to the memory map header (2 dwords long)
	ptrMapHeader := mem.ViewAs[mmapHeader](curPtr)
	endPtr := curPtr + uintptr(size)
	curPtr += 8

	var entry *MemoryMapEntry
	for curPtr < endPtr {
		entry = mem.ViewAs[MemoryMapEntry](curPtr)

		// Mark unknown entry types as reserved
		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(entry) {
			return
		}

		curPtr += uintptr(ptrMapHeader.entrySize)
	}
}

// BootMemoryMap exposes the memory map supplied by the boot loader as an
// mm.MemoryMap. Usable regions are shrunk to whole frames; all other
// regions are grown to whole frames.
type BootMemoryMap struct{}

// VisitRegions implements mm.MemoryMap.
func (BootMemoryMap) VisitRegions(visitor mm.RegionVisitor) {
	VisitMemRegions(func(entry *MemoryMapEntry) bool {
		var (
			kind  = entry.Type.regionKind()
			start = uintptr(entry.PhysAddress)
			end   = uintptr(entry.PhysAddress + entry.Length)
		)

		if kind == mm.RegionUsable {
			start = (start + mm.PageSize - 1) &^ (mm.PageSize - 1)
		} else {
			end = (end + mm.PageSize - 1) &^ (mm.PageSize - 1)
		}

		frames := mm.FrameRange{
			Start: mm.FrameFromAddress(start),
			End:   mm.FrameFromAddress(end),
		}
		if frames.End <= frames.Start {
			return true
		}

		return visitor(mm.MemoryRegion{Range: frames, Kind: kind})
	})
}

// GetBootCmdLine returns the command line key-value pairs passed to the
// kernel. Keys without a value map to themselves.
func GetBootCmdLine() map[string]string {
	if cmdLineKV != nil {
		return cmdLineKV
	}

	cmdLineKV = make(map[string]string)

	curPtr, size := findTagByType(tagBootCmdLine)
	if size > 1 {
		// The command line is a C-style NULL-terminated string
		cmdLine := string(mem.ByteView(curPtr, uintptr(size-1)))
		for _, pair := range strings.Fields(cmdLine) {
			kv := strings.Split(pair, "=")
			switch len(kv) {
			case 2: // foo=bar
				cmdLineKV[kv[0]] = kv[1]
			case 1: // nofoo
				cmdLineKV[kv[0]] = kv[0]
			}
		}
	}

	return cmdLineKV
}

// findTagByType scans the multiboot info data looking for the start of of the
// specified type. It returns a pointer to the tag contents start offset and
// the content length exluding the tag header.
//
// If the tag is not present in the multiboot info, findTagByType will return
// back (0,0).
func findTagByType(tagType tagType) (uintptr, uint32) {
	if infoData == 0 {
		return 0, 0
	}

	var ptrTagHeader *tagHeader

	curPtr := infoData + 8
	for ptrTagHeader = mem.ViewAs[tagHeader](curPtr); ptrTagHeader.tagType != tagMbSectionEnd; ptrTagHeader = mem.ViewAs[tagHeader](curPtr) {
		if ptrTagHeader.tagType == tagType {
			return curPtr + 8, ptrTagHeader.size - 8
		}

		// Tags are aligned at 8-byte aligned addresses
		curPtr += uintptr(int32(ptrTagHeader.size+7) & ^7)
	}

	return 0, 0
}
