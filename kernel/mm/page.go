// Package mm defines the physical memory vocabulary shared by the boot-time
// code: frames, the memory map handed over by the boot loader and the
// mapping hook used to access physical address ranges.
package mm

// Frame describes a physical memory page index.
type Frame uintptr

// Address returns the physical address of the first byte in this frame.
func (f Frame) Address() uintptr {
	return uintptr(f << PageShift)
}

// FrameFromAddress returns the Frame that contains the given physical
// address. Unaligned addresses are rounded down.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame((physAddr &^ (PageSize - 1)) >> PageShift)
}

