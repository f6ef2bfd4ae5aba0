// Package mem contains the primitives that turn raw addresses into Go values.
// They are the only place in the kernel that converts an address into a
// pointer; every caller must guarantee that the addressed memory is mapped,
// large enough for the requested view and not modified for as long as the
// returned value is used.
package mem

import "unsafe"

// ViewAs overlays a value of type T on top of the memory at addr without
// copying it.
func ViewAs[T any](addr uintptr) *T {
	return (*T)(unsafe.Pointer(addr))
}

// ByteView returns a slice that aliases size bytes of memory starting at
// addr. Writes to the slice modify the underlying memory.
func ByteView(addr, size uintptr) []byte {
	if size == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

