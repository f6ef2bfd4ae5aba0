package mm

import "github.com/MaxRS07/max-os/kernel"

// RegionMapFn makes the physical range [physAddr, physAddr+size) accessible
// to the caller and returns the address through which its first byte can be
// read. Implementations must keep the mapping valid for as long as the caller
// holds pointers into it.
type RegionMapFn func(physAddr, size uintptr) (uintptr, *kernel.Error)

// IdentityMapRegion is the RegionMapFn used during early boot, before paging
// is reconfigured: physical memory is identity-mapped so the physical address
// can be dereferenced as-is.
func IdentityMapRegion(physAddr, _ uintptr) (uintptr, *kernel.Error) {
	return physAddr, nil
}
