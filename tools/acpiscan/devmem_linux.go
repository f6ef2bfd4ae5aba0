package main

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/MaxRS07/max-os/kernel"
	"golang.org/x/sys/unix"
)

// devMemBackend serves physical memory through read-only mappings of
// /dev/mem. Mappings are kept until Close is called so that overlays
// returned by the locators stay valid.
type devMemBackend struct {
	f        *os.File
	pageSize uintptr
	mappings []devMemMapping
}

type devMemMapping struct {
	phys uintptr
	data []byte
}

func openDevMem() (memoryBackend, error) {
	f, err := os.Open("/dev/mem")
	if err != nil {
		return nil, err
	}

	return &devMemBackend{f: f, pageSize: uintptr(unix.Getpagesize())}, nil
}

// MapRegion implements mm.RegionMapFn.
func (d *devMemBackend) MapRegion(physAddr, size uintptr) (uintptr, *kernel.Error) {
	for _, m := range d.mappings {
		if physAddr >= m.phys && physAddr+size <= m.phys+uintptr(len(m.data)) {
			return d.addrOf(m, physAddr), nil
		}
	}

	start := physAddr &^ (d.pageSize - 1)
	end := (physAddr + size + d.pageSize - 1) &^ (d.pageSize - 1)
	if end == start {
		end += d.pageSize
	}

	data, err := unix.Mmap(int(d.f.Fd()), int64(start), int(end-start), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return 0, &kernel.Error{
			Module:  "devmem",
			Message: fmt.Sprintf("mmap [0x%x, 0x%x): %v", start, end, err),
		}
	}

	m := devMemMapping{phys: start, data: data}
	d.mappings = append(d.mappings, m)
	return d.addrOf(m, physAddr), nil
}

func (d *devMemBackend) addrOf(m devMemMapping, physAddr uintptr) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(m.data))) + physAddr - m.phys
}

// Close unmaps every mapping and closes /dev/mem.
func (d *devMemBackend) Close() error {
	for _, m := range d.mappings {
		_ = unix.Munmap(m.data)
	}
	d.mappings = nil
	return d.f.Close()
}
