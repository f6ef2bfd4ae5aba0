package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MaxRS07/max-os/kernel"
	"github.com/MaxRS07/max-os/kernel/mm/physimage"
)

// memoryBackend gives the locators access to physical memory.
type memoryBackend interface {
	MapRegion(physAddr, size uintptr) (uintptr, *kernel.Error)
	Close() error
}

// imageBackend serves physical memory from dump files.
type imageBackend struct {
	*physimage.Image
}

// Close implements memoryBackend.
func (imageBackend) Close() error { return nil }

// parseImageSpec splits an image flag value of the form path@base. The base
// address accepts any prefix understood by strconv.ParseUint.
func parseImageSpec(spec string) (ImageConfig, error) {
	at := strings.LastIndexByte(spec, '@')
	if at <= 0 || at == len(spec)-1 {
		return ImageConfig{}, fmt.Errorf("image %q: expected path@base", spec)
	}

	base, err := strconv.ParseUint(spec[at+1:], 0, 64)
	if err != nil {
		return ImageConfig{}, fmt.Errorf("image %q: invalid base address: %w", spec, err)
	}

	return ImageConfig{Path: spec[:at], Base: base}, nil
}

// loadImages reads each image file into a physimage.Image.
func loadImages(images []ImageConfig) (*physimage.Image, error) {
	img, _ := physimage.New()
	for _, ic := range images {
		data, err := os.ReadFile(ic.Path)
		if err != nil {
			return nil, err
		}

		if kerr := img.Add(uintptr(ic.Base), data); kerr != nil {
			return nil, fmt.Errorf("image %s@0x%x: %w", ic.Path, ic.Base, kerr)
		}
	}

	return img, nil
}
