//go:build !linux

package main

import "errors"

func openDevMem() (memoryBackend, error) {
	return nil, errors.New("--devmem is only supported on linux")
}
