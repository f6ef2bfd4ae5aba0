package kmain

import (
	"github.com/MaxRS07/max-os/kernel/hal"
	"github.com/MaxRS07/max-os/kernel/hal/multiboot"
	"github.com/MaxRS07/max-os/kernel/kfmt"

	// Drivers register themselves with the device package from init().
	_ "github.com/MaxRS07/max-os/device/acpi"
)

// Kmain is the only Go symbol that is visible (exported) from the rt0 initialization
// code. It is invoked by the rt0 assembly code with the address of the multiboot
// info payload provided by the bootloader. At that point physical memory is still
// identity-mapped.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	hal.DetectHardware()

	kfmt.Printf("[kmain] %d driver(s) active\n", len(hal.ActiveDrivers()))
}
