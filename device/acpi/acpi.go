package acpi

import (
	"io"

	"github.com/MaxRS07/max-os/device"
	"github.com/MaxRS07/max-os/device/acpi/table"
	"github.com/MaxRS07/max-os/kernel"
	"github.com/MaxRS07/max-os/kernel/hal/multiboot"
	"github.com/MaxRS07/max-os/kernel/kfmt"
	"github.com/MaxRS07/max-os/kernel/mm"
)

const (
	acpiRev2Plus uint8 = 2
)

var (
	errMissingRootTable = &kernel.Error{Module: "acpi", Message: "could not locate a root system descriptor table"}

	mapFn         mm.RegionMapFn = mm.IdentityMapRegion
	bootCmdLineFn                = multiboot.GetBootCmdLine
	memoryMapFn                  = func() mm.MemoryMap { return multiboot.BootMemoryMap{} }
)

// Driver exposes the ACPI tables located while probing for ACPI support.
type Driver struct {
	locator *Locator

	rsdp     *table.RSDPDescriptor
	rsdpAddr uintptr

	xsdp     table.ExtRSDPDescriptor
	xsdpAddr uintptr
	hasXSDP  bool

	rsdt     *table.RSDT
	rsdtAddr uintptr

	// legacyRSDT is set when rsdt was located by the unvalidated FADT
	// signature scan.
	legacyRSDT bool

	xsdt     *table.XSDT
	xsdtAddr uintptr

	fadt     *table.FADT
	fadtAddr uintptr
}

// DriverInit locates the root tables and the FADT and prints a line for
// each table that was found.
func (drv *Driver) DriverInit(w io.Writer) *kernel.Error {
	drv.locator.Log = w
	defer func() { drv.locator.Log = nil }()

	if err := drv.locateRootTables(w); err != nil {
		return err
	}

	drv.locateFADT(w)
	drv.printTableInfo(w)

	return nil
}

// DriverName returns the name of this driver.
func (*Driver) DriverName() string {
	return "ACPI"
}

// DriverVersion returns the version of this driver.
func (*Driver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// RSDP returns the root system descriptor pointer.
func (drv *Driver) RSDP() *table.RSDPDescriptor {
	return drv.rsdp
}

// XSDP returns a copy of the extended root system descriptor pointer and
// whether one was found.
func (drv *Driver) XSDP() (table.ExtRSDPDescriptor, bool) {
	return drv.xsdp, drv.hasXSDP
}

// RSDT returns the root system descriptor table or nil if it was not found.
func (drv *Driver) RSDT() *table.RSDT {
	return drv.rsdt
}

// XSDT returns the extended system descriptor table or nil if the firmware
// does not provide one.
func (drv *Driver) XSDT() *table.XSDT {
	return drv.xsdt
}

// FADT returns the fixed ACPI description table or nil if it was not found.
func (drv *Driver) FADT() *table.FADT {
	return drv.fadt
}

// locateRootTables follows the XSDP and the RSDP to their root tables,
// falling back to the legacy signature scan when the RSDT referenced by the
// RSDP fails validation.
func (drv *Driver) locateRootTables(w io.Writer) *kernel.Error {
	var err *kernel.Error

	if drv.hasXSDP && drv.xsdp.XSDTAddress() != 0 {
		if drv.xsdt, drv.xsdtAddr, err = drv.locator.ExtRootTable(&drv.xsdp); err != nil {
			kfmt.Fprintf(w, "XSDT at 0x%16x [%s; ignoring]\n", drv.xsdtAddr, err.Message)
			drv.xsdt = nil
		}
	}

	if drv.rsdt, drv.rsdtAddr, err = drv.locator.RootTable(drv.rsdp); err != nil {
		kfmt.Fprintf(w, "RSDT at 0x%16x [%s; falling back to signature scan]\n", drv.rsdtAddr, err.Message)
		if drv.rsdt, drv.rsdtAddr, err = drv.locator.LocateRSDT(); err == nil {
			drv.legacyRSDT = true
		}
	}

	if drv.rsdt == nil && drv.xsdt == nil {
		return errMissingRootTable
	}

	return nil
}

// locateFADT looks up the FADT through the preferred root table and falls
// back to a validated scan of the root scan regions.
func (drv *Driver) locateFADT(w io.Writer) {
	var err = ErrTableNotFound

	switch {
	case drv.xsdt != nil:
		drv.fadt, drv.fadtAddr, err = drv.locator.LookupFADT(drv.xsdtAddr, true)
	case drv.rsdt != nil && !drv.legacyRSDT:
		drv.fadt, drv.fadtAddr, err = drv.locator.LookupFADT(drv.rsdtAddr, false)
	}

	if err == nil {
		return
	}

	if drv.fadt, drv.fadtAddr, err = drv.locator.FindFADT(); err != nil {
		kfmt.Fprintf(w, "FACP [%s]\n", err.Message)
	}
}

func (drv *Driver) printTableInfo(w io.Writer) {
	kfmt.Fprintf(w, "RSD PTR at 0x%16x rev %d (%6s) checksum %s\n",
		drv.rsdpAddr,
		drv.rsdp.Revision,
		drv.rsdp.OEMID[:],
		drv.locator.Checksum.String(),
	)

	if drv.hasXSDP {
		kfmt.Fprintf(w, "RSD PTR at 0x%16x ext %6x checksums valid: %t\n",
			drv.xsdpAddr,
			drv.xsdp.Length,
			drv.xsdp.ValidChecksums(drv.locator.Checksum),
		)
	}

	if drv.xsdt != nil {
		printHeader(w, drv.xsdtAddr, &drv.xsdt.SDTHeader, "")
	}

	if drv.rsdt != nil {
		note := ""
		if drv.legacyRSDT {
			note = " [signature scan]"
		}
		printHeader(w, drv.rsdtAddr, &drv.rsdt.SDTHeader, note)
	}

	if drv.fadt != nil {
		printHeader(w, drv.fadtAddr, &drv.fadt.SDTHeader, "")
	}
}

func printHeader(w io.Writer, phys uintptr, hdr *table.SDTHeader, note string) {
	kfmt.Fprintf(w, "%s at 0x%16x %6x (%6s %8s)%s\n",
		hdr.Signature[:],
		phys,
		hdr.Length,
		hdr.OEMID[:],
		hdr.OEMTableID[:],
		note,
	)
}

// probeForACPI reads the ACPI options from the boot command line and looks
// for the RSDP, first in the fixed boot window and then in all pointer scan
// regions. When the firmware reports ACPI 2.0+ the extended RSDP is located
// through the boot memory map.
func probeForACPI() device.Driver {
	loc := &Locator{MapFn: mapFn, Regions: DefaultRegions}

	for k, v := range bootCmdLineFn() {
		switch k {
		case "acpi":
			if v == "off" {
				return nil
			}
		case "acpiChecksum":
			if mode, ok := table.ParseChecksumMode(v); ok {
				loc.Checksum = mode
			}
		}
	}

	drv := &Driver{locator: loc}

	var err *kernel.Error
	if drv.rsdp, drv.rsdpAddr, err = loc.LocateRSDP(); err != nil {
		if drv.rsdp, drv.rsdpAddr, err = loc.SearchRSDP(); err != nil {
			return nil
		}
	}

	if drv.rsdp.Revision >= acpiRev2Plus {
		if drv.xsdp, drv.xsdpAddr, err = loc.LocateXSDP(memoryMapFn()); err == nil {
			drv.hasXSDP = true
		}
	}

	return drv
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderACPI,
		Probe: probeForACPI,
	})
}
