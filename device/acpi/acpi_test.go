package acpi

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MaxRS07/max-os/device"
	"github.com/MaxRS07/max-os/device/acpi/table"
	"github.com/MaxRS07/max-os/kernel/mm"
	"github.com/MaxRS07/max-os/kernel/mm/physimage"
)

const (
	probeRSDP uintptr = windowBase + 0x40
	probeRSDT uintptr = windowBase + 0x100
	probeXSDT uintptr = windowBase + 0x200
	probeAPIC uintptr = windowBase + 0x300
	probeFADT uintptr = windowBase + 0x400
)

// bootWindowImage lays out a complete set of root tables inside the default
// boot window.
func bootWindowImage(t *testing.T, mode table.ChecksumMode, rev2 bool) *firmwareImage {
	fw := newFirmwareImage(t, mode, physimage.Segment{Base: windowBase, Data: make([]byte, 0x2000)})

	fw.putTable(probeAPIC, "APIC", make([]byte, 24))
	fw.putFADT(probeFADT, 0x7fe0040)
	fw.putRSDT(probeRSDT, uint32(probeAPIC), uint32(probeFADT))
	if rev2 {
		fw.putXSDT(probeXSDT, uint64(probeAPIC), uint64(probeFADT))
		fw.putExtRSDP(probeRSDP, uint32(probeRSDT), uint64(probeXSDT))
	} else {
		fw.putRSDP(probeRSDP, uint32(probeRSDT))
	}

	return fw
}

func setupProbe(t *testing.T, fw *firmwareImage, cmdLine map[string]string) {
	origMapFn, origCmdLineFn, origMemoryMapFn := mapFn, bootCmdLineFn, memoryMapFn
	t.Cleanup(func() {
		mapFn, bootCmdLineFn, memoryMapFn = origMapFn, origCmdLineFn, origMemoryMapFn
	})

	mapFn = fw.img.MapRegion
	bootCmdLineFn = func() map[string]string { return cmdLine }
	memoryMapFn = func() mm.MemoryMap {
		return mm.RegionList{
			{Range: mm.FrameRange{Start: 0, End: 0x9f}, Kind: mm.RegionUsable},
			{Range: mm.FrameRange{Start: 0x200, End: 0x202}, Kind: mm.RegionUsable},
		}
	}
}

func TestProbe(t *testing.T) {
	t.Run("ACPI1", func(t *testing.T) {
		fw := bootWindowImage(t, table.ChecksumXOR, false)
		setupProbe(t, fw, nil)

		drv := probeForACPI()
		if drv == nil {
			t.Fatal("ACPI probe failed")
		}

		acpiDrv := drv.(*Driver)
		if acpiDrv.rsdpAddr != probeRSDP || acpiDrv.RSDP().RSDTAddr != uint32(probeRSDT) {
			t.Fatalf("expected RSDP at 0x%x; got 0x%x", probeRSDP, acpiDrv.rsdpAddr)
		}

		if _, ok := acpiDrv.XSDP(); ok {
			t.Fatal("expected no XSDP lookup for an ACPI 1.0 RSDP")
		}
	})

	t.Run("ACPI2+", func(t *testing.T) {
		fw := bootWindowImage(t, table.ChecksumXOR, true)
		setupProbe(t, fw, nil)

		drv := probeForACPI()
		if drv == nil {
			t.Fatal("ACPI probe failed")
		}

		xsdp, ok := drv.(*Driver).XSDP()
		if !ok {
			t.Fatal("expected the XSDP to be located through the memory map")
		}

		if got := xsdp.XSDTAddress(); got != uint64(probeXSDT) {
			t.Fatalf("expected XSDT address 0x%x; got 0x%x", probeXSDT, got)
		}
	})

	t.Run("disabled from the command line", func(t *testing.T) {
		fw := bootWindowImage(t, table.ChecksumXOR, true)
		setupProbe(t, fw, map[string]string{"acpi": "off"})

		if drv := probeForACPI(); drv != nil {
			t.Fatal("expected probe to return nil when ACPI is disabled")
		}
	})

	t.Run("checksum mode from the command line", func(t *testing.T) {
		fw := bootWindowImage(t, table.ChecksumSum, true)
		setupProbe(t, fw, map[string]string{"acpiChecksum": "sum"})

		drv := probeForACPI()
		if drv == nil {
			t.Fatal("ACPI probe failed")
		}

		if got := drv.(*Driver).locator.Checksum; got != table.ChecksumSum {
			t.Fatalf("expected checksum mode %s; got %s", table.ChecksumSum, got)
		}

		if err := drv.DriverInit(&bytes.Buffer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("RSDP outside the fixed window", func(t *testing.T) {
		fw := newFirmwareImage(t, table.ChecksumXOR, physimage.Segment{Base: 0xe0000, Data: make([]byte, 0x20000)})
		fw.putRSDP(0xf0010, 0x7fe0000)
		setupProbe(t, fw, nil)

		drv := probeForACPI()
		if drv == nil {
			t.Fatal("expected SearchRSDP to locate the RSDP in the BIOS area")
		}

		if got := drv.(*Driver).rsdpAddr; got != 0xf0010 {
			t.Fatalf("expected RSDP at 0xf0010; got 0x%x", got)
		}
	})

	t.Run("no RSDP", func(t *testing.T) {
		fw := newFirmwareImage(t, table.ChecksumXOR, physimage.Segment{Base: windowBase, Data: make([]byte, 0x2000)})
		setupProbe(t, fw, nil)

		if drv := probeForACPI(); drv != nil {
			t.Fatal("expected probe to return nil")
		}
	})
}

func TestDriverInit(t *testing.T) {
	t.Run("XSDT", func(t *testing.T) {
		fw := bootWindowImage(t, table.ChecksumXOR, true)
		setupProbe(t, fw, nil)

		drv := probeForACPI().(*Driver)

		var buf bytes.Buffer
		if err := drv.DriverInit(&buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if drv.XSDT() == nil || drv.RSDT() == nil {
			t.Fatal("expected both root tables to be located")
		}

		if drv.FADT() == nil || drv.fadtAddr != probeFADT || drv.FADT().DSDTAddress() != 0x7fe0040 {
			t.Fatalf("expected FADT at 0x%x; got 0x%x", probeFADT, drv.fadtAddr)
		}

		for _, exp := range []string{
			"RSD PTR at 0x0000000000200040 rev 2 (BOCHS ) checksum xor\n",
			"checksums valid: true\n",
			"XSDT at 0x0000000000200200 000034 (BOCHS  BXPCTEST)\n",
			"RSDT at 0x0000000000200100 00002c (BOCHS  BXPCTEST)\n",
			"FACP at 0x0000000000200400 0000f4 (BOCHS  BXPCTEST)\n",
		} {
			if !strings.Contains(buf.String(), exp) {
				t.Errorf("expected output to contain %q; got:\n%s", exp, buf.String())
			}
		}

		if drv.locator.Log != nil {
			t.Error("expected the locator log to be detached after DriverInit")
		}
	})

	t.Run("RSDT", func(t *testing.T) {
		fw := bootWindowImage(t, table.ChecksumXOR, false)
		setupProbe(t, fw, nil)

		drv := probeForACPI().(*Driver)
		if err := drv.DriverInit(&bytes.Buffer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if drv.XSDT() != nil || drv.rsdtAddr != probeRSDT || drv.legacyRSDT {
			t.Fatal("expected the validated RSDT to be used")
		}

		if drv.fadtAddr != probeFADT {
			t.Fatalf("expected FADT at 0x%x; got 0x%x", probeFADT, drv.fadtAddr)
		}
	})

	t.Run("corrupted RSDT", func(t *testing.T) {
		fw := bootWindowImage(t, table.ChecksumXOR, false)
		fw.corrupt(probeRSDT + 40)
		setupProbe(t, fw, nil)

		drv := probeForACPI().(*Driver)

		var buf bytes.Buffer
		if err := drv.DriverInit(&buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !drv.legacyRSDT || drv.rsdtAddr != probeFADT {
			t.Fatalf("expected the signature scan fallback to be used; got RSDT at 0x%x", drv.rsdtAddr)
		}

		if drv.fadtAddr != probeFADT {
			t.Fatalf("expected FindFADT to locate the FADT at 0x%x; got 0x%x", probeFADT, drv.fadtAddr)
		}

		for _, exp := range []string{
			"RSDT at 0x0000000000200100 [table checksum mismatch; falling back to signature scan]\n",
			"[signature scan]\n",
		} {
			if !strings.Contains(buf.String(), exp) {
				t.Errorf("expected output to contain %q; got:\n%s", exp, buf.String())
			}
		}
	})

	t.Run("no root table", func(t *testing.T) {
		fw := newFirmwareImage(t, table.ChecksumXOR, physimage.Segment{Base: windowBase, Data: make([]byte, 0x2000)})
		fw.putRSDP(probeRSDP, 0x7fe0000)
		setupProbe(t, fw, nil)

		drv := probeForACPI()
		if drv == nil {
			t.Fatal("ACPI probe failed")
		}

		if err := drv.DriverInit(&bytes.Buffer{}); err != errMissingRootTable {
			t.Fatalf("expected errMissingRootTable; got %v", err)
		}
	})
}

func TestDriverRegistration(t *testing.T) {
	for _, info := range device.DriverList() {
		if info.Order == device.DetectOrderACPI && info.Probe != nil {
			return
		}
	}

	t.Fatal("expected the ACPI driver to be registered")
}

func TestDriverMetadata(t *testing.T) {
	var drv Driver
	if got := drv.DriverName(); got != "ACPI" {
		t.Fatalf("expected driver name ACPI; got %q", got)
	}

	if major, minor, patch := drv.DriverVersion(); major != 0 || minor != 1 || patch != 0 {
		t.Fatalf("unexpected driver version %d.%d.%d", major, minor, patch)
	}
}
