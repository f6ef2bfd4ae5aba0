package main

import (
	"testing"

	"github.com/MaxRS07/max-os/device/acpi"
	"github.com/MaxRS07/max-os/device/acpi/table"
	"github.com/MaxRS07/max-os/kernel/mm/physimage"
)

func TestScannerEntries(t *testing.T) {
	img, err := physimage.New(physimage.Segment{Base: dumpBase, Data: buildDump(table.ChecksumXOR)})
	if err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		rootPhys   uintptr
		extended   bool
		expEntries int
		expErr     string
	}{
		{dumpBase + 0x100, false, 1, ""},
		{dumpBase + 0x200, true, 1, ""},
		// the FADT is not a root table
		{dumpBase + 0x400, false, 0, "rsdt entries: " + acpi.ErrSignatureMismatch.Error()},
		{dumpBase + 0x400, true, 0, "xsdt entries: " + acpi.ErrSignatureMismatch.Error()},
		// outside the image
		{0x1000, true, 0, "xsdt entries: physimage: physical range is not backed by any segment"},
	}

	for specIndex, spec := range specs {
		s := newScanner(img.MapRegion, acpi.DefaultRegions, table.ChecksumXOR, nil)

		entries := s.entries(spec.rootPhys, spec.extended)
		if len(entries) != spec.expEntries {
			t.Errorf("[spec %d] expected %d entries; got %v", specIndex, spec.expEntries, entries)
		}

		switch {
		case spec.expErr == "" && len(s.report.Errors) != 0:
			t.Errorf("[spec %d] unexpected errors: %v", specIndex, s.report.Errors)
		case spec.expErr != "" && (len(s.report.Errors) != 1 || s.report.Errors[0] != spec.expErr):
			t.Errorf("[spec %d] expected error %q; got %v", specIndex, spec.expErr, s.report.Errors)
		}
	}
}
