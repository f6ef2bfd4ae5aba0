package acpi

import (
	"io"

	"github.com/MaxRS07/max-os/device/acpi/table"
	"github.com/MaxRS07/max-os/kernel"
	"github.com/MaxRS07/max-os/kernel/kfmt"
	"github.com/MaxRS07/max-os/kernel/mem"
	"github.com/MaxRS07/max-os/kernel/mm"
)

// Scan steps used by the locators.
const (
	rsdpWindowStep   uintptr = 8
	rsdpAlignment    uintptr = 16
	rootScanStep     uintptr = 4
	rootEntrySize    uintptr = 4
	extRootEntrySize uintptr = 8
)

// maxTableLength bounds the declared length of the tables the locators
// validate. Larger values come from stray signature matches and would make
// the checksum walk far past the table.
const maxTableLength uintptr = 1 << 20

var (
	fadtSignature = []byte(table.SignatureFADT)

	defaultLocator = &Locator{
		MapFn:   mm.IdentityMapRegion,
		Regions: DefaultRegions,
	}
)

// Locator finds ACPI tables in physical memory. Every physical range is
// made accessible through MapFn before it is read.
type Locator struct {
	// MapFn maps physical ranges so they can be read.
	MapFn mm.RegionMapFn

	// Regions lists the windows scanned by the signature-based locators.
	Regions RegionTable

	// Checksum selects the checksum convention used for validation.
	Checksum table.ChecksumMode

	// Log receives per-region diagnostics. Nothing is logged if Log is nil.
	Log io.Writer
}

// LocateRSDP scans the first region flagged with UseRSDPWindow for the RSDP
// signature in 8-byte steps. Only the first match is considered: if it fails
// validation LocateRSDP returns ErrChecksumMismatch without looking further.
func (l *Locator) LocateRSDP() (*table.RSDPDescriptor, uintptr, *kernel.Error) {
	var (
		rsdp *table.RSDPDescriptor
		phys uintptr
		err  = ErrTableNotFound
	)

	l.Regions.Visit(UseRSDPWindow, func(r Region) bool {
		l.scanRecords(r, table.RSDPSignature[:], table.SizeofRSDP, rsdpWindowStep, func(virt, candPhys uintptr) bool {
			cand := mem.ViewAs[table.RSDPDescriptor](virt)
			if !cand.Verify(l.Checksum) {
				l.logf("RSDP candidate at 0x%16x [checksum mismatch]\n", candPhys)
				err = ErrChecksumMismatch
				return true
			}

			rsdp, phys, err = cand, candPhys, nil
			return true
		})

		return false
	})

	return rsdp, phys, err
}

// SearchRSDP scans every region flagged with UsePointerScan for a valid RSDP
// on a 16-byte boundary. Unlike LocateRSDP it skips candidates that fail
// validation and keeps searching.
func (l *Locator) SearchRSDP() (*table.RSDPDescriptor, uintptr, *kernel.Error) {
	var (
		rsdp *table.RSDPDescriptor
		phys uintptr
		err  = ErrTableNotFound
	)

	l.Regions.Visit(UsePointerScan, func(r Region) bool {
		return !l.scanRecords(r, table.RSDPSignature[:], table.SizeofRSDP, rsdpAlignment, func(virt, candPhys uintptr) bool {
			cand := mem.ViewAs[table.RSDPDescriptor](virt)
			if !cand.Verify(l.Checksum) {
				l.logf("RSDP candidate at 0x%16x [checksum mismatch; skipping]\n", candPhys)
				err = ErrChecksumMismatch
				return false
			}

			rsdp, phys, err = cand, candPhys, nil
			return true
		})
	})

	return rsdp, phys, err
}

// LocateXSDP scans the usable regions of memMap for the extended RSDP in
// 16-byte steps and returns a copy of the first match. Candidates whose
// record would extend past the end of their region are ignored. The region
// table is not consulted.
func (l *Locator) LocateXSDP(memMap mm.MemoryMap) (table.ExtRSDPDescriptor, uintptr, *kernel.Error) {
	var (
		xsdp  table.ExtRSDPDescriptor
		phys  uintptr
		err   = ErrTableNotFound
		found bool
	)

	memMap.VisitRegions(func(region mm.MemoryRegion) bool {
		if region.Kind != mm.RegionUsable {
			return true
		}

		r := Region{
			Name:  region.Kind.String(),
			Start: region.Range.StartAddress(),
			End:   region.Range.EndAddress(),
		}

		found = l.scanRecords(r, table.RSDPSignature[:], table.SizeofExtRSDP, rsdpAlignment, func(virt, candPhys uintptr) bool {
			xsdp = *mem.ViewAs[table.ExtRSDPDescriptor](virt)
			if !xsdp.Verify() {
				err = ErrSignatureMismatch
				return true
			}

			phys, err = candPhys, nil
			return true
		})

		return !found
	})

	if err != nil {
		return table.ExtRSDPDescriptor{}, 0, err
	}

	return xsdp, phys, nil
}

// LocateRSDT scans the regions flagged with UseRootScan in 4-byte steps for
// the FADT signature and overlays the first match as an RSDT. The match is
// not validated in any way; RootTable and FindFADT are the validated
// alternatives.
func (l *Locator) LocateRSDT() (*table.RSDT, uintptr, *kernel.Error) {
	var (
		rsdt *table.RSDT
		phys uintptr
	)

	l.Regions.Visit(UseRootScan, func(r Region) bool {
		return !l.scanRecords(r, fadtSignature, table.SizeofRSDT, rootScanStep, func(virt, candPhys uintptr) bool {
			rsdt, phys = mem.ViewAs[table.RSDT](virt), candPhys
			return true
		})
	})

	if rsdt == nil {
		return nil, 0, ErrTableNotFound
	}

	return rsdt, phys, nil
}

// RootTable follows the RSDT address stored in rsdp and validates the table
// found there.
func (l *Locator) RootTable(rsdp *table.RSDPDescriptor) (*table.RSDT, uintptr, *kernel.Error) {
	phys := uintptr(rsdp.RSDTAddr)
	virt, err := l.mapTable(phys, table.SignatureRSDT, table.SizeofSDTHeader, table.SizeofRSDT)
	if err != nil {
		return nil, phys, err
	}

	return mem.ViewAs[table.RSDT](virt), phys, nil
}

// ExtRootTable follows the XSDT address stored in xsdp and validates the
// table found there.
func (l *Locator) ExtRootTable(xsdp *table.ExtRSDPDescriptor) (*table.XSDT, uintptr, *kernel.Error) {
	phys := uintptr(xsdp.XSDTAddress())
	virt, err := l.mapTable(phys, table.SignatureXSDT, table.SizeofSDTHeader, table.SizeofXSDT)
	if err != nil {
		return nil, phys, err
	}

	return mem.ViewAs[table.XSDT](virt), phys, nil
}

// VisitRootEntries validates the RSDT at rsdtPhys and invokes visitor with
// the physical address of each table it lists until visitor returns false.
func (l *Locator) VisitRootEntries(rsdtPhys uintptr, visitor func(uintptr) bool) *kernel.Error {
	virt, err := l.mapTable(rsdtPhys, table.SignatureRSDT, table.SizeofSDTHeader, table.SizeofSDTHeader)
	if err != nil {
		return err
	}

	hdr := mem.ViewAs[table.SDTHeader](virt)
	for cur, end := virt+table.SizeofSDTHeader, virt+uintptr(hdr.Length); end-cur >= rootEntrySize; cur += rootEntrySize {
		if !visitor(uintptr(*mem.ViewAs[uint32](cur))) {
			break
		}
	}

	return nil
}

// VisitExtRootEntries validates the XSDT at xsdtPhys and invokes visitor
// with the physical address of each table it lists until visitor returns
// false.
func (l *Locator) VisitExtRootEntries(xsdtPhys uintptr, visitor func(uintptr) bool) *kernel.Error {
	virt, err := l.mapTable(xsdtPhys, table.SignatureXSDT, table.SizeofSDTHeader, table.SizeofSDTHeader)
	if err != nil {
		return err
	}

	hdr := mem.ViewAs[table.SDTHeader](virt)
	for cur, end := virt+table.SizeofSDTHeader, virt+uintptr(hdr.Length); end-cur >= extRootEntrySize; cur += extRootEntrySize {
		if !visitor(uintptr(mem.ViewAs[table.Uint64LE](cur).Get())) {
			break
		}
	}

	return nil
}

// LookupFADT walks the entries of the root table at rootPhys (an XSDT if
// extended is set, an RSDT otherwise) and returns the first entry that is
// a valid FADT.
func (l *Locator) LookupFADT(rootPhys uintptr, extended bool) (*table.FADT, uintptr, *kernel.Error) {
	var (
		fadt    *table.FADT
		phys    uintptr
		findErr = ErrTableNotFound
	)

	visitor := func(entryPhys uintptr) bool {
		hdrVirt, err := l.MapFn(entryPhys, table.SizeofSDTHeader)
		if err != nil {
			l.logf("unable to map table header at 0x%16x: %s\n", entryPhys, err.Message)
			return true
		}

		if !mem.ViewAs[table.SDTHeader](hdrVirt).HasSignature(table.SignatureFADT) {
			return true
		}

		virt, err := l.mapTable(entryPhys, table.SignatureFADT, table.SizeofSDTHeader, table.SizeofFADT)
		if err != nil {
			l.logf("FACP at 0x%16x [%s; skipping]\n", entryPhys, err.Message)
			findErr = err
			return true
		}

		fadt, phys, findErr = mem.ViewAs[table.FADT](virt), entryPhys, nil
		return false
	}

	var err *kernel.Error
	if extended {
		err = l.VisitExtRootEntries(rootPhys, visitor)
	} else {
		err = l.VisitRootEntries(rootPhys, visitor)
	}

	if err != nil {
		return nil, 0, err
	}

	return fadt, phys, findErr
}

// FindFADT scans the regions flagged with UseRootScan in 4-byte steps for a
// valid FADT, skipping candidates that fail validation.
func (l *Locator) FindFADT() (*table.FADT, uintptr, *kernel.Error) {
	var (
		fadt    *table.FADT
		phys    uintptr
		findErr = ErrTableNotFound
	)

	l.Regions.Visit(UseRootScan, func(r Region) bool {
		return !l.scanRecords(r, fadtSignature, table.SizeofSDTHeader, rootScanStep, func(_, candPhys uintptr) bool {
			virt, err := l.mapTable(candPhys, table.SignatureFADT, table.SizeofSDTHeader, table.SizeofFADT)
			if err != nil {
				l.logf("FACP candidate at 0x%16x [%s; skipping]\n", candPhys, err.Message)
				findErr = err
				return false
			}

			fadt, phys, findErr = mem.ViewAs[table.FADT](virt), candPhys, nil
			return true
		})
	})

	return fadt, phys, findErr
}

// LoadFADT maps the FADT at phys and overlays it without validation.
func (l *Locator) LoadFADT(phys uintptr) (*table.FADT, *kernel.Error) {
	virt, err := l.MapFn(phys, table.SizeofFADT)
	if err != nil {
		return nil, err
	}

	return mem.ViewAs[table.FADT](virt), nil
}

// scanRecords maps r and invokes onHit for each address, in ascending order,
// where sig starts at a multiple of step from the region start and a record
// of recordSize bytes fits before the region end. Scanning stops as soon as
// onHit returns true; scanRecords reports whether that happened.
func (l *Locator) scanRecords(r Region, sig []byte, recordSize, step uintptr, onHit func(virt, phys uintptr) bool) bool {
	if r.Start > r.End {
		l.logf("%s: [0x%16x, 0x%16x) %s\n", r.Name, r.Start, r.End, ErrInvalidScanRange.Message)
		return false
	}

	size := r.Size()
	if size < recordSize {
		return false
	}

	virt, err := l.MapFn(r.Start, size)
	if err != nil {
		l.logf("%s: unable to map [0x%16x, 0x%16x): %s\n", r.Name, r.Start, r.End, err.Message)
		return false
	}

	// The signature is at the start of the record, so the last candidate
	// must leave room for the rest of the record.
	scanEnd := virt + size - (recordSize - uintptr(len(sig)))
	for cur := virt; ; {
		hit, ok := mem.Scan(cur, scanEnd, sig, step)
		if !ok {
			return false
		}

		if onHit(hit, r.Start+(hit-virt)) {
			return true
		}

		if scanEnd-hit <= step {
			return false
		}
		cur = hit + step
	}
}

// mapTable maps the table at phys and checks its signature, its declared
// length against minLen and maxTableLength and its checksum over the
// declared length. At least
// overlaySize bytes are mapped so that a typed overlay may be used even for
// tables that are shorter than the overlay.
func (l *Locator) mapTable(phys uintptr, sig string, minLen, overlaySize uintptr) (uintptr, *kernel.Error) {
	virt, err := l.MapFn(phys, table.SizeofSDTHeader)
	if err != nil {
		return 0, err
	}

	hdr := mem.ViewAs[table.SDTHeader](virt)
	if !hdr.HasSignature(sig) {
		return 0, ErrSignatureMismatch
	}

	length := uintptr(hdr.Length)
	if length < minLen || length > maxTableLength {
		return 0, ErrInvalidTableLength
	}

	mapLen := length
	if mapLen < overlaySize {
		mapLen = overlaySize
	}

	if virt, err = l.MapFn(phys, mapLen); err != nil {
		return 0, err
	}

	if !l.Checksum.Verify(mem.ByteView(virt, length)) {
		return 0, ErrChecksumMismatch
	}

	return virt, nil
}

func (l *Locator) logf(format string, args ...interface{}) {
	if l.Log != nil {
		kfmt.Fprintf(l.Log, format, args...)
	}
}

// LoadRSDP locates the RSDP in the fixed boot window of physical memory. It
// returns nil if no valid descriptor is found.
func LoadRSDP() *table.RSDPDescriptor {
	rsdp, _, err := defaultLocator.LocateRSDP()
	if err != nil {
		return nil
	}
	return rsdp
}

// LoadXSDP returns a copy of the extended RSDP found in the usable regions
// of memMap.
func LoadXSDP(memMap mm.MemoryMap) (table.ExtRSDPDescriptor, bool) {
	xsdp, _, err := defaultLocator.LocateXSDP(memMap)
	return xsdp, err == nil
}

// LoadRSDT returns the first FADT signature match in the default root scan
// regions, overlaid as an RSDT, or nil if there is none.
func LoadRSDT() *table.RSDT {
	rsdt, _, err := defaultLocator.LocateRSDT()
	if err != nil {
		return nil
	}
	return rsdt
}

// LoadFADT overlays the FADT at the given physical address. The table is
// not validated.
func LoadFADT(addr uintptr) *table.FADT {
	fadt, err := defaultLocator.LoadFADT(addr)
	if err != nil {
		return nil
	}
	return fadt
}
