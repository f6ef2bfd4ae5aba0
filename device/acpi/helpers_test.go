package acpi

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/MaxRS07/max-os/device/acpi/table"
	"github.com/MaxRS07/max-os/kernel/mm/physimage"
)

// firmwareImage builds fake physical memory holding ACPI tables.
type firmwareImage struct {
	t    *testing.T
	img  *physimage.Image
	mode table.ChecksumMode
}

func newFirmwareImage(t *testing.T, mode table.ChecksumMode, segments ...physimage.Segment) *firmwareImage {
	img, err := physimage.New(segments...)
	if err != nil {
		t.Fatal(err)
	}

	return &firmwareImage{t: t, img: img, mode: mode}
}

// bytesAt returns a slice aliasing size bytes of fake physical memory.
func (fw *firmwareImage) bytesAt(phys, size uintptr) []byte {
	virt, err := fw.img.MapRegion(phys, size)
	if err != nil {
		fw.t.Fatalf("unable to access [0x%x, 0x%x): %v", phys, phys+size, err)
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(virt)), size)
}

func (fw *firmwareImage) locator(regions ...Region) *Locator {
	return &Locator{MapFn: fw.img.MapRegion, Regions: regions, Checksum: fw.mode}
}

// putRSDP writes an ACPI 1.0 RSDP at phys.
func (fw *firmwareImage) putRSDP(phys uintptr, rsdtAddr uint32) *table.RSDPDescriptor {
	rsdp := (*table.RSDPDescriptor)(unsafe.Pointer(&fw.bytesAt(phys, table.SizeofRSDP)[0]))
	rsdp.Signature = table.RSDPSignature
	rsdp.OEMID = [6]byte{'B', 'O', 'C', 'H', 'S', ' '}
	rsdp.RSDTAddr = rsdtAddr
	rsdp.Checksum = 0
	rsdp.Checksum = fw.mode.Balance(rsdp.Bytes(), int(unsafe.Offsetof(rsdp.Checksum)))
	return rsdp
}

// putExtRSDP writes an ACPI 2.0+ RSDP at phys.
func (fw *firmwareImage) putExtRSDP(phys uintptr, rsdtAddr uint32, xsdtAddr uint64) *table.ExtRSDPDescriptor {
	xsdp := (*table.ExtRSDPDescriptor)(unsafe.Pointer(&fw.bytesAt(phys, table.SizeofExtRSDP)[0]))
	xsdp.Signature = table.RSDPSignature
	xsdp.OEMID = [6]byte{'B', 'O', 'C', 'H', 'S', ' '}
	xsdp.Revision = 2
	xsdp.RSDTAddr = rsdtAddr
	xsdp.Length = table.SizeofExtRSDP
	xsdp.XSDTAddr.Set(xsdtAddr)

	b := xsdp.Bytes()
	xsdp.Checksum = 0
	xsdp.Checksum = fw.mode.Balance(b[:table.SizeofRSDP], int(unsafe.Offsetof(xsdp.Checksum)))
	xsdp.ExtendedChecksum = fw.mode.Balance(b, int(unsafe.Offsetof(xsdp.ExtendedChecksum)))
	return xsdp
}

// putTable writes a table with the given signature and payload at phys and
// balances its checksum.
func (fw *firmwareImage) putTable(phys uintptr, sig string, payload []byte) *table.SDTHeader {
	length := uintptr(table.SizeofSDTHeader + len(payload))
	buf := fw.bytesAt(phys, length)
	copy(buf[table.SizeofSDTHeader:], payload)

	hdr := (*table.SDTHeader)(unsafe.Pointer(&buf[0]))
	copy(hdr.Signature[:], sig)
	hdr.Length = uint32(length)
	hdr.Revision = 1
	hdr.OEMID = [6]byte{'B', 'O', 'C', 'H', 'S', ' '}
	hdr.OEMTableID = [8]byte{'B', 'X', 'P', 'C', 'T', 'E', 'S', 'T'}
	hdr.Checksum = 0
	hdr.Checksum = fw.mode.Balance(buf, int(unsafe.Offsetof(hdr.Checksum)))
	return hdr
}

func (fw *firmwareImage) putRSDT(phys uintptr, entries ...uint32) *table.SDTHeader {
	payload := make([]byte, 4*len(entries))
	for i, entry := range entries {
		binary.LittleEndian.PutUint32(payload[4*i:], entry)
	}
	return fw.putTable(phys, table.SignatureRSDT, payload)
}

func (fw *firmwareImage) putXSDT(phys uintptr, entries ...uint64) *table.SDTHeader {
	payload := make([]byte, 8*len(entries))
	for i, entry := range entries {
		binary.LittleEndian.PutUint64(payload[8*i:], entry)
	}
	return fw.putTable(phys, table.SignatureXSDT, payload)
}

func (fw *firmwareImage) putFADT(phys uintptr, dsdt uint32) *table.SDTHeader {
	payload := make([]byte, table.SizeofFADT-table.SizeofSDTHeader)
	binary.LittleEndian.PutUint32(payload[4:], dsdt)
	return fw.putTable(phys, table.SignatureFADT, payload)
}

// corrupt flips one bit of the byte at phys.
func (fw *firmwareImage) corrupt(phys uintptr) {
	fw.bytesAt(phys, 1)[0] ^= 0x01
}

func addrOf(p unsafe.Pointer) uintptr {
	return uintptr(p)
}
