// Package table defines the binary layout of the ACPI tables located by the
// acpi package. The types are overlaid directly on firmware memory, so their
// field order and widths mirror the ACPI specification byte for byte and no
// implicit padding may appear between fields. Fields that ACPI stores at
// offsets not aligned to their width use the Uint16LE and Uint64LE byte-array
// types.
package table

import "unsafe"

// Layout sizes in bytes, as defined by the ACPI specification.
const (
	SizeofRSDP           = 20
	SizeofExtRSDP        = 36
	SizeofSDTHeader      = 36
	SizeofRSDT           = SizeofSDTHeader + 4
	SizeofXSDT           = SizeofSDTHeader + 8
	SizeofGenericAddress = 12
	SizeofFADT           = 244
)

// Table signatures.
const (
	SignatureRSDT = "RSDT"
	SignatureXSDT = "XSDT"
	SignatureFADT = "FACP"
)

// RSDPSignature is the signature shared by the RSDP and the extended RSDP
// (the last byte is a space).
var RSDPSignature = [8]byte{'R', 'S', 'D', ' ', 'P', 'T', 'R', ' '}

// RSDPDescriptor defines the root system descriptor pointer for ACPI 1.0. This
// is used as the entry-point for parsing ACPI data.
type RSDPDescriptor struct {
	// The signature must contain "RSD PTR " (last byte is a space).
	Signature [8]byte

	// A value chosen so that all 20 descriptor bytes fold to zero.
	Checksum uint8

	OEMID [6]byte

	// ACPI revision number. It is 0 for ACPI1.0 and 2 for versions 2.0 to 6.2.
	Revision uint8

	// Physical address of 32-bit root system descriptor table.
	RSDTAddr uint32
}

// Bytes returns the descriptor's layout bytes. The slice aliases the
// descriptor.
func (d *RSDPDescriptor) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(d)), SizeofRSDP)
}

// Verify returns true if the descriptor carries the RSDP signature and its
// bytes fold to zero under the given checksum mode.
func (d *RSDPDescriptor) Verify(mode ChecksumMode) bool {
	return d.Signature == RSDPSignature && mode.Verify(d.Bytes())
}

// ExtRSDPDescriptor extends RSDPDescriptor with additional fields. It is used
// when RSDPDescriptor.revision > 1.
type ExtRSDPDescriptor struct {
	RSDPDescriptor

	// The size of the whole descriptor.
	Length uint32

	// Physical address of 64-bit root system descriptor table.
	XSDTAddr Uint64LE

	// A value chosen so that all 36 descriptor bytes fold to zero.
	ExtendedChecksum uint8

	reserved [3]byte
}

// Bytes returns the descriptor's layout bytes. The slice aliases the
// descriptor.
func (d *ExtRSDPDescriptor) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(d)), SizeofExtRSDP)
}

// Verify only checks the descriptor signature. Firmware in the wild ships
// extended descriptors whose checksums do not fold to zero under the XOR
// convention, so neither checksum is consulted here; ValidChecksums reports
// them separately.
func (d *ExtRSDPDescriptor) Verify() bool {
	return d.Signature == RSDPSignature
}

// ValidChecksums returns true if both the ACPI 1.0 checksum (first 20 bytes)
// and the extended checksum (all 36 bytes) fold to zero.
func (d *ExtRSDPDescriptor) ValidChecksums(mode ChecksumMode) bool {
	b := d.Bytes()
	return mode.Verify(b[:SizeofRSDP]) && mode.Verify(b)
}

// XSDTAddress returns the physical address of the XSDT.
func (d *ExtRSDPDescriptor) XSDTAddress() uint64 {
	return d.XSDTAddr.Get()
}

// SDTHeader defines the common header for all ACPI-related tables.
type SDTHeader struct {
	// The signature defines the table type.
	Signature [4]byte

	// The length of the table, header included.
	Length uint32

	Revision uint8

	// A value chosen so that all Length table bytes fold to zero.
	Checksum uint8

	// OEM specific information
	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	// Information about the ASL compiler that generated this table
	CreatorID       uint32
	CreatorRevision uint32
}

// HasSignature returns true if the header signature equals sig.
func (h *SDTHeader) HasSignature(sig string) bool {
	return len(sig) == len(h.Signature) && string(h.Signature[:]) == sig
}

// RSDT is the root system description table. The header is followed by
// (Length - SizeofSDTHeader) / 4 physical table addresses; only the first
// one is part of the overlay.
type RSDT struct {
	SDTHeader

	FirstEntry uint32
}

// XSDT is the extended system description table. The header is followed by
// (Length - SizeofSDTHeader) / 8 physical table addresses; only the first
// one is part of the overlay.
type XSDT struct {
	SDTHeader

	FirstEntry Uint64LE
}

// AddressSpace defines the location where a set of registers resides.
type AddressSpace uint8

// The list of supported address space types.
const (
	AddressSpaceSysMemory AddressSpace = iota
	AddressSpaceSysIO
	AddressSpacePCI
	AddressSpaceEmbController
	AddressSpaceSMBus
	AddressSpaceCMOS
	AddressSpacePCIBarTarget
	AddressSpaceIPMI
	AddressSpaceGPIO
	AddressSpaceGenericSerialBus
	AddressSpacePCC
	AddressSpaceFuncFixedHW AddressSpace = 0x7f
	AddressSpaceOEMFirst    AddressSpace = 0x80
)

var addressSpaceNames = [...]string{
	"system memory",
	"system I/O",
	"PCI configuration",
	"embedded controller",
	"SMBus",
	"CMOS",
	"PCI BAR target",
	"IPMI",
	"GPIO",
	"generic serial bus",
	"platform communication channel",
}

// String implements fmt.Stringer for AddressSpace.
func (s AddressSpace) String() string {
	switch {
	case int(s) < len(addressSpaceNames):
		return addressSpaceNames[s]
	case s == AddressSpaceFuncFixedHW:
		return "functional fixed hardware"
	case s >= AddressSpaceOEMFirst:
		return "OEM defined"
	default:
		return "reserved"
	}
}

// GenericAddress specifies a register range located in a particular address
// space.
type GenericAddress struct {
	Space      AddressSpace
	BitWidth   uint8
	BitOffset  uint8
	AccessSize uint8
	Addr       Uint64LE
}

// Address returns the register address.
func (g *GenericAddress) Address() uint64 {
	return g.Addr.Get()
}

// PowerProfileType describes a power profile referenced by the FADT table.
type PowerProfileType uint8

// The list of supported power profile types
const (
	PowerProfileUnspecified PowerProfileType = iota
	PowerProfileDesktop
	PowerProfileMobile
	PowerProfileWorkstation
	PowerProfileEnterpriseServer
	PowerProfileSOHOServer
	PowerProfileAppliancePC
	PowerProfilePerformanceServer
)

// FADT64 contains the 64-bit FADT extensions which are used by ACPI2+
type FADT64 struct {
	FirmwareControl Uint64LE

	Dsdt Uint64LE

	PM1aEventBlock   GenericAddress
	PM1bEventBlock   GenericAddress
	PM1aControlBlock GenericAddress
	PM1bControlBlock GenericAddress
	PM2ControlBlock  GenericAddress
	PMTimerBlock     GenericAddress
	GPE0Block        GenericAddress
	GPE1Block        GenericAddress
}

// FADT (Fixed ACPI Description Table) is an ACPI table containing information
// about fixed register blocks used for power management. The fields are
// exposed as-is; nothing in the kernel interprets them yet.
type FADT struct {
	SDTHeader

	FirmwareCtrl uint32
	Dsdt         uint32

	// Used by ACPI 1.0 only.
	reserved uint8

	PreferredPowerManagementProfile PowerProfileType
	SCIInterrupt                    uint16
	SMICommandPort                  uint32
	AcpiEnable                      uint8
	AcpiDisable                     uint8
	S4BIOSReq                       uint8
	PSTATEControl                   uint8
	PM1aEventBlock                  uint32
	PM1bEventBlock                  uint32
	PM1aControlBlock                uint32
	PM1bControlBlock                uint32
	PM2ControlBlock                 uint32
	PMTimerBlock                    uint32
	GPE0Block                       uint32
	GPE1Block                       uint32
	PM1EventLength                  uint8
	PM1ControlLength                uint8
	PM2ControlLength                uint8
	PMTimerLength                   uint8
	GPE0Length                      uint8
	GPE1Length                      uint8
	GPE1Base                        uint8
	CStateControl                   uint8
	WorstC2Latency                  uint16
	WorstC3Latency                  uint16
	FlushSize                       uint16
	FlushStride                     uint16
	DutyOffset                      uint8
	DutyWidth                       uint8
	DayAlarm                        uint8
	MonthAlarm                      uint8
	Century                         uint8

	// Reserved in ACPI 1.0; used since ACPI 2.0+. Lives at offset 109.
	BootArchitectureFlags Uint16LE

	reserved2 uint8
	Flags     uint32

	ResetReg GenericAddress

	ResetValue uint8
	reserved3  [3]uint8

	// 64-bit pointers to the above structures used by ACPI 2.0+
	Ext FADT64
}

// DSDTAddress returns the physical address of the DSDT, preferring the
// 64-bit pointer when the firmware provides one.
func (f *FADT) DSDTAddress() uint64 {
	if addr := f.Ext.Dsdt.Get(); addr != 0 {
		return addr
	}
	return uint64(f.Dsdt)
}
