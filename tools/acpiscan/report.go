package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/MaxRS07/max-os/device/acpi"
	"github.com/MaxRS07/max-os/device/acpi/table"
	"github.com/MaxRS07/max-os/kernel"
	"github.com/MaxRS07/max-os/kernel/mm"
	"github.com/shirou/gopsutil/v3/host"
	"gopkg.in/yaml.v3"
)

// hexAddr is a physical address rendered as a hex string in reports.
type hexAddr uint64

// MarshalYAML implements yaml.Marshaler.
func (a hexAddr) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

func (a hexAddr) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// HostInfo identifies the machine whose memory was scanned.
type HostInfo struct {
	Hostname        string `yaml:"hostname"`
	Platform        string `yaml:"platform"`
	PlatformVersion string `yaml:"platform_version"`
	KernelVersion   string `yaml:"kernel_version"`
	KernelArch      string `yaml:"kernel_arch"`
	Virtualization  string `yaml:"virtualization,omitempty"`
}

// PointerReport describes an RSDP or extended RSDP.
type PointerReport struct {
	Address        hexAddr `yaml:"address"`
	Method         string  `yaml:"method"`
	Revision       uint8   `yaml:"revision"`
	OEMID          string  `yaml:"oem_id"`
	RSDTAddress    hexAddr `yaml:"rsdt_address"`
	XSDTAddress    hexAddr `yaml:"xsdt_address,omitempty"`
	ChecksumsValid *bool   `yaml:"checksums_valid,omitempty"`
}

// TableReport describes a table with a standard header.
type TableReport struct {
	Signature  string    `yaml:"signature"`
	Address    hexAddr   `yaml:"address"`
	Method     string    `yaml:"method"`
	Length     uint32    `yaml:"length"`
	Revision   uint8     `yaml:"revision"`
	OEMID      string    `yaml:"oem_id"`
	OEMTableID string    `yaml:"oem_table_id"`
	Entries    []hexAddr `yaml:"entries,omitempty"`
}

// FADTReport adds a few FADT fields to TableReport.
type FADTReport struct {
	TableReport  `yaml:",inline"`
	DSDTAddress  hexAddr `yaml:"dsdt_address"`
	SCIInterrupt uint16  `yaml:"sci_interrupt"`
	PowerProfile uint8   `yaml:"power_profile"`
	ResetSpace   string  `yaml:"reset_register_space"`
	ResetAddress hexAddr `yaml:"reset_register_address"`
	ResetValue   uint8   `yaml:"reset_value"`
}

// Report collects the results of a scan.
type Report struct {
	Host        *HostInfo      `yaml:"host,omitempty"`
	Checksum    string         `yaml:"checksum"`
	RSDP        *PointerReport `yaml:"rsdp,omitempty"`
	XSDP        *PointerReport `yaml:"xsdp,omitempty"`
	RSDT        *TableReport   `yaml:"rsdt,omitempty"`
	LegacyRSDT  *TableReport   `yaml:"legacy_rsdt,omitempty"`
	XSDT        *TableReport   `yaml:"xsdt,omitempty"`
	FADT        *FADTReport    `yaml:"fadt,omitempty"`
	Errors      []string       `yaml:"errors,omitempty"`
	Diagnostics []string       `yaml:"diagnostics,omitempty"`
}

// scanner runs every locator against one memory backend.
type scanner struct {
	loc    *acpi.Locator
	memMap mm.MemoryMap
	diag   bytes.Buffer
	report Report
}

func newScanner(mapFn mm.RegionMapFn, regions acpi.RegionTable, mode table.ChecksumMode, memMap mm.MemoryMap) *scanner {
	s := &scanner{memMap: memMap}
	s.loc = &acpi.Locator{MapFn: mapFn, Regions: regions, Checksum: mode, Log: &s.diag}
	s.report.Checksum = mode.String()
	return s
}

func (s *scanner) fail(what string, err *kernel.Error) {
	s.report.Errors = append(s.report.Errors, what+": "+err.Error())
}

// run locates the root pointers, the root tables and the FADT.
func (s *scanner) run() *Report {
	rsdp, rsdpAddr, err := s.loc.LocateRSDP()
	method := "window"
	if err != nil {
		s.fail("rsdp window", err)
		rsdp, rsdpAddr, err = s.loc.SearchRSDP()
		method = "search"
	}

	if err != nil {
		s.fail("rsdp search", err)
	} else {
		s.report.RSDP = &PointerReport{
			Address:     hexAddr(rsdpAddr),
			Method:      method,
			Revision:    rsdp.Revision,
			OEMID:       trimField(rsdp.OEMID[:]),
			RSDTAddress: hexAddr(rsdp.RSDTAddr),
		}
	}

	var xsdt *table.XSDT
	if s.memMap != nil {
		xsdp, xsdpAddr, err := s.loc.LocateXSDP(s.memMap)
		if err != nil {
			s.fail("xsdp", err)
		} else {
			valid := xsdp.ValidChecksums(s.loc.Checksum)
			s.report.XSDP = &PointerReport{
				Address:        hexAddr(xsdpAddr),
				Method:         "memory-map",
				Revision:       xsdp.Revision,
				OEMID:          trimField(xsdp.OEMID[:]),
				RSDTAddress:    hexAddr(xsdp.RSDTAddr),
				XSDTAddress:    hexAddr(xsdp.XSDTAddress()),
				ChecksumsValid: &valid,
			}

			var xsdtAddr uintptr
			if xsdt, xsdtAddr, err = s.loc.ExtRootTable(&xsdp); err != nil {
				s.fail("xsdt", err)
			} else {
				s.report.XSDT = s.tableReport(&xsdt.SDTHeader, xsdtAddr, "xsdp")
				s.report.XSDT.Entries = s.entries(xsdtAddr, true)
			}
		}
	}

	var rsdt *table.RSDT
	if rsdp != nil {
		var rsdtAddr uintptr
		if rsdt, rsdtAddr, err = s.loc.RootTable(rsdp); err != nil {
			s.fail("rsdt", err)
		} else {
			s.report.RSDT = s.tableReport(&rsdt.SDTHeader, rsdtAddr, "rsdp")
			s.report.RSDT.Entries = s.entries(rsdtAddr, false)
		}
	}

	if legacy, legacyAddr, err := s.loc.LocateRSDT(); err != nil {
		s.fail("legacy rsdt", err)
	} else {
		s.report.LegacyRSDT = s.tableReport(&legacy.SDTHeader, legacyAddr, "signature-scan")
	}

	s.findFADT(xsdt != nil, rsdt != nil)
	s.report.Diagnostics = splitLines(s.diag.String())

	return &s.report
}

func (s *scanner) findFADT(haveXSDT, haveRSDT bool) {
	var (
		fadt     *table.FADT
		fadtAddr uintptr
		err      = acpi.ErrTableNotFound
		method   string
	)

	switch {
	case haveXSDT:
		fadt, fadtAddr, err = s.loc.LookupFADT(uintptr(s.report.XSDT.Address), true)
		method = "xsdt"
	case haveRSDT:
		fadt, fadtAddr, err = s.loc.LookupFADT(uintptr(s.report.RSDT.Address), false)
		method = "rsdt"
	}

	if err != nil {
		if method != "" {
			s.fail("fadt "+method, err)
		}
		fadt, fadtAddr, err = s.loc.FindFADT()
		method = "signature-scan"
	}

	if err != nil {
		s.fail("fadt", err)
		return
	}

	s.report.FADT = &FADTReport{
		TableReport:  *s.tableReport(&fadt.SDTHeader, fadtAddr, method),
		DSDTAddress:  hexAddr(fadt.DSDTAddress()),
		SCIInterrupt: fadt.SCIInterrupt,
		PowerProfile: uint8(fadt.PreferredPowerManagementProfile),
		ResetSpace:   fadt.ResetReg.Space.String(),
		ResetAddress: hexAddr(fadt.ResetReg.Address()),
		ResetValue:   fadt.ResetValue,
	}
}

func (s *scanner) tableReport(hdr *table.SDTHeader, phys uintptr, method string) *TableReport {
	return &TableReport{
		Signature:  string(hdr.Signature[:]),
		Address:    hexAddr(phys),
		Method:     method,
		Length:     hdr.Length,
		Revision:   hdr.Revision,
		OEMID:      trimField(hdr.OEMID[:]),
		OEMTableID: trimField(hdr.OEMTableID[:]),
	}
}

func (s *scanner) entries(rootPhys uintptr, extended bool) []hexAddr {
	var out []hexAddr
	visitor := func(phys uintptr) bool {
		out = append(out, hexAddr(phys))
		return true
	}

	var err *kernel.Error
	if extended {
		if err = s.loc.VisitExtRootEntries(rootPhys, visitor); err != nil {
			s.fail("xsdt entries", err)
		}
	} else if err = s.loc.VisitRootEntries(rootPhys, visitor); err != nil {
		s.fail("rsdt entries", err)
	}

	return out
}

// hostInfo describes the host the tool runs on.
func hostInfo() *HostInfo {
	info, err := host.Info()
	if err != nil {
		return nil
	}

	return &HostInfo{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		KernelArch:      info.KernelArch,
		Virtualization:  info.VirtualizationSystem,
	}
}

func writeYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func writeText(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)

	if r.Host != nil {
		fmt.Fprintf(bw, "host: %s (%s %s, kernel %s)\n", r.Host.Hostname, r.Host.Platform, r.Host.PlatformVersion, r.Host.KernelVersion)
	}
	fmt.Fprintf(bw, "checksum: %s\n", r.Checksum)

	for _, p := range []struct {
		name string
		ptr  *PointerReport
	}{{"RSDP", r.RSDP}, {"XSDP", r.XSDP}} {
		if p.ptr == nil {
			continue
		}
		fmt.Fprintf(bw, "%-6s %s rev %d (%s) via %s, rsdt %s", p.name, p.ptr.Address, p.ptr.Revision, p.ptr.OEMID, p.ptr.Method, p.ptr.RSDTAddress)
		if p.ptr.XSDTAddress != 0 {
			fmt.Fprintf(bw, ", xsdt %s", p.ptr.XSDTAddress)
		}
		fmt.Fprintln(bw)
	}

	for _, t := range []*TableReport{r.XSDT, r.RSDT, r.LegacyRSDT} {
		if t != nil {
			writeTableLine(bw, t)
		}
	}

	if r.FADT != nil {
		writeTableLine(bw, &r.FADT.TableReport)
		fmt.Fprintf(bw, "       dsdt %s, sci %d, reset %s %s = 0x%x\n", r.FADT.DSDTAddress, r.FADT.SCIInterrupt, r.FADT.ResetSpace, r.FADT.ResetAddress, r.FADT.ResetValue)
	}

	for _, e := range r.Errors {
		fmt.Fprintf(bw, "error: %s\n", e)
	}

	for _, d := range r.Diagnostics {
		fmt.Fprintf(bw, "diag: %s\n", d)
	}

	return bw.Flush()
}

func writeTableLine(w io.Writer, t *TableReport) {
	fmt.Fprintf(w, "%-6s %s len %d rev %d (%s %s) via %s\n", t.Signature, t.Address, t.Length, t.Revision, t.OEMID, t.OEMTableID, t.Method)
	for _, e := range t.Entries {
		fmt.Fprintf(w, "       -> %s\n", e)
	}
}

// trimField strips the padding of a fixed-width ASCII table field.
func trimField(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
