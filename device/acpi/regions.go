package acpi

import "github.com/MaxRS07/max-os/kernel"

// RegionUse is a bit set selecting which locators scan a Region.
type RegionUse uint8

const (
	// UseRSDPWindow marks the fixed window searched by LocateRSDP.
	UseRSDPWindow RegionUse = 1 << iota

	// UsePointerScan marks regions searched by SearchRSDP.
	UsePointerScan

	// UseRootScan marks regions searched by LocateRSDT and FindFADT.
	UseRootScan
)

var regionUseNames = [...]struct {
	use  RegionUse
	name string
}{
	{UseRSDPWindow, "rsdp-window"},
	{UsePointerScan, "pointer"},
	{UseRootScan, "root"},
}

// String returns the names of the set bits joined by '|'.
func (u RegionUse) String() string {
	var out string
	for _, entry := range regionUseNames {
		if u&entry.use == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += entry.name
	}
	return out
}

// ParseRegionUse maps a single use name (as printed by String) to its flag.
func ParseRegionUse(name string) (RegionUse, bool) {
	for _, entry := range regionUseNames {
		if entry.name == name {
			return entry.use, true
		}
	}
	return 0, false
}

// Region is a named physical address range [Start, End) that is known to be
// safe to scan.
type Region struct {
	Name       string
	Start, End uintptr
	Use        RegionUse
}

// Size returns the length of the region in bytes.
func (r Region) Size() uintptr {
	return r.End - r.Start
}

// RegionTable is an ordered list of regions.
type RegionTable []Region

// Validate checks that no region ends before it starts.
func (t RegionTable) Validate() *kernel.Error {
	for _, r := range t {
		if r.Start > r.End {
			return ErrInvalidScanRange
		}
	}
	return nil
}

// mergeAlignment is the largest scan step used by the locators. Merging two
// regions keeps the candidate offsets of the second one only if its start
// lies a multiple of mergeAlignment past the start of the merged region.
const mergeAlignment uintptr = 16

// Visit invokes visitor, in table order, for each region that has any of
// the bits in use set. Consecutive selected regions where one ends exactly
// where the next starts are merged into a single region carrying the name
// of the first one, so a record straddling the boundary is still visible to
// the scanner. Regions whose boundary is not mergeAlignment-aligned relative
// to the merged start are visited separately. Empty regions and regions
// whose start is above their end are skipped. Iteration stops when visitor
// returns false.
func (t RegionTable) Visit(use RegionUse, visitor func(Region) bool) {
	var (
		cur     Region
		pending bool
	)

	for _, r := range t {
		if r.Use&use == 0 || r.Start >= r.End {
			continue
		}

		if pending && cur.End == r.Start && (r.Start-cur.Start)%mergeAlignment == 0 {
			cur.End = r.End
			cur.Use |= r.Use
			continue
		}

		if pending && !visitor(cur) {
			return
		}

		cur, pending = r, true
	}

	if pending {
		visitor(cur)
	}
}
