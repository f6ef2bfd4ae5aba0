package main

import (
	"fmt"
	"os"

	"github.com/MaxRS07/max-os/device/acpi"
	"github.com/MaxRS07/max-os/device/acpi/table"
	"github.com/MaxRS07/max-os/kernel/mm"
	"github.com/pelletier/go-toml/v2"
)

// Config describes an optional scan configuration file.
//
//	checksum = "sum"
//
//	[[image]]
//	path = "lowmem.bin"
//	base = 0x0
//
//	[[region]]
//	name = "boot-window"
//	start = 0x200000
//	end = 0x202000
//	use = ["rsdp-window", "pointer", "root"]
//
//	[[memory]]
//	start = 0x100000
//	end = 0x7fe0000
//	kind = "usable"
type Config struct {
	Checksum string         `toml:"checksum"`
	Images   []ImageConfig  `toml:"image"`
	Regions  []RegionConfig `toml:"region"`
	Memory   []MemoryConfig `toml:"memory"`
}

// ImageConfig maps the contents of a file at a physical base address.
type ImageConfig struct {
	Path string `toml:"path"`
	Base uint64 `toml:"base"`
}

// RegionConfig overrides an entry of the scan region table.
type RegionConfig struct {
	Name  string   `toml:"name"`
	Start uint64   `toml:"start"`
	End   uint64   `toml:"end"`
	Use   []string `toml:"use"`
}

// MemoryConfig is a memory map entry used to locate the extended RSDP.
// Addresses are rounded to page frames.
type MemoryConfig struct {
	Start uint64 `toml:"start"`
	End   uint64 `toml:"end"`
	Kind  string `toml:"kind"`
}

var memoryKinds = map[string]mm.RegionKind{
	"usable":           mm.RegionUsable,
	"reserved":         mm.RegionReserved,
	"acpi-reclaimable": mm.RegionACPIReclaimable,
	"acpi-nvs":         mm.RegionACPINVS,
	"bad":              mm.RegionBad,
}

// LoadConfig reads and validates a TOML scan configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// Validate cross-field logic
func (c *Config) Validate() error {
	if c.Checksum != "" {
		if _, ok := table.ParseChecksumMode(c.Checksum); !ok {
			return fmt.Errorf("checksum: %q is not one of xor, sum", c.Checksum)
		}
	}

	for i, img := range c.Images {
		if img.Path == "" {
			return fmt.Errorf("image %d: missing path", i)
		}
	}

	if _, err := c.RegionTable(); err != nil {
		return err
	}

	for i, m := range c.Memory {
		if m.Start > m.End {
			return fmt.Errorf("memory %d: start 0x%x is above end 0x%x", i, m.Start, m.End)
		}
		if _, ok := memoryKinds[m.Kind]; !ok {
			return fmt.Errorf("memory %d: unknown kind %q", i, m.Kind)
		}
	}

	return nil
}

// ChecksumMode returns the configured checksum mode; XOR when unset.
func (c *Config) ChecksumMode() table.ChecksumMode {
	mode, _ := table.ParseChecksumMode(c.Checksum)
	return mode
}

// RegionTable returns the configured region table or acpi.DefaultRegions
// when the configuration does not list any region.
func (c *Config) RegionTable() (acpi.RegionTable, error) {
	if len(c.Regions) == 0 {
		return acpi.DefaultRegions, nil
	}

	regions := make(acpi.RegionTable, 0, len(c.Regions))
	for i, rc := range c.Regions {
		r := acpi.Region{Name: rc.Name, Start: uintptr(rc.Start), End: uintptr(rc.End)}
		if r.Name == "" {
			r.Name = fmt.Sprintf("region-%d", i)
		}

		for _, name := range rc.Use {
			use, ok := acpi.ParseRegionUse(name)
			if !ok {
				return nil, fmt.Errorf("region %s: unknown use %q", r.Name, name)
			}
			r.Use |= use
		}

		regions = append(regions, r)
	}

	if err := regions.Validate(); err != nil {
		return nil, fmt.Errorf("region table: %w", err)
	}

	return regions, nil
}

// MemoryMap returns the configured memory map.
func (c *Config) MemoryMap() mm.RegionList {
	memMap := make(mm.RegionList, 0, len(c.Memory))
	for _, m := range c.Memory {
		memMap = append(memMap, mm.MemoryRegion{
			Range: mm.FrameRange{
				Start: mm.FrameFromAddress(uintptr(m.Start)),
				End:   mm.FrameFromAddress(uintptr(m.End)),
			},
			Kind: memoryKinds[m.Kind],
		})
	}

	return memMap
}
