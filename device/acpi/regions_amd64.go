package acpi

// DefaultRegions lists the physical windows scanned for ACPI tables on
// amd64 when no memory map is consulted.
var DefaultRegions = RegionTable{
	{Name: "low-memory", Start: 0x1000, End: 0x15000, Use: UsePointerScan | UseRootScan},
	{Name: "vga-hole", Start: 0xa0000, End: 0xc0000, Use: UsePointerScan | UseRootScan},
	{Name: "bios-rom", Start: 0xe0000, End: 0x100000, Use: UsePointerScan},
	{Name: "boot-window", Start: 0x200000, End: 0x202000, Use: UseRSDPWindow | UsePointerScan | UseRootScan},
	{Name: "boot-window-tail", Start: 0x202000, End: 0x215000, Use: UsePointerScan},
	{Name: "boot-info", Start: 0x215000, End: 0x217000, Use: UsePointerScan},
	{Name: "high-window-0", Start: 0x10000000000, End: 0x10000001000, Use: UsePointerScan | UseRootScan},
	{Name: "high-window-1", Start: 0x10000002000, End: 0x10000202000, Use: UsePointerScan | UseRootScan},
}
