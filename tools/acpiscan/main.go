// Command acpiscan runs the kernel's ACPI table locators against physical
// memory dumps or, on linux, against /dev/mem.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/MaxRS07/max-os/kernel/mm"
	"github.com/MaxRS07/max-os/kernel/mm/physimage"
	"github.com/spf13/cobra"
)

// Build variables set by ldflags
var buildVersion = "dev"

type options struct {
	configPath string
	images     []string
	devMem     bool
	checksum   string
	format     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "acpiscan",
		Short: "Locate ACPI root tables in physical memory",
		Long: `acpiscan runs the ACPI table locators used by the kernel against
physical memory dumps or the live /dev/mem device and reports what
they find.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML scan configuration file")
	rootCmd.PersistentFlags().StringArrayVarP(&opts.images, "image", "i", nil, "physical memory dump as path@base (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&opts.devMem, "devmem", false, "scan the live physical memory through /dev/mem")
	rootCmd.PersistentFlags().StringVar(&opts.checksum, "checksum", "", "checksum convention: xor or sum (overrides the config file)")

	rootCmd.AddCommand(scanCmd(opts))
	rootCmd.AddCommand(regionsCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "acpiscan %s\n", buildVersion)
		},
	}
}

func scanCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run every locator and print a report",
		Long: `Run every ACPI locator against the selected memory backend.

Examples:
  # Scan a dump of the first 16MiB of physical memory
  acpiscan scan --image lowmem.bin@0x0

  # Scan two dumps and use the sum checksum convention
  acpiscan scan -i bios.bin@0xe0000 -i tables.bin@0x7fe0000 --checksum sum

  # Scan the running machine
  sudo acpiscan scan --devmem --format text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			regions, err := cfg.RegionTable()
			if err != nil {
				return err
			}

			backend, err := opts.openBackend(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			// The extended RSDP is only searched for when a memory map
			// is configured.
			var memMap mm.MemoryMap
			if entries := cfg.MemoryMap(); len(entries) != 0 {
				memMap = entries
			}

			report := newScanner(backend.MapRegion, regions, cfg.ChecksumMode(), memMap).run()
			if opts.devMem {
				report.Host = hostInfo()
			}

			return writeReport(cmd.OutOrStdout(), opts.format, report)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "yaml", "output format: yaml or text")

	return cmd
}

func regionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "Print the effective scan region table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			regions, err := cfg.RegionTable()
			if err != nil {
				return err
			}

			// With memory images loaded, also report which regions the
			// images can serve.
			var img *physimage.Image
			if len(cfg.Images) != 0 {
				if img, err = loadImages(cfg.Images); err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			if img == nil {
				fmt.Fprintln(tw, "NAME\tSTART\tEND\tUSE")
			} else {
				fmt.Fprintln(tw, "NAME\tSTART\tEND\tUSE\tBACKED")
			}
			for _, r := range regions {
				fmt.Fprintf(tw, "%s\t0x%x\t0x%x\t%s", r.Name, r.Start, r.End, r.Use)
				if img != nil {
					fmt.Fprintf(tw, "\t%t", img.Covers(r.Start, r.Size()))
				}
				fmt.Fprintln(tw)
			}

			if img != nil {
				fmt.Fprintln(tw)
				fmt.Fprintln(tw, "SEGMENT\tSTART\tEND")
				for i, seg := range img.Segments() {
					fmt.Fprintf(tw, "%d\t0x%x\t0x%x\n", i, seg.Base, seg.End())
				}
			}
			return tw.Flush()
		},
	}
}

// loadConfig reads the config file (if any) and applies flag overrides.
func (o *options) loadConfig() (*Config, error) {
	cfg := &Config{}
	if o.configPath != "" {
		var err error
		if cfg, err = LoadConfig(o.configPath); err != nil {
			return nil, err
		}
	}

	for _, spec := range o.images {
		ic, err := parseImageSpec(spec)
		if err != nil {
			return nil, err
		}
		cfg.Images = append(cfg.Images, ic)
	}

	if o.checksum != "" {
		cfg.Checksum = o.checksum
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (o *options) openBackend(cfg *Config) (memoryBackend, error) {
	switch {
	case o.devMem && len(cfg.Images) != 0:
		return nil, fmt.Errorf("--devmem cannot be combined with memory images")
	case o.devMem:
		return openDevMem()
	case len(cfg.Images) == 0:
		return nil, fmt.Errorf("no memory backend: pass --image path@base or --devmem")
	}

	img, err := loadImages(cfg.Images)
	if err != nil {
		return nil, err
	}
	return imageBackend{img}, nil
}

func writeReport(w io.Writer, format string, r *Report) error {
	switch format {
	case "yaml":
		return writeYAML(w, r)
	case "text":
		return writeText(w, r)
	default:
		return fmt.Errorf("format must be either 'yaml' or 'text'")
	}
}
