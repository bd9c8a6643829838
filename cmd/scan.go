package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/vita49/internal/capture"
	"firestige.xyz/vita49/internal/cli/output"
	"firestige.xyz/vita49/internal/config"
)

// recordScanner is the part of *capture.Scanner the scan command needs.
type recordScanner interface {
	Scan(ctx context.Context, r io.Reader, fn func(capture.Record) error) (capture.Stats, error)
}

var scanFlag struct {
	ports      []uint
	max        int
	skipErrors bool
	continuity bool
}

var scanCmd = &cobra.Command{
	Use:   "scan FILE",
	Short: "Scan a pcap/pcapng capture for VRT packets over UDP",
	Long: `Read a capture file offline and decode the VRT header at the start of every
UDP payload. Flags override the scan section of the config file.`,
	Example: `  vrt scan stream.pcap --port 4991
  vrt scan stream.pcapng --max 100 --continuity=false -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := scanOptions(cmd, cfg.Scan)
		if err != nil {
			return err
		}
		scanner, err := capture.NewScanner(opts)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open capture: %w", err)
		}
		defer f.Close()

		p, err := newPrinter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		_, err = runScan(cmd.Context(), scanner, f, p)
		return err
	},
}

func init() {
	flags := scanCmd.Flags()
	flags.UintSliceVarP(&scanFlag.ports, "port", "p", nil, "UDP destination port to keep (repeatable)")
	flags.IntVar(&scanFlag.max, "max", 0, "stop after this many VRT packets (0 = all)")
	flags.BoolVar(&scanFlag.skipErrors, "skip-errors", true, "report undecodable payloads instead of stopping")
	flags.BoolVar(&scanFlag.continuity, "continuity", true, "flag packet count gaps per flow")
}

// scanOptions merges explicitly set flags over the configured scan section.
func scanOptions(cmd *cobra.Command, sc config.ScanConfig) (capture.Options, error) {
	opts := capture.Options{
		MaxPackets:      sc.MaxPackets,
		SkipErrors:      sc.SkipErrors,
		CheckContinuity: sc.CheckContinuity,
	}

	for _, p := range sc.Ports {
		if p < 1 || p > 0xFFFF {
			return opts, fmt.Errorf("invalid scan port %d: must be 1-65535", p)
		}
		opts.Ports = append(opts.Ports, uint16(p))
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		opts.Ports = make([]uint16, 0, len(scanFlag.ports))
		for _, p := range scanFlag.ports {
			if p == 0 || p > 0xFFFF {
				return opts, fmt.Errorf("invalid --port %d: must be 1-65535", p)
			}
			opts.Ports = append(opts.Ports, uint16(p))
		}
	}
	if flags.Changed("max") {
		if scanFlag.max < 0 {
			return opts, fmt.Errorf("invalid --max %d: must be >= 0", scanFlag.max)
		}
		opts.MaxPackets = scanFlag.max
	}
	if flags.Changed("skip-errors") {
		opts.SkipErrors = scanFlag.skipErrors
	}
	if flags.Changed("continuity") {
		opts.CheckContinuity = scanFlag.continuity
	}
	return opts, nil
}

// runScan drives the scanner and prints the collected records and stats.
// Records gathered before a scan error are still printed.
func runScan(ctx context.Context, s recordScanner, r io.Reader, p *output.Printer) (capture.Stats, error) {
	var records RecordList
	stats, scanErr := s.Scan(ctx, r, func(rec capture.Record) error {
		records = append(records, newRecordView(rec))
		return nil
	})

	if err := printScan(p, records, stats); err != nil {
		return stats, err
	}
	if scanErr != nil {
		return stats, fmt.Errorf("scan failed: %w", scanErr)
	}
	return stats, nil
}

func printScan(p *output.Printer, records RecordList, stats capture.Stats) error {
	if p.Format() != output.FormatTable {
		if records == nil {
			records = RecordList{}
		}
		return p.Print(ScanReport{Records: records, Stats: stats})
	}

	if len(records) > 0 {
		if err := p.Print(records); err != nil {
			return err
		}
		p.Println()
	}
	if stats.Gaps > 0 {
		p.Warning(fmt.Sprintf("%d packet count gap(s) detected", stats.Gaps))
	}
	if stats.Errors > 0 {
		p.Error(fmt.Sprintf("%d payload(s) failed to decode", stats.Errors))
	}
	return output.SimpleTable(p.Writer(), statsPairs(stats))
}
