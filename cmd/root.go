// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/vita49/internal/cli/output"
	"firestige.xyz/vita49/internal/config"
	"firestige.xyz/vita49/internal/log"
)

var (
	// Global flags
	configFile   string
	outputFormat string
	logLevel     string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vrt",
	Short: "vrt - VITA 49 packet header encoder, decoder and capture inspector",
	Long: `vrt works with the 32-bit common header that opens every VITA 49 (VRT) packet.

It can:
  - decode header words given as hex
  - encode a header from flags or a YAML field file
  - scan pcap/pcapng captures for VRT streams over UDP and flag packet count gaps`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (YAML)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "",
		"output format: table, json, yaml (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(scanCmd)
}

// loadRuntime loads the configuration, applies global flag overrides and
// installs the process logger.
func loadRuntime(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if outputFormat != "" {
		loaded.Output.Format = outputFormat
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	if err := log.Init(loaded.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	cfg = loaded
	return nil
}

func newPrinter(w io.Writer) (*output.Printer, error) {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(w, format, cfg.Output.Color), nil
}
