package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Database:     %s\n", dbPath())
	fmt.Printf("    Window days:  %d\n", windowDays())
	fmt.Printf("    Currency:     %s\n", cfg.General.Currency)
	fmt.Printf("    Log level:    %s\n", cfg.General.LogLevel)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Schedule:      %s\n", cfg.Daemon.Schedule)
	if cfg.Daemon.Digest != "" {
		fmt.Printf("    Digest:        %s\n", cfg.Daemon.Digest)
	} else {
		fmt.Println("    Digest:        off")
	}
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  Run `obligo setup` to reconfigure.")
	return nil
}
