// Package cmd implements the obligo CLI commands.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/config"
	"github.com/theirongolddev/obligo/internal/model"
	"github.com/theirongolddev/obligo/internal/store"
)

var (
	flagDB     string
	flagToday  string
	flagWindow int
	flagQuiet  bool
)

var (
	appCfg = config.DefaultConfig()
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:               "obligo",
	Short:             "Personal debt and due-date tracker",
	Long:              "Track credit cards, pay-later wallets, installment loans and personal debts, and see what is due next.",
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagToday, "today", "", "Pretend today is YYYY-MM-DD")
	rootCmd.PersistentFlags().IntVarP(&flagWindow, "window", "w", 0, "Upcoming window in days (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// initApp loads .env files and config, then configures logging and formatting.
func initApp(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appCfg = cfg

	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	level, _ := logrus.ParseLevel(cfg.General.LogLevel)
	if flagQuiet && level > logrus.WarnLevel {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	cli.Currency = cfg.General.Currency
	return nil
}

func dbPath() string {
	if flagDB != "" {
		return flagDB
	}
	return appCfg.DBPath()
}

func openStore() (*store.Store, error) {
	s, err := store.Open(dbPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath(), err)
	}
	return s, nil
}

// today returns the reference time for due-date math, honoring --today.
func today() (time.Time, error) {
	if flagToday == "" {
		return time.Now(), nil
	}
	d, err := model.ParseDate(flagToday)
	if err != nil {
		return time.Time{}, fmt.Errorf("--today: %w", err)
	}
	return d.Time(), nil
}

func windowDays() int {
	if flagWindow > 0 {
		return flagWindow
	}
	return appCfg.General.WindowDays
}

// shortID is the prefix shown in tables and accepted by resolveID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
