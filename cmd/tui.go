package cmd

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/tui"
	"github.com/theirongolddev/obligo/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Aliases: []string{"dash"},
	Short:   "Launch interactive TUI dashboard",
	RunE:    runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Force TrueColor so background styling always produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	now, err := today()
	if err != nil {
		return err
	}
	pinned := flagToday != ""

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	// Log lines would corrupt the alt screen.
	logger.SetOutput(io.Discard)

	app := tui.NewApp(s, tui.Options{
		WindowDays: windowDays(),
		Now: func() time.Time {
			if pinned {
				return now
			}
			return time.Now()
		},
		Log: logger,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
