package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/tui"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// The TUI owns the terminal, so logs go to the log file.
	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	theme.SetActive(e.cfg.Appearance.Theme)

	// Force TrueColor so background styling always emits ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Deps{
		Loader:  e.loader,
		Session: e.session,
		API:     e.client,
		Config:  e.cfg,
		Offline: flagOffline,
		Log:     e.log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	e.log.Info().Str("api_url", e.apiURL).Msg("tui start")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
