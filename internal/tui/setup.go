package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/finboard/internal/config"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// SetupValues backs the first-run setup form.
type SetupValues struct {
	APIURL      string
	Theme       string
	AutoRefresh bool
	RefreshSec  string
}

// SetupValuesFrom seeds the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		APIURL:      config.GetAPIURL(cfg),
		Theme:       cfg.Appearance.Theme,
		AutoRefresh: cfg.TUI.AutoRefresh,
		RefreshSec:  strconv.Itoa(cfg.TUI.RefreshIntervalSec),
	}
}

// Apply copies validated values into cfg.
func (v SetupValues) Apply(cfg *config.Config) error {
	if err := config.ValidateAPIURL(v.APIURL); err != nil {
		return err
	}
	sec, err := parseInterval(v.RefreshSec)
	if err != nil {
		return err
	}
	cfg.API.BaseURL = strings.TrimSpace(v.APIURL)
	if theme.Valid(v.Theme) {
		cfg.Appearance.Theme = v.Theme
	}
	cfg.TUI.AutoRefresh = v.AutoRefresh
	cfg.TUI.RefreshIntervalSec = sec
	return nil
}

// NewSetupForm builds the first-run wizard.
func NewSetupForm(v *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to finboard").
				Description("Point finboard at your finance API.\nSettings are saved to "+config.ConfigPath()),
			huh.NewInput().
				Title("API base URL").
				Description("Overridden by "+config.APIURLEnv+" when set").
				Placeholder(config.DefaultAPIURL).
				Value(&v.APIURL).
				Validate(config.ValidateAPIURL),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
			huh.NewConfirm().
				Title("Auto-refresh the dashboard?").
				Value(&v.AutoRefresh),
			huh.NewInput().
				Title("Refresh interval (seconds)").
				Value(&v.RefreshSec).
				Validate(func(s string) error {
					_, err := parseInterval(s)
					return err
				}),
		),
	).WithTheme(FormTheme())
}

// FormTheme matches huh's styling to the active dashboard theme.
func FormTheme() *huh.Theme {
	switch theme.Active.Name {
	case theme.Terminal.Name:
		return huh.ThemeBase16()
	case theme.CatppuccinMocha.Name:
		return huh.ThemeCatppuccin()
	case theme.TokyoNight.Name:
		return huh.ThemeDracula()
	default:
		return huh.ThemeCharm()
	}
}

const minRefreshSec = 10

func parseInterval(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < minRefreshSec {
		return 0, errors.New("enter a whole number of seconds, at least 10")
	}
	return n, nil
}
