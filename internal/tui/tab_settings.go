package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/finboard/internal/config"
	"github.com/theirongolddev/finboard/internal/tui/components"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

const (
	settingsFieldAPIURL = iota
	settingsFieldTheme
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldRecentLimit
	settingsFieldLogLevel
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   string // flash message after a successful save
	saveErr error  // non-nil if the last edit was rejected or not written
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a *App) settingsKey(key string) (tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
		return nil, true
	case "k", "up":
		a.settings.cursor = max(a.settings.cursor-1, 0)
		return nil, true
	case "enter":
		return a.settingsStartEdit(), true
	}
	return nil, false
}

func (a *App) settingsStartEdit() tea.Cmd {
	a.settings.editing = true
	a.settings.saved = ""
	a.settings.saveErr = nil

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldAPIURL:
		ti.Placeholder = config.DefaultAPIURL
		ti.SetValue(config.GetAPIURL(a.cfg))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = fmt.Sprintf("%d (seconds, minimum %d)", defaultRefreshSecs, minRefreshSec)
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	case settingsFieldRecentLimit:
		ti.Placeholder = "5"
		ti.SetValue(strconv.Itoa(a.cfg.TUI.RecentLimit))
	case settingsFieldLogLevel:
		ti.Placeholder = "debug, info, warn, error"
		ti.SetValue(a.cfg.Log.Level)
	}

	a.settings.input = ti
	return a.settings.input.Focus()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited field and writes the config file.
// Invalid input leaves the config untouched.
func (a *App) settingsSave() {
	val := strings.TrimSpace(a.settings.input.Value())
	cfg := a.cfg
	saved := "Saved."

	switch a.settings.cursor {
	case settingsFieldAPIURL:
		if err := config.ValidateAPIURL(val); err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.API.BaseURL = val
		saved = "Saved. Restart finboard to use the new API URL."
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldAutoRefresh:
		b, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.saveErr = errors.New("enter true or false")
			return
		}
		cfg.TUI.AutoRefresh = b
		a.autoRefresh = b
	case settingsFieldRefreshInterval:
		secs, err := parseInterval(val)
		if err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.TUI.RefreshIntervalSec = secs
		a.refreshInterval = time.Duration(secs) * time.Second
	case settingsFieldRecentLimit:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 || n > 50 {
			a.settings.saveErr = errors.New("enter a number from 1 to 50")
			return
		}
		cfg.TUI.RecentLimit = n
		saved = "Saved. Applies on next start."
	case settingsFieldLogLevel:
		lvl, err := zerolog.ParseLevel(strings.ToLower(val))
		if err != nil || lvl == zerolog.NoLevel {
			a.settings.saveErr = fmt.Errorf("unknown log level %q", val)
			return
		}
		cfg.Log.Level = lvl.String()
		zerolog.SetGlobalLevel(lvl)
	}

	if err := config.Save(cfg); err != nil {
		a.settings.saveErr = err
		return
	}
	a.cfg = cfg
	a.settings.saved = saved
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	type field struct {
		label string
		value string
	}

	// Auto-refresh and interval come from live state so the R toggle shows.
	fields := []field{
		{"API URL", config.GetAPIURL(a.cfg)},
		{"Theme", a.cfg.Appearance.Theme},
		{"Auto Refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
		{"Recent Limit", strconv.Itoa(a.cfg.TUI.RecentLimit)},
		{"Log Level", a.cfg.Log.Level},
	}

	innerW := components.CardInnerWidth(cw)
	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if pad := innerW - used; pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved != "" {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render(a.settings.saved))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	// Account and paths
	user, email := "(not signed in)", "-"
	if u, ok := a.session.User(); ok {
		user = u.Username
		if u.Email != "" {
			email = u.Email
		}
	}
	mode := "online"
	if a.offline {
		mode = "offline (cached responses)"
	}

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Signed in as:  ") + valueStyle.Render(user) + "\n")
	infoBody.WriteString(labelStyle.Render("Email:         ") + valueStyle.Render(email) + "\n")
	infoBody.WriteString(labelStyle.Render("Mode:          ") + valueStyle.Render(mode) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:   ") + valueStyle.Render(config.ConfigPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("Cache:         ") + valueStyle.Render(config.DBPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("Log file:      ") + valueStyle.Render(config.LogPath()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Account", infoBody.String(), cw))
	return b.String()
}
