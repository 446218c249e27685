package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// Status is what the bottom bar reports.
type Status struct {
	User        string // empty when signed out
	FetchedAgo  string // relative time of the active page's last load
	Loading     bool
	Offline     bool
	AutoRefresh bool
	Notice      string // transient message, e.g. "Transaction created"
	Error       string // load failure for the active page
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	green := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")
	switch {
	case st.Error != "":
		left += base.Render("  ") + warn.Render(st.Error)
	case st.Notice != "":
		left += base.Render("  ") + green.Render(st.Notice)
	}

	var right []string
	if st.Offline {
		right = append(right, warn.Render("offline"))
	}
	if st.Loading {
		right = append(right, accent.Render("loading…"))
	} else if st.FetchedAgo != "" {
		right = append(right, base.Render("updated "+st.FetchedAgo))
	}
	if st.AutoRefresh {
		right = append(right, base.Render("auto"))
	}
	if st.User != "" {
		right = append(right, accent.Render(st.User))
	}
	rightStr := strings.Join(right, base.Render(" · ")) + base.Render(" ")

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(rightStr))
	bar := left + base.Render(strings.Repeat(" ", padding)) + rightStr

	return lipgloss.NewStyle().Background(t.Surface).MaxWidth(width).Render(bar)
}
