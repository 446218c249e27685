package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune
}

// Tab indexes.
const (
	TabOverview = iota
	TabTransactions
	TabCashFlow
	TabForecast
	TabBudget
	TabSettings
)

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: '1'},
	{Name: "Transactions", Key: '2'},
	{Name: "Cash Flow", Key: '3'},
	{Name: "Forecast", Key: '4'},
	{Name: "Budget", Key: '5'},
	{Name: "Settings", Key: '6'},
}

func tabLabel(tab Tab) string {
	return string(tab.Key) + " " + tab.Name
}

// TabVisualWidth returns the rendered width of a tab including padding.
func TabVisualWidth(tab Tab, _ bool) int {
	return lipgloss.Width(tabLabel(tab)) + 2
}

// RenderTabBar renders the tab bar with the given active index on one row,
// filled to width.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceBright).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, 1)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	sepStyle := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(tabLabel(tab)))
			continue
		}
		parts = append(parts, inactiveStyle.Render(keyStyle.Render(string(tab.Key))+inactiveStyle.UnsetPadding().Render(" "+tab.Name)))
	}

	row := strings.Join(parts, sepStyle.Render("│"))
	return lipgloss.NewStyle().Background(t.Surface).Width(width).MaxWidth(width).Render(row)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
