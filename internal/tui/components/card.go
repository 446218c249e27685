// Package components provides reusable TUI widgets for the finboard dashboard.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// Metric is one figure shown in a MetricCard.
type Metric struct {
	Label string
	Value string
	Delta string         // optional secondary line
	Tone  lipgloss.Color // optional value color; primary text when empty
}

// LayoutRow splits totalWidth into n widths summing to totalWidth; the
// leftmost columns take the remainder.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	for i := range widths {
		widths[i] = totalWidth / n
		if i < totalWidth%n {
			widths[i]++
		}
	}
	return widths
}

// panel is the bordered surface shared by every card. outerWidth includes
// the border.
func panel(outerWidth int) lipgloss.Style {
	t := theme.Active
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(max(outerWidth-2, 10)).
		Padding(0, 1)
}

// MetricCard renders one figure: muted label, bold value, optional delta.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active
	tone := m.Tone
	if tone == "" {
		tone = t.TextPrimary
	}

	lines := []string{
		lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(m.Label),
		lipgloss.NewStyle().Foreground(tone).Background(t.Surface).Bold(true).Render(m.Value),
	}
	if m.Delta != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(m.Delta))
	}
	return panel(outerWidth).Render(strings.Join(lines, "\n"))
}

// MetricCardRow lays metrics side by side across totalWidth.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	widths := LayoutRow(totalWidth, len(metrics))
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		cards[i] = MetricCard(m, widths[i])
	}
	return CardRow(cards)
}

// ContentCard renders body inside a panel, under a bold title when one is
// given.
func ContentCard(title, body string, outerWidth int) string {
	if title != "" {
		t := theme.Active
		body = lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true).Render(title) + "\n" + body
	}
	return panel(outerWidth).Render(body)
}

// CardRow joins pre-rendered cards horizontally. Shorter cards are padded
// with background-filled lines so the joined block has no unstyled gaps.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	t := theme.Active
	fill := lipgloss.NewStyle().Background(t.Background)

	tallest := 0
	for _, c := range cards {
		tallest = max(tallest, lipgloss.Height(c))
	}

	padded := make([]string, len(cards))
	for i, c := range cards {
		h := lipgloss.Height(c)
		if h == tallest {
			padded[i] = c
			continue
		}
		w := lipgloss.Width(c)
		blank := fill.Render(strings.Repeat(" ", w))
		padded[i] = c + strings.Repeat("\n"+blank, tallest-h)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, padded...)
}

// CardInnerWidth is the text width left inside a ContentCard.
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, 10)
}
