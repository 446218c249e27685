package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/tui/theme"
)

func init() {
	// Force ANSI output so background fills are observable.
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	require.Less(t, shortLines, tallLines)

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	assert.Len(t, lines, tallLines)

	// Padding below the short card must still carry background styling.
	for i := shortLines; i < len(lines); i++ {
		assert.Contains(t, lines[i], "\x1b[", "line %d has no ANSI codes", i)
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "A", 30)
	tallCard := ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20)

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")

	for i, line := range lines {
		assert.Equal(t, 50, lipgloss.Width(line), "line %d", i)
	}
}

func TestMetricCardRowSumsToWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Total Balance", Value: "$45,000.00"},
		{Label: "Cash Inflow", Value: "$12,000.00", Tone: theme.Active.Green},
		{Label: "Runway", Value: "6.5 months", Delta: "burn $4,200.00/mo"},
	}, 91)

	for _, line := range strings.Split(row, "\n") {
		assert.Equal(t, 91, lipgloss.Width(line))
	}
	assert.Contains(t, row, "Runway")
}

func TestLayoutRow(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, LayoutRow(10, 3))
	assert.Nil(t, LayoutRow(10, 0))
}
