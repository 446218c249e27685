package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// ColorForTier returns green/orange/red for the budget tier.
func ColorForTier(tier model.BudgetTier) lipgloss.Color {
	t := theme.Active
	switch tier {
	case model.TierDanger:
		return t.Red
	case model.TierWarning:
		return t.Orange
	default:
		return t.Green
	}
}

// BudgetBar renders one budget row: label, usage bar colored by tier,
// two-decimal percentage and amounts. Rows whose amounts do not add up
// get a trailing "!" marker.
func BudgetBar(item model.BudgetItem, labelW, barWidth int) string {
	t := theme.Active
	color := ColorForTier(item.Tier())
	usage := item.UsagePercent()

	ratio := usage.InexactFloat64() / 100
	ratio = max(0, min(ratio, 1))

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	label := cli.Truncate(item.Category, labelW)
	out := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(ratio) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%7s", cli.FormatPercent(usage, 2))) +
		spaceStyle.Render("  ") +
		amountStyle.Render(cli.FormatMoney(item.Spent)+" / "+cli.FormatMoney(item.Budgeted))
	if !item.Consistent {
		out += warnStyle.Render(" !")
	}
	return out
}

// CompactBar renders a small status-sized ratio bar without amounts.
func CompactBar(label string, ratio float64, color lipgloss.Color, width int) string {
	t := theme.Active
	ratio = max(0, min(ratio, 1))

	barW := max(4, width-lipgloss.Width(label)-6)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(label) +
		spaceStyle.Render(" ") +
		bar.ViewAs(ratio) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", ratio*100))
}
