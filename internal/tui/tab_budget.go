package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/tui/components"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

func (a App) renderBudgetTab(cw int) string {
	t := theme.Active
	if !a.loaded[pageBudget] || len(a.budget.Budget.Items) == 0 {
		return components.ContentCard("Budget", a.placeholder(pageBudget, "No budgets set."), cw)
	}

	bud := a.budget.Budget
	usage := bud.UsagePercent()

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Budget", Value: cli.FormatMoney(bud.TotalBudgeted),
			Delta: fmt.Sprintf("%d categories", len(bud.Items))},
		{Label: "Total Spent", Value: cli.FormatMoney(bud.TotalSpent), Tone: t.Expense(),
			Delta: cli.FormatPercent(usage, 2) + " used"},
		{Label: "Remaining", Value: cli.FormatMoney(bud.TotalRemaining), Tone: t.Signed(bud.TotalRemaining.IsNegative()),
			Delta: fmt.Sprintf("%d warning · %d over 90%%", bud.CountTier(model.TierWarning), bud.CountTier(model.TierDanger))},
	}, cw))
	b.WriteString("\n")

	innerW := components.CardInnerWidth(cw)
	labelW := 16
	for _, it := range bud.Items {
		labelW = max(labelW, min(lipgloss.Width(it.Category), 24))
	}
	// label, gaps, "100.00%", "$x / $y" and marker
	barW := max(10, innerW-labelW-42)

	var body strings.Builder
	inconsistent := 0
	for i, it := range bud.Items {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(components.BudgetBar(it, labelW, barW))
		if !it.Consistent {
			inconsistent++
		}
	}
	if inconsistent > 0 {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		body.WriteString("\n\n")
		body.WriteString(warn.Render(fmt.Sprintf("! %d row(s) where spent + remaining does not equal the budget", inconsistent)))
	}

	b.WriteString(components.ContentCard("Usage by Category", body.String(), cw))
	return b.String()
}
