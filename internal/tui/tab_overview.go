package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/tui/components"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// overviewMonths is how many months the overview chart shows.
const overviewMonths = 6

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	if !a.loaded[pageOverview] {
		return components.ContentCard("Overview", a.placeholder(pageOverview, "No data yet."), cw)
	}

	p := a.overview
	done, pending := p.Summary.Completed, p.Summary.Pending
	var b strings.Builder

	// Row 1: metric cards
	runway := "-"
	if done.Runway.IsPositive() {
		runway = cli.FormatMonths(done.Runway)
	}
	burn := ""
	if !done.BurnRate.IsZero() {
		burn = "burn " + cli.FormatMoney(done.BurnRate) + "/mo"
	}
	metrics := []components.Metric{
		{Label: "Total Balance", Value: cli.FormatMoney(done.NetAmount), Tone: t.Signed(done.NetAmount.IsNegative()),
			Delta: "pending " + cli.FormatMoney(pending.NetAmount)},
		{Label: "Cash Inflow", Value: cli.FormatMoney(done.TotalIncome), Tone: t.Income(),
			Delta: "pending " + cli.FormatMoney(pending.TotalIncome)},
		{Label: "Cash Outflow", Value: cli.FormatMoney(done.TotalExpenses), Tone: t.Expense(),
			Delta: "pending " + cli.FormatMoney(pending.TotalExpenses)},
		{Label: "Runway", Value: runway, Delta: burn},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: cash flow chart
	months := pipeline.LastMonths(p.Months, overviewMonths)
	if len(months) > 0 {
		in, out, labels := monthSeries(months)
		series := []components.Series{
			{Name: "Inflow", Values: in, Color: t.Income()},
			{Name: "Outflow", Values: out, Color: t.Expense()},
		}
		chartH := 8
		if a.isCompactLayout() {
			chartH = 6
		}
		body := components.Legend(series) + "\n" +
			components.GroupedBarChart(series, labels, components.CardInnerWidth(cw), chartH)
		b.WriteString(components.ContentCard(fmt.Sprintf("Cash Flow (last %d months)", len(months)), body, cw))
		b.WriteString("\n")
	}

	// Row 3: recent transactions + budget vs actual
	halves := components.LayoutRow(cw, 2)
	recentW, budgetW := halves[0], halves[1]
	if a.isCompactLayout() {
		recentW, budgetW = cw, cw
	}

	recentCard := components.ContentCard("Recent Transactions", a.recentBody(components.CardInnerWidth(recentW)), recentW)
	budgetCard := components.ContentCard("Budget vs Actual", overviewBudgetBody(p.Budget, components.CardInnerWidth(budgetW)), budgetW)

	if a.isCompactLayout() {
		b.WriteString(recentCard)
		b.WriteString("\n")
		b.WriteString(budgetCard)
	} else {
		b.WriteString(components.CardRow([]string{recentCard, budgetCard}))
	}

	if n := len(p.Issues); n > 0 {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Background)
		b.WriteString("\n")
		b.WriteString(warn.Render(fmt.Sprintf(" %d field(s) did not match the expected shape; see the log", n)))
	}

	return b.String()
}

func (a App) recentBody(innerW int) string {
	t := theme.Active
	if len(a.overview.Recent) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No transactions yet.")
	}

	cols := fitColumns([]column{
		{title: "Date", width: 12},
		{title: "Description", width: 10, flex: true},
		{title: "Amount", width: 12, right: true},
	}, innerW)

	rows := make([][]cell, 0, len(a.overview.Recent))
	for _, tx := range a.overview.Recent {
		rows = append(rows, []cell{
			colored(cli.FormatDate(tx.Date), t.TextMuted),
			plain(tx.Description),
			colored(cli.FormatSignedMoney(tx), t.Signed(tx.Type == model.Expense)),
		})
	}
	return renderTable(cols, rows, -1)
}

func overviewBudgetBody(b model.Budget, innerW int) string {
	t := theme.Active
	if len(b.Items) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No budgets set.")
	}

	labelW := min(14, innerW/4)
	var body strings.Builder
	for i, it := range b.Items {
		if i > 0 {
			body.WriteString("\n")
		}
		ratio := it.UsagePercent().InexactFloat64() / 100
		body.WriteString(components.CompactBar(fmt.Sprintf("%-*s", labelW, cli.Truncate(it.Category, labelW)), ratio, components.ColorForTier(it.Tier()), innerW))
	}
	return body.String()
}

// monthSeries splits months into chart values and "Jan" style labels.
func monthSeries(months []model.MonthFlow) (in, out []float64, labels []string) {
	in = make([]float64, len(months))
	out = make([]float64, len(months))
	labels = make([]string, len(months))
	for i, m := range months {
		in[i] = m.Inflow.InexactFloat64()
		out[i] = m.Outflow.InexactFloat64()
		labels[i] = m.Month.Format("Jan")
	}
	return in, out, labels
}
