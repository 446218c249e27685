package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/tui/components"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	if !a.loaded[pageForecast] || len(a.forecast.Forecast.Weeks) == 0 {
		return components.ContentCard("13-Week Forecast", a.placeholder(pageForecast, "No forecast available."), cw)
	}

	fc := a.forecast.Forecast
	end, low := fc.EndBalance(), fc.LowestBalance()
	growth, _ := fc.Growth()

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Current Cash Balance", Value: cli.FormatMoney(fc.CurrentBalance())},
		{Label: "Projected End Balance", Value: cli.FormatMoney(end), Tone: t.Signed(end.IsNegative()),
			Delta: fmt.Sprintf("after %d weeks", len(fc.Weeks))},
		{Label: "Lowest Projected Balance", Value: cli.FormatMoney(low), Tone: t.Signed(low.IsNegative())},
		{Label: "Projected Growth", Value: fc.GrowthLabel(), Tone: t.Signed(growth.IsNegative())},
	}, cw))
	b.WriteString("\n")

	closing := make([]float64, len(fc.Weeks))
	labels := make([]string, len(fc.Weeks))
	for i, w := range fc.Weeks {
		closing[i] = w.Closing.InexactFloat64()
		labels[i] = fmt.Sprintf("W%d", w.Week)
	}
	chartH := 8
	if a.isCompactLayout() {
		chartH = 6
	}
	b.WriteString(components.ContentCard("Closing Balance",
		components.BarChart(closing, labels, t.Blue, components.CardInnerWidth(cw), chartH), cw))
	b.WriteString("\n")

	weeks := fc.Head(6)
	title := fmt.Sprintf("Weekly (first %d, [w] show all)", len(weeks))
	if a.forecastAll {
		weeks = fc.Weeks
		title = fmt.Sprintf("Weekly (all %d, [w] show 6)", len(weeks))
	}

	cols := fitColumns([]column{
		{title: "Week", width: 4, right: true},
		{title: "Dates", width: 16, flex: true},
		{title: "Opening", width: 13, right: true},
		{title: "Cash In", width: 13, right: true},
		{title: "Cash Out", width: 13, right: true},
		{title: "Closing", width: 13, right: true},
	}, components.CardInnerWidth(cw))

	rows := make([][]cell, 0, len(weeks))
	for _, w := range weeks {
		rows = append(rows, []cell{
			colored(fmt.Sprintf("%d", w.Week), t.TextMuted),
			plain(cli.FormatDateRange(w.Start, w.End)),
			plain(cli.FormatMoney(w.Opening)),
			colored(cli.FormatMoney(w.CashIn), t.Income()),
			colored(cli.FormatMoney(w.CashOut), t.Expense()),
			colored(cli.FormatMoney(w.Closing), t.Signed(w.Closing.IsNegative())),
		})
	}
	b.WriteString(components.ContentCard(title, renderTable(cols, rows, -1), cw))
	return b.String()
}
