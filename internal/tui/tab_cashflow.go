package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/tui/components"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// cashflowMonths bounds the chart; the table shows every month.
const cashflowMonths = 12

func (a App) renderCashFlowTab(cw int) string {
	t := theme.Active
	if !a.loaded[pageCashFlow] || len(a.cashflow.Months) == 0 {
		return components.ContentCard("Cash Flow", a.placeholder(pageCashFlow, "No transactions to group."), cw)
	}

	p := a.cashflow
	net := p.TotalInflow.Sub(p.TotalOutflow)
	done := p.Summary.Completed

	burnDelta := ""
	if done.Runway.IsPositive() {
		burnDelta = "runway " + cli.FormatMonths(done.Runway)
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Inflow", Value: cli.FormatMoney(p.TotalInflow), Tone: t.Income()},
		{Label: "Total Outflow", Value: cli.FormatMoney(p.TotalOutflow), Tone: t.Expense()},
		{Label: "Net Cash Flow", Value: cli.FormatMoney(net), Tone: t.Signed(net.IsNegative()),
			Delta: fmt.Sprintf("%d months", len(p.Months))},
		{Label: "Burn Rate", Value: cli.FormatMoney(done.BurnRate) + "/mo", Delta: burnDelta},
	}, cw))
	b.WriteString("\n")

	// Inflow and outflow charts, side by side when there is room
	months := pipeline.LastMonths(p.Months, cashflowMonths)
	in, out, labels := monthSeries(months)
	halves := components.LayoutRow(cw, 2)
	chartH := 8
	if a.isCompactLayout() {
		chartH = 6
		halves = []int{cw, cw}
	}
	inCard := components.ContentCard("Inflow by Month",
		components.BarChart(in, labels, t.Income(), components.CardInnerWidth(halves[0]), chartH), halves[0])
	outCard := components.ContentCard("Outflow by Month",
		components.BarChart(out, labels, t.Expense(), components.CardInnerWidth(halves[1]), chartH), halves[1])
	if a.isCompactLayout() {
		b.WriteString(inCard + "\n" + outCard)
	} else {
		b.WriteString(components.CardRow([]string{inCard, outCard}))
	}
	b.WriteString("\n")

	// Monthly table, newest first
	cols := fitColumns([]column{
		{title: "Month", width: 10, flex: true},
		{title: "Inflow", width: 14, right: true},
		{title: "Outflow", width: 14, right: true},
		{title: "Net", width: 14, right: true},
		{title: "Count", width: 6, right: true},
	}, components.CardInnerWidth(cw))

	rows := make([][]cell, 0, len(p.Months))
	for i := len(p.Months) - 1; i >= 0; i-- {
		m := p.Months[i]
		rows = append(rows, []cell{
			plain(cli.FormatMonth(m.Month)),
			colored(cli.FormatMoney(m.Inflow), t.Income()),
			colored(cli.FormatMoney(m.Outflow), t.Expense()),
			colored(cli.FormatMoney(m.Net()), t.Signed(m.Net().IsNegative())),
			colored(cli.FormatNumber(int64(m.Count)), t.TextMuted),
		})
	}
	b.WriteString(components.ContentCard("Monthly", renderTable(cols, rows, -1), cw))

	return b.String()
}
