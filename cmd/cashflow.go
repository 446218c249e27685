package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/pipeline"
)

var flagCashflowMonths int

var cashflowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Monthly inflow and outflow",
	RunE:  runCashflow,
}

func init() {
	cashflowCmd.Flags().IntVarP(&flagCashflowMonths, "months", "m", 12, "Months to show")
	rootCmd.AddCommand(cashflowCmd)
}

func runCashflow(_ *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()
	if err := e.requireSession(ctx); err != nil {
		return err
	}

	progress("Loading cash flow...")
	page, err := e.loader.CashFlow(ctx)
	if aerr := e.checkAuth(err); aerr != nil {
		return aerr
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CASH FLOW"))
	fmt.Println()

	net := page.TotalInflow.Sub(page.TotalOutflow)
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total inflow", cli.FormatMoney(page.TotalInflow)},
			{"Total outflow", cli.FormatMoney(page.TotalOutflow)},
			{"Net cash flow", cli.RenderAmount(net)},
			{"Burn rate", cli.FormatMoney(page.Summary.Completed.BurnRate)},
		},
	}))
	fmt.Println()

	months := pipeline.LastMonths(page.Months, flagCashflowMonths)
	if len(months) == 0 {
		fmt.Println("  No dated transactions.")
		fmt.Println()
		return nil
	}

	var peak float64
	for _, m := range months {
		peak = max(peak, m.Inflow.InexactFloat64(), m.Outflow.InexactFloat64())
	}

	rows := make([][]string, 0, len(months))
	for i := len(months) - 1; i >= 0; i-- {
		m := months[i]
		rows = append(rows, []string{
			cli.FormatMonth(m.Month),
			cli.FormatMoney(m.Inflow),
			cli.FormatMoney(m.Outflow),
			cli.RenderAmount(m.Net()),
			fmt.Sprintf("%d", m.Count),
			cli.RenderHorizontalBar(m.Inflow.InexactFloat64(), peak, 12, cli.ColorGreen),
			cli.RenderHorizontalBar(m.Outflow.InexactFloat64(), peak, 12, cli.ColorRed),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By month",
		Headers: []string{"Month", "Inflow", "Outflow", "Net", "Txns", "In", "Out"},
		Rows:    rows,
	}))
	warnIssues(page.Issues)
	fmt.Println()
	return nil
}
