package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Balance, income, expenses and recent transactions",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
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

	progress("Loading overview...")
	page, err := e.loader.Overview(ctx)
	if aerr := e.checkAuth(err); aerr != nil {
		return aerr
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("FINANCE OVERVIEW"))
	fmt.Println()

	done, pending := page.Summary.Completed, page.Summary.Pending
	rows := [][]string{
		{"Balance", cli.RenderAmount(done.NetAmount)},
		{"Income", cli.FormatMoney(done.TotalIncome)},
		{"Expenses", cli.FormatMoney(done.TotalExpenses)},
		{"---"},
		{"Pending income", cli.FormatMoney(pending.TotalIncome)},
		{"Pending expenses", cli.FormatMoney(pending.TotalExpenses)},
		{"Pending net", cli.RenderAmount(pending.NetAmount)},
	}
	if !done.BurnRate.IsZero() {
		rows = append(rows, []string{"---"}, []string{"Burn rate", cli.FormatMoney(done.BurnRate) + "/mo"})
		if !done.Runway.IsZero() {
			rows = append(rows, []string{"Runway", cli.FormatMonths(done.Runway)})
		}
	}
	if len(page.Budget.Items) > 0 {
		rows = append(rows, []string{"---"},
			[]string{"Budget used", cli.FormatPercent(page.Budget.UsagePercent(), 1)},
			[]string{"Over 90%", fmt.Sprintf("%d of %d", page.Budget.CountTier(model.TierDanger), len(page.Budget.Items))},
		)
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Last 30 days",
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	fmt.Println()

	if len(page.Months) > 0 {
		months := pipeline.LastMonths(page.Months, 6)
		in := make([]float64, len(months))
		out := make([]float64, len(months))
		for i, m := range months {
			in[i] = m.Inflow.InexactFloat64()
			out[i] = m.Outflow.InexactFloat64()
		}
		fmt.Printf("  Inflow  %s\n", cli.RenderSparkline(in))
		fmt.Printf("  Outflow %s\n\n", cli.RenderSparkline(out))
	}

	if len(page.Recent) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Recent transactions",
			Headers:  []string{"Date", "Description", "Category", "Amount"},
			Rows:     transactionRows(page.Recent, false),
			LeftCols: 3,
		}))
	} else {
		fmt.Println(cli.Muted("  No transactions yet."))
	}

	if err != nil {
		fmt.Println()
		fmt.Println("  " + cli.Warn(fmt.Sprintf("Partial data: %v", err)))
	}
	warnIssues(page.Issues)
	fmt.Printf("\n  Fetched %s\n\n", cli.FormatAgo(page.FetchedAt))
	return nil
}

// transactionRows renders the shared transaction columns.
func transactionRows(txs []model.Transaction, withClient bool) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		row := []string{
			cli.FormatDate(tx.Date),
			cli.Truncate(tx.Description, 36),
			tx.Category.Name,
		}
		if withClient {
			row = append(row, cli.Truncate(tx.Client, 20), string(tx.Type))
		}
		row = append(row, cli.RenderSignedAmount(tx))
		rows = append(rows, row)
	}
	return rows
}
