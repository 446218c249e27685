package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/model"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Budget progress by category",
	RunE:  runBudget,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(_ *cobra.Command, _ []string) error {
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

	progress("Loading budget...")
	page, err := e.loader.Budget(ctx)
	if aerr := e.checkAuth(err); aerr != nil {
		return aerr
	}
	if err != nil {
		return err
	}

	b := page.Budget
	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGET"))
	fmt.Println()

	if len(b.Items) == 0 {
		fmt.Println("  No budgets for this period.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(b.Items)+2)
	inconsistent := 0
	for _, it := range b.Items {
		name := it.Category
		if !it.Consistent {
			name += " *"
			inconsistent++
		}
		rows = append(rows, []string{
			name,
			cli.FormatMoney(it.Budgeted),
			cli.FormatMoney(it.Spent),
			cli.RenderAmount(it.Remaining),
			cli.RenderUsageBar(it, 20),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		"Total",
		cli.FormatMoney(b.TotalBudgeted),
		cli.FormatMoney(b.TotalSpent),
		cli.RenderAmount(b.TotalRemaining),
		cli.FormatPercent(b.UsagePercent(), 2),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Budget", "Spent", "Remaining", "Usage"},
		Rows:    rows,
	}))

	if n := b.CountTier(model.TierDanger); n > 0 {
		fmt.Println("  " + cli.Warn(fmt.Sprintf("%d categor%s at or above 90%%", n, plural(n, "y", "ies"))))
	}
	if inconsistent > 0 {
		fmt.Println(cli.Muted("  * spent + remaining does not match the budget amount"))
	}
	warnIssues(page.Issues)
	fmt.Println()
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
