package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/pipeline"
)

var flagForecastWeeks int

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "13-week cash forecast",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVarP(&flagForecastWeeks, "weeks", "w", pipeline.ForecastWeeks, "Weeks to list")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
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

	progress("Loading forecast...")
	page, err := e.loader.Forecast(ctx)
	if aerr := e.checkAuth(err); aerr != nil {
		return aerr
	}
	if err != nil {
		return err
	}

	fc := page.Forecast
	fmt.Println()
	fmt.Println(cli.RenderTitle("13-WEEK FORECAST"))
	fmt.Println()

	if len(fc.Weeks) == 0 {
		fmt.Println("  No forecast data.")
		fmt.Println()
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Current balance", cli.RenderAmount(fc.CurrentBalance())},
			{"Projected end", cli.RenderAmount(fc.EndBalance())},
			{"Lowest projected", cli.RenderAmount(fc.LowestBalance())},
			{"Projected growth", fc.GrowthLabel()},
		},
	}))
	fmt.Println()

	closing := make([]float64, len(fc.Weeks))
	for i, w := range fc.Weeks {
		closing[i] = w.Closing.InexactFloat64()
	}
	fmt.Printf("  Closing balance %s\n\n", cli.RenderSparkline(closing))

	weeks := fc.Head(flagForecastWeeks)
	rows := make([][]string, 0, len(weeks))
	for _, w := range weeks {
		rows = append(rows, []string{
			fmt.Sprintf("W%d", w.Week),
			cli.FormatDateRange(w.Start, w.End),
			cli.FormatMoney(w.Opening),
			cli.FormatMoney(w.CashIn),
			cli.FormatMoney(w.CashOut),
			cli.RenderAmount(w.Closing),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Weekly",
		Headers:  []string{"Week", "Dates", "Opening", "Cash in", "Cash out", "Closing"},
		Rows:     rows,
		LeftCols: 2,
	}))
	if len(weeks) < len(fc.Weeks) {
		fmt.Println(cli.Muted(fmt.Sprintf("  %d more weeks (use --weeks %d)", len(fc.Weeks)-len(weeks), len(fc.Weeks))))
	}
	warnIssues(page.Issues)
	fmt.Println()
	return nil
}
