package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/form"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/tui"
)

var (
	flagTxSearch   string
	flagTxCategory string
	flagTxType     string
	flagTxLimit    int

	flagAddDescription string
	flagAddAmount      string
	flagAddType        string
	flagAddCategory    string
	flagAddDate        string
	flagAddClient      string
	flagAddNote        string
)

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "List transactions with optional search and filters",
	RunE:    runTransactions,
}

var transactionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a transaction (interactive unless --description is given)",
	RunE:  runTransactionsAdd,
}

func init() {
	transactionsCmd.Flags().StringVarP(&flagTxSearch, "search", "s", "", "Case-insensitive match on description or client")
	transactionsCmd.Flags().StringVarP(&flagTxCategory, "category", "c", "", "Category name")
	transactionsCmd.Flags().StringVarP(&flagTxType, "type", "t", "", "income, expense or all")
	transactionsCmd.Flags().IntVarP(&flagTxLimit, "limit", "n", 0, "Show at most n rows (0 for all)")

	f := transactionsAddCmd.Flags()
	f.StringVar(&flagAddDescription, "description", "", "Description (at least 2 characters)")
	f.StringVar(&flagAddAmount, "amount", "", "Positive amount; the type sets the sign")
	f.StringVar(&flagAddType, "type", string(model.Expense), "income or expense")
	f.StringVar(&flagAddCategory, "category", "", "Category name or id")
	f.StringVar(&flagAddDate, "date", "", "Date as YYYY-MM-DD (default today)")
	f.StringVar(&flagAddClient, "client", "", "Client or counterparty")
	f.StringVar(&flagAddNote, "note", "", "Free-form note")

	transactionsCmd.AddCommand(transactionsAddCmd)
	rootCmd.AddCommand(transactionsCmd)
}

func runTransactions(_ *cobra.Command, _ []string) error {
	crit := pipeline.DefaultCriteria()
	crit.Search = flagTxSearch
	if flagTxCategory != "" {
		crit.Category = flagTxCategory
	}
	if flagTxType != "" {
		typ, err := parseTypeFilter(flagTxType)
		if err != nil {
			return err
		}
		crit.Type = typ
	}

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

	progress("Loading transactions...")
	page, err := e.loader.Transactions(ctx)
	if aerr := e.checkAuth(err); aerr != nil {
		return aerr
	}
	if err != nil {
		return err
	}

	txs := pipeline.Filter(page.Transactions, crit)
	if len(page.Transactions) == 0 || len(txs) == 0 {
		fmt.Println()
		fmt.Println("  No transactions found.")
		fmt.Println()
		return nil
	}

	in, out := pipeline.Totals(txs)
	shown := txs
	if flagTxLimit > 0 && len(shown) > flagTxLimit {
		shown = shown[:flagTxLimit]
	}

	title := fmt.Sprintf("Transactions  %d of %d", len(txs), len(page.Transactions))
	if !crit.IsDefault() {
		title += "  (filtered)"
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    title,
		Headers:  []string{"Date", "Description", "Category", "Client", "Type", "Amount"},
		Rows:     transactionRows(shown, true),
		LeftCols: 5,
	}))
	fmt.Printf("  In %s   Out %s   Net %s\n",
		cli.FormatMoney(in), cli.FormatMoney(out), cli.RenderAmount(in.Sub(out)))
	if len(shown) < len(txs) {
		fmt.Println(cli.Muted(fmt.Sprintf("  %d more not shown (raise --limit)", len(txs)-len(shown))))
	}
	warnIssues(page.Issues)
	fmt.Println()
	return nil
}

func runTransactionsAdd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if flagOffline {
		return errors.New("cannot create transactions offline")
	}

	ctx, cancel := commandContext()
	defer cancel()
	if err := e.requireSession(ctx); err != nil {
		return err
	}

	d := form.NewDialog(e.client, e.client, nil, e.log)
	if err := d.Show(ctx); err != nil {
		if aerr := e.checkAuth(err); aerr != nil {
			return aerr
		}
		progress("%s; enter the category id directly", form.MsgCategoriesFailed)
	}

	now := time.Now()
	if cmd.Flags().Changed("description") {
		draft, err := draftFromFlags(d.Categories, now)
		if err != nil {
			return err
		}
		d.Draft = draft
	} else {
		vals := tui.NewTransactionValues(now)
		if err := tui.NewTransactionForm(&vals, d.Categories, time.Now).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		d.Draft = vals.Draft()
	}

	if err := d.Submit(ctx, time.Now()); err != nil {
		var fe form.FieldErrors
		if errors.As(err, &fe) {
			return fe
		}
		if aerr := e.checkAuth(err); aerr != nil {
			return aerr
		}
		return fmt.Errorf("%s: %w", d.Notice, err)
	}

	label := d.CategoryLabel()
	fmt.Printf("  %s\n", d.Notice)
	if label != "" {
		fmt.Printf("  Category: %s\n", label)
	}
	return nil
}

// draftFromFlags builds a draft from the add flags. --category accepts a
// name (case-insensitive) or an id.
func draftFromFlags(cats []model.Category, now time.Time) (form.TransactionDraft, error) {
	d := form.NewDraft()
	d.Description = flagAddDescription
	d.Amount = flagAddAmount
	d.Type = strings.ToLower(flagAddType)
	d.Client = flagAddClient
	d.Note = flagAddNote
	d.CategoryID = resolveCategoryID(cats, flagAddCategory)

	d.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if flagAddDate != "" {
		t, err := form.ParseDateInput(flagAddDate, now)
		if err != nil {
			return d, fmt.Errorf("--date: %w", err)
		}
		d.Date = t
	}
	return d, nil
}

func resolveCategoryID(cats []model.Category, s string) string {
	s = strings.TrimSpace(s)
	for _, c := range cats {
		if strings.EqualFold(c.Name, s) || c.ID == s {
			return c.ID
		}
	}
	return s
}

// parseTypeFilter accepts income, expense or the "all" sentinel, in any case.
func parseTypeFilter(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == pipeline.AllTypes || model.TransactionType(v).Valid() {
		return v, nil
	}
	return "", fmt.Errorf("invalid --type %q: want income, expense or all", s)
}
