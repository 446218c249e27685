package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/model"
)

// Source is the read side of the API client.
type Source interface {
	ListTransactions(ctx context.Context) ([]api.Transaction, error)
	ListCategories(ctx context.Context) ([]api.Category, error)
	TransactionSummary(ctx context.Context) (api.SummaryResponse, error)
	BudgetProgress(ctx context.Context) ([]api.BudgetProgress, error)
	Forecast13Week(ctx context.Context) ([]api.ForecastWeek, error)
}

// TransactionsPage is the transactions view model.
type TransactionsPage struct {
	Transactions []model.Transaction
	Categories   []string
	Issues       Issues
	FetchedAt    time.Time
}

// OverviewPage is the dashboard landing view model.
type OverviewPage struct {
	Summary   model.Summary
	Recent    []model.Transaction
	Months    []model.MonthFlow
	Budget    model.Budget
	Issues    Issues
	FetchedAt time.Time
}

// CashFlowPage is the cash-flow view model.
type CashFlowPage struct {
	Months       []model.MonthFlow
	TotalInflow  decimal.Decimal
	TotalOutflow decimal.Decimal
	Summary      model.Summary
	Issues       Issues
	FetchedAt    time.Time
}

// ForecastPage is the forecast view model.
type ForecastPage struct {
	Forecast  model.Forecast
	Issues    Issues
	FetchedAt time.Time
}

// BudgetPage is the budget view model.
type BudgetPage struct {
	Budget    model.Budget
	Issues    Issues
	FetchedAt time.Time
}

// Loader fetches and validates one page at a time. A failed fetch
// returns the zero page and the error; there is no retry.
type Loader struct {
	src         Source
	log         zerolog.Logger
	recentLimit int
	now         func() time.Time
}

// NewLoader creates a loader. recentLimit bounds the overview's recent list.
func NewLoader(src Source, log zerolog.Logger, recentLimit int) *Loader {
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &Loader{
		src:         src,
		log:         log.With().Str("component", "loader").Logger(),
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

// Transactions loads the transaction list and derives the category options.
// Categories are fetched alongside to resolve bare category keys; their
// failure only degrades names to Uncategorized.
func (l *Loader) Transactions(ctx context.Context) (TransactionsPage, error) {
	txs, issues, err := l.transactions(ctx)
	if err != nil {
		return TransactionsPage{Categories: Categories(nil)}, l.failed("transactions", err)
	}
	l.report("transactions", issues)
	return TransactionsPage{
		Transactions: txs,
		Categories:   Categories(txs),
		Issues:       issues,
		FetchedAt:    l.now(),
	}, nil
}

func (l *Loader) transactions(ctx context.Context) ([]model.Transaction, Issues, error) {
	var (
		raw  []api.Transaction
		cats []api.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = l.src.ListTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = l.src.ListCategories(gctx)
		if err != nil {
			l.log.Debug().Err(err).Msg("categories unavailable for name resolution")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	txs, issues := ValidateTransactions(raw, cats)
	return txs, issues, nil
}

// Overview loads the summary, recent transactions, and budget
// concurrently. Whatever loads is kept; the first error is returned.
func (l *Loader) Overview(ctx context.Context) (OverviewPage, error) {
	var (
		page OverviewPage
		g    errgroup.Group

		summaryIssues, txIssues, budgetIssues Issues
	)

	g.Go(func() error {
		raw, err := l.src.TransactionSummary(ctx)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		page.Summary, summaryIssues = ValidateSummary(raw)
		return nil
	})
	g.Go(func() error {
		txs, issues, err := l.transactions(ctx)
		if err != nil {
			return fmt.Errorf("transactions: %w", err)
		}
		page.Recent = Recent(txs, l.recentLimit)
		page.Months = MonthlyCashFlow(txs)
		txIssues = issues
		return nil
	})
	g.Go(func() error {
		raw, err := l.src.BudgetProgress(ctx)
		if err != nil {
			return fmt.Errorf("budget: %w", err)
		}
		page.Budget, budgetIssues = ValidateBudget(raw)
		return nil
	})

	err := g.Wait()
	page.Issues = append(append(append(Issues{}, summaryIssues...), txIssues...), budgetIssues...)
	page.FetchedAt = l.now()
	l.report("overview", page.Issues)
	if err != nil {
		return page, l.failed("overview", err)
	}
	return page, nil
}

// CashFlow loads transactions and the summary and groups flows by month.
func (l *Loader) CashFlow(ctx context.Context) (CashFlowPage, error) {
	var (
		page      CashFlowPage
		txs       []model.Transaction
		txIssues  Issues
		sumIssues Issues
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, txIssues, err = l.transactions(gctx)
		return err
	})
	g.Go(func() error {
		raw, err := l.src.TransactionSummary(gctx)
		if err != nil {
			return err
		}
		page.Summary, sumIssues = ValidateSummary(raw)
		return nil
	})
	if err := g.Wait(); err != nil {
		return CashFlowPage{}, l.failed("cashflow", err)
	}

	page.Months = MonthlyCashFlow(txs)
	page.TotalInflow, page.TotalOutflow = Totals(txs)
	page.Issues = append(append(Issues{}, txIssues...), sumIssues...)
	page.FetchedAt = l.now()
	l.report("cashflow", page.Issues)
	return page, nil
}

// Forecast loads the 13-week forecast.
func (l *Loader) Forecast(ctx context.Context) (ForecastPage, error) {
	raw, err := l.src.Forecast13Week(ctx)
	if err != nil {
		return ForecastPage{}, l.failed("forecast", err)
	}
	fc, issues := ValidateForecast(raw)
	l.report("forecast", issues)
	return ForecastPage{Forecast: fc, Issues: issues, FetchedAt: l.now()}, nil
}

// Budget loads budget progress.
func (l *Loader) Budget(ctx context.Context) (BudgetPage, error) {
	raw, err := l.src.BudgetProgress(ctx)
	if err != nil {
		return BudgetPage{}, l.failed("budget", err)
	}
	b, issues := ValidateBudget(raw)
	l.report("budget", issues)
	return BudgetPage{Budget: b, Issues: issues, FetchedAt: l.now()}, nil
}

// Categories loads the category list for the create dialog.
func (l *Loader) Categories(ctx context.Context) ([]model.Category, error) {
	raw, err := l.src.ListCategories(ctx)
	if err != nil {
		return nil, l.failed("categories", err)
	}
	return ToCategories(raw), nil
}

func (l *Loader) failed(page string, err error) error {
	if errors.Is(err, context.Canceled) {
		l.log.Debug().Str("page", page).Msg("load cancelled")
	} else {
		l.log.Warn().Err(err).Str("page", page).Msg("load failed")
	}
	return fmt.Errorf("loading %s: %w", page, err)
}

func (l *Loader) report(page string, issues Issues) {
	for _, is := range issues {
		l.log.Warn().Str("page", page).Str("issue", is.String()).Msg("response shape mismatch")
	}
}
