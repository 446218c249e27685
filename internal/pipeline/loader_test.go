package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/api"
)

type fakeSource struct {
	txs      []api.Transaction
	cats     []api.Category
	summary  api.SummaryResponse
	budget   []api.BudgetProgress
	forecast []api.ForecastWeek

	txErr, catErr, summaryErr, budgetErr, forecastErr error
}

func (f *fakeSource) ListTransactions(context.Context) ([]api.Transaction, error) {
	return f.txs, f.txErr
}

func (f *fakeSource) ListCategories(context.Context) ([]api.Category, error) {
	return f.cats, f.catErr
}

func (f *fakeSource) TransactionSummary(context.Context) (api.SummaryResponse, error) {
	return f.summary, f.summaryErr
}

func (f *fakeSource) BudgetProgress(context.Context) ([]api.BudgetProgress, error) {
	return f.budget, f.budgetErr
}

func (f *fakeSource) Forecast13Week(context.Context) ([]api.ForecastWeek, error) {
	return f.forecast, f.forecastErr
}

func num(s string) api.Number { return api.NewNumber(decimal.RequireFromString(s)) }

func wireTx(id, desc, category, typ, amount, date string) api.Transaction {
	return api.Transaction{
		ID:          api.FlexID(id),
		Description: desc,
		Amount:      num(amount),
		Type:        typ,
		Date:        date,
		Category:    api.CategoryRef{Category: api.Category{ID: api.FlexID("c-" + category), Name: category}, Nested: true},
	}
}

func populated() *fakeSource {
	return &fakeSource{
		txs: []api.Transaction{
			wireTx("1", "Rent", "Housing", "expense", "1200", "2024-03-01"),
			wireTx("2", "Consulting", "Services", "income", "4000", "2024-03-05"),
			wireTx("3", "Groceries", "Food", "expense", "220.40", "2024-04-02"),
		},
		summary: api.SummaryResponse{
			Completed: &api.SummaryBucket{TotalIncome: num("4000"), TotalExpenses: num("1420.40"), NetAmount: num("2579.60")},
			Pending:   &api.SummaryBucket{TotalIncome: num("0"), TotalExpenses: num("300"), NetAmount: num("-300")},
		},
		budget: []api.BudgetProgress{
			{Category: "Housing", BudgetAmount: num("1500"), AmountSpent: num("1200"), AmountRemaining: num("300")},
		},
	}
}

func TestLoader_Transactions(t *testing.T) {
	l := NewLoader(populated(), zerolog.Nop(), 5)
	page, err := l.Transactions(context.Background())

	require.NoError(t, err)
	assert.Len(t, page.Transactions, 3)
	assert.Equal(t, []string{AllCategories, "Housing", "Services", "Food"}, page.Categories)
	assert.Empty(t, page.Issues)
	assert.False(t, page.FetchedAt.IsZero())
}

func TestLoader_TransactionsFailureLeavesEmptyPage(t *testing.T) {
	src := populated()
	src.txErr = &api.RequestError{Method: "GET", Path: api.PathTransactions, Status: 500}
	l := NewLoader(src, zerolog.Nop(), 5)

	page, err := l.Transactions(context.Background())

	assert.ErrorIs(t, err, api.ErrRequestFailed)
	assert.Empty(t, page.Transactions)
	assert.Equal(t, []string{AllCategories}, page.Categories)
}

func TestLoader_CategoryFailureOnlyDegradesNames(t *testing.T) {
	src := populated()
	src.txs[0].Category = api.CategoryRef{Category: api.Category{ID: "9"}}
	src.catErr = errors.New("down")
	l := NewLoader(src, zerolog.Nop(), 5)

	page, err := l.Transactions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Uncategorized, page.Transactions[0].Category.Name)
	assert.Len(t, page.Issues, 1)
}

func TestLoader_OverviewKeepsPartialResults(t *testing.T) {
	src := populated()
	src.budgetErr = &api.RequestError{Method: "GET", Path: api.PathBudgets, Status: 502}
	l := NewLoader(src, zerolog.Nop(), 2)

	page, err := l.Overview(context.Background())

	assert.ErrorIs(t, err, api.ErrRequestFailed)
	assert.Equal(t, "2579.6", page.Summary.Completed.NetAmount.String())
	require.Len(t, page.Recent, 2)
	assert.Equal(t, "3", page.Recent[0].ID)
	assert.Len(t, page.Months, 2)
	assert.Empty(t, page.Budget.Items)
}

func TestLoader_CashFlow(t *testing.T) {
	l := NewLoader(populated(), zerolog.Nop(), 5)
	page, err := l.CashFlow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "4000", page.TotalInflow.String())
	assert.Equal(t, "1420.4", page.TotalOutflow.String())
	require.Len(t, page.Months, 2)
	assert.Equal(t, time.March, page.Months[0].Month.Month())
}

func TestLoader_CancelledForecast(t *testing.T) {
	src := &fakeSource{forecastErr: &api.RequestError{Method: "GET", Path: api.PathForecast, Err: context.Canceled}}
	l := NewLoader(src, zerolog.Nop(), 5)

	page, err := l.Forecast(context.Background())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, page.Forecast.Weeks)
	assert.Equal(t, "0.0%", page.Forecast.GrowthLabel())
}

func TestLoader_BudgetAndCategories(t *testing.T) {
	src := populated()
	src.cats = []api.Category{{ID: "1", Name: "Housing"}, {ID: "2", Name: "Food"}}
	l := NewLoader(src, zerolog.Nop(), 5)

	bp, err := l.Budget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "80.00", bp.Budget.Items[0].UsagePercent().StringFixed(2))

	cats, err := l.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	assert.Equal(t, "Food", cats[1].Name)
}
