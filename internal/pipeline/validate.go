package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/model"
)

// ErrSchemaMismatch reports that a response decoded but did not have
// the expected shape. Pages still render with defaults.
var ErrSchemaMismatch = errors.New("pipeline: response shape mismatch")

// Uncategorized labels transactions whose category could not be resolved.
const Uncategorized = "Uncategorized"

// ForecastWeeks is the expected forecast length.
const ForecastWeeks = 13

// Issue is one field-level mismatch found while validating a response.
type Issue struct {
	Path   string
	Index  int // row index, -1 for the whole payload
	Field  string
	Detail string
}

func (i Issue) String() string {
	if i.Index < 0 {
		return fmt.Sprintf("%s %s: %s", i.Path, i.Field, i.Detail)
	}
	return fmt.Sprintf("%s[%d] %s: %s", i.Path, i.Index, i.Field, i.Detail)
}

// Issues collects validation findings.
type Issues []Issue

// Err returns nil when empty, otherwise an error wrapping ErrSchemaMismatch.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d issue(s), first: %s", ErrSchemaMismatch, len(is), is[0])
}

func (is *Issues) add(path string, index int, field, detail string) {
	*is = append(*is, Issue{Path: path, Index: index, Field: field, Detail: detail})
}

// number unwraps n, recording an issue when it was present but unparseable
// or, if required, absent.
func (is *Issues) number(path string, index int, field string, n api.Number, required bool) decimal.Decimal {
	switch {
	case n.Valid:
		return n.Decimal
	case n.Present:
		is.add(path, index, field, "not a number, using 0")
	case required:
		is.add(path, index, field, "missing, using 0")
	}
	return decimal.Zero
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. The zero time means unparseable.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// ToCategories converts wire categories.
func ToCategories(raw []api.Category) []model.Category {
	out := make([]model.Category, 0, len(raw))
	for _, c := range raw {
		out = append(out, toCategory(c))
	}
	return out
}

func toCategory(c api.Category) model.Category {
	return model.Category{
		ID:          string(c.ID),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   parseTimestamp(c.CreatedAt),
		UpdatedAt:   parseTimestamp(c.UpdatedAt),
	}
}

// ValidateTransactions converts the transaction list. Categories given
// as bare keys are resolved against cats. Rows with an unknown type are
// dropped because the sign cannot be known.
func ValidateTransactions(raw []api.Transaction, cats []api.Category) ([]model.Transaction, Issues) {
	const path = api.PathTransactions
	var issues Issues

	byID := make(map[api.FlexID]api.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	out := make([]model.Transaction, 0, len(raw))
	for i, r := range raw {
		typ := model.TransactionType(strings.ToLower(strings.TrimSpace(r.Type)))
		if !typ.Valid() {
			issues.add(path, i, "type", fmt.Sprintf("unknown type %q, row dropped", r.Type))
			continue
		}

		amount := issues.number(path, i, "amount", r.Amount, true)
		if amount.IsNegative() {
			issues.add(path, i, "amount", "negative amount, using magnitude")
			amount = amount.Abs()
		}

		date := ParseDate(r.Date)
		if date.IsZero() {
			issues.add(path, i, "date", fmt.Sprintf("unparseable date %q", r.Date))
		}

		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			desc = strings.TrimSpace(r.Note)
		}
		if desc == "" {
			issues.add(path, i, "description", "missing")
		}

		out = append(out, model.Transaction{
			ID:          string(r.ID),
			Description: desc,
			Amount:      amount,
			Type:        typ,
			Date:        date,
			Category:    resolveCategory(r.Category, byID, &issues, i),
			Client:      strings.TrimSpace(r.Client),
			Note:        r.Note,
			Completed:   r.Completed,
			CreatedAt:   parseTimestamp(r.CreatedAt),
			UpdatedAt:   parseTimestamp(r.UpdatedAt),
		})
	}
	return out, issues
}

func resolveCategory(ref api.CategoryRef, byID map[api.FlexID]api.Category, issues *Issues, i int) model.Category {
	if ref.Nested && ref.Name != "" {
		return toCategory(ref.Category)
	}
	if c, ok := byID[ref.ID]; ok && ref.ID != "" {
		return toCategory(c)
	}
	if ref.ID == "" {
		issues.add(api.PathTransactions, i, "category", "missing")
	} else {
		issues.add(api.PathTransactions, i, "category", fmt.Sprintf("unknown category %s", ref.ID))
	}
	return model.Category{ID: string(ref.ID), Name: Uncategorized}
}

// ValidateSummary applies zero defaults for missing buckets and fields.
// Burn rate and runway are optional.
func ValidateSummary(raw api.SummaryResponse) (model.Summary, Issues) {
	var issues Issues
	return model.Summary{
		Completed: bucket(raw.Completed, "completed", &issues),
		Pending:   bucket(raw.Pending, "pending", &issues),
	}, issues
}

func bucket(b *api.SummaryBucket, name string, issues *Issues) model.Bucket {
	const path = api.PathSummary
	if b == nil {
		issues.add(path, -1, name, "missing bucket, using zeros")
		return model.Bucket{}
	}
	return model.Bucket{
		TotalIncome:   issues.number(path, -1, name+".total_income", b.TotalIncome, true),
		TotalExpenses: issues.number(path, -1, name+".total_expenses", b.TotalExpenses, true),
		NetAmount:     issues.number(path, -1, name+".net_amount", b.NetAmount, true),
		BurnRate:      issues.number(path, -1, name+".burn_rate", b.BurnRate, false),
		Runway:        issues.number(path, -1, name+".runway", b.Runway, false),
	}
}

// ValidateBudget reads the canonical budget_amount/amount_spent/
// amount_remaining fields, falling back to the legacy budgeted/actual
// names with an issue. Rows where spent+remaining != budget are kept,
// marked inconsistent and reported.
func ValidateBudget(raw []api.BudgetProgress) (model.Budget, Issues) {
	const path = api.PathBudgets
	var issues Issues

	items := make([]model.BudgetItem, 0, len(raw))
	for i, r := range raw {
		label := strings.TrimSpace(string(r.Category))
		if label == "" {
			label = strings.TrimSpace(r.CategoryName)
		}
		if label == "" {
			issues.add(path, i, "category", "missing")
			label = Uncategorized
		}

		budget := canonical(&issues, i, "budget_amount", r.BudgetAmount, "budgeted", r.Budgeted)
		spent := canonical(&issues, i, "amount_spent", r.AmountSpent, "actual", r.Actual)

		var remaining decimal.Decimal
		if r.AmountRemaining.Valid {
			remaining = r.AmountRemaining.Decimal
		} else {
			remaining = budget.Sub(spent)
			issues.add(path, i, "amount_remaining", "missing, derived from budget - spent")
		}

		consistent := spent.Add(remaining).Equal(budget)
		if !consistent {
			issues.add(path, i, "amount_remaining",
				fmt.Sprintf("spent %s + remaining %s != budget %s", spent, remaining, budget))
		}

		items = append(items, model.BudgetItem{
			Category:   label,
			Budgeted:   budget,
			Spent:      spent,
			Remaining:  remaining,
			Consistent: consistent,
		})
	}
	return model.NewBudget(items), issues
}

func canonical(issues *Issues, i int, field string, n api.Number, legacyField string, legacy api.Number) decimal.Decimal {
	const path = api.PathBudgets
	if n.Valid {
		return n.Decimal
	}
	if legacy.Valid {
		issues.add(path, i, field, fmt.Sprintf("missing, using legacy %q", legacyField))
		return legacy.Decimal
	}
	return issues.number(path, i, field, n, true)
}

// ValidateForecast coerces every numeric field with a zero default and
// numbers weeks by position.
func ValidateForecast(raw []api.ForecastWeek) (model.Forecast, Issues) {
	const path = api.PathForecast
	var issues Issues

	if len(raw) != ForecastWeeks {
		issues.add(path, -1, "weeks", fmt.Sprintf("expected %d weeks, got %d", ForecastWeeks, len(raw)))
	}

	weeks := make([]model.ForecastWeek, 0, len(raw))
	for i, r := range raw {
		w := model.ForecastWeek{
			Week:    i + 1,
			Start:   ParseDate(r.WeekStart),
			End:     ParseDate(r.WeekEnd),
			Opening: issues.number(path, i, "opening_balance", r.OpeningBalance, true),
			CashIn:  issues.number(path, i, "cash_in", r.CashIn, true),
			CashOut: issues.number(path, i, "cash_out", r.CashOut, true),
			Closing: issues.number(path, i, "closing_balance", r.ClosingBalance, true),
		}
		if expect := w.Opening.Add(w.Net()); !expect.Equal(w.Closing) {
			issues.add(path, i, "closing_balance",
				fmt.Sprintf("%s != opening + in - out (%s)", w.Closing, expect))
		}
		weeks = append(weeks, w)
	}
	return model.Forecast{Weeks: weeks}, issues
}
