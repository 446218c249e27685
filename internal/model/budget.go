package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Usage thresholds, in percent of the budget spent.
var (
	DangerPercent  = decimal.NewFromInt(90)
	WarningPercent = decimal.NewFromInt(75)
)

// BudgetTier classifies how much of a budget has been used.
type BudgetTier int

const (
	TierOK BudgetTier = iota
	TierWarning
	TierDanger
)

func (t BudgetTier) String() string {
	switch t {
	case TierWarning:
		return "warning"
	case TierDanger:
		return "danger"
	default:
		return "ok"
	}
}

// TierFor classifies a two-decimal usage percentage. 90.00% and above
// is danger; above 75.00% is warning.
func TierFor(pct decimal.Decimal) BudgetTier {
	switch {
	case pct.GreaterThanOrEqual(DangerPercent):
		return TierDanger
	case pct.GreaterThan(WarningPercent):
		return TierWarning
	default:
		return TierOK
	}
}

// BudgetItem is one category's budget progress.
type BudgetItem struct {
	Category  string
	Budgeted  decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	// Consistent is false when Spent+Remaining does not equal Budgeted.
	Consistent bool
}

// UsagePercent returns Spent/Budgeted*100 rounded to two decimals.
// A zero budget reports 100 once anything is spent and 0 otherwise.
func (b BudgetItem) UsagePercent() decimal.Decimal {
	return percentOf(b.Spent, b.Budgeted)
}

// RemainingPercent returns Remaining/Budgeted*100 rounded to two decimals.
func (b BudgetItem) RemainingPercent() decimal.Decimal {
	if !b.Budgeted.IsPositive() {
		return decimal.Zero
	}
	return b.Remaining.Div(b.Budgeted).Mul(hundred).Round(2)
}

// Tier classifies the item's usage.
func (b BudgetItem) Tier() BudgetTier {
	return TierFor(b.UsagePercent())
}

// Budget is the full budget progress table with totals taken from the
// same fields as the rows.
type Budget struct {
	Items          []BudgetItem
	TotalBudgeted  decimal.Decimal
	TotalSpent     decimal.Decimal
	TotalRemaining decimal.Decimal
}

// NewBudget sums the items into a Budget.
func NewBudget(items []BudgetItem) Budget {
	b := Budget{Items: items}
	for _, it := range items {
		b.TotalBudgeted = b.TotalBudgeted.Add(it.Budgeted)
		b.TotalSpent = b.TotalSpent.Add(it.Spent)
		b.TotalRemaining = b.TotalRemaining.Add(it.Remaining)
	}
	return b
}

// UsagePercent returns the overall share of the budget spent.
func (b Budget) UsagePercent() decimal.Decimal {
	return percentOf(b.TotalSpent, b.TotalBudgeted)
}

// CountTier returns how many items fall in tier.
func (b Budget) CountTier(tier BudgetTier) int {
	n := 0
	for _, it := range b.Items {
		if it.Tier() == tier {
			n++
		}
	}
	return n
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		if part.IsPositive() {
			return hundred.Round(2)
		}
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
