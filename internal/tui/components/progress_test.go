package components

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

func item(budget, spent int64) model.BudgetItem {
	b, s := decimal.NewFromInt(budget), decimal.NewFromInt(spent)
	return model.BudgetItem{Category: "Marketing", Budgeted: b, Spent: s, Remaining: b.Sub(s), Consistent: true}
}

func TestColorForTier(t *testing.T) {
	th := theme.Active
	assert.Equal(t, th.Red, ColorForTier(item(1000, 900).Tier()))
	assert.Equal(t, th.Orange, ColorForTier(item(1000, 800).Tier()))
	assert.Equal(t, th.Green, ColorForTier(item(1000, 500).Tier()))
}

func TestBudgetBar(t *testing.T) {
	out := BudgetBar(item(1000, 900), 12, 20)
	assert.Contains(t, out, "90.00%")
	assert.Contains(t, out, "$900.00 / $1,000.00")
	assert.NotContains(t, out, " !")

	bad := item(1000, 900)
	bad.Consistent = false
	assert.Contains(t, BudgetBar(bad, 12, 20), "!")
}
