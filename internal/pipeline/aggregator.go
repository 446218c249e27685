// Package pipeline turns API payloads into validated view models and
// derives the lists and groupings the dashboard shows.
package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finboard/internal/model"
)

// MonthlyCashFlow groups transactions by calendar month, oldest first.
// Transactions without a date are skipped.
func MonthlyCashFlow(txs []model.Transaction) []model.MonthFlow {
	monthMap := make(map[string]*model.MonthFlow)

	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		key := tx.Date.Format("2006-01")
		mf, ok := monthMap[key]
		if !ok {
			mf = &model.MonthFlow{
				Month: time.Date(tx.Date.Year(), tx.Date.Month(), 1, 0, 0, 0, 0, time.UTC),
			}
			monthMap[key] = mf
		}
		mf.Count++
		if tx.Type == model.Income {
			mf.Inflow = mf.Inflow.Add(tx.Amount)
		} else {
			mf.Outflow = mf.Outflow.Add(tx.Amount)
		}
	}

	months := make([]model.MonthFlow, 0, len(monthMap))
	for _, mf := range monthMap {
		months = append(months, *mf)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})
	return months
}

// LastMonths returns at most n trailing months.
func LastMonths(months []model.MonthFlow, n int) []model.MonthFlow {
	if n <= 0 || len(months) <= n {
		return months
	}
	return months[len(months)-n:]
}

// Totals sums inflow and outflow across all transactions.
func Totals(txs []model.Transaction) (inflow, outflow decimal.Decimal) {
	for _, tx := range txs {
		if tx.Type == model.Income {
			inflow = inflow.Add(tx.Amount)
		} else {
			outflow = outflow.Add(tx.Amount)
		}
	}
	return inflow, outflow
}

// Recent returns the n most recent transactions, newest first. Ties keep
// their original order.
func Recent(txs []model.Transaction, n int) []model.Transaction {
	sorted := make([]model.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
