package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is one half of the transaction summary.
type Bucket struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	NetAmount     decimal.Decimal
	BurnRate      decimal.Decimal
	Runway        decimal.Decimal
}

// Summary splits recent transactions into settled and outstanding figures.
type Summary struct {
	Completed Bucket
	Pending   Bucket
}

// MonthFlow is the money moved in one calendar month.
type MonthFlow struct {
	Month   time.Time
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
	Count   int
}

// Net returns inflow minus outflow.
func (m MonthFlow) Net() decimal.Decimal {
	return m.Inflow.Sub(m.Outflow)
}
