package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastWeek is one week of the rolling cash forecast.
type ForecastWeek struct {
	Week    int // 1-based position in the forecast
	Start   time.Time
	End     time.Time
	Opening decimal.Decimal
	CashIn  decimal.Decimal
	CashOut decimal.Decimal
	Closing decimal.Decimal
}

// Net returns cash in minus cash out for the week.
func (w ForecastWeek) Net() decimal.Decimal {
	return w.CashIn.Sub(w.CashOut)
}

// Forecast is the ordered list of projected weeks.
type Forecast struct {
	Weeks []ForecastWeek
}

// CurrentBalance is the first week's opening balance.
func (f Forecast) CurrentBalance() decimal.Decimal {
	if len(f.Weeks) == 0 {
		return decimal.Zero
	}
	return f.Weeks[0].Opening
}

// EndBalance is the last week's closing balance.
func (f Forecast) EndBalance() decimal.Decimal {
	if len(f.Weeks) == 0 {
		return decimal.Zero
	}
	return f.Weeks[len(f.Weeks)-1].Closing
}

// LowestBalance is the minimum closing balance, zero for an empty forecast.
func (f Forecast) LowestBalance() decimal.Decimal {
	if len(f.Weeks) == 0 {
		return decimal.Zero
	}
	low := f.Weeks[0].Closing
	for _, w := range f.Weeks[1:] {
		if w.Closing.LessThan(low) {
			low = w.Closing
		}
	}
	return low
}

// Growth returns (end - current) / current * 100. ok is false when
// there are no weeks or the opening balance is zero.
func (f Forecast) Growth() (pct decimal.Decimal, ok bool) {
	opening := f.CurrentBalance()
	if len(f.Weeks) == 0 || opening.IsZero() {
		return decimal.Zero, false
	}
	return f.EndBalance().Sub(opening).Div(opening).Mul(hundred), true
}

// GrowthLabel formats Growth to one decimal, "0.0%" when undefined.
func (f Forecast) GrowthLabel() string {
	pct, ok := f.Growth()
	if !ok {
		return "0.0%"
	}
	return pct.StringFixed(1) + "%"
}

// Head returns at most n leading weeks.
func (f Forecast) Head(n int) []ForecastWeek {
	if n < 0 || n >= len(f.Weeks) {
		return f.Weeks
	}
	return f.Weeks[:n]
}
