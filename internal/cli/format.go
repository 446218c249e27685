// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finboard/internal/model"
)

var thousand = decimal.NewFromInt(1000)

// FormatMoney formats an amount as dollars with thousands separators
// and two decimals, e.g. 1234.5 -> "$1,234.50", -20 -> "-$20.00".
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupDigits(whole) + "." + cents
}

// FormatSignedMoney prefixes income with "+" and expenses with "-".
func FormatSignedMoney(tx model.Transaction) string {
	if tx.Type == model.Income {
		return "+" + FormatMoney(tx.Amount)
	}
	return "-" + FormatMoney(tx.Amount)
}

// FormatCompactMoney formats large amounts with K/M/B suffixes.
// e.g., 1234 -> "$1.2K", 2500000 -> "$2.5M"
func FormatCompactMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	switch {
	case d.GreaterThanOrEqual(thousand.Pow(decimal.NewFromInt(3))):
		return sign + "$" + d.Div(thousand.Pow(decimal.NewFromInt(3))).StringFixed(1) + "B"
	case d.GreaterThanOrEqual(thousand.Mul(thousand)):
		return sign + "$" + d.Div(thousand.Mul(thousand)).StringFixed(1) + "M"
	case d.GreaterThanOrEqual(thousand):
		return sign + "$" + d.Div(thousand).StringFixed(1) + "K"
	default:
		return sign + "$" + d.StringFixed(0)
	}
}

// FormatPercent formats a 0-100 percentage with the given decimals.
func FormatPercent(pct decimal.Decimal, places int32) string {
	return pct.StringFixed(places) + "%"
}

// FormatMonths formats a runway figure.
func FormatMonths(d decimal.Decimal) string {
	if d.Equal(decimal.NewFromInt(1)) {
		return "1 month"
	}
	return d.StringFixed(1) + " months"
}

// FormatNumber adds comma separators to an integer.
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatDate formats a calendar date, "-" when unknown.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

// FormatDateRange formats a start/end pair as "Mar 18 - Mar 24".
func FormatDateRange(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "-"
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}

// FormatMonth formats a month bucket, e.g. "Mar 2024".
func FormatMonth(t time.Time) string {
	return t.Format("Jan 2006")
}

// FormatAgo formats a fetch time relative to now, e.g. "3 minutes ago".
func FormatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// Truncate shortens s to max runes, marking the cut with "…".
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

func groupDigits(whole string) string {
	var n int64
	if _, err := fmt.Sscan(whole, &n); err == nil {
		return humanize.Comma(n)
	}
	// beyond int64; group by hand
	var b strings.Builder
	rem := len(whole) % 3
	if rem > 0 {
		b.WriteString(whole[:rem])
	}
	for i := rem; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	return b.String()
}
