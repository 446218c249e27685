// Package model defines the view models rendered by the CLI and TUI.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the known types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Category groups transactions and budgets.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction is a single money movement. Amount is always a
// non-negative magnitude; Type carries the sign.
type Transaction struct {
	ID          string
	Description string
	Amount      decimal.Decimal
	Type        TransactionType
	Date        time.Time
	Category    Category
	Client      string
	Note        string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SignedAmount returns +Amount for income and -Amount for expenses.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// User is the authenticated account.
type User struct {
	ID       string
	Username string
	Email    string
}
