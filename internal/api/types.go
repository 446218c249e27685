package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a decimal that arrives either as a JSON number or as a
// numeric string (Django serializes DecimalField as a string).
// Unparseable values decode to zero with Valid unset instead of failing
// the whole response.
type Number struct {
	Decimal decimal.Decimal
	Valid   bool
	// Present is set when the key appeared in the payload, even as null.
	Present bool
}

// NewNumber wraps d as a valid Number.
func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d, Valid: true, Present: true}
}

// UnmarshalJSON accepts numbers, numeric strings, and null.
func (n *Number) UnmarshalJSON(b []byte) error {
	n.Present = true
	n.Valid = false
	n.Decimal = decimal.Zero

	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	s := string(raw)
	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	n.Decimal = v
	n.Valid = true
	return nil
}

// MarshalJSON writes the value as a decimal string, or null when invalid.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Decimal.String())
}

// FlexID is a primary key that may be serialized as a number or a string.
type FlexID string

// UnmarshalJSON accepts numbers, strings, and null.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if string(raw) == "null" {
		*id = ""
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return err
	}
	*id = FlexID(num.String())
	return nil
}

// MarshalJSON writes numeric IDs as JSON numbers so the backend's
// primary-key fields accept them.
func (id FlexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// CategoryRef is a transaction's category, either a nested object or a
// bare primary key.
type CategoryRef struct {
	Category
	Nested bool
}

// UnmarshalJSON accepts an object, a number, a string, or null.
func (c *CategoryRef) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	*c = CategoryRef{}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &c.Category); err != nil {
			return err
		}
		c.Nested = true
		return nil
	}
	return c.ID.UnmarshalJSON(raw)
}

// Label is a display name that may arrive as a string or as an object
// carrying a name.
type Label string

// UnmarshalJSON accepts a string, an object with "name", or null.
func (l *Label) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		*l = ""
	case raw[0] == '{':
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return err
		}
		*l = Label(obj.Name)
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*l = Label(s)
	default:
		// numeric category key with no name attached
		*l = Label(string(raw))
	}
	return nil
}

// Category is a transaction category.
type Category struct {
	ID          FlexID `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// NewCategory is the body for creating a category.
type NewCategory struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Transaction is the wire form of a transaction record.
type Transaction struct {
	ID          FlexID      `json:"id"`
	Description string      `json:"description"`
	Amount      Number      `json:"amount"`
	Type        string      `json:"type"`
	Date        string      `json:"date"`
	Category    CategoryRef `json:"category"`
	Client      string      `json:"client"`
	Note        string      `json:"note"`
	Completed   bool        `json:"completed"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

// NewTransaction is the body for creating a transaction. Date is YYYY-MM-DD.
type NewTransaction struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    FlexID `json:"category"`
	Date        string `json:"date"`
	Client      string `json:"client,omitempty"`
	Note        string `json:"note,omitempty"`
}

// SummaryBucket is one half of the transaction summary.
type SummaryBucket struct {
	TotalIncome   Number `json:"total_income"`
	TotalExpenses Number `json:"total_expenses"`
	NetAmount     Number `json:"net_amount"`
	BurnRate      Number `json:"burn_rate"`
	Runway        Number `json:"runway"`
}

// SummaryResponse is the raw transactions/summary/ payload.
type SummaryResponse struct {
	Completed *SummaryBucket `json:"completed"`
	Pending   *SummaryBucket `json:"pending"`
}

// BudgetProgress is one row of budgets/progress. BudgetAmount,
// AmountSpent and AmountRemaining are canonical; Budgeted and Actual
// are older names still emitted by some deployments.
type BudgetProgress struct {
	ID              FlexID `json:"id"`
	Category        Label  `json:"category"`
	CategoryName    string `json:"category_name"`
	BudgetAmount    Number `json:"budget_amount"`
	AmountSpent     Number `json:"amount_spent"`
	AmountRemaining Number `json:"amount_remaining"`
	Budgeted        Number `json:"budgeted"`
	Actual          Number `json:"actual"`
}

// ForecastWeek is one row of forecasts/summary13week/.
type ForecastWeek struct {
	WeekStart      string `json:"week_start"`
	WeekEnd        string `json:"week_end"`
	OpeningBalance Number `json:"opening_balance"`
	CashIn         Number `json:"cash_in"`
	CashOut        Number `json:"cash_out"`
	ClosingBalance Number `json:"closing_balance"`
}

// User is the authenticated account.
type User struct {
	ID       FlexID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginRequest is the body for auth/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupRequest is the body for auth/signup/.
type SignupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}
