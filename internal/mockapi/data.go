package mockapi

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// transaction mirrors the backend serializer: the category is a bare key.
type transaction struct {
	ID          int             `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Category    int             `json:"category"`
	Client      string          `json:"client"`
	Note        string          `json:"note"`
	Completed   bool            `json:"completed"`
	User        int             `json:"user"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type budget struct {
	ID       int
	Category int
	Amount   decimal.Decimal
	Start    time.Time
	End      time.Time
}

type user struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	password string
}

type bucket struct {
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetAmount     decimal.Decimal `json:"net_amount"`
}

type progressRow struct {
	ID              int             `json:"id"`
	Category        string          `json:"category"`
	BudgetAmount    decimal.Decimal `json:"budget_amount"`
	AmountSpent     decimal.Decimal `json:"amount_spent"`
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
}

type forecastRow struct {
	WeekStart      string          `json:"week_start"`
	WeekEnd        string          `json:"week_end"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CashIn         decimal.Decimal `json:"cash_in"`
	CashOut        decimal.Decimal `json:"cash_out"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// Monthly inflow/outflow, January first.
var sampleInflow = [12]int64{4000, 3000, 2000, 2780, 1890, 2390, 3490, 4000, 3000, 2000, 2780, 1890}
var sampleOutflow = [12]int64{2400, 1398, 9800, 3908, 4800, 3800, 4300, 2400, 1398, 9800, 3908, 4800}

type expenseLine struct {
	category    string
	description string
	share       string
	day         int
}

var expenseLines = []expenseLine{
	{"Housing", "Office rent", "0.45", 1},
	{"Food", "Team groceries", "0.25", 8},
	{"Utilities", "Electricity and internet", "0.10", 12},
	{"Transportation", "Fuel and transit", "0.12", 18},
	{"Entertainment", "Client dinner", "0.08", 24},
}

var seedCategories = []struct{ name, desc string }{
	{"Services", "Consulting and contract income"},
	{"Housing", "Rent and office space"},
	{"Food", "Groceries and meals"},
	{"Utilities", "Power, water and internet"},
	{"Transportation", "Fuel, transit and travel"},
	{"Entertainment", "Events and client hospitality"},
}

var seedBudgets = map[string]int64{
	"Housing":        2000,
	"Food":           1200,
	"Utilities":      400,
	"Transportation": 600,
	"Entertainment":  300,
}

var clients = []string{"Acme Corp", "Globex", "Initech", "Umbrella"}

// seed fills twelve months of activity ending in now's month. Entries
// dated after now are pending.
func (s *Server) seed(now time.Time) {
	now = now.UTC()
	created := now.AddDate(-1, 0, 0)

	for _, c := range seedCategories {
		s.nextCategory++
		s.categories = append(s.categories, category{
			ID: s.nextCategory, Name: c.name, Description: c.desc,
			CreatedAt: created, UpdatedAt: created,
		})
	}

	s.nextUser++
	demo := &user{ID: s.nextUser, Username: DemoUser, Email: DemoEmail, password: DemoPassword}
	s.users[demo.Username] = demo

	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for back := 11; back >= 0; back-- {
		month := thisMonth.AddDate(0, -back, 0)
		idx := int(month.Month()) - 1

		s.addSeed(now, demo, month, 5, "income", "Services", "Monthly consulting retainer",
			decimal.NewFromInt(sampleInflow[idx]), clients[idx%len(clients)])

		out := decimal.NewFromInt(sampleOutflow[idx])
		for _, line := range expenseLines {
			amount := out.Mul(decimal.RequireFromString(line.share)).Round(2)
			s.addSeed(now, demo, month, line.day, "expense", line.category, line.description, amount, "")
		}
	}

	// An open invoice and an upcoming bill.
	s.addSeed(now, demo, thisMonth.AddDate(0, 1, 0), 3, "income", "Services", "Invoice #1042",
		decimal.RequireFromString("1250.00"), "Initech")
	s.addSeed(now, demo, thisMonth.AddDate(0, 1, 0), 1, "expense", "Housing", "Office rent (next month)",
		decimal.NewFromInt(sampleOutflow[int(thisMonth.AddDate(0, 1, 0).Month())-1]).Mul(decimal.RequireFromString("0.45")).Round(2), "")

	end := thisMonth.AddDate(0, 1, -1)
	for _, c := range s.categories {
		amount, ok := seedBudgets[c.Name]
		if !ok {
			continue
		}
		s.budgets = append(s.budgets, budget{
			ID: len(s.budgets) + 1, Category: c.ID, Amount: decimal.NewFromInt(amount),
			Start: thisMonth, End: end,
		})
	}
}

func (s *Server) addSeed(now time.Time, u *user, month time.Time, day int, typ, cat, desc string, amount decimal.Decimal, client string) {
	date := month.AddDate(0, 0, day-1)
	c, _ := s.categoryByName(cat)
	s.nextTx++
	s.txs = append(s.txs, transaction{
		ID:          s.nextTx,
		Description: desc,
		Amount:      amount.Round(2),
		Type:        typ,
		Date:        date.Format(dateLayout),
		Category:    c.ID,
		Client:      client,
		Completed:   !date.After(now),
		User:        u.ID,
		CreatedAt:   date,
		UpdatedAt:   date,
	})
}

func (s *Server) categoryByName(name string) (category, bool) {
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return category{}, false
}

func (s *Server) categoryByID(id int) (category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return category{}, false
}

// summarize totals the last 30 days, split by completion.
func summarize(txs []transaction, now time.Time) (completed, pending bucket) {
	since := now.AddDate(0, 0, -30).Format(dateLayout)
	for _, t := range txs {
		if t.Date < since {
			continue
		}
		b := &pending
		if t.Completed {
			b = &completed
		}
		if t.Type == "income" {
			b.TotalIncome = b.TotalIncome.Add(t.Amount)
		} else {
			b.TotalExpenses = b.TotalExpenses.Add(t.Amount)
		}
	}
	completed.NetAmount = completed.TotalIncome.Sub(completed.TotalExpenses)
	pending.NetAmount = pending.TotalIncome.Sub(pending.TotalExpenses)
	return completed, pending
}

// progress reports spending against each budget active at now.
func progress(budgets []budget, txs []transaction, name func(int) string, now time.Time) []progressRow {
	rows := make([]progressRow, 0, len(budgets))
	for _, b := range budgets {
		if now.Before(b.Start) || now.After(b.End.AddDate(0, 0, 1)) {
			continue
		}
		from, to := b.Start.Format(dateLayout), b.End.Format(dateLayout)
		spent := decimal.Zero
		for _, t := range txs {
			if t.Category == b.Category && t.Type == "expense" && t.Completed && t.Date >= from && t.Date <= to {
				spent = spent.Add(t.Amount)
			}
		}
		rows = append(rows, progressRow{
			ID:              b.ID,
			Category:        name(b.Category),
			BudgetAmount:    b.Amount,
			AmountSpent:     spent,
			AmountRemaining: b.Amount.Sub(spent),
		})
	}
	return rows
}

// forecast13 projects thirteen weeks from the Monday of now's week. The
// opening balance is the completed net to date; each week adds the
// trailing twelve-week average plus any pending items dated in it.
func forecast13(txs []transaction, now time.Time) []forecastRow {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offset)
	window := monday.AddDate(0, 0, -7*12).Format(dateLayout)

	balance := decimal.Zero
	avgIn, avgOut := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if !t.Completed {
			continue
		}
		in := t.Type == "income"
		if in {
			balance = balance.Add(t.Amount)
		} else {
			balance = balance.Sub(t.Amount)
		}
		if t.Date >= window && t.Date < monday.Format(dateLayout) {
			if in {
				avgIn = avgIn.Add(t.Amount)
			} else {
				avgOut = avgOut.Add(t.Amount)
			}
		}
	}
	twelve := decimal.NewFromInt(12)
	avgIn = avgIn.Div(twelve).Round(2)
	avgOut = avgOut.Div(twelve).Round(2)

	pending := make([]transaction, 0)
	for _, t := range txs {
		if !t.Completed {
			pending = append(pending, t)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Date < pending[j].Date })

	rows := make([]forecastRow, 0, 13)
	opening := balance.Round(2)
	for w := 0; w < 13; w++ {
		start := monday.AddDate(0, 0, 7*w)
		end := start.AddDate(0, 0, 6)
		from, to := start.Format(dateLayout), end.Format(dateLayout)

		in, out := avgIn, avgOut
		for _, t := range pending {
			if t.Date < from || t.Date > to {
				continue
			}
			if t.Type == "income" {
				in = in.Add(t.Amount)
			} else {
				out = out.Add(t.Amount)
			}
		}
		closing := opening.Add(in).Sub(out)
		rows = append(rows, forecastRow{
			WeekStart:      from,
			WeekEnd:        to,
			OpeningBalance: opening,
			CashIn:         in,
			CashOut:        out,
			ClosingBalance: closing,
		})
		opening = closing
	}
	return rows
}
