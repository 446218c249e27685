package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/finboard/internal/form"
	"github.com/theirongolddev/finboard/internal/model"
)

// LoginValues backs the login form.
type LoginValues struct {
	Username string
	Password string
}

// NewLoginForm builds the sign-in form. message, when set, is shown above
// the fields (e.g. an expired-session notice).
func NewLoginForm(v *LoginValues, message string) *huh.Form {
	desc := "Sign in to your finance account."
	if message != "" {
		desc = message
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("finboard").Description(desc),
			huh.NewInput().
				Title("Username").
				Value(&v.Username).
				Validate(required("Username is required")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&v.Password).
				Validate(required("Password is required")),
		),
	).WithTheme(FormTheme())
}

// TransactionValues backs the create-transaction form. Every field is a
// string so huh can bind it; Draft converts.
type TransactionValues struct {
	Description string
	Amount      string
	Type        string
	CategoryID  string
	Date        string
	Client      string
	Note        string
}

// NewTransactionValues returns the form defaults for today.
func NewTransactionValues(now time.Time) TransactionValues {
	d := form.NewDraft()
	return TransactionValues{Type: d.Type, Date: now.Format(form.DateLayout)}
}

// Draft converts the inputs. An unparseable date becomes the zero time,
// which validation reports.
func (v TransactionValues) Draft() form.TransactionDraft {
	d := form.TransactionDraft{
		Description: v.Description,
		Amount:      v.Amount,
		Type:        v.Type,
		CategoryID:  v.CategoryID,
		Client:      v.Client,
		Note:        v.Note,
	}
	if t, err := time.Parse(form.DateLayout, strings.TrimSpace(v.Date)); err == nil {
		d.Date = t
	}
	return d
}

// NewTransactionForm builds the create-transaction form. With no
// categories (the fetch failed) the category becomes a free id input.
func NewTransactionForm(v *TransactionValues, cats []model.Category, now func() time.Time) *huh.Form {
	var category huh.Field
	if len(cats) > 0 {
		opts := make([]huh.Option[string], 0, len(cats))
		for _, c := range cats {
			opts = append(opts, huh.NewOption(c.Name, c.ID))
		}
		if v.CategoryID == "" {
			v.CategoryID = cats[0].ID
		}
		category = huh.NewSelect[string]().
			Title("Category").
			Options(opts...).
			Value(&v.CategoryID).
			Validate(form.ValidateCategoryID)
	} else {
		category = huh.NewInput().
			Title("Category ID").
			Description("Categories could not be loaded").
			Value(&v.CategoryID).
			Validate(form.ValidateCategoryID)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Description").
				Value(&v.Description).
				Validate(form.ValidateDescription),
			huh.NewInput().
				Title("Amount").
				Description("Positive number; the type sets the sign").
				Value(&v.Amount).
				Validate(form.ValidateAmount),
			huh.NewSelect[string]().
				Title("Type").
				Options(
					huh.NewOption("Expense", string(model.Expense)),
					huh.NewOption("Income", string(model.Income)),
				).
				Value(&v.Type),
		),
		huh.NewGroup(
			category,
			huh.NewInput().
				Title("Date").
				Placeholder(form.DateLayout).
				Value(&v.Date).
				Validate(func(s string) error {
					_, err := form.ParseDateInput(s, now())
					return err
				}),
			huh.NewInput().Title("Client").Value(&v.Client),
			huh.NewInput().Title("Note").Value(&v.Note),
		),
	).WithTheme(FormTheme())
}

func required(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}
