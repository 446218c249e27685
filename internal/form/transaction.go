// Package form validates and submits the create-transaction and
// create-category inputs.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/model"
)

// DateLayout is the wire and input format for transaction dates.
const DateLayout = "2006-01-02"

// Field messages.
const (
	MsgDescription  = "Description must be at least 2 characters."
	MsgAmount       = "Amount must be a valid number."
	MsgType         = "Type must be income or expense."
	MsgCategory     = "Please select a category."
	MsgDate         = "A date is required."
	MsgDateFuture   = "Date cannot be in the future."
	MsgDateTooOld   = "Date cannot be before 1900-01-01."
	MsgDateFormat   = "Date must be YYYY-MM-DD."
	MsgCategoryName = "Name must be at least 3 characters long."
)

var earliestDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var fieldMessages = map[string]string{
	"description": MsgDescription,
	"amount":      MsgAmount,
	"type":        MsgType,
	"category":    MsgCategory,
	"name":        MsgCategoryName,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return strings.ToLower(fld.Name)
	})
	// amount: a non-negative decimal; the sign comes from the type.
	if err := v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	}); err != nil {
		panic(fmt.Sprintf("form: registering amount validation: %v", err))
	}
	return v
}

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+fe[k])
	}
	return "invalid transaction: " + strings.Join(msgs, "; ")
}

// TransactionDraft is the create-transaction form state.
type TransactionDraft struct {
	Description string    `form:"description" validate:"min=2"`
	Amount      string    `form:"amount" validate:"required,amount"`
	Type        string    `form:"type" validate:"oneof=income expense"`
	CategoryID  string    `form:"category" validate:"required"`
	Date        time.Time `form:"date" validate:"-"`
	Client      string    `form:"client"`
	Note        string    `form:"note"`
}

// NewDraft returns the form defaults.
func NewDraft() TransactionDraft {
	return TransactionDraft{Type: string(model.Expense)}
}

// Validate checks every field. now bounds the date from above.
func (d TransactionDraft) Validate(now time.Time) FieldErrors {
	errs := FieldErrors{}

	trimmed := d
	trimmed.Description = strings.TrimSpace(d.Description)
	trimmed.Amount = strings.TrimSpace(d.Amount)
	trimmed.CategoryID = strings.TrimSpace(d.CategoryID)

	if err := validate.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if _, seen := errs[fe.Field()]; !seen {
					errs[fe.Field()] = fieldMessages[fe.Field()]
				}
			}
		}
	}

	if msg := checkDate(d.Date, now); msg != "" {
		errs["date"] = msg
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Request builds the POST body. The date is sent as YYYY-MM-DD.
func (d TransactionDraft) Request() api.NewTransaction {
	return api.NewTransaction{
		Description: strings.TrimSpace(d.Description),
		Amount:      strings.TrimSpace(d.Amount),
		Type:        d.Type,
		Category:    api.FlexID(strings.TrimSpace(d.CategoryID)),
		Date:        d.Date.Format(DateLayout),
		Client:      strings.TrimSpace(d.Client),
		Note:        strings.TrimSpace(d.Note),
	}
}

func checkDate(date, now time.Time) string {
	if date.IsZero() {
		return MsgDate
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(today) {
		return MsgDateFuture
	}
	if day.Before(earliestDate) {
		return MsgDateTooOld
	}
	return ""
}

// ValidateDescription checks a single description input.
func ValidateDescription(s string) error {
	return varError(strings.TrimSpace(s), "min=2", MsgDescription)
}

// ValidateAmount checks a single amount input.
func ValidateAmount(s string) error {
	return varError(strings.TrimSpace(s), "required,amount", MsgAmount)
}

// ValidateCategoryID checks that a category was chosen.
func ValidateCategoryID(s string) error {
	return varError(strings.TrimSpace(s), "required", MsgCategory)
}

// ParseDateInput parses a YYYY-MM-DD input and checks its range.
func ParseDateInput(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New(MsgDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.New(MsgDateFormat)
	}
	if msg := checkDate(t, now); msg != "" {
		return time.Time{}, errors.New(msg)
	}
	return t, nil
}

// ValidateCategoryName checks a new category's name.
func ValidateCategoryName(s string) error {
	return varError(strings.TrimSpace(s), "min=3,max=50", MsgCategoryName)
}

func varError(value, tag, msg string) error {
	if err := validate.Var(value, tag); err != nil {
		return errors.New(msg)
	}
	return nil
}
