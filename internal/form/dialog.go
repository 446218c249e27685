package form

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/pipeline"
)

// Dialog notices.
const (
	MsgCreated          = "Transaction created"
	MsgCreateFailed     = "Failed to create transaction. Please try again."
	MsgCategoriesFailed = "Failed to load categories"
)

// Creator posts new transactions.
type Creator interface {
	CreateTransaction(ctx context.Context, in api.NewTransaction) (api.Transaction, error)
}

// CategoryLister lists categories for the picker.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]api.Category, error)
}

// Dialog is the create-transaction dialog. Submission is split into
// Prepare and Complete so a UI loop can run the request off-thread;
// Submit does all three steps inline.
type Dialog struct {
	creator   Creator
	lister    CategoryLister
	onCreated func()
	log       zerolog.Logger

	Draft      TransactionDraft
	Categories []model.Category
	Errors     FieldErrors
	Notice     string
	Open       bool
	Submitting bool
}

// NewDialog creates a closed dialog. onCreated runs after every
// successful create so callers can reload what they show.
func NewDialog(creator Creator, lister CategoryLister, onCreated func(), log zerolog.Logger) *Dialog {
	return &Dialog{
		creator:   creator,
		lister:    lister,
		onCreated: onCreated,
		log:       log.With().Str("component", "dialog").Logger(),
		Draft:     NewDraft(),
	}
}

// Show opens the dialog and fetches a fresh category list.
func (d *Dialog) Show(ctx context.Context) error {
	d.Begin()
	cats, err := d.lister.ListCategories(ctx)
	return d.SetCategories(pipeline.ToCategories(cats), err)
}

// Begin opens the dialog without fetching; callers that fetch
// asynchronously follow up with SetCategories.
func (d *Dialog) Begin() {
	d.Open = true
	d.Errors = nil
	d.Notice = ""
}

// Lister returns the category source the dialog was built with.
func (d *Dialog) Lister() CategoryLister { return d.lister }

// Creator returns the transaction sink the dialog was built with.
func (d *Dialog) Creator() Creator { return d.creator }

// SetCategories applies a category fetch result.
func (d *Dialog) SetCategories(cats []model.Category, err error) error {
	if err != nil {
		d.Categories = nil
		d.Notice = MsgCategoriesFailed
		d.log.Warn().Err(err).Msg("loading categories")
		return fmt.Errorf("loading categories: %w", err)
	}
	d.Categories = cats
	return nil
}

// Close hides the dialog without clearing the draft.
func (d *Dialog) Close() {
	d.Open = false
}

// Prepare validates the draft. On failure it records the field errors
// and returns ok=false; no request should be sent.
func (d *Dialog) Prepare(now time.Time) (req api.NewTransaction, ok bool) {
	d.Errors = d.Draft.Validate(now)
	if d.Errors != nil {
		return api.NewTransaction{}, false
	}
	d.Submitting = true
	d.Notice = ""
	return d.Draft.Request(), true
}

// Complete applies the create result. Success resets and closes the
// dialog and fires onCreated; failure keeps it open with a notice.
func (d *Dialog) Complete(err error) error {
	d.Submitting = false
	if err != nil {
		d.Notice = MsgCreateFailed
		d.log.Warn().Err(err).Msg("creating transaction")
		return fmt.Errorf("creating transaction: %w", err)
	}
	d.Draft = NewDraft()
	d.Errors = nil
	d.Open = false
	d.Notice = MsgCreated
	if d.onCreated != nil {
		d.onCreated()
	}
	return nil
}

// Submit validates, posts once, and applies the result.
func (d *Dialog) Submit(ctx context.Context, now time.Time) error {
	req, ok := d.Prepare(now)
	if !ok {
		return d.Errors
	}
	_, err := d.creator.CreateTransaction(ctx, req)
	return d.Complete(err)
}

// CategoryLabel returns the name of the selected category, or "".
func (d *Dialog) CategoryLabel() string {
	for _, c := range d.Categories {
		if c.ID == d.Draft.CategoryID {
			return c.Name
		}
	}
	return ""
}
