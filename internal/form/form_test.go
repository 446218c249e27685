package form

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/api"
)

var today = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

func validDraft() TransactionDraft {
	d := NewDraft()
	d.Description = "Rent"
	d.Amount = "1200.00"
	d.CategoryID = "4"
	d.Date = today
	return d
}

func TestValidate_Defaults(t *testing.T) {
	errs := NewDraft().Validate(today)
	require.NotNil(t, errs)
	assert.Equal(t, MsgDescription, errs["description"])
	assert.Equal(t, MsgAmount, errs["amount"])
	assert.Equal(t, MsgCategory, errs["category"])
	assert.Equal(t, MsgDate, errs["date"])
	assert.NotContains(t, errs, "type")
}

func TestValidate_Fields(t *testing.T) {
	assert.Nil(t, validDraft().Validate(today))

	tests := []struct {
		name  string
		edit  func(*TransactionDraft)
		field string
		msg   string
	}{
		{"short description", func(d *TransactionDraft) { d.Description = "A" }, "description", MsgDescription},
		{"padded description", func(d *TransactionDraft) { d.Description = "  A  " }, "description", MsgDescription},
		{"word amount", func(d *TransactionDraft) { d.Amount = "ten" }, "amount", MsgAmount},
		{"signed amount", func(d *TransactionDraft) { d.Amount = "-5" }, "amount", MsgAmount},
		{"bad type", func(d *TransactionDraft) { d.Type = "transfer" }, "type", MsgType},
		{"future date", func(d *TransactionDraft) { d.Date = today.AddDate(0, 0, 1) }, "date", MsgDateFuture},
		{"ancient date", func(d *TransactionDraft) { d.Date = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC) }, "date", MsgDateTooOld},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.edit(&d)
			errs := d.Validate(today)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestValidate_TodayLateEveningIsNotFuture(t *testing.T) {
	d := validDraft()
	d.Date = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, d.Validate(time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC)))
}

func TestNewValidatorRegistersAmount(t *testing.T) {
	v := newValidator()
	assert.NoError(t, v.Var("10.50", "amount"))
	assert.Error(t, v.Var("-1", "amount"))
	assert.Error(t, v.Var("ten", "amount"))
}

func TestSingleFieldValidators(t *testing.T) {
	assert.Error(t, ValidateDescription("x"))
	assert.NoError(t, ValidateDescription("xy"))
	assert.Error(t, ValidateAmount(""))
	assert.NoError(t, ValidateAmount("12.5"))
	assert.Error(t, ValidateCategoryID(" "))
	assert.Error(t, ValidateCategoryName("ab"))
	assert.NoError(t, ValidateCategoryName("Travel"))

	_, err := ParseDateInput("2024-03-16", today)
	assert.EqualError(t, err, MsgDateFuture)
	_, err = ParseDateInput("03/01/2024", today)
	assert.EqualError(t, err, MsgDateFormat)
	got, err := ParseDateInput("2024-03-01", today)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Day())
}

type server struct {
	posts  atomic.Int32
	status int
	body   api.NewTransaction
}

func newServer(t *testing.T, status int) (*server, *api.Client) {
	t.Helper()
	s := &server{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/transactions/":
			s.posts.Add(1)
			_ = json.NewDecoder(r.Body).Decode(&s.body)
			w.WriteHeader(s.status)
			_, _ = io.WriteString(w, `{"id":1}`)
		case r.URL.Path == "/api/categories/":
			_, _ = io.WriteString(w, `[{"id":4,"name":"Housing"},{"id":5,"name":"Food"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	c, err := api.New(srv.URL + "/api/")
	require.NoError(t, err)
	return s, c
}

func TestDialog_InvalidDraftSendsNothing(t *testing.T) {
	srv, c := newServer(t, http.StatusCreated)
	reloads := 0
	d := NewDialog(c, c, func() { reloads++ }, zerolog.Nop())
	require.NoError(t, d.Show(context.Background()))

	d.Draft = validDraft()
	d.Draft.Description = "A"
	err := d.Submit(context.Background(), today)

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, MsgDescription, fe["description"])
	assert.Zero(t, srv.posts.Load())
	assert.True(t, d.Open)
	assert.Zero(t, reloads)
}

func TestDialog_SuccessPostsOnceResetsAndReloads(t *testing.T) {
	srv, c := newServer(t, http.StatusCreated)
	reloads := 0
	d := NewDialog(c, c, func() { reloads++ }, zerolog.Nop())
	require.NoError(t, d.Show(context.Background()))
	require.Len(t, d.Categories, 2)

	d.Draft = validDraft()
	d.Draft.Client = "Landlord"
	assert.Equal(t, "Housing", d.CategoryLabel())

	require.NoError(t, d.Submit(context.Background(), today))

	assert.Equal(t, int32(1), srv.posts.Load())
	assert.Equal(t, "2024-03-15", srv.body.Date)
	assert.Equal(t, "Rent", srv.body.Description)
	assert.Equal(t, "expense", srv.body.Type)
	assert.Equal(t, api.FlexID("4"), srv.body.Category)
	assert.Equal(t, "Landlord", srv.body.Client)

	assert.False(t, d.Open)
	assert.Equal(t, NewDraft(), d.Draft)
	assert.Equal(t, MsgCreated, d.Notice)
	assert.Equal(t, 1, reloads)
}

func TestDialog_FailureStaysOpen(t *testing.T) {
	srv, c := newServer(t, http.StatusBadRequest)
	reloads := 0
	d := NewDialog(c, c, func() { reloads++ }, zerolog.Nop())
	require.NoError(t, d.Show(context.Background()))
	d.Draft = validDraft()

	err := d.Submit(context.Background(), today)

	assert.ErrorIs(t, err, api.ErrRequestFailed)
	assert.Equal(t, int32(1), srv.posts.Load())
	assert.True(t, d.Open)
	assert.Equal(t, "Rent", d.Draft.Description)
	assert.Equal(t, MsgCreateFailed, d.Notice)
	assert.False(t, d.Submitting)
	assert.Zero(t, reloads)
}

type failingLister struct{}

func (failingLister) ListCategories(context.Context) ([]api.Category, error) {
	return nil, &api.RequestError{Method: "GET", Path: api.PathCategories, Status: 500}
}

func TestDialog_CategoryFailureStillOpens(t *testing.T) {
	_, c := newServer(t, http.StatusCreated)
	d := NewDialog(c, failingLister{}, nil, zerolog.Nop())

	err := d.Show(context.Background())

	assert.ErrorIs(t, err, api.ErrRequestFailed)
	assert.True(t, d.Open)
	assert.Empty(t, d.Categories)
	assert.Equal(t, MsgCategoriesFailed, d.Notice)
}
