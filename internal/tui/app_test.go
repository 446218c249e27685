package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/config"
	"github.com/theirongolddev/finboard/internal/form"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/session"
	"github.com/theirongolddev/finboard/internal/tui/components"
)

type fakeAuth struct{ logoutErr error }

func (fakeAuth) Login(_ context.Context, username, _ string) (api.AuthResponse, error) {
	return api.AuthResponse{Token: "tok", User: api.User{ID: "1", Username: username}}, nil
}
func (f fakeAuth) Logout(context.Context) error { return f.logoutErr }
func (fakeAuth) CurrentUser(context.Context) (api.User, error) {
	return api.User{ID: "1", Username: "ada", Email: "ada@example.com"}, nil
}
func (fakeAuth) SetToken(string) {}

type memTokens struct{ token string }

func (m *memTokens) LoadToken() (string, error) { return m.token, nil }
func (m *memTokens) SaveToken(t string) error   { m.token = t; return nil }
func (m *memTokens) ClearToken() error          { m.token = ""; return nil }

type fakeSource struct {
	txs       []api.Transaction
	budget    []api.BudgetProgress
	budgetErr error
	created   int
	createErr error
}

func (f *fakeSource) ListTransactions(context.Context) ([]api.Transaction, error) { return f.txs, nil }
func (f *fakeSource) ListCategories(context.Context) ([]api.Category, error) {
	return []api.Category{{ID: "1", Name: "Housing"}, {ID: "2", Name: "Services"}}, nil
}
func (f *fakeSource) TransactionSummary(context.Context) (api.SummaryResponse, error) {
	return api.SummaryResponse{}, nil
}
func (f *fakeSource) BudgetProgress(context.Context) ([]api.BudgetProgress, error) {
	return f.budget, f.budgetErr
}
func (f *fakeSource) Forecast13Week(context.Context) ([]api.ForecastWeek, error) { return nil, nil }
func (f *fakeSource) CreateTransaction(context.Context, api.NewTransaction) (api.Transaction, error) {
	f.created++
	return api.Transaction{}, f.createErr
}

func num(s string) api.Number { return api.NewNumber(decimal.RequireFromString(s)) }

func wireTx(id, desc, category, typ, amount string) api.Transaction {
	return api.Transaction{
		ID:          api.FlexID(id),
		Description: desc,
		Amount:      num(amount),
		Type:        typ,
		Date:        "2024-03-0" + id,
		Category:    api.CategoryRef{Category: api.Category{ID: api.FlexID("c" + id), Name: category}, Nested: true},
	}
}

func newSource() *fakeSource {
	return &fakeSource{
		txs: []api.Transaction{
			wireTx("1", "Rent", "Housing", "expense", "1200"),
			wireTx("2", "Consulting", "Services", "income", "4000"),
			wireTx("3", "Rental deposit", "Housing", "income", "300"),
		},
		budget: []api.BudgetProgress{
			{Category: "Housing", BudgetAmount: num("1500"), AmountSpent: num("1350"), AmountRemaining: num("150")},
		},
	}
}

func newTestApp(t *testing.T, src *fakeSource) App {
	t.Helper()
	s := session.New(fakeAuth{}, &memTokens{token: "tok"}, zerolog.Nop())
	require.Equal(t, session.StateAuthenticated, s.Init(context.Background()))

	a := NewApp(Deps{
		Loader:  pipeline.NewLoader(src, zerolog.Nop(), 5),
		Session: s,
		API:     src,
		Config:  config.DefaultConfig(),
		Log:     zerolog.Nop(),
	})
	a.ready = true
	a.width, a.height = 120, 40
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and any batched children concurrently, collecting
// their messages. Commands that wait longer than a second (cursor
// blinks, ticks) are abandoned.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(time.Second):
		return nil
	}

	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	results := make([][]tea.Msg, len(batch))
	var wg sync.WaitGroup
	for i, c := range batch {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = drain(c)
		}()
	}
	wg.Wait()

	var out []tea.Msg
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// send applies msg and then every message its command produces that the
// test cares about.
func send(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, cmd := a.Update(msg)
	a = m.(App)
	for _, next := range drain(cmd) {
		switch next.(type) {
		case pageLoadedMsg, categoriesMsg, createdMsg, logoutDoneMsg:
			a = send(t, a, next)
		}
	}
	return a
}

func TestTabKeysLoadPage(t *testing.T) {
	a := newTestApp(t, newSource())

	a = send(t, a, key("5"))

	assert.Equal(t, components.TabBudget, a.activeTab)
	require.True(t, a.loaded[pageBudget])
	require.Len(t, a.budget.Budget.Items, 1)
	assert.Equal(t, model.TierDanger, a.budget.Budget.Items[0].Tier())
	assert.False(t, a.tracker.InFlight(pageBudget))
}

func TestSwitchTabCancelsPreviousLoad(t *testing.T) {
	a := newTestApp(t, newSource())
	_ = a.loadPage(pageOverview)
	require.True(t, a.tracker.InFlight(pageOverview))

	m, _ := a.Update(key("4"))
	a = m.(App)

	assert.Equal(t, components.TabForecast, a.activeTab)
	assert.False(t, a.tracker.InFlight(pageOverview))
	assert.True(t, a.tracker.InFlight(pageForecast))
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	a := newTestApp(t, newSource())
	_, old := a.tracker.Begin(context.Background(), pageBudget)
	_, cur := a.tracker.Begin(context.Background(), pageBudget)

	page := func(name string) pipeline.BudgetPage {
		return pipeline.BudgetPage{Budget: model.NewBudget([]model.BudgetItem{{Category: name}})}
	}

	m, _ := a.Update(pageLoadedMsg{Ticket: old, Page: page("stale")})
	a = m.(App)
	assert.False(t, a.loaded[pageBudget])
	assert.Empty(t, a.budget.Budget.Items)

	m, _ = a.Update(pageLoadedMsg{Ticket: cur, Page: page("fresh")})
	a = m.(App)
	assert.True(t, a.loaded[pageBudget])
	assert.Equal(t, "fresh", a.budget.Budget.Items[0].Category)
}

func TestUnauthorizedLoadExpiresSession(t *testing.T) {
	src := newSource()
	src.budgetErr = &api.RequestError{Method: "GET", Path: api.PathBudgets, Status: 401}
	a := newTestApp(t, src)

	a = send(t, a, key("5"))

	assert.NotNil(t, a.loginForm)
	assert.Equal(t, session.StateAnonymous, a.session.State())
	assert.Equal(t, session.MsgSessionExpired, a.session.Message())
	assert.Empty(t, a.loaded)
}

func TestFailedLoadRecordsError(t *testing.T) {
	src := newSource()
	src.budgetErr = &api.RequestError{Method: "GET", Path: api.PathBudgets, Status: 500}
	a := newTestApp(t, src)

	a = send(t, a, key("5"))

	assert.Nil(t, a.loginForm)
	assert.Equal(t, "budget unavailable", a.errs[pageBudget])
	assert.Equal(t, "budget unavailable", a.status().Error)
}

func TestTransactionFilterKeys(t *testing.T) {
	a := newTestApp(t, newSource())
	a = send(t, a, key("2"))
	require.Len(t, a.filteredTransactions(), 3)

	a = send(t, a, key("t"))
	assert.Equal(t, "income", a.txState.criteria.Type)
	assert.Len(t, a.filteredTransactions(), 2)

	a = send(t, a, key("c"))
	assert.Equal(t, "Housing", a.txState.criteria.Category)
	assert.Len(t, a.filteredTransactions(), 1)

	a = send(t, a, key("esc"))
	assert.Equal(t, pipeline.DefaultCriteria(), a.txState.criteria)
	assert.Len(t, a.filteredTransactions(), 3)
}

func TestTransactionSearch(t *testing.T) {
	a := newTestApp(t, newSource())
	a = send(t, a, key("2"))

	a = send(t, a, key("/"))
	require.True(t, a.txState.searching)
	for _, r := range "rent" {
		a = send(t, a, key(string(r)))
	}
	assert.Equal(t, "rent", a.txState.criteria.Search)
	assert.Len(t, a.filteredTransactions(), 2)

	a = send(t, a, key("enter"))
	assert.False(t, a.txState.searching)
	assert.Equal(t, "rent", a.txState.criteria.Search)

	// Digits typed while searching do not switch tabs.
	a = send(t, a, key("/"))
	a = send(t, a, key("3"))
	assert.Equal(t, components.TabTransactions, a.activeTab)
	a = send(t, a, key("esc"))
	assert.Equal(t, "rent", a.txState.criteria.Search)
}

func TestTransactionCursorScroll(t *testing.T) {
	s := newTxState()
	s.move(1, 10, 3)
	s.move(1, 10, 3)
	s.move(1, 10, 3)
	assert.Equal(t, 3, s.cursor)
	assert.Equal(t, 1, s.offset)

	s.move(100, 10, 3)
	assert.Equal(t, 9, s.cursor)
	assert.Equal(t, 7, s.offset)

	s.clamp(0)
	assert.Zero(t, s.cursor)
	assert.Zero(t, s.offset)
}

func TestCreateDialogFlow(t *testing.T) {
	src := newSource()
	a := newTestApp(t, src)
	a = send(t, a, key("2"))

	a = send(t, a, key("n"))
	require.True(t, a.dialog.Open)
	assert.False(t, a.fetchingCats)
	assert.Len(t, a.dialog.Categories, 2)
	require.NotNil(t, a.createForm)

	// Failure keeps the dialog and the typed values.
	a.createVals.Description = "Rent"
	a.dialog.Submitting = true
	a = send(t, a, createdMsg{Err: errors.New("boom")})
	assert.True(t, a.dialog.Open)
	assert.Equal(t, form.MsgCreateFailed, a.dialog.Notice)
	assert.Equal(t, "Rent", a.createVals.Description)

	// Success closes, flashes and reloads the visible page.
	m, cmd := a.Update(createdMsg{})
	a = m.(App)
	assert.False(t, a.dialog.Open)
	assert.Nil(t, a.createForm)
	assert.Equal(t, form.MsgCreated, a.notice)
	assert.NotNil(t, cmd)
	assert.True(t, a.tracker.InFlight(pageTransactions))
	assert.False(t, a.stale[pageTransactions])
	assert.True(t, a.stale[pageOverview])
}

func TestCreateDialogEscCloses(t *testing.T) {
	a := newTestApp(t, newSource())
	a = send(t, a, key("2"))
	a = send(t, a, key("n"))
	require.True(t, a.dialog.Open)

	a = send(t, a, key("esc"))

	assert.False(t, a.dialog.Open)
	assert.Nil(t, a.createForm)
	assert.Equal(t, pipeline.DefaultCriteria(), a.txState.criteria)
}

func TestCreateDialogEscIgnoredWhileSubmitting(t *testing.T) {
	a := newTestApp(t, newSource())
	a = send(t, a, key("2"))
	a = send(t, a, key("n"))
	require.True(t, a.dialog.Open)

	a.dialog.Submitting = true
	a = send(t, a, key("esc"))
	assert.True(t, a.dialog.Open)

	a = send(t, a, createdMsg{Err: errors.New("boom")})
	assert.True(t, a.dialog.Open)
	assert.NotNil(t, a.createForm)
	assert.Equal(t, form.MsgCreateFailed, a.dialog.Notice)
}

func TestLateCategoriesReplyIgnoredAfterReopen(t *testing.T) {
	a := newTestApp(t, newSource())
	a = send(t, a, key("2"))
	a = send(t, a, key("n"))
	first := a.catsSeq
	a = send(t, a, key("esc"))
	require.False(t, a.dialog.Open)

	m, _ := a.Update(key("n"))
	a = m.(App)
	require.True(t, a.dialog.Open)
	require.True(t, a.fetchingCats)

	late := []api.Category{{ID: "9", Name: "Stale"}}
	a = send(t, a, categoriesMsg{Seq: first, Cats: late})
	assert.True(t, a.fetchingCats)
	assert.Nil(t, a.createForm)

	a = send(t, a, categoriesMsg{Seq: a.catsSeq, Cats: late})
	assert.False(t, a.fetchingCats)
	require.Len(t, a.dialog.Categories, 1)
	assert.Equal(t, "Stale", a.dialog.Categories[0].Name)
	assert.NotNil(t, a.createForm)
}

func TestLogoutShowsLogin(t *testing.T) {
	a := newTestApp(t, newSource())

	a = send(t, a, key("L"))

	assert.NotNil(t, a.loginForm)
	assert.Equal(t, session.StateAnonymous, a.session.State())
}

func TestForecastToggle(t *testing.T) {
	a := newTestApp(t, newSource())
	a.activeTab = components.TabForecast

	a = send(t, a, key("w"))
	assert.True(t, a.forecastAll)
	a = send(t, a, key("w"))
	assert.False(t, a.forecastAll)
}

func TestAutoRefreshTick(t *testing.T) {
	a := newTestApp(t, newSource())
	a.autoRefresh = true
	a.lastRefresh = time.Now().Add(-time.Hour)
	a.notice, a.noticeAt = "hello", time.Now().Add(-time.Minute)

	m, _ := a.Update(tickMsg{})
	a = m.(App)

	assert.True(t, a.tracker.InFlight(pageOverview))
	assert.Empty(t, a.notice)
}

func TestSettingsRejectsUnknownTheme(t *testing.T) {
	a := newTestApp(t, newSource())
	a.activeTab = components.TabSettings
	a.settings.cursor = settingsFieldTheme

	a = send(t, a, key("enter"))
	require.True(t, a.settings.editing)
	a.settings.input.SetValue("neon")
	a = send(t, a, key("enter"))

	assert.False(t, a.settings.editing)
	assert.Error(t, a.settings.saveErr)
	assert.Equal(t, config.DefaultConfig().Appearance.Theme, a.cfg.Appearance.Theme)
}

func TestViews(t *testing.T) {
	a := newTestApp(t, newSource())
	a = send(t, a, key("5"))
	assert.Contains(t, a.View(), "Usage by Category")

	a.width = 60
	assert.Contains(t, a.View(), "Terminal too narrow")
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	a := App{}
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, false)
		if got := a.tabAtX(pos + w/2); got != i {
			t.Fatalf("x=%d -> tab=%d, want %d", pos+w/2, got, i)
		}
		pos += w + 1
	}
	assert.Equal(t, -1, a.tabAtX(pos+50))
}

func TestTransactionValuesDraft(t *testing.T) {
	now := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	v := NewTransactionValues(now)
	assert.Equal(t, "expense", v.Type)
	assert.Equal(t, "2024-03-15", v.Date)

	v.Description, v.Amount, v.CategoryID = "Rent", "1200", "1"
	d := v.Draft()
	assert.Nil(t, d.Validate(now))
	assert.Equal(t, 15, d.Date.Day())

	v.Date = "15/03/2024"
	assert.True(t, v.Draft().Date.IsZero())
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	v := SetupValuesFrom(cfg)
	v.APIURL = "https://finance.example.com/api/"
	v.Theme = "tokyo-night"
	v.RefreshSec = "45"

	require.NoError(t, v.Apply(&cfg))
	assert.Equal(t, "https://finance.example.com/api/", cfg.API.BaseURL)
	assert.Equal(t, "tokyo-night", cfg.Appearance.Theme)
	assert.Equal(t, 45, cfg.TUI.RefreshIntervalSec)

	v.RefreshSec = "5"
	assert.Error(t, v.Apply(&cfg))
	v.RefreshSec, v.APIURL = "45", "localhost"
	assert.Error(t, v.Apply(&cfg))
}
