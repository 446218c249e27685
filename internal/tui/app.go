// Package tui provides the interactive Bubble Tea dashboard for finboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/config"
	"github.com/theirongolddev/finboard/internal/form"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/session"
	"github.com/theirongolddev/finboard/internal/tui/components"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// API is the write side the dashboard needs beyond the loader.
type API interface {
	form.Creator
	form.CategoryLister
}

// Deps wires the dashboard to its collaborators.
type Deps struct {
	Loader  *pipeline.Loader
	Session *session.Session
	API     API
	Config  config.Config
	Offline bool
	Log     zerolog.Logger
}

// App is the root Bubble Tea model.
type App struct {
	loader  *pipeline.Loader
	session *session.Session
	tracker *pipeline.Tracker
	dialog  *form.Dialog
	log     zerolog.Logger
	ctx     context.Context
	stop    context.CancelFunc
	now     func() time.Time

	// Settings
	cfg             config.Config
	offline         bool
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time

	// Page view models
	overview pipeline.OverviewPage
	txPage   pipeline.TransactionsPage
	cashflow pipeline.CashFlowPage
	forecast pipeline.ForecastPage
	budget   pipeline.BudgetPage
	loaded   map[string]bool
	errs     map[string]string
	stale    map[string]bool // marked by the dialog's onCreated callback

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	ready     bool // startup session check finished
	spinner   spinner.Model
	notice    string
	noticeAt  time.Time

	// Login (huh form), shown while the session is anonymous
	loginForm *huh.Form
	loginVals *LoginValues
	loggingIn bool

	// Create-transaction dialog
	createForm   *huh.Form
	createVals   *TransactionValues
	fetchingCats bool
	catsSeq      int // tags category fetches; replies for an older open are dropped

	// Per-tab state
	txState     txState
	forecastAll bool
	settings    settingsState
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	noticeTTL          = 4 * time.Second
	defaultRefreshSecs = 120
)

// NewApp creates the dashboard model.
func NewApp(d Deps) App {
	ctx, stop := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refreshInterval := time.Duration(d.Config.TUI.RefreshIntervalSec) * time.Second
	if refreshInterval < minRefreshSec*time.Second {
		refreshInterval = defaultRefreshSecs * time.Second
	}

	a := App{
		loader:          d.Loader,
		session:         d.Session,
		tracker:         pipeline.NewTracker(),
		log:             d.Log.With().Str("component", "tui").Logger(),
		ctx:             ctx,
		stop:            stop,
		now:             time.Now,
		cfg:             d.Config,
		offline:         d.Offline,
		autoRefresh:     d.Config.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		loaded:          make(map[string]bool),
		errs:            make(map[string]string),
		stale:           make(map[string]bool),
		spinner:         sp,
		txState:         newTxState(),
	}

	stale := a.stale
	a.dialog = form.NewDialog(d.API, d.API, func() {
		for _, p := range []string{pageOverview, pageTransactions, pageCashFlow, pageForecast, pageBudget} {
			stale[p] = true
		}
	}, d.Log)

	log := a.log
	d.Session.OnChange(func(st session.State) {
		log.Info().Stringer("state", st).Msg("session changed")
	})

	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		initSessionCmd(a.ctx, a.session),
		a.spinner.Tick,
		tickCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.loginForm != nil {
			a.loginForm = a.loginForm.WithWidth(formWidth(msg.Width))
		}
		if a.createForm != nil {
			a.createForm = a.createForm.WithWidth(formWidth(msg.Width))
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case sessionReadyMsg:
		a.ready = true
		if msg.State != session.StateAuthenticated {
			return a, a.startLogin()
		}
		a.lastRefresh = a.now()
		return a, a.loadPage(pageForTab(a.activeTab))

	case loginDoneMsg:
		a.loggingIn = false
		if msg.Err != nil {
			a.log.Info().Err(msg.Err).Msg("login failed")
			return a, a.startLogin()
		}
		a.loginForm, a.loginVals = nil, nil
		a.lastRefresh = a.now()
		return a, a.loadPage(pageForTab(a.activeTab))

	case logoutDoneMsg:
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Msg("logout")
		}
		return a, a.startLogin()

	case pageLoadedMsg:
		return a.applyPage(msg)

	case categoriesMsg:
		if msg.Seq != a.catsSeq || !a.dialog.Open {
			return a, nil
		}
		a.fetchingCats = false
		_ = a.dialog.SetCategories(pipeline.ToCategories(msg.Cats), msg.Err)
		return a, a.buildCreateForm()

	case createdMsg:
		if err := a.dialog.Complete(msg.Err); err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				a.session.Expire()
				return a, a.startLogin()
			}
			if !a.dialog.Open {
				return a, nil
			}
			return a, a.buildCreateForm()
		}
		a.createForm, a.createVals = nil, nil
		a.flash(a.dialog.Notice)
		return a, a.reloadStale()

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		now := a.now()
		if a.notice != "" && now.Sub(a.noticeAt) >= noticeTTL {
			a.notice = ""
		}
		if a.autoRefresh && a.session.Authenticated() && !a.modal() &&
			now.Sub(a.lastRefresh) >= a.refreshInterval {
			if page := pageForTab(a.activeTab); page != "" && !a.tracker.InFlight(page) {
				a.lastRefresh = now
				cmds = append(cmds, a.loadPage(page))
			}
		}
		return a, tea.Batch(cmds...)
	}

	// Forward everything else (cursor blinks etc.) to whatever has focus.
	switch {
	case a.loginForm != nil && !a.loggingIn:
		return a.updateLoginForm(msg)
	case a.createForm != nil && !a.dialog.Submitting:
		return a.updateCreateForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		a.shutdown()
		return a, tea.Quit
	}

	if !a.ready {
		return a, nil
	}

	// Login form intercepts all keys
	if a.loginForm != nil {
		if a.loggingIn {
			return a, nil
		}
		return a.updateLoginForm(msg)
	}

	// Create dialog intercepts all keys
	if a.dialog.Open {
		if key == "esc" && !a.dialog.Submitting {
			a.closeDialog()
			return a, nil
		}
		if a.fetchingCats || a.dialog.Submitting || a.createForm == nil {
			return a, nil
		}
		return a.updateCreateForm(msg)
	}

	if a.activeTab == components.TabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if a.activeTab == components.TabTransactions && a.txState.searching {
		return a.updateSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case components.TabTransactions:
		if cmd, ok := a.transactionsKey(key); ok {
			return a, cmd
		}
	case components.TabForecast:
		if key == "w" {
			a.forecastAll = !a.forecastAll
			return a, nil
		}
	case components.TabSettings:
		if cmd, ok := a.settingsKey(key); ok {
			return a, cmd
		}
	}

	switch key {
	case "q":
		a.shutdown()
		return a, tea.Quit
	case "r":
		a.lastRefresh = a.now()
		return a, a.loadPage(pageForTab(a.activeTab))
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		a.saveConfig()
		return a, nil
	case "L":
		a.tracker.CancelAll()
		return a, a.logoutCmd()
	case "left", "h":
		return a, a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right", "l", "tab":
		return a, a.switchTab((a.activeTab + 1) % len(components.Tabs))
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			return a, a.switchTab(idx)
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.session.Authenticated() || a.loginForm != nil || a.dialog.Open || a.showHelp {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == components.TabTransactions {
			a.txState.move(-1, len(a.filteredTransactions()), a.txPageSize())
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == components.TabTransactions {
			a.txState.move(1, len(a.filteredTransactions()), a.txPageSize())
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				return a, a.switchTab(tab)
			}
		}
	}
	return a, nil
}

// switchTab leaves the current page, cancelling its load, and loads the
// new one.
func (a *App) switchTab(idx int) tea.Cmd {
	if idx == a.activeTab {
		return nil
	}
	if p := pageForTab(a.activeTab); p != "" {
		a.tracker.Cancel(p)
	}
	a.activeTab = idx
	a.showHelp = false
	page := pageForTab(idx)
	delete(a.stale, page)
	return a.loadPage(page)
}

// applyPage stores a load result unless a newer load or a tab switch has
// superseded it.
func (a App) applyPage(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.tracker.Finish(msg.Ticket) {
		a.log.Debug().Str("page", msg.Ticket.Page).Uint64("gen", msg.Ticket.Gen).Msg("discarding stale load")
		return a, nil
	}

	page := msg.Ticket.Page
	switch p := msg.Page.(type) {
	case pipeline.OverviewPage:
		a.overview = p
	case pipeline.TransactionsPage:
		a.txPage = p
		a.txState.clamp(len(a.filteredTransactions()))
	case pipeline.CashFlowPage:
		a.cashflow = p
	case pipeline.ForecastPage:
		a.forecast = p
	case pipeline.BudgetPage:
		a.budget = p
	}
	a.loaded[page] = true

	if msg.Err == nil {
		delete(a.errs, page)
		return a, nil
	}
	if errors.Is(msg.Err, api.ErrUnauthorized) {
		a.session.Expire()
		return a, a.startLogin()
	}
	a.errs[page] = loadErrorText(page, msg.Err)
	return a, nil
}

func loadErrorText(page string, err error) string {
	switch {
	case page == pageTransactions && errors.Is(err, api.ErrMalformedResponse):
		return "Unexpected response while loading transactions."
	case page == pageTransactions:
		return "Failed to load transactions."
	case errors.Is(err, api.ErrMalformedResponse):
		return page + ": unexpected response"
	default:
		return page + " unavailable"
	}
}

// startLogin drops all page state and shows the login form with the
// session's current message.
func (a *App) startLogin() tea.Cmd {
	a.tracker.CancelAll()
	a.resetPages()
	a.closeDialog()
	a.showHelp = false

	vals := &LoginValues{}
	if a.loginVals != nil {
		vals.Username = a.loginVals.Username
	}
	a.loginVals = vals
	a.loginForm = NewLoginForm(vals, a.session.Message())
	if a.width > 0 {
		a.loginForm = a.loginForm.WithWidth(formWidth(a.width))
	}
	return a.loginForm.Init()
}

func (a App) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	f, cmd := a.loginForm.Update(msg)
	if ff, ok := f.(*huh.Form); ok {
		a.loginForm = ff
	}

	switch a.loginForm.State {
	case huh.StateCompleted:
		a.loggingIn = true
		a.session.ClearMessage()
		return a, tea.Batch(a.loginCmd(a.loginVals.Username, a.loginVals.Password), a.spinner.Tick)
	case huh.StateAborted:
		a.shutdown()
		return a, tea.Quit
	}
	return a, cmd
}

// openDialog opens the create dialog and fetches a fresh category list.
func (a *App) openDialog() tea.Cmd {
	a.dialog.Begin()
	vals := NewTransactionValues(a.now())
	a.createVals = &vals
	a.createForm = nil
	a.fetchingCats = true
	a.catsSeq++
	return tea.Batch(a.categoriesCmd(a.catsSeq), a.spinner.Tick)
}

func (a *App) buildCreateForm() tea.Cmd {
	if a.createVals == nil {
		vals := NewTransactionValues(a.now())
		a.createVals = &vals
	}
	a.createForm = NewTransactionForm(a.createVals, a.dialog.Categories, a.now)
	if a.width > 0 {
		a.createForm = a.createForm.WithWidth(formWidth(a.width))
	}
	return a.createForm.Init()
}

func (a App) updateCreateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	f, cmd := a.createForm.Update(msg)
	if ff, ok := f.(*huh.Form); ok {
		a.createForm = ff
	}

	switch a.createForm.State {
	case huh.StateCompleted:
		a.dialog.Draft = a.createVals.Draft()
		req, ok := a.dialog.Prepare(a.now())
		if !ok {
			return a, a.buildCreateForm()
		}
		return a, tea.Batch(a.createCmd(req), a.spinner.Tick)
	case huh.StateAborted:
		a.closeDialog()
		return a, nil
	}
	return a, cmd
}

func (a *App) closeDialog() {
	a.dialog.Close()
	a.createForm = nil
	a.createVals = nil
	a.fetchingCats = false
}

// reloadStale reloads the active page if a mutation marked it stale.
func (a *App) reloadStale() tea.Cmd {
	page := pageForTab(a.activeTab)
	if !a.stale[page] {
		return nil
	}
	delete(a.stale, page)
	return a.loadPage(page)
}

func (a *App) resetPages() {
	a.overview = pipeline.OverviewPage{}
	a.txPage = pipeline.TransactionsPage{}
	a.cashflow = pipeline.CashFlowPage{}
	a.forecast = pipeline.ForecastPage{}
	a.budget = pipeline.BudgetPage{}
	clear(a.loaded)
	clear(a.errs)
	clear(a.stale)
	a.txState = newTxState()
}

func (a *App) flash(msg string) {
	a.notice = msg
	a.noticeAt = a.now()
}

func (a *App) shutdown() {
	a.tracker.CancelAll()
	a.stop()
}

func (a *App) saveConfig() {
	if err := config.Save(a.cfg); err != nil {
		a.log.Warn().Err(err).Msg("saving config")
	}
}

// modal reports whether a form or overlay owns the screen.
func (a App) modal() bool {
	return a.loginForm != nil || a.dialog.Open || a.settings.editing
}

// busy reports whether anything is waiting on I/O, which keeps the
// spinner ticking.
func (a App) busy() bool {
	if !a.ready || a.loggingIn || a.fetchingCats || a.dialog.Submitting {
		return true
	}
	page := pageForTab(a.activeTab)
	return page != "" && a.tracker.InFlight(page)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func formWidth(termWidth int) int {
	return max(40, min(termWidth-8, 72))
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.ready {
		return a.viewLoading("Checking session...")
	}
	if a.loginForm != nil {
		return a.viewLogin()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  finboard needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading(label string) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ finboard"))
	b.WriteString(subtitleStyle.Render(" · Finance Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" " + label))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLogin() string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)

	body := a.loginForm.View()
	if a.loggingIn {
		body = a.spinner.View() + " Signing in..."
	}
	if a.offline {
		body += "\n" + lipgloss.NewStyle().Foreground(t.Orange).Render("offline: sign-in needs the API")
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"1-6", "Jump to tab"},
			{"← → / tab", "Previous / Next tab"},
			{"j k", "Move through transactions"},
		}},
		{"Transactions", []struct{ key, desc string }{
			{"/", "Search description or client"},
			{"c C", "Next / previous category"},
			{"t T", "Next / previous type"},
			{"Esc", "Clear filters"},
			{"n", "New transaction"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"w", "Forecast: show 6 / 13 weeks"},
			{"r", "Refresh this page"},
			{"R", "Toggle auto-refresh"},
			{"L", "Log out"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderContextLine(w)
	statusBar := components.RenderStatusBar(w, a.status())

	contentH := max(minContentHeight, h-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	switch {
	case a.dialog.Open:
		content = a.renderDialog(cw)
	case a.activeTab == components.TabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == components.TabTransactions:
		content = a.renderTransactionsTab(cw, contentH)
	case a.activeTab == components.TabCashFlow:
		content = a.renderCashFlowTab(cw)
	case a.activeTab == components.TabForecast:
		content = a.renderForecastTab(cw)
	case a.activeTab == components.TabBudget:
		content = a.renderBudgetTab(cw)
	case a.activeTab == components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderContextLine shows the backend and, on the transactions tab, the
// active filters.
func (a App) renderContextLine(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	line := dim.Render(" ") + accent.Render(a.apiHost())
	if a.activeTab == components.TabTransactions {
		c := a.txState.criteria
		line += dim.Render(" │ ") + accent.Render(c.Category) + dim.Render(" │ ") + accent.Render(c.Type)
		if c.Search != "" {
			line += dim.Render(" │ ") + accent.Render(fmt.Sprintf("%q", c.Search))
		}
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(w).MaxWidth(w).Render(line)
}

func (a App) apiHost() string {
	u := config.GetAPIURL(a.cfg)
	u = strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
	return strings.TrimSuffix(u, "/")
}

func (a App) status() components.Status {
	st := components.Status{
		Offline:     a.offline,
		AutoRefresh: a.autoRefresh,
		Notice:      a.notice,
	}
	if u, ok := a.session.User(); ok {
		st.User = u.Username
	}
	page := pageForTab(a.activeTab)
	if page == "" {
		return st
	}
	st.Loading = a.tracker.InFlight(page)
	st.FetchedAgo = cli.FormatAgo(a.fetchedAt(page))
	if page != pageTransactions {
		st.Error = a.errs[page]
	}
	return st
}

func (a App) fetchedAt(page string) time.Time {
	switch page {
	case pageOverview:
		return a.overview.FetchedAt
	case pageTransactions:
		return a.txPage.FetchedAt
	case pageCashFlow:
		return a.cashflow.FetchedAt
	case pageForecast:
		return a.forecast.FetchedAt
	case pageBudget:
		return a.budget.FetchedAt
	}
	return time.Time{}
}

// placeholder returns a loading or empty line for a page with no data yet.
func (a App) placeholder(page, empty string) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if a.tracker.InFlight(page) && !a.loaded[page] {
		return a.spinner.View() + style.Render(" Loading...")
	}
	return style.Render(empty)
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
