package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/session"
	"github.com/theirongolddev/finboard/internal/tui/components"
)

// Page keys used with the load tracker.
const (
	pageOverview     = "overview"
	pageTransactions = "transactions"
	pageCashFlow     = "cashflow"
	pageForecast     = "forecast"
	pageBudget       = "budget"
)

// pageForTab maps a tab index to its page, "" for tabs without a load.
func pageForTab(tab int) string {
	switch tab {
	case components.TabOverview:
		return pageOverview
	case components.TabTransactions:
		return pageTransactions
	case components.TabCashFlow:
		return pageCashFlow
	case components.TabForecast:
		return pageForecast
	case components.TabBudget:
		return pageBudget
	default:
		return ""
	}
}

// sessionReadyMsg reports the startup token check.
type sessionReadyMsg struct {
	State session.State
}

// pageLoadedMsg carries one page load result, tagged with its ticket.
type pageLoadedMsg struct {
	Ticket pipeline.Ticket
	Page   any
	Err    error
}

type loginDoneMsg struct{ Err error }

type logoutDoneMsg struct{ Err error }

type categoriesMsg struct {
	Seq  int
	Cats []api.Category
	Err  error
}

type createdMsg struct{ Err error }

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func initSessionCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return sessionReadyMsg{State: s.Init(ctx)}
	}
}

// loadPage starts a tracked load for page. Any in-flight load of the same
// page is cancelled and its result will be discarded.
func (a *App) loadPage(page string) tea.Cmd {
	if page == "" || !a.session.Authenticated() {
		return nil
	}
	ctx, tk := a.tracker.Begin(a.ctx, page)
	l := a.loader
	a.log.Debug().Str("page", page).Uint64("gen", tk.Gen).Msg("load start")

	load := func() tea.Msg {
		var (
			res any
			err error
		)
		switch page {
		case pageOverview:
			res, err = l.Overview(ctx)
		case pageTransactions:
			res, err = l.Transactions(ctx)
		case pageCashFlow:
			res, err = l.CashFlow(ctx)
		case pageForecast:
			res, err = l.Forecast(ctx)
		case pageBudget:
			res, err = l.Budget(ctx)
		}
		return pageLoadedMsg{Ticket: tk, Page: res, Err: err}
	}
	return tea.Batch(load, a.spinner.Tick)
}

func (a *App) loginCmd(username, password string) tea.Cmd {
	ctx, s := a.ctx, a.session
	return func() tea.Msg {
		return loginDoneMsg{Err: s.Login(ctx, username, password)}
	}
}

func (a *App) logoutCmd() tea.Cmd {
	ctx, s := a.ctx, a.session
	return func() tea.Msg {
		return logoutDoneMsg{Err: s.Logout(ctx)}
	}
}

func (a *App) categoriesCmd(seq int) tea.Cmd {
	ctx, lister := a.ctx, a.dialog.Lister()
	return func() tea.Msg {
		cats, err := lister.ListCategories(ctx)
		return categoriesMsg{Seq: seq, Cats: cats, Err: err}
	}
}

func (a *App) createCmd(req api.NewTransaction) tea.Cmd {
	ctx, creator := a.ctx, a.dialog.Creator()
	return func() tea.Msg {
		_, err := creator.CreateTransaction(ctx, req)
		return createdMsg{Err: err}
	}
}
