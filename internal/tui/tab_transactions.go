package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/tui/components"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// txChrome is the number of content rows the transactions tab spends on
// everything but table rows.
const txChrome = 12

// txState tracks filters and scrolling on the transactions tab.
type txState struct {
	criteria   pipeline.Criteria
	searching  bool
	prevSearch string
	input      textinput.Model
	cursor     int
	offset     int
}

func newTxState() txState {
	return txState{criteria: pipeline.DefaultCriteria()}
}

// move shifts the cursor by delta over n rows, scrolling a window of
// size rows to keep it visible.
func (s *txState) move(delta, n, size int) {
	s.cursor += delta
	s.clamp(n)
	size = max(size, 1)
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+size {
		s.offset = s.cursor - size + 1
	}
}

// clamp keeps the cursor and offset inside n rows.
func (s *txState) clamp(n int) {
	if n == 0 {
		s.cursor, s.offset = 0, 0
		return
	}
	s.cursor = max(0, min(s.cursor, n-1))
	s.offset = max(0, min(s.offset, s.cursor))
}

func (s *txState) resetScroll() {
	s.cursor, s.offset = 0, 0
}

func (a App) filteredTransactions() []model.Transaction {
	return pipeline.Filter(a.txPage.Transactions, a.txState.criteria)
}

func (a App) txPageSize() int {
	return max(3, a.height-txChrome)
}

func (a *App) transactionsKey(key string) (tea.Cmd, bool) {
	s := &a.txState
	n := len(a.filteredTransactions())
	size := a.txPageSize()

	switch key {
	case "/":
		s.searching = true
		s.prevSearch = s.criteria.Search
		s.input = newSearchInput(s.criteria.Search)
		return s.input.Focus(), true
	case "c", "C":
		step := 1
		if key == "C" {
			step = -1
		}
		s.criteria.Category = pipeline.Cycle(a.categoryOptions(), s.criteria.Category, step)
		s.resetScroll()
		return nil, true
	case "t", "T":
		step := 1
		if key == "T" {
			step = -1
		}
		s.criteria.Type = pipeline.Cycle(pipeline.TypeOptions, s.criteria.Type, step)
		s.resetScroll()
		return nil, true
	case "esc":
		s.criteria = pipeline.DefaultCriteria()
		s.resetScroll()
		return nil, true
	case "n":
		return a.openDialog(), true
	case "j", "down":
		s.move(1, n, size)
		return nil, true
	case "k", "up":
		s.move(-1, n, size)
		return nil, true
	case "pgdown", "ctrl+d":
		s.move(size, n, size)
		return nil, true
	case "pgup", "ctrl+u":
		s.move(-size, n, size)
		return nil, true
	case "g", "home":
		s.move(-n, n, size)
		return nil, true
	case "G", "end":
		s.move(n, n, size)
		return nil, true
	}
	return nil, false
}

func (a App) categoryOptions() []string {
	if len(a.txPage.Categories) == 0 {
		return []string{pipeline.AllCategories}
	}
	return a.txPage.Categories
}

func newSearchInput(value string) textinput.Model {
	t := theme.Active
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "description or client"
	ti.CharLimit = 64
	ti.Width = 32
	ti.PromptStyle = lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	ti.TextStyle = lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	ti.SetValue(value)
	return ti
}

// updateSearch filters live as the user types. Enter keeps the query,
// esc restores the previous one.
func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &a.txState
	switch msg.String() {
	case "enter":
		s.searching = false
		s.input.Blur()
		return a, nil
	case "esc":
		s.searching = false
		s.input.Blur()
		s.criteria.Search = s.prevSearch
		s.resetScroll()
		return a, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if v := s.input.Value(); v != s.criteria.Search {
		s.criteria.Search = v
		s.resetScroll()
	}
	return a, cmd
}

func (a App) renderTransactionsTab(cw, _ int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)

	var body strings.Builder
	body.WriteString(a.renderFilterBar())
	body.WriteString("\n\n")

	switch {
	case a.errs[pageTransactions] != "":
		body.WriteString(errStyle.Render(a.errs[pageTransactions]))
		body.WriteString("\n")
		body.WriteString(muted.Render("Press r to retry."))
		return components.ContentCard("Transactions", body.String(), cw)
	case !a.loaded[pageTransactions]:
		body.WriteString(a.placeholder(pageTransactions, "No data yet."))
		return components.ContentCard("Transactions", body.String(), cw)
	}

	txs := a.filteredTransactions()
	if len(txs) == 0 {
		body.WriteString(muted.Render("No transactions found."))
		return components.ContentCard("Transactions", body.String(), cw)
	}

	cols := []column{
		{title: "Date", width: 12},
		{title: "Description", width: 16, flex: true},
		{title: "Category", width: 14},
		{title: "Client", width: 14, flex: true},
		{title: "Amount", width: 13, right: true},
	}
	if a.isCompactLayout() {
		cols = []column{cols[0], cols[1], cols[2], cols[4]}
	}
	cols = fitColumns(cols, innerW)

	size := a.txPageSize()
	s := a.txState
	end := min(len(txs), s.offset+size)
	rows := make([][]cell, 0, end-s.offset)
	for _, tx := range txs[s.offset:end] {
		amount := colored(cli.FormatSignedMoney(tx), t.Signed(tx.Type == model.Expense))
		dateColor := t.TextMuted
		if !tx.Completed {
			dateColor = t.Pending()
		}
		row := []cell{
			colored(cli.FormatDate(tx.Date), dateColor),
			plain(tx.Description),
			colored(tx.Category.Name, t.Cyan),
		}
		if !a.isCompactLayout() {
			row = append(row, colored(tx.Client, t.TextMuted))
		}
		rows = append(rows, append(row, amount))
	}
	body.WriteString(renderTable(cols, rows, s.cursor-s.offset))

	in, out := pipeline.Totals(txs)
	body.WriteString("\n\n")
	body.WriteString(muted.Render(fmt.Sprintf("%d-%d of %d  ", s.offset+1, end, len(txs))))
	body.WriteString(lipgloss.NewStyle().Foreground(t.Income()).Background(t.Surface).Render("in " + cli.FormatMoney(in)))
	body.WriteString(muted.Render("  "))
	body.WriteString(lipgloss.NewStyle().Foreground(t.Expense()).Background(t.Surface).Render("out " + cli.FormatMoney(out)))

	title := fmt.Sprintf("Transactions (%d of %d)", len(txs), len(a.txPage.Transactions))
	return components.ContentCard(title, body.String(), cw)
}

func (a App) renderFilterBar() string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	c := a.txState.criteria
	var search string
	switch {
	case a.txState.searching:
		search = a.txState.input.View()
	case c.Search == "":
		search = label.Render("Search: ") + hint.Render("[/]")
	default:
		search = label.Render("Search: ") + value.Render(c.Search)
	}

	return search +
		space.Render("   ") + label.Render("Category: ") + value.Render(c.Category) + hint.Render(" [c]") +
		space.Render("   ") + label.Render("Type: ") + value.Render(c.Type) + hint.Render(" [t]") +
		space.Render("   ") + hint.Render("[n] new  [esc] clear")
}

// renderDialog draws the create-transaction dialog in place of the tab
// content.
func (a App) renderDialog(cw int) string {
	t := theme.Active
	w := min(cw, 80)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	notice := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)

	var body strings.Builder
	switch {
	case a.fetchingCats:
		body.WriteString(a.spinner.View() + muted.Render(" Loading categories..."))
	case a.dialog.Submitting:
		body.WriteString(a.spinner.View() + muted.Render(" Saving..."))
	case a.createForm != nil:
		body.WriteString(a.createForm.View())
	}

	for _, field := range []string{"description", "amount", "type", "category", "date"} {
		if msg, ok := a.dialog.Errors[field]; ok {
			body.WriteString("\n")
			body.WriteString(errStyle.Render(field + ": " + msg))
		}
	}
	if a.dialog.Notice != "" {
		body.WriteString("\n")
		body.WriteString(notice.Render(a.dialog.Notice))
	}
	body.WriteString("\n")
	body.WriteString(muted.Render("[enter] next  [esc] cancel"))

	card := components.ContentCard("New Transaction", body.String(), w)
	return lipgloss.PlaceHorizontal(cw, lipgloss.Center, card, lipgloss.WithWhitespaceBackground(t.Background))
}
