package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// column describes one table column. A flex column takes whatever width
// the fixed columns leave.
type column struct {
	title string
	width int
	right bool
	flex  bool
}

// cell is one table value with an optional foreground.
type cell struct {
	text  string
	color lipgloss.Color
}

func plain(s string) cell { return cell{text: s} }

func colored(s string, c lipgloss.Color) cell { return cell{text: s, color: c} }

// fitColumns grows flex columns so the row fills width. Columns are
// separated by one space.
func fitColumns(cols []column, width int) []column {
	out := make([]column, len(cols))
	copy(out, cols)

	used := max(len(cols)-1, 0)
	flex := 0
	for _, c := range out {
		used += c.width
		if c.flex {
			flex++
		}
	}
	if flex == 0 || used >= width {
		return out
	}
	extra := width - used
	for i := range out {
		if !out[i].flex {
			continue
		}
		share := extra / flex
		if flex == 1 {
			share = extra
		}
		out[i].width += share
		extra -= share
		flex--
	}
	return out
}

// renderTable draws a header and rows on the card surface. The row at
// selected, if any, is highlighted.
func renderTable(cols []column, rows [][]cell, selected int) string {
	t := theme.Active
	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	sepStyle := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface)

	var b strings.Builder
	total := max(len(cols)-1, 0)
	for i, c := range cols {
		if i > 0 {
			b.WriteString(headStyle.Render(" "))
		}
		b.WriteString(headStyle.Render(align(c.title, c.width, c.right)))
		total += c.width
	}
	b.WriteString("\n")
	b.WriteString(sepStyle.Render(strings.Repeat("─", total)))

	for r, row := range rows {
		bg := t.Surface
		if r == selected {
			bg = t.SurfaceBright
		}
		b.WriteString("\n")
		for i, c := range cols {
			if i > 0 {
				b.WriteString(lipgloss.NewStyle().Background(bg).Render(" "))
			}
			var v cell
			if i < len(row) {
				v = row[i]
			}
			fg := v.color
			if fg == "" {
				fg = t.TextPrimary
			}
			style := lipgloss.NewStyle().Foreground(fg).Background(bg)
			if r == selected {
				style = style.Bold(true)
			}
			b.WriteString(style.Render(align(v.text, c.width, c.right)))
		}
	}
	return b.String()
}

func align(s string, width int, right bool) string {
	s = cli.Truncate(s, width)
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
