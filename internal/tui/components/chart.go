package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finboard/internal/tui/theme"
)

// Sparkline renders a unicode sparkline scaled between the series minimum
// and maximum, so negative balances still show their shape.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 4) // UTF-8 block chars are up to 3 bytes
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		buf.WriteRune(blocks[idx])
	}

	return style.Render(buf.String())
}

// Series is one colored value series in a GroupedBarChart.
type Series struct {
	Name   string
	Values []float64
	Color  lipgloss.Color
}

// Legend renders "■ name" swatches for each series.
func Legend(series []Series) string {
	t := theme.Active
	text := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)
	parts := make([]string, 0, len(series))
	for _, s := range series {
		swatch := lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface).Render("■")
		parts = append(parts, swatch+space.Render(" ")+text.Render(s.Name))
	}
	return strings.Join(parts, space.Render("   "))
}

// BarChart renders a single-series bar chart.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	return GroupedBarChart([]Series{{Values: values, Color: color}}, labels, width, height)
}

// GroupedBarChart renders one group of adjacent bars per label, one bar per
// series, with a y-axis of rounded ticks. Negative values draw as empty.
func GroupedBarChart(series []Series, labels []string, width, height int) string {
	if len(series) == 0 || len(series[0].Values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(series[0].Values, series[0].Color)
	}

	t := theme.Active
	n := len(series[0].Values)
	k := len(series)

	maxVal := 0.0
	for _, s := range series {
		for _, v := range s.Values {
			maxVal = max(maxVal, v)
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Y-axis: compute tick step and ceiling
	tickStep := chartTickStep(maxVal)
	maxIntervals := max(2, height/2)
	for int(math.Ceil(maxVal/tickStep)) > maxIntervals {
		tickStep *= 2
	}
	ceiling := math.Ceil(maxVal/tickStep) * tickStep
	numIntervals := max(1, int(math.Round(ceiling/tickStep)))

	rowsPerTick := max(2, height/numIntervals)
	chartH := rowsPerTick * numIntervals

	yLabelW := max(4, len(formatChartLabel(ceiling))+1)
	tickLabels := make(map[int]string, numIntervals)
	for i := 1; i <= numIntervals; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(tickStep * float64(i))
	}

	chartW := max(5, width-yLabelW-1)

	// Bar sizing: k bars per group, one column between groups
	gap := 1
	if n <= 1 {
		gap = 0
	}
	barW := (chartW - (n-1)*gap) / (n * k)
	if barW < 1 && n > 1 {
		// Too many groups; sample evenly.
		maxN := max(2, (chartW+1)/(k+1))
		idx := make([]int, maxN)
		for i := range idx {
			idx[i] = i * (n - 1) / (maxN - 1)
		}
		sampled := make([]Series, k)
		for s := range series {
			sampled[s] = series[s]
			sampled[s].Values = make([]float64, maxN)
			for i, src := range idx {
				sampled[s].Values[i] = series[s].Values[src]
			}
		}
		if len(labels) == n {
			sl := make([]string, maxN)
			for i, src := range idx {
				sl[i] = labels[src]
			}
			labels = sl
		}
		series = sampled
		n = maxN
		barW = 1
	}
	barW = max(1, min(barW, 6))
	groupW := barW * k
	axisLen := n*groupW + max(0, n-1)*gap

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	barStyles := make([]lipgloss.Style, k)
	for s, ser := range series {
		barStyles[s] = lipgloss.NewStyle().Foreground(ser.Color).Background(t.Surface)
	}

	var b strings.Builder

	for row := chartH; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(chartH)
		rowBottom := ceiling * float64(row-1) / float64(chartH)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[row])))
		b.WriteString(axisStyle.Render("│"))

		for i := 0; i < n; i++ {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			for s := range series {
				v := series[s].Values[i]
				switch {
				case v >= rowTop:
					b.WriteString(barStyles[s].Render(strings.Repeat("█", barW)))
				case v > rowBottom:
					frac := (v - rowBottom) / (rowTop - rowBottom)
					idx := max(1, min(int(frac*8), 8))
					b.WriteString(barStyles[s].Render(strings.Repeat(string(blocks[idx]), barW)))
				default:
					b.WriteString(blank.Render(strings.Repeat(" ", barW)))
				}
			}
		}
		b.WriteString("\n")
	}

	// X-axis line with 0 label
	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└"))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(axisLabels(labels, groupW+gap, axisLen)))
	}

	return b.String()
}

// axisLabels lays labels out under their groups, skipping any that would
// overlap the previous one.
func axisLabels(labels []string, stride, axisLen int) string {
	buf := []rune(strings.Repeat(" ", axisLen))
	lastEnd := -1
	for i, lbl := range labels {
		pos := i * stride
		r := []rune(lbl)
		if pos <= lastEnd || pos >= axisLen {
			continue
		}
		if pos+len(r) > axisLen {
			if axisLen-pos < 3 {
				continue
			}
			r = r[:axisLen-pos]
		}
		copy(buf[pos:], r)
		lastEnd = pos + len(r)
	}
	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e9:
		return trimUnit(v/1e9) + "B"
	case v >= 1e6:
		return trimUnit(v/1e6) + "M"
	case v >= 1e3:
		return trimUnit(v/1e3) + "k"
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func trimUnit(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
