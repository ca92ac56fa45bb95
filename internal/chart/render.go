// Package chart draws a ratio series as an ASCII line chart with a nice-tick
// value gutter and a sparse date axis aligned to sample columns.
package chart

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ticks"
)

const (
	// DefaultHeight is the number of row steps between the lowest and
	// highest tick; the plot has DefaultHeight+1 rows.
	DefaultHeight = 15

	minXLabels      = 4
	maxXLabels      = 10
	samplesPerLabel = 30
)

// Options tune a Renderer. Zero values select defaults.
type Options struct {
	Height    int
	TickCount int
}

// Renderer draws charts. It holds no state between calls.
type Renderer struct {
	height    int
	tickCount int
}

// New creates a Renderer with defaults applied.
func New(opts Options) *Renderer {
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.TickCount < 2 {
		opts.TickCount = ticks.DefaultTickCount
	}
	return &Renderer{height: opts.Height, tickCount: opts.TickCount}
}

// Render draws ratios with the default options.
func Render(ratios []float64, timestamps []int64, interval models.Interval) string {
	return New(Options{}).Render(ratios, timestamps, interval)
}

// Render draws one column per sample. Callers must pass at least one ratio
// and a timestamp for every ratio. Date labels start in their sample's
// column, except on series too short for the stride to fit the label
// width: there a label is shifted right to keep one space after the
// previous one (see xAxis).
func (r *Renderer) Render(ratios []float64, timestamps []int64, interval models.Interval) string {
	switch len(ratios) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("Only one data point (ratio %s); not enough to draw a chart.\n", ticks.FormatLabels(ratios)[0])
	}

	lo, hi := bounds(ratios)
	values, err := ticks.GenerateNiceTicks(lo, hi, r.tickCount)
	if err != nil {
		return fmt.Sprintf("cannot chart series: %v\n", err)
	}
	labels := ticks.FormatLabels(values)
	gutter := utf8.RuneCountInString(labels[0])

	yLo := math.Min(values[0], lo)
	yHi := math.Max(values[len(values)-1], hi)
	height := r.height
	if yHi == yLo {
		height = 0
	}
	rowOf := func(v float64) int {
		if height == 0 {
			return 0
		}
		return height - int(math.Round((v-yLo)/(yHi-yLo)*float64(height)))
	}

	rowLabels := make([]string, height+1)
	for i, v := range values {
		if row := rowOf(v); row >= 0 && row <= height && rowLabels[row] == "" {
			rowLabels[row] = labels[i]
		}
	}

	grid := plot(ratios, height, rowOf)

	var sb strings.Builder
	blank := strings.Repeat(" ", gutter)
	for row := 0; row <= height; row++ {
		if rowLabels[row] != "" {
			sb.WriteString(rowLabels[row])
			sb.WriteString(" ┤")
		} else {
			sb.WriteString(blank)
			sb.WriteString(" │")
		}
		sb.WriteString(strings.TrimRight(string(grid[row]), " "))
		sb.WriteByte('\n')
	}

	sb.WriteString(blank)
	sb.WriteString(" └")
	sb.WriteString(strings.Repeat("─", len(ratios)))
	sb.WriteByte('\n')

	sb.WriteString(xAxis(timestamps, len(ratios), gutter+axisWidth, interval))
	sb.WriteByte('\n')
	return sb.String()
}

// axisWidth is the space plus axis glyph between gutter and plot.
const axisWidth = 2

// plot draws the series into a (height+1) x len(ratios) rune grid, one
// column per sample.
func plot(ratios []float64, height int, rowOf func(float64) int) [][]rune {
	grid := make([][]rune, height+1)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", len(ratios)))
	}

	for x := 0; x < len(ratios)-1; x++ {
		r0, r1 := rowOf(ratios[x]), rowOf(ratios[x+1])
		switch {
		case r0 == r1:
			grid[r0][x] = '─'
		case r1 < r0: // rising
			grid[r0][x] = '╯'
			grid[r1][x] = '╭'
			for y := r1 + 1; y < r0; y++ {
				grid[y][x] = '│'
			}
		default: // falling
			grid[r0][x] = '╮'
			grid[r1][x] = '╰'
			for y := r0 + 1; y < r1; y++ {
				grid[y][x] = '│'
			}
		}
	}
	last := len(ratios) - 1
	grid[rowOf(ratios[last])][last] = '─'
	return grid
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// XLabelIndices returns the sample indices that get a date label: a fixed
// stride from 0 plus the last index.
func XLabelIndices(n int) []int {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []int{0}
	}

	count := (n + samplesPerLabel - 1) / samplesPerLabel
	count = max(minXLabels, min(count, maxXLabels))
	count = min(count, n)

	stride := max((n-1)/(count-1), 1)
	out := make([]int, 0, count)
	for i := 0; i < n-1 && len(out) < count-1; i += stride {
		out = append(out, i)
	}
	return append(out, n-1)
}

// xAxis lays labels out so each starts in its sample's column. A label that
// would collide with the previous one starts one space after it instead,
// which moves it off its column. Legibility wins over alignment here; once
// the stride is wider than a label no label moves.
func xAxis(timestamps []int64, n, offset int, interval models.Interval) string {
	var sb strings.Builder
	col := 0
	for _, idx := range XLabelIndices(n) {
		if idx >= len(timestamps) {
			break
		}
		pad := offset + idx - col
		if col > 0 && pad < 1 {
			pad = 1
		}
		if pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
			col += pad
		}
		label := DateLabel(timestamps[idx], interval)
		sb.WriteString(label)
		col += utf8.RuneCountInString(label)
	}
	return sb.String()
}

// DateLabel formats a sample time for the x axis, in UTC.
func DateLabel(tsMs int64, interval models.Interval) string {
	t := time.UnixMilli(tsMs).UTC()
	if interval == models.IntervalHourly {
		return t.Format("Jan 02 15h")
	}
	return t.Format("Jan 02")
}
