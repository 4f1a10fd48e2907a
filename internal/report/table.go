package report

import (
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Table is a bordered, column-aligned text table. Rows may have different
// column counts; every row is stretched to the width of the widest one.
type Table struct {
	headers [][]string
	rows    [][]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// AddHeader appends a centered header row.
func (t *Table) AddHeader(cells ...string) {
	t.headers = append(t.headers, normalize(cells))
}

// AddRow appends a left-aligned body row.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, normalize(cells))
}

func normalize(cells []string) []string {
	if len(cells) == 0 {
		return []string{""}
	}
	return append([]string(nil), cells...)
}

// Render lays the table out: border, headers, border, rows, border and a
// trailing blank line.
func (t *Table) Render() string {
	widths, total := t.layout()

	var b strings.Builder
	border := "+" + strings.Repeat("=", total) + "+\n"
	b.WriteString(border)
	for _, h := range t.headers {
		writeRow(&b, h, widths[len(h)], true)
	}
	b.WriteString(border)
	for _, r := range t.rows {
		writeRow(&b, r, widths[len(r)], false)
	}
	b.WriteString(border)
	b.WriteString("\n")
	return b.String()
}

// WriteTo renders the table into w.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.Render())
	return int64(n), err
}

// layout computes per-column-count widths (cell text plus one space each
// side) and the overall inner width, then spreads any shortfall round-robin.
func (t *Table) layout() (map[int][]int, int) {
	widths := make(map[int][]int)
	for _, row := range append(append([][]string(nil), t.headers...), t.rows...) {
		cur, ok := widths[len(row)]
		if !ok {
			cur = make([]int, len(row))
			widths[len(row)] = cur
		}
		for i, cell := range row {
			cur[i] = max(cur[i], VisibleWidth(cell)+2)
		}
	}

	total := 0
	for _, cols := range widths {
		total = max(total, span(cols))
	}
	for _, cols := range widths {
		for i := 0; span(cols) < total; i = (i + 1) % len(cols) {
			cols[i]++
		}
	}
	return widths, total
}

func span(cols []int) int {
	sum := len(cols) - 1
	for _, w := range cols {
		sum += w
	}
	return sum
}

func writeRow(b *strings.Builder, cells []string, widths []int, centered bool) {
	b.WriteString("|")
	for i, cell := range cells {
		pad := widths[i] - 2 - VisibleWidth(cell)
		left := 0
		if centered {
			left = pad / 2
		}
		b.WriteString(" ")
		b.WriteString(strings.Repeat(" ", left))
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", pad-left))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

// VisibleWidth is the terminal width of s with escape sequences removed.
func VisibleWidth(s string) int {
	return runewidth.StringWidth(ansi.Strip(s))
}
