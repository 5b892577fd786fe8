package printer

import (
	"strings"
	"unicode/utf8"
)

// MaxCellWidth caps the width of a grid column. Longer entries are truncated.
const MaxCellWidth = 32

// Grid is a board laid out for the terminal. Cells[r][c] lists the entries of
// row r and column c, already ordered.
type Grid struct {
	Corner string
	Cols   []string
	Rows   []string
	Cells  [][][]string
}

// Render writes g as a table: column titles on top, row titles on the left,
// one line per entry and a separator between rows.
func (g Grid) Render() {
	widths := make([]int, len(g.Cols)+1)
	widths[0] = width(g.Corner)
	for r, title := range g.Rows {
		widths[0] = max(widths[0], width(title))
		for c := range g.Cols {
			for _, e := range g.cell(r, c) {
				widths[c+1] = max(widths[c+1], width(e))
			}
		}
	}
	for c, title := range g.Cols {
		widths[c+1] = max(widths[c+1], width(title))
	}

	g.line(widths, func(i int) string {
		if i == 0 {
			return bold.Sprint(pad(g.Corner, widths[0]))
		}
		return cyan.Sprint(pad(g.Cols[i-1], widths[i]))
	})
	rule(widths)

	for r, title := range g.Rows {
		height := 1
		for c := range g.Cols {
			height = max(height, len(g.cell(r, c)))
		}
		for k := range height {
			g.line(widths, func(i int) string {
				if i == 0 {
					if k == 0 {
						return bold.Sprint(pad(title, widths[0]))
					}
					return pad("", widths[0])
				}
				entries := g.cell(r, i-1)
				if k >= len(entries) {
					if k == 0 {
						return faint.Sprint(pad("·", widths[i]))
					}
					return pad("", widths[i])
				}
				return pad(entries[k], widths[i])
			})
		}
		rule(widths)
	}
}

func (g Grid) cell(r, c int) []string {
	if r >= len(g.Cells) || c >= len(g.Cells[r]) {
		return nil
	}
	return g.Cells[r][c]
}

func (g Grid) line(widths []int, col func(i int) string) {
	parts := make([]string, len(widths))
	for i := range widths {
		parts[i] = col(i)
	}
	Info("%s\n", strings.TrimRight(strings.Join(parts, " │ "), " "))
}

func rule(widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	faint.Fprintln(out, strings.Join(parts, "─┼─"))
}

func width(s string) int {
	return min(utf8.RuneCountInString(s), MaxCellWidth)
}

// pad truncates s to w runes and right-pads it with spaces.
func pad(s string, w int) string {
	if w <= 0 {
		return ""
	}
	n := utf8.RuneCountInString(s)
	if n > w {
		r := []rune(s)
		return string(r[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-n)
}
