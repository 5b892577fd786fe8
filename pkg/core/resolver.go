package core

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Cell addresses a grid position. It is never stored; its identity is the union
// of its row's and column's tags.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// CellResolver derives cell contents from headers and notes. It holds no state
// of its own, so every answer reflects the current text of every note.
type CellResolver struct {
	headers *HeaderRegistry
	notes   *NoteStore
}

// NewCellResolver creates a resolver over headers and notes.
func NewCellResolver(headers *HeaderRegistry, notes *NoteStore) *CellResolver {
	return &CellResolver{headers: headers, notes: notes}
}

// TagsOf returns tags(row) ∪ tags(col) for cell.
func (r *CellResolver) TagsOf(cell Cell) ([]string, error) {
	row, err := r.headers.Header(Rows, cell.Row)
	if err != nil {
		return nil, err
	}
	col, err := r.headers.Header(Cols, cell.Col)
	if err != nil {
		return nil, err
	}
	return unionTags(row.Tags, col.Tags), nil
}

// NotesIn returns the notes whose tags are a superset of the cell's tags,
// sorted by ascending order. Orders are only kept distinct within the cells
// notes are placed into; anchor and margin cells gather notes from many cells
// and may show equal orders, listed by id.
func (r *CellResolver) NotesIn(cell Cell) ([]Note, error) {
	want, err := r.TagsOf(cell)
	if err != nil {
		return nil, err
	}
	var out []Note
	for _, n := range r.notes.All() {
		if containsAll(n.Tags(), want) {
			out = append(out, n)
		}
	}
	return out, nil
}

// CellsOf returns every cell the note structurally belongs to, row-major.
// The anchor cell (0,0) is always included.
func (r *CellResolver) CellsOf(noteID string) ([]Cell, error) {
	n, ok := r.notes.Get(noteID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	}
	tags := n.Tags()
	rows := r.matching(Rows, tags)
	cols := r.matching(Cols, tags)
	cells := make([]Cell, 0, len(rows)*len(cols))
	for _, row := range rows {
		for _, col := range cols {
			cells = append(cells, Cell{Row: row, Col: col})
		}
	}
	return cells, nil
}

// Orphans returns the notes that match no header at all, i.e. that only
// appear in the anchor cell. Stale tags left behind by a retitle or a header
// removal produce orphans.
func (r *CellResolver) Orphans() []Note {
	var out []Note
	for _, n := range r.notes.All() {
		tags := n.Tags()
		if len(r.matching(Rows, tags)) == 1 && len(r.matching(Cols, tags)) == 1 {
			out = append(out, n)
		}
	}
	return out
}

// NotesMatching returns the notes carrying at least one tag that matches the
// glob pattern, e.g. "#proj-*".
func (r *CellResolver) NotesMatching(pattern string) ([]Note, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid tag pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	var out []Note
	for _, n := range r.notes.All() {
		for _, tag := range n.Tags() {
			if ok, _ := doublestar.Match(pattern, tag); ok {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

// matching returns the header indexes on axis whose tags are all in tags.
// Index 0 always matches.
func (r *CellResolver) matching(axis Axis, tags []string) []int {
	headers := r.headers.axes[axis]
	idx := []int{0}
	for i := 1; i < len(headers); i++ {
		if containsAll(tags, headers[i].Tags) {
			idx = append(idx, i)
		}
	}
	return idx
}
