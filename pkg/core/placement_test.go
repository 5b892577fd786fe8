package core

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func at(id string, row, col int) Instance {
	return Instance{NoteID: id, Row: row, Col: col}
}

func order(t *testing.T, b *Board, id string) float64 {
	t.Helper()
	n, ok := b.Note(id)
	require.True(t, ok, "note %s", id)
	return n.Order
}

func text(t *testing.T, b *Board, id string) string {
	t.Helper()
	n, ok := b.Note(id)
	require.True(t, ok, "note %s", id)
	return n.Text
}

func TestPlace_EmptyCell(t *testing.T) {
	b := newTestBoard(t)
	a := addNote(t, b, "A", 10)
	bb := addNote(t, b, "B", 11)
	c := addNote(t, b, "C", 12)

	out, err := b.Move([]Instance{at(a.ID, 0, 0), at(bb.ID, 0, 0), at(c.ID, 0, 0)}, Cell{1, 1}, 0)
	require.NoError(t, err)

	assert.Equal(t, 0.25, order(t, b, a.ID))
	assert.Equal(t, 1.5, order(t, b, bb.ID))
	assert.Equal(t, 2.75, order(t, b, c.ID))
	assert.Equal(t, []Instance{at(a.ID, 1, 1), at(bb.ID, 1, 1), at(c.ID, 1, 1)}, out)
	assert.Equal(t, []string{a.ID, bb.ID, c.ID}, idsOf(notesIn(t, b, 1, 1)))
	assert.Equal(t, "A #r1 #c1", text(t, b, a.ID))
}

func TestPlace_BeforeExisting(t *testing.T) {
	b := newTestBoard(t)
	x := addNote(t, b, "X #r1 #c1", 5)
	y := addNote(t, b, "Y", 0)

	_, err := b.Move([]Instance{at(y.ID, 0, 0)}, Cell{1, 1}, 0)
	require.NoError(t, err)

	assert.Equal(t, 4.0, order(t, b, y.ID))
	assert.Equal(t, 5.0, order(t, b, x.ID))
	assert.Equal(t, []string{y.ID, x.ID}, idsOf(notesIn(t, b, 1, 1)))
}

func TestPlace_TailAndBetween(t *testing.T) {
	b := newTestBoard(t)
	p := addNote(t, b, "P #r1 #c1", 1)
	q := addNote(t, b, "Q #r1 #c1", 2)
	m := addNote(t, b, "M", 0)
	z := addNote(t, b, "Z", 0)

	_, err := b.Move([]Instance{at(m.ID, 0, 0)}, Cell{1, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.5, order(t, b, m.ID))

	_, err = b.Move([]Instance{at(z.ID, 0, 0)}, Cell{1, 1}, 99)
	require.NoError(t, err)
	assert.Equal(t, 3.0, order(t, b, z.ID))

	assert.Equal(t, []string{p.ID, m.ID, q.ID, z.ID}, idsOf(notesIn(t, b, 1, 1)))
	assert.Equal(t, 1.0, order(t, b, p.ID))
	assert.Equal(t, 2.0, order(t, b, q.ID))
}

func TestPlace_Retag(t *testing.T) {
	testCases := []struct {
		name string
		from Cell
		to   Cell
		text string
		want string
	}{
		{"across both axes", Cell{1, 1}, Cell{2, 2}, "hello #r1 #c1", "hello #r2 #c2"},
		{"same row", Cell{1, 1}, Cell{1, 2}, "hello #r1 #c1", "hello #r1 #c2"},
		{"into the row margin", Cell{1, 1}, Cell{1, 0}, "hello #r1 #c1", "hello #r1"},
		{"reorder in place keeps text", Cell{1, 1}, Cell{1, 1}, "hello #r1  #c1 extra", "hello #r1  #c1 extra"},
		{"keeps unrelated tags", Cell{1, 1}, Cell{2, 1}, "#todo hello #r1 #c1", "#todo hello #c1 #r2"},
		{"keeps body layout", Cell{1, 1}, Cell{2, 2},
			"Plan #r1 #c1\n\n    code block\n\tindented\n- a  b",
			"Plan\n\n    code block\n\tindented\n- a  b #r2 #c2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBoard(t)
			n := addNote(t, b, tc.text, 1)
			_, err := b.Move([]Instance{at(n.ID, tc.from.Row, tc.from.Col)}, tc.to, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, text(t, b, n.ID))
			assert.Contains(t, idsOf(notesIn(t, b, tc.to.Row, tc.to.Col)), n.ID)
		})
	}
}

func TestPlace_Detach(t *testing.T) {
	b := newTestBoard(t)
	n := addNote(t, b, "hello #r1 #c1 #keep", 7)

	out, err := b.Detach([]Instance{at(n.ID, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, []Instance{at(n.ID, 0, 0)}, out)
	assert.Equal(t, "hello #keep", text(t, b, n.ID))
	assert.Equal(t, 7.0, order(t, b, n.ID))
	assert.Contains(t, idsOf(b.Orphans()), n.ID)
}

func TestPlace_RejectsWithoutMutation(t *testing.T) {
	b := newTestBoard(t)
	n := addNote(t, b, "hello #r1 #c1", 1)
	before := b.Serialize()

	_, err := b.Move([]Instance{at(n.ID, 1, 1)}, Cell{Row: 9, Col: 1}, 0)
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)

	_, err = b.Move([]Instance{at(n.ID, 1, 1), at("ghost", 0, 0)}, Cell{2, 2}, 0)
	require.ErrorIs(t, err, ErrNoteNotFound)

	_, err = b.Move([]Instance{at(n.ID, 1, 5)}, Cell{2, 2}, 0)
	require.ErrorAs(t, err, &oor)

	assert.Equal(t, before, b.Serialize())
}

func TestPlace_DuplicateInstances(t *testing.T) {
	b := newTestBoard(t)
	n := addNote(t, b, "hello #r1 #c1", 1)

	out, err := b.Move([]Instance{at(n.ID, 1, 1), at(n.ID, 0, 0)}, Cell{2, 2}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "hello #r2 #c2", text(t, b, n.ID))
}

func TestPlace_RenormalizesExhaustedInterval(t *testing.T) {
	b := newTestBoard(t)
	p := addNote(t, b, "P #r1 #c1", 1)
	q := addNote(t, b, "Q #r1 #c1", math.Nextafter(1, 2))
	other := addNote(t, b, "R #r2 #c2", math.Nextafter(1, 2))
	z := addNote(t, b, "Z", 0)

	_, err := b.Move([]Instance{at(z.ID, 0, 0)}, Cell{1, 1}, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{p.ID, z.ID, q.ID}, idsOf(notesIn(t, b, 1, 1)))
	assert.Equal(t, 1.0, order(t, b, p.ID))
	assert.Equal(t, 1.5, order(t, b, z.ID))
	assert.Equal(t, 2.0, order(t, b, q.ID))
	assert.Equal(t, math.Nextafter(1, 2), order(t, b, other.ID), "notes outside the cell keep their order")
}

func TestPlace_RenormalizesHugeOrders(t *testing.T) {
	b := newTestBoard(t)
	p := addNote(t, b, "P #r1 #c1", 1e300)
	q := addNote(t, b, "Q #r1 #c1", math.MaxFloat64)
	z := addNote(t, b, "Z", 0)

	_, err := b.Move([]Instance{at(z.ID, 0, 0)}, Cell{1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID, q.ID, z.ID}, idsOf(notesIn(t, b, 1, 1)))
	assert.Equal(t, 3.0, order(t, b, z.ID))
}

func TestSpread(t *testing.T) {
	got, err := spread(interval{lo: -1, hi: 4}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 1.5, 2.75}, got)

	_, err = spread(interval{lo: 2, hi: 2}, 1)
	assert.ErrorIs(t, err, errOrderExhausted)
	_, err = spread(interval{lo: 1, hi: math.Inf(1)}, 1)
	assert.ErrorIs(t, err, errOrderExhausted)
	_, err = spread(interval{lo: 1, hi: math.Nextafter(1, 2)}, 1)
	assert.ErrorIs(t, err, errOrderExhausted)
}

// randomBoard seeds a board with notes scattered over random cells.
func randomBoard(t *rapid.T) *Board {
	b := NewBoard(BoardConfig{
		Registry: RegistryConfig{MinHeaders: 1, IDs: seqIDs("id")},
		Clock:    fixedClock,
		SeedRows: []string{"R1 #r1", "R2 #r2", "R3 #r3"},
		SeedCols: []string{"C1 #c1", "C2 #c2"},
	})
	count := rapid.IntRange(0, 12).Draw(t, "notes")
	for i := range count {
		cell := Cell{
			Row: rapid.IntRange(0, 3).Draw(t, "row"),
			Col: rapid.IntRange(0, 2).Draw(t, "col"),
		}
		if _, err := b.CreateNote(cell, "note"); err != nil {
			t.Fatalf("create note %d: %v", i, err)
		}
	}
	return b
}

// randomMove draws a non-empty group of instances, a destination and an index.
func randomMove(t *rapid.T, b *Board) ([]Instance, Cell, int) {
	notes := b.Notes()
	picked := rapid.SliceOfNDistinct(rapid.IntRange(0, len(notes)-1), 1, len(notes), rapid.ID[int]).Draw(t, "picked")
	moved := make([]Instance, len(picked))
	for i, idx := range picked {
		cells, err := b.CellsOf(notes[idx].ID)
		if err != nil {
			t.Fatalf("cells of %s: %v", notes[idx].ID, err)
		}
		c := rapid.SampledFrom(cells).Draw(t, "from")
		moved[i] = Instance{NoteID: notes[idx].ID, Row: c.Row, Col: c.Col}
	}
	dest := Cell{Row: rapid.IntRange(0, 3).Draw(t, "destRow"), Col: rapid.IntRange(0, 2).Draw(t, "destCol")}
	index := rapid.IntRange(-1, len(notes)+1).Draw(t, "index")
	return moved, dest, index
}

func expectedOrder(t *rapid.T, b *Board, moved []Instance, dest Cell, index int) []string {
	before, err := b.NotesIn(dest)
	if err != nil {
		t.Fatalf("notes in %s: %v", dest, err)
	}
	skip := make(map[string]bool, len(moved))
	ids := make([]string, len(moved))
	for i, m := range moved {
		skip[m.NoteID] = true
		ids[i] = m.NoteID
	}
	var others []string
	for _, n := range before {
		if !skip[n.ID] {
			others = append(others, n.ID)
		}
	}
	index = min(max(index, 0), len(others))
	return slices.Insert(others, index, ids...)
}

func checkStrictlyIncreasing(t *rapid.T, notes []Note) {
	for i := 1; i < len(notes); i++ {
		if !(notes[i-1].Order < notes[i].Order) {
			t.Fatalf("orders not strictly increasing at %d: %v then %v", i, notes[i-1].Order, notes[i].Order)
		}
	}
}

func TestPlace_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := randomBoard(t)
		steps := rapid.IntRange(1, 6).Draw(t, "steps")
		for range steps {
			if b.notes.Len() == 0 {
				return
			}
			moved, dest, index := randomMove(t, b)
			want := expectedOrder(t, b, moved, dest, index)

			out, err := b.Move(moved, dest, index)
			if err != nil {
				t.Fatalf("move: %v", err)
			}
			got, _ := b.NotesIn(dest)
			if !slices.Equal(want, idsOf(got)) {
				t.Fatalf("visual order = %v, want %v", idsOf(got), want)
			}
			checkStrictlyIncreasing(t, got)

			// The k-th moved note holds the k-th smallest new order.
			for k := 1; k < len(out); k++ {
				prev, _ := b.Note(out[k-1].NoteID)
				cur, _ := b.Note(out[k].NoteID)
				if !(prev.Order < cur.Order) {
					t.Fatalf("moved group out of order at %d", k)
				}
			}

			// Placing again with the same arguments keeps the same visual order.
			if _, err := b.Move(out, dest, index); err != nil {
				t.Fatalf("repeat move: %v", err)
			}
			again, _ := b.NotesIn(dest)
			if !slices.Equal(want, idsOf(again)) {
				t.Fatalf("repeat visual order = %v, want %v", idsOf(again), want)
			}
		}
	})
}
