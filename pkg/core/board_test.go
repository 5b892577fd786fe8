package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewBoard_Seeds(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		b := NewBoard(BoardConfig{})
		require.Equal(t, 2, b.Len(Rows))
		require.Equal(t, 2, b.Len(Cols))
		row, _ := b.Header(Rows, 1)
		col, _ := b.Header(Cols, 1)
		assert.Equal(t, "Row 1", row.DisplayTitle())
		assert.Equal(t, "Column 1", col.DisplayTitle())
		assert.Equal(t, "orphan", b.Policy().Name())
	})

	t.Run("padded to minimum", func(t *testing.T) {
		b := NewBoard(BoardConfig{
			Registry: RegistryConfig{MinHeaders: 3},
			SeedRows: []string{"Todo"},
		})
		rows := b.Headers(Rows)
		require.Len(t, rows, 4)
		assert.Equal(t, "Todo", rows[1].DisplayTitle())
		assert.Equal(t, "Row 3", rows[3].DisplayTitle())
		assert.Equal(t, 4, b.Len(Cols))
	})
}

func TestBoard_DragFlow(t *testing.T) {
	b := newTestBoard(t)
	n1 := addNote(t, b, "one #r1 #c1", 1)
	n2 := addNote(t, b, "two #r1 #c2", 1)

	require.NoError(t, b.Click(at(n1.ID, 1, 1), true))
	require.NoError(t, b.Click(at(n2.ID, 1, 2), true))
	require.NoError(t, b.DragStart(at(n1.ID, 1, 1)))

	moved, err := b.DragEnd(&Cell{Row: 2, Col: 2}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Instance{at(n1.ID, 2, 2), at(n2.ID, 2, 2)}, moved)
	assert.Equal(t, []string{n1.ID, n2.ID}, idsOf(notesIn(t, b, 2, 2)))
	assert.Equal(t, "one #r2 #c2", text(t, b, n1.ID))
	assert.Equal(t, "two #c2 #r2", text(t, b, n2.ID))
	assert.Equal(t, "empty", b.Selection().State)
}

func TestBoard_MoveRetargetsSelection(t *testing.T) {
	b := newTestBoard(t)
	a := addNote(t, b, "A #r1 #c1", 1)
	other := addNote(t, b, "B #r2 #c1", 1)
	require.NoError(t, b.Click(at(a.ID, 1, 1), true))
	require.NoError(t, b.Click(at(other.ID, 2, 1), true))

	_, err := b.Move([]Instance{at(a.ID, 1, 1)}, Cell{Row: 2, Col: 2}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Instance{at(a.ID, 2, 2), at(other.ID, 2, 1)}, b.Selection().Instances)

	require.NoError(t, b.Click(at(other.ID, 2, 1), true))
	require.NoError(t, b.DragStart(at(a.ID, 2, 2)))
	_, err = b.DragEnd(&Cell{Row: 1, Col: 2}, 0)
	require.NoError(t, err)
	assert.Equal(t, "A #c2 #r1", text(t, b, a.ID))
	assert.Empty(t, notesIn(t, b, 2, 2))

	cells, err := b.CellsOf(a.ID)
	require.NoError(t, err)
	assert.NotContains(t, cells, Cell{Row: 2, Col: 2})
}

func TestBoard_DetachRetargetsSelection(t *testing.T) {
	b := newTestBoard(t)
	a := addNote(t, b, "A #r1 #c1", 1)
	require.NoError(t, b.Click(at(a.ID, 1, 1), false))

	_, err := b.Detach([]Instance{at(a.ID, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, []Instance{at(a.ID, 0, 0)}, b.Selection().Instances)
}

func TestBoard_DragCancelled(t *testing.T) {
	b := newTestBoard(t)
	n := addNote(t, b, "one #r1 #c1", 1)
	before := b.Serialize()

	require.NoError(t, b.DragStart(at(n.ID, 1, 1)))
	moved, err := b.DragEnd(nil, 0)
	require.NoError(t, err)
	assert.Nil(t, moved)
	assert.Equal(t, before, b.Serialize())
	assert.Equal(t, []Instance{at(n.ID, 1, 1)}, b.Selection().Instances)
}

func TestBoard_DragOutOfRange(t *testing.T) {
	b := newTestBoard(t)
	n := addNote(t, b, "one #r1 #c1", 1)
	before := b.Serialize()

	require.NoError(t, b.DragStart(at(n.ID, 1, 1)))
	_, err := b.DragEnd(&Cell{Row: 1, Col: 9}, 0)
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, before, b.Serialize())
	assert.Equal(t, "empty", b.Selection().State)
}

func TestBoard_ClickRejectsUnknown(t *testing.T) {
	b := newTestBoard(t)
	assert.ErrorIs(t, b.Click(at("ghost", 1, 1), false), ErrNoteNotFound)

	n := addNote(t, b, "x", 1)
	var oor *OutOfRangeError
	assert.ErrorAs(t, b.DragStart(at(n.ID, 7, 0)), &oor)
}

func TestBoard_NoteEditing(t *testing.T) {
	t.Run("new empty note is deleted on blur", func(t *testing.T) {
		b := newTestBoard(t)
		n, err := b.DoubleClickCell(Cell{Row: 1, Col: 2})
		require.NoError(t, err)
		assert.Equal(t, "#r1 #c2", n.Text)

		target, ok := b.Editing()
		require.True(t, ok)
		assert.Equal(t, NoteEdit(n.ID), target)

		require.NoError(t, b.Blur(target))
		_, ok = b.Note(n.ID)
		assert.False(t, ok)
		_, ok = b.Editing()
		assert.False(t, ok)
	})

	t.Run("text applies live and survives blur", func(t *testing.T) {
		b := newTestBoard(t)
		n, err := b.DoubleClickCell(Cell{Row: 1, Col: 2})
		require.NoError(t, err)

		require.NoError(t, b.TextChanged(NoteEdit(n.ID), "buy milk #r1 #c2"))
		assert.Equal(t, "buy milk #r1 #c2", text(t, b, n.ID))
		require.NoError(t, b.Blur(NoteEdit(n.ID)))
		assert.Equal(t, []string{n.ID}, idsOf(notesIn(t, b, 1, 2)))
	})

	t.Run("new edit commits the previous one", func(t *testing.T) {
		b := newTestBoard(t)
		first, err := b.DoubleClickCell(Cell{Row: 1, Col: 1})
		require.NoError(t, err)
		second, err := b.DoubleClickCell(Cell{Row: 2, Col: 2})
		require.NoError(t, err)

		_, ok := b.Note(first.ID)
		assert.False(t, ok, "empty note should be deleted when the next edit starts")
		target, _ := b.Editing()
		assert.Equal(t, second.ID, target.ID)
	})

	t.Run("blur of a stale target is ignored", func(t *testing.T) {
		b := newTestBoard(t)
		n, err := b.DoubleClickCell(Cell{Row: 1, Col: 1})
		require.NoError(t, err)
		require.NoError(t, b.Blur(NoteEdit("other")))
		_, ok := b.Note(n.ID)
		assert.True(t, ok)
	})

	t.Run("new notes go to the end of the cell", func(t *testing.T) {
		b := newTestBoard(t)
		x := addNote(t, b, "x #r1 #c1", 5)
		n, err := b.DoubleClickCell(Cell{Row: 1, Col: 1})
		require.NoError(t, err)
		assert.Equal(t, 6.0, n.Order)
		assert.Equal(t, []string{x.ID, n.ID}, idsOf(notesIn(t, b, 1, 1)))
	})
}

func TestBoard_HeaderEditing(t *testing.T) {
	b := newTestBoard(t)
	n := addNote(t, b, "task #r1 #c1", 1)
	row, _ := b.Header(Rows, 1)

	require.NoError(t, b.DoubleClickHeader(Rows, 1))
	assert.Equal(t, "Todo #r1", b.Draft())

	target := HeaderEdit(Rows, row.ID)
	require.NoError(t, b.TextChanged(target, "Doing"))
	require.NoError(t, b.TextChanged(target, "Doing #doing"))

	unchanged, _ := b.Header(Rows, 1)
	assert.Equal(t, []string{"#r1"}, unchanged.Tags, "header drafts are buffered until blur")

	require.NoError(t, b.Blur(target))
	updated, _ := b.Header(Rows, 1)
	assert.Equal(t, row.ID, updated.ID)
	assert.Equal(t, []string{"#doing"}, updated.Tags)

	assert.Empty(t, notesIn(t, b, 1, 1), "notes keep stale tags under the default policy")
	cells, err := b.CellsOf(n.ID)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{0, 0}, {0, 1}}, cells)

	var iv *InvariantViolation
	assert.ErrorAs(t, b.DoubleClickHeader(Cols, 0), &iv)
	assert.ErrorAs(t, b.TextChanged(HeaderEdit(Rows, b.Headers(Rows)[0].ID), "x"), &iv)
}

func TestBoard_OrphanPolicies(t *testing.T) {
	t.Run("block", func(t *testing.T) {
		b := newTestBoard(t, func(c *BoardConfig) { c.Policy = BlockReferenced{} })
		addNote(t, b, "task #r1 #c1", 1)
		before := b.Serialize()

		_, err := b.SetHeaderTitle(Rows, 1, "Doing")
		var iv *InvariantViolation
		require.ErrorAs(t, err, &iv)
		_, err = b.RemoveHeader(Rows, 1)
		require.ErrorAs(t, err, &iv)
		assert.Equal(t, before, b.Serialize())

		_, err = b.SetHeaderTitle(Rows, 1, "Renamed #r1")
		require.NoError(t, err, "same tag set is not a reference change")
		_, err = b.RemoveHeader(Rows, 2)
		require.NoError(t, err)
	})

	t.Run("cascade", func(t *testing.T) {
		b := newTestBoard(t, func(c *BoardConfig) { c.Policy = CascadeRetag{} })
		n := addNote(t, b, "task #r1 #c1", 1)
		other := addNote(t, b, "other #r2 #c1", 2)

		_, err := b.SetHeaderTitle(Rows, 1, "Doing #doing")
		require.NoError(t, err)
		assert.Equal(t, "task #c1 #doing", text(t, b, n.ID))
		assert.Equal(t, "other #r2 #c1", text(t, b, other.ID))
		assert.Equal(t, []string{n.ID}, idsOf(notesIn(t, b, 1, 1)))

		_, err = b.RemoveHeader(Rows, 1)
		require.NoError(t, err)
		cells, err := b.CellsOf(n.ID)
		require.NoError(t, err)
		assert.Equal(t, []Cell{{0, 0}, {0, 1}}, cells)
	})

	t.Run("by name", func(t *testing.T) {
		for _, name := range []string{"orphan", "block", "cascade", ""} {
			p, err := PolicyByName(name)
			require.NoError(t, err)
			assert.NotNil(t, p)
		}
		_, err := PolicyByName("delete")
		assert.Error(t, err)
	})
}

func TestBoard_HeadersShiftSelection(t *testing.T) {
	b := newTestBoard(t)
	n := addNote(t, b, "x #r2 #c1", 1)
	require.NoError(t, b.Click(at(n.ID, 2, 1), false))

	_, err := b.InsertHeader(Rows, 1, "New")
	require.NoError(t, err)
	assert.Equal(t, []Instance{at(n.ID, 3, 1)}, b.Selection().Instances)

	_, err = b.RemoveHeader(Rows, 3)
	require.NoError(t, err)
	assert.Equal(t, "empty", b.Selection().State)
}

func TestBoard_EditAndRemoveNote(t *testing.T) {
	b := newTestBoard(t)
	n, err := b.CreateNote(Cell{Row: 2, Col: 1}, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello #r2 #c1", n.Text)

	removed, err := b.EditNote(n.ID, "hello again #r2 #c1")
	require.NoError(t, err)
	assert.False(t, removed)

	display, err := b.DisplayText(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello again", display)

	require.NoError(t, b.Click(at(n.ID, 2, 1), false))
	removed, err = b.EditNote(n.ID, "  #r2 #c1 ")
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok := b.Note(n.ID)
	assert.False(t, ok)
	assert.Equal(t, "empty", b.Selection().State)

	assert.ErrorIs(t, b.RemoveNote(n.ID), ErrNoteNotFound)
	_, err = b.EditNote("ghost", "x")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestBoard_RemoveHeaderAtMinimum(t *testing.T) {
	b := newTestBoard(t)
	_, err := b.RemoveHeader(Cols, 2)
	require.NoError(t, err)

	before := b.Headers(Cols)
	_, err = b.RemoveHeader(Cols, 1)
	var iv *InvariantViolation
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, before, b.Headers(Cols))
}

func TestBoard_Load(t *testing.T) {
	valid := func(t *testing.T) Snapshot {
		b := newTestBoard(t)
		addNote(t, b, "x #r1 #c1", 1)
		return b.Serialize()
	}

	testCases := []struct {
		name   string
		mutate func(s *Snapshot)
	}{
		{"missing rows", func(s *Snapshot) { s.Rows = nil }},
		{"missing cols", func(s *Snapshot) { s.Cols = nil }},
		{"missing notes", func(s *Snapshot) { s.Notes = nil }},
		{"no anchor", func(s *Snapshot) { s.Rows = []Header{} }},
		{"tagged anchor", func(s *Snapshot) { s.Cols[0].Tags = []string{"#x"} }},
		{"below minimum", func(s *Snapshot) { s.Cols = s.Cols[:1] }},
		{"header without tags", func(s *Snapshot) { s.Rows[1].Tags = nil }},
		{"tags disagree with title", func(s *Snapshot) { s.Rows[1].Tags = []string{"#other"} }},
		{"malformed tag", func(s *Snapshot) { s.Rows[1].Tags = []string{"r1"} }},
		{"duplicate header id", func(s *Snapshot) { s.Cols[1].ID = s.Rows[1].ID }},
		{"note key mismatch", func(s *Snapshot) {
			for k, n := range s.Notes {
				n.ID = "other"
				s.Notes[k] = n
			}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBoard(t)
			keep := addNote(t, b, "keep #r2 #c2", 1)
			before := b.Serialize()

			s := valid(t)
			tc.mutate(&s)
			err := b.Load(s)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, before, b.Serialize())
			_, ok := b.Note(keep.ID)
			assert.True(t, ok)
		})
	}

	t.Run("replaces state and resets interaction", func(t *testing.T) {
		b := newTestBoard(t)
		n := addNote(t, b, "mine #r1 #c1", 1)
		require.NoError(t, b.Click(at(n.ID, 1, 1), false))

		s := valid(t)
		require.NoError(t, b.Load(s))
		assert.Equal(t, s, b.Serialize())
		assert.Equal(t, "empty", b.Selection().State)
	})
}

func TestBoard_RoundTrip_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := randomBoard(t)
		if b.notes.Len() > 0 && rapid.Bool().Draw(t, "move") {
			moved, dest, index := randomMove(t, b)
			if _, err := b.Move(moved, dest, index); err != nil {
				t.Fatalf("move: %v", err)
			}
		}
		if rapid.Bool().Draw(t, "retitle") {
			if _, err := b.SetHeaderTitle(Cols, 1, rapid.StringMatching(`[a-z ]{0,10}`).Draw(t, "title")); err != nil {
				t.Fatalf("retitle: %v", err)
			}
		}

		snap := b.Serialize()
		fresh := NewBoard(BoardConfig{Registry: RegistryConfig{MinHeaders: 1}})
		if err := fresh.Load(snap); err != nil {
			t.Fatalf("load: %v", err)
		}
		got := fresh.Serialize()
		for _, axis := range []Axis{Rows, Cols} {
			assert.Equal(t, b.Headers(axis), fresh.Headers(axis))
		}
		assert.Equal(t, snap, got)
	})
}

func TestBoard_State(t *testing.T) {
	b := newTestBoard(t)
	addNote(t, b, "stale #gone", 1)
	n, err := b.DoubleClickCell(Cell{Row: 1, Col: 1})
	require.NoError(t, err)

	st := b.State()
	assert.Equal(t, 2, st.Rows)
	assert.Equal(t, 2, st.Cols)
	assert.Equal(t, 2, st.Notes)
	assert.Equal(t, 1, st.Orphans)
	require.NotNil(t, st.Editing)
	assert.Equal(t, n.ID, st.Editing.ID)
}
