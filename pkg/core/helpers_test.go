package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedClock = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

// seqIDs returns a deterministic generator: prefix1, prefix2, ...
func seqIDs(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// newTestBoard returns a board with rows #r1, #r2 and columns #c1, #c2.
func newTestBoard(t testing.TB, mutate ...func(*BoardConfig)) *Board {
	t.Helper()
	cfg := BoardConfig{
		Registry: RegistryConfig{MinHeaders: DefaultMinHeaders, IDs: seqIDs("id")},
		Clock:    fixedClock,
		SeedRows: []string{"Todo #r1", "People #r2"},
		SeedCols: []string{"Alice #c1", "Bob #c2"},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewBoard(cfg)
}

// addNote stores a note directly, bypassing placement.
func addNote(t testing.TB, b *Board, text string, order float64) Note {
	t.Helper()
	n := b.notes.Create(text, order)
	_, ok := b.notes.Get(n.ID)
	require.True(t, ok)
	return n
}

func idsOf(notes []Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func notesIn(t testing.TB, b *Board, row, col int) []Note {
	t.Helper()
	notes, err := b.NotesIn(Cell{Row: row, Col: col})
	require.NoError(t, err)
	return notes
}
