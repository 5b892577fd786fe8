package core

import (
	"fmt"
	"sort"
	"time"
)

// Note is a free-text item. Its cell membership is derived from the tags in
// Text; Order is a dense rank used only to sort notes inside a cell.
type Note struct {
	ID        string  `json:"id" yaml:"id"`
	CreatedAt int64   `json:"createdAt" yaml:"createdAt"` // unix milliseconds
	Text      string  `json:"text" yaml:"text"`
	Order     float64 `json:"order" yaml:"order"`
}

// Tags returns the tags embedded in the note text.
func (n Note) Tags() []string {
	return ExtractTags(n.Text)
}

// NoteStore owns note records keyed by id.
// Reads return copies so callers cannot bypass the store.
type NoteStore struct {
	notes map[string]*Note
	ids   IDGenerator
	now   func() time.Time
}

// NewNoteStore creates an empty store.
func NewNoteStore(ids IDGenerator, now func() time.Time) *NoteStore {
	if ids == nil {
		ids = NewID
	}
	if now == nil {
		now = time.Now
	}
	return &NoteStore{
		notes: make(map[string]*Note),
		ids:   ids,
		now:   now,
	}
}

// Create stores a new note and returns it.
func (s *NoteStore) Create(text string, order float64) Note {
	n := &Note{
		ID:        s.ids(),
		CreatedAt: s.now().UnixMilli(),
		Text:      text,
		Order:     order,
	}
	s.notes[n.ID] = n
	return *n
}

// Get returns the note with id.
func (s *NoteStore) Get(id string) (Note, bool) {
	n, ok := s.notes[id]
	if !ok {
		return Note{}, false
	}
	return *n, true
}

// SetText replaces the text of a note.
func (s *NoteStore) SetText(id, text string) error {
	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	n.Text = text
	return nil
}

// SetOrder replaces the order of a note.
func (s *NoteStore) SetOrder(id string, order float64) error {
	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	n.Order = order
	return nil
}

// Delete removes a note record.
func (s *NoteStore) Delete(id string) error {
	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	delete(s.notes, id)
	return nil
}

// All returns every note sorted by order.
func (s *NoteStore) All() []Note {
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, *n)
	}
	sortByOrder(out)
	return out
}

// Len returns the number of notes.
func (s *NoteStore) Len() int {
	return len(s.notes)
}

func (s *NoteStore) replace(notes map[string]Note) {
	s.notes = make(map[string]*Note, len(notes))
	for id, n := range notes {
		note := n
		s.notes[id] = &note
	}
}

// sortByOrder sorts ascending by order. Equal orders fall back to id so the
// result is deterministic; ties inside a placed cell never happen at rest.
func sortByOrder(notes []Note) {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Order != notes[j].Order {
			return notes[i].Order < notes[j].Order
		}
		return notes[i].ID < notes[j].ID
	})
}
