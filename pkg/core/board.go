package core

import (
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// DefaultMinHeaders is the usual minimum number of non-anchor headers per axis.
const DefaultMinHeaders = 1

// BoardConfig configures a Board.
type BoardConfig struct {
	Registry RegistryConfig
	Policy   OrphanPolicy
	Clock    func() time.Time
	Logger   *slog.Logger

	// SeedRows and SeedCols title the headers of a fresh board. Nil means one
	// "Row 1" and one "Column 1". Seeds are padded up to the minimum.
	SeedRows []string
	SeedCols []string
}

// TargetKind tells which kind of record an EditTarget points at.
type TargetKind int

const (
	NoteTarget TargetKind = iota + 1
	HeaderTarget
)

// EditTarget is the single note or header in live-edit mode.
type EditTarget struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
	Axis Axis       `json:"axis,omitempty"`
}

// NoteEdit targets the note with id.
func NoteEdit(id string) EditTarget {
	return EditTarget{Kind: NoteTarget, ID: id}
}

// HeaderEdit targets the header with id on axis.
func HeaderEdit(axis Axis, id string) EditTarget {
	return EditTarget{Kind: HeaderTarget, ID: id, Axis: axis}
}

// Board is the single owned store of a grid: headers, notes, the derived cell
// view, placement, selection and the current edit target.
//
// A Board is not safe for concurrent use. Every method runs to completion and
// leaves the board unchanged when it returns an error; Service adds locking.
type Board struct {
	headers   *HeaderRegistry
	notes     *NoteStore
	resolver  *CellResolver
	engine    *PlacementEngine
	selection *SelectionController
	policy    OrphanPolicy
	logger    *slog.Logger

	editing *EditTarget
	draft   string
}

// NewBoard creates a seeded board.
func NewBoard(cfg BoardConfig) *Board {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Policy == nil {
		cfg.Policy = LeaveOrphans{}
	}
	if cfg.Registry.IDs == nil {
		cfg.Registry.IDs = NewID
	}
	headers := NewHeaderRegistry(cfg.Registry)
	notes := NewNoteStore(cfg.Registry.IDs, cfg.Clock)
	resolver := NewCellResolver(headers, notes)
	engine := NewPlacementEngine(resolver, notes, cfg.Logger)
	b := &Board{
		headers:   headers,
		notes:     notes,
		resolver:  resolver,
		engine:    engine,
		selection: NewSelectionController(engine),
		policy:    cfg.Policy,
		logger:    cfg.Logger,
	}
	b.seed(Rows, cfg.SeedRows, "Row")
	b.seed(Cols, cfg.SeedCols, "Column")
	return b
}

func (b *Board) seed(axis Axis, titles []string, word string) {
	if titles == nil {
		titles = []string{word + " 1"}
	}
	titles = slices.Clone(titles)
	for i := len(titles); i < b.headers.MinHeaders(); i++ {
		titles = append(titles, fmt.Sprintf("%s %d", word, i+1))
	}
	for _, t := range titles {
		_, _ = b.headers.Insert(axis, b.headers.Len(axis), t)
	}
}

// Policy returns the orphan policy in effect.
func (b *Board) Policy() OrphanPolicy {
	return b.policy
}

// MinHeaders returns the minimum number of non-anchor headers per axis.
func (b *Board) MinHeaders() int {
	return b.headers.MinHeaders()
}

// --- Queries ---

func (b *Board) Len(axis Axis) int {
	return b.headers.Len(axis)
}

func (b *Board) Headers(axis Axis) []Header {
	return b.headers.Headers(axis)
}

func (b *Board) Header(axis Axis, index int) (Header, error) {
	return b.headers.Header(axis, index)
}

func (b *Board) IndexOf(axis Axis, id string) int {
	return b.headers.IndexOf(axis, id)
}

func (b *Board) Note(id string) (Note, bool) {
	return b.notes.Get(id)
}

// Notes returns every note sorted by order.
func (b *Board) Notes() []Note {
	return b.notes.All()
}

func (b *Board) TagsOf(cell Cell) ([]string, error) {
	return b.resolver.TagsOf(cell)
}

// NotesIn returns the notes of cell in display order.
func (b *Board) NotesIn(cell Cell) ([]Note, error) {
	return b.resolver.NotesIn(cell)
}

func (b *Board) CellsOf(noteID string) ([]Cell, error) {
	return b.resolver.CellsOf(noteID)
}

func (b *Board) Orphans() []Note {
	return b.resolver.Orphans()
}

func (b *Board) NotesMatching(pattern string) ([]Note, error) {
	return b.resolver.NotesMatching(pattern)
}

// DisplayText returns the text of a note without its tags.
func (b *Board) DisplayText(noteID string) (string, error) {
	n, ok := b.notes.Get(noteID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	}
	return DisplayText(n.Text), nil
}

// Selection returns the current selection state.
func (b *Board) Selection() SelectionState {
	return b.selection.State()
}

// Editing returns the current edit target, if any.
func (b *Board) Editing() (EditTarget, bool) {
	if b.editing == nil {
		return EditTarget{}, false
	}
	return *b.editing, true
}

// Draft returns the buffered title of the header being edited.
func (b *Board) Draft() string {
	return b.draft
}

// --- Presentation events ---

// Click selects or toggles inst.
func (b *Board) Click(inst Instance, multi bool) error {
	if err := b.checkInstance(inst); err != nil {
		return err
	}
	b.selection.Click(inst, multi)
	return nil
}

// DoubleClickCell creates an empty note at the end of cell and starts editing it.
// If it is blurred while still empty it is deleted again.
func (b *Board) DoubleClickCell(cell Cell) (Note, error) {
	if _, err := b.resolver.TagsOf(cell); err != nil {
		return Note{}, err
	}
	if err := b.commit(); err != nil {
		return Note{}, err
	}
	n, err := b.engine.Append(cell, "")
	if err != nil {
		return Note{}, err
	}
	b.startEdit(NoteEdit(n.ID), "")
	return n, nil
}

// DoubleClickHeader starts editing the title of a header.
func (b *Board) DoubleClickHeader(axis Axis, index int) error {
	h, err := b.editableHeader(axis, index)
	if err != nil {
		return err
	}
	if err := b.commit(); err != nil {
		return err
	}
	b.startEdit(HeaderEdit(axis, h.ID), h.Title)
	return nil
}

// DragStart begins dragging inst together with the selection it belongs to.
func (b *Board) DragStart(inst Instance) error {
	if err := b.checkInstance(inst); err != nil {
		return err
	}
	b.selection.DragStart(inst)
	return nil
}

// DragEnd drops the dragged selection at index of dest. A nil dest cancels
// the drag and keeps the selection.
func (b *Board) DragEnd(dest *Cell, index int) ([]Instance, error) {
	moved, err := b.selection.DragEnd(dest, index)
	if err != nil {
		b.logger.Warn("drop rejected", "cell", dest.String(), "error", err)
		return nil, err
	}
	return moved, nil
}

// TextChanged applies a text edit to target, making it the edit target first
// if it is not already. Note text changes apply immediately; header titles are
// buffered until blur.
func (b *Board) TextChanged(target EditTarget, value string) error {
	if b.editing == nil || *b.editing != target {
		if err := b.checkTarget(target); err != nil {
			return err
		}
		if err := b.commit(); err != nil {
			return err
		}
		b.startEdit(target, "")
	}
	switch target.Kind {
	case NoteTarget:
		return b.notes.SetText(target.ID, value)
	default:
		b.draft = value
		return nil
	}
}

// Blur ends the edit of target. A note left without display text is deleted;
// a header draft is committed as its new title.
func (b *Board) Blur(target EditTarget) error {
	if b.editing == nil || *b.editing != target {
		return nil
	}
	return b.commit()
}

func (b *Board) startEdit(target EditTarget, draft string) {
	b.editing = &target
	b.draft = draft
}

// commit ends the current edit, if any. The edit target is cleared even when
// committing fails.
func (b *Board) commit() error {
	if b.editing == nil {
		return nil
	}
	target, draft := *b.editing, b.draft
	b.editing, b.draft = nil, ""

	switch target.Kind {
	case NoteTarget:
		n, ok := b.notes.Get(target.ID)
		if !ok || DisplayText(n.Text) != "" {
			return nil
		}
		return b.RemoveNote(n.ID)
	default:
		idx := b.headers.IndexOf(target.Axis, target.ID)
		if idx < 0 {
			return nil
		}
		h, err := b.headers.Header(target.Axis, idx)
		if err != nil || h.Title == draft {
			return err
		}
		_, err = b.SetHeaderTitle(target.Axis, idx, draft)
		return err
	}
}

func (b *Board) checkInstance(inst Instance) error {
	if _, ok := b.notes.Get(inst.NoteID); !ok {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, inst.NoteID)
	}
	_, err := b.resolver.TagsOf(inst.Cell())
	return err
}

func (b *Board) checkTarget(target EditTarget) error {
	switch target.Kind {
	case NoteTarget:
		if _, ok := b.notes.Get(target.ID); !ok {
			return fmt.Errorf("%w: %s", ErrNoteNotFound, target.ID)
		}
		return nil
	case HeaderTarget:
		idx := b.headers.IndexOf(target.Axis, target.ID)
		if idx < 0 {
			return &OutOfRangeError{Axis: target.Axis, Index: idx, Len: b.headers.Len(target.Axis)}
		}
		_, err := b.editableHeader(target.Axis, idx)
		return err
	default:
		return fmt.Errorf("unknown edit target kind %d", target.Kind)
	}
}

func (b *Board) editableHeader(axis Axis, index int) (Header, error) {
	h, err := b.headers.Header(axis, index)
	if err != nil {
		return Header{}, err
	}
	if index == 0 {
		return Header{}, &InvariantViolation{Reason: fmt.Sprintf("the anchor %s cannot be retitled", axis)}
	}
	return h, nil
}

// --- Direct operations ---

// InsertHeader creates a header titled title at index (1..Len).
func (b *Board) InsertHeader(axis Axis, index int, title string) (Header, error) {
	h, err := b.headers.Insert(axis, index, title)
	if err != nil {
		return Header{}, err
	}
	b.selection.reindex(axis, func(i int) (int, bool) {
		if i >= index {
			return i + 1, true
		}
		return i, true
	})
	b.logger.Info("header inserted", "axis", axis.String(), "index", index, "id", h.ID, "tags", h.Tags)
	return h, nil
}

// RemoveHeader removes the header at index after consulting the orphan policy.
func (b *Board) RemoveHeader(axis Axis, index int) (Header, error) {
	if err := b.headers.CanRemove(axis, index); err != nil {
		return Header{}, err
	}
	h, err := b.headers.Header(axis, index)
	if err != nil {
		return Header{}, err
	}
	if err := b.policy.BeforeRemove(b.notes, h); err != nil {
		b.logger.Warn("header removal rejected", "axis", axis.String(), "index", index, "error", err)
		return Header{}, err
	}
	if _, err := b.headers.Remove(axis, index); err != nil {
		return Header{}, err
	}
	if b.editing != nil && b.editing.Kind == HeaderTarget && b.editing.ID == h.ID {
		b.editing, b.draft = nil, ""
	}
	b.selection.reindex(axis, func(i int) (int, bool) {
		switch {
		case i == index:
			return 0, false
		case i > index:
			return i - 1, true
		default:
			return i, true
		}
	})
	b.logger.Info("header removed", "axis", axis.String(), "index", index, "id", h.ID)
	return h, nil
}

// SetHeaderTitle retitles the header at index, re-deriving its tags, after
// consulting the orphan policy.
func (b *Board) SetHeaderTitle(axis Axis, index int, title string) (Header, error) {
	old, err := b.headers.Header(axis, index)
	if err != nil {
		return Header{}, err
	}
	updated, err := b.headers.prepareTitle(axis, index, title)
	if err != nil {
		return Header{}, err
	}
	if err := b.policy.BeforeRetitle(b.notes, old, updated); err != nil {
		b.logger.Warn("header retitle rejected", "axis", axis.String(), "index", index, "error", err)
		return Header{}, err
	}
	b.headers.commitTitle(axis, index, updated)
	b.logger.Info("header retitled", "axis", axis.String(), "index", index, "tags", updated.Tags)
	return updated.clone(), nil
}

// CreateNote appends a note holding text to cell.
func (b *Board) CreateNote(cell Cell, text string) (Note, error) {
	return b.engine.Append(cell, text)
}

// EditNote replaces a note's text. If the new text has no display text left
// the note is deleted and removed reports true.
func (b *Board) EditNote(id, text string) (removed bool, err error) {
	if _, ok := b.notes.Get(id); !ok {
		return false, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	if DisplayText(text) == "" {
		return true, b.RemoveNote(id)
	}
	return false, b.notes.SetText(id, text)
}

// RemoveNote hard-deletes a note.
func (b *Board) RemoveNote(id string) error {
	if err := b.notes.Delete(id); err != nil {
		return err
	}
	b.selection.Forget(id)
	if b.editing != nil && b.editing.Kind == NoteTarget && b.editing.ID == id {
		b.editing, b.draft = nil, ""
	}
	b.logger.Debug("note removed", "id", id)
	return nil
}

// Move places instances at index of dest without going through a drag.
// Selected instances of the moved notes follow them to dest.
func (b *Board) Move(instances []Instance, dest Cell, index int) ([]Instance, error) {
	out, err := b.engine.Place(instances, &dest, index)
	if err != nil {
		return nil, err
	}
	b.selection.retarget(out)
	return out, nil
}

// Detach strips the tags of each instance's cell from its note, keeping the
// note and its order. Selected instances of the detached notes move to the
// anchor cell.
func (b *Board) Detach(instances []Instance) ([]Instance, error) {
	out, err := b.engine.Place(instances, nil, 0)
	if err != nil {
		return nil, err
	}
	b.selection.retarget(out)
	return out, nil
}

// --- Persistence ---

// Serialize returns a snapshot of the board.
func (b *Board) Serialize() Snapshot {
	notes := make(map[string]Note, b.notes.Len())
	for _, n := range b.notes.All() {
		notes[n.ID] = n
	}
	return Snapshot{
		Rows:  b.headers.Headers(Rows),
		Cols:  b.headers.Headers(Cols),
		Notes: notes,
	}
}

// Load replaces the whole board with s. Nothing is replaced unless s is valid.
// Selection and edit state are reset.
func (b *Board) Load(s Snapshot) error {
	if err := s.Validate(b.headers.MinHeaders()); err != nil {
		return err
	}
	s = s.Clone()
	b.headers.replace(s.Rows, s.Cols)
	b.notes.replace(s.Notes)
	b.selection.Clear()
	b.editing, b.draft = nil, ""
	b.logger.Info("board loaded", "rows", len(s.Rows)-1, "cols", len(s.Cols)-1, "notes", len(s.Notes))
	return nil
}

// checkpoint is a full copy of the board, including selection and edit state.
type checkpoint struct {
	snap     Snapshot
	selected []Instance
	dragging bool
	editing  *EditTarget
	draft    string
}

func (b *Board) checkpoint() checkpoint {
	c := checkpoint{
		snap:     b.Serialize(),
		selected: b.selection.Selected(),
		dragging: b.selection.dragging,
		draft:    b.draft,
	}
	if b.editing != nil {
		target := *b.editing
		c.editing = &target
	}
	return c
}

// rollback returns the board to c. The snapshot is trusted, having come from
// the board itself.
func (b *Board) rollback(c checkpoint) {
	b.headers.replace(c.snap.Rows, c.snap.Cols)
	b.notes.replace(c.snap.Notes)
	b.selection.selected = c.selected
	b.selection.dragging = c.dragging
	b.editing, b.draft = c.editing, c.draft
}

// BoardState summarizes a board for observability.
type BoardState struct {
	Rows      int            `json:"rows"`
	Cols      int            `json:"cols"`
	Notes     int            `json:"notes"`
	Orphans   int            `json:"orphans"`
	Policy    string         `json:"policy"`
	Selection SelectionState `json:"selection"`
	Editing   *EditTarget    `json:"editing,omitempty"`
}

// State returns a summary of the board.
func (b *Board) State() BoardState {
	st := BoardState{
		Rows:      b.headers.Len(Rows) - 1,
		Cols:      b.headers.Len(Cols) - 1,
		Notes:     b.notes.Len(),
		Orphans:   len(b.resolver.Orphans()),
		Policy:    b.policy.Name(),
		Selection: b.selection.State(),
	}
	if b.editing != nil {
		t := *b.editing
		st.Editing = &t
	}
	return st
}
