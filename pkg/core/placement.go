package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Instance identifies a note through the cell occurrence it was interacted
// with. A note may satisfy several cells at once, so the cell matters.
type Instance struct {
	NoteID string `json:"noteId" yaml:"noteId"`
	Row    int    `json:"row" yaml:"row"`
	Col    int    `json:"col" yaml:"col"`
}

// Cell returns the cell the instance was reached through.
func (i Instance) Cell() Cell {
	return Cell{Row: i.Row, Col: i.Col}
}

// Placer moves note instances into a destination cell.
type Placer interface {
	Place(moved []Instance, dest *Cell, index int) ([]Instance, error)
}

// PlacementEngine reorders and moves notes with fractional orders: only the
// moved notes receive new orders, every other note keeps its own.
type PlacementEngine struct {
	resolver *CellResolver
	notes    *NoteStore
	logger   *slog.Logger
}

// NewPlacementEngine creates an engine over the given resolver and store.
func NewPlacementEngine(resolver *CellResolver, notes *NoteStore, logger *slog.Logger) *PlacementEngine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PlacementEngine{resolver: resolver, notes: notes, logger: logger}
}

// Place moves the notes of moved into dest so that they appear, in input
// order, starting at visual index among the cell's other notes.
//
// Each moved note loses the tags of the cell it was reached through and gains
// the tags of dest. A nil dest detaches instead: the previous cell's tags are
// stripped, nothing is added and orders are kept.
//
// Place validates everything before mutating, so on error nothing changed.
// It returns the moved instances re-addressed to their new cell.
func (e *PlacementEngine) Place(moved []Instance, dest *Cell, index int) ([]Instance, error) {
	moved = uniqueInstances(moved)
	if len(moved) == 0 {
		return nil, nil
	}

	texts := make([]string, len(moved))
	prev := make([][]string, len(moved))
	for i, inst := range moved {
		n, ok := e.notes.Get(inst.NoteID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, inst.NoteID)
		}
		tags, err := e.resolver.TagsOf(inst.Cell())
		if err != nil {
			return nil, err
		}
		texts[i], prev[i] = n.Text, tags
	}

	if dest == nil {
		return e.detach(moved, texts, prev), nil
	}

	destTags, err := e.resolver.TagsOf(*dest)
	if err != nil {
		return nil, err
	}
	exclude := make(map[string]struct{}, len(moved))
	for _, inst := range moved {
		exclude[inst.NoteID] = struct{}{}
	}
	s, err := e.slot(*dest, exclude, index, len(moved))
	if err != nil {
		return nil, err
	}

	s.apply(e.notes)
	out := make([]Instance, len(moved))
	for i, inst := range moved {
		text := AppendTags(RemoveTags(texts[i], minusTags(prev[i], destTags)), destTags)
		_ = e.notes.SetText(inst.NoteID, text)
		_ = e.notes.SetOrder(inst.NoteID, s.orders[i])
		out[i] = Instance{NoteID: inst.NoteID, Row: dest.Row, Col: dest.Col}
	}
	e.logger.Debug("placed notes", "count", len(moved), "cell", dest.String(), "index", index,
		"renormalized", len(s.renumbered) > 0)
	return out, nil
}

// Append creates a note holding text at the end of dest, tagged with the
// cell's tags so that it belongs there.
func (e *PlacementEngine) Append(dest Cell, text string) (Note, error) {
	tags, err := e.resolver.TagsOf(dest)
	if err != nil {
		return Note{}, err
	}
	s, err := e.slot(dest, nil, math.MaxInt, 1)
	if err != nil {
		return Note{}, err
	}
	s.apply(e.notes)
	n := e.notes.Create(AppendTags(text, tags), s.orders[0])
	e.logger.Debug("created note", "id", n.ID, "cell", dest.String(), "order", n.Order)
	return n, nil
}

func (e *PlacementEngine) detach(moved []Instance, texts []string, prev [][]string) []Instance {
	out := make([]Instance, len(moved))
	for i, inst := range moved {
		_ = e.notes.SetText(inst.NoteID, RemoveTags(texts[i], prev[i]))
		out[i] = Instance{NoteID: inst.NoteID}
	}
	e.logger.Debug("detached notes", "count", len(moved))
	return out
}

// slot is the outcome of fitting n notes into a cell.
type slot struct {
	orders     []float64          // one per inserted note, strictly increasing
	renumbered map[string]float64 // fresh orders for the cell's other notes after renormalization
}

func (s slot) apply(notes *NoteStore) {
	for id, order := range s.renumbered {
		_ = notes.SetOrder(id, order)
	}
}

// slot computes orders for n notes inserted at visual index of dest, ignoring
// the notes in exclude. If the interval is exhausted, the cell's other notes are
// renumbered 1, 2, 3... in their current order and the computation is retried once.
func (e *PlacementEngine) slot(dest Cell, exclude map[string]struct{}, index, n int) (slot, error) {
	inCell, err := e.resolver.NotesIn(dest)
	if err != nil {
		return slot{}, err
	}
	others := make([]Note, 0, len(inCell))
	for _, note := range inCell {
		if _, skip := exclude[note.ID]; !skip {
			others = append(others, note)
		}
	}
	index = min(max(index, 0), len(others))

	// Notes that meet in dest only through their tags may share an order.
	// Ties are renumbered away so the cell ends up strictly ordered.
	err = errOrderExhausted
	var orders []float64
	if !hasTies(others) {
		orders, err = spread(bounds(others, index, n), n)
	}
	if err == nil {
		return slot{orders: orders}, nil
	}
	if !errors.Is(err, errOrderExhausted) {
		return slot{}, err
	}

	e.logger.Debug("renormalizing cell orders", "cell", dest.String(), "notes", len(others))
	renumbered := make(map[string]float64, len(others))
	for i := range others {
		others[i].Order = float64(i + 1)
		renumbered[others[i].ID] = others[i].Order
	}
	orders, err = spread(bounds(others, index, n), n)
	if err != nil {
		return slot{}, fmt.Errorf("placement in %s failed after renormalization: %w", dest, err)
	}
	return slot{orders: orders, renumbered: renumbered}, nil
}

// interval is the open range the inserted orders must fall in.
type interval struct {
	lo, hi float64
}

// bounds returns the interval for n notes inserted at index among others.
func bounds(others []Note, index, n int) interval {
	gap := float64(n + 1)
	hasPred, hasSucc := index > 0, index < len(others)
	switch {
	case !hasPred && !hasSucc:
		return interval{lo: -1, hi: gap}
	case !hasPred:
		hi := others[index].Order
		return interval{lo: hi - gap, hi: hi}
	case !hasSucc:
		lo := others[index-1].Order
		return interval{lo: lo, hi: lo + gap}
	default:
		return interval{lo: others[index-1].Order, hi: others[index].Order}
	}
}

// spread places n evenly spaced values strictly inside iv.
func spread(iv interval, n int) ([]float64, error) {
	delta := (iv.hi - iv.lo) / float64(n+1)
	if delta <= 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, errOrderExhausted
	}
	out := make([]float64, n)
	prev := iv.lo
	for k := 1; k <= n; k++ {
		v := iv.lo + float64(k)*delta
		if v <= prev || v >= iv.hi {
			return nil, errOrderExhausted
		}
		out[k-1] = v
		prev = v
	}
	return out, nil
}

func hasTies(sorted []Note) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Order == sorted[i].Order {
			return true
		}
	}
	return false
}

func uniqueInstances(in []Instance) []Instance {
	seen := make(map[string]struct{}, len(in))
	out := make([]Instance, 0, len(in))
	for _, inst := range in {
		if _, ok := seen[inst.NoteID]; ok {
			continue
		}
		seen[inst.NoteID] = struct{}{}
		out = append(out, inst)
	}
	return out
}
