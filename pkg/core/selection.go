package core

import "slices"

// SelectionController tracks the co-selected note instances that move together
// on drag. Its two states are empty and selected; instances keep click order.
type SelectionController struct {
	placer   Placer
	selected []Instance
	dragging bool
}

// NewSelectionController creates an empty selection that places through placer.
func NewSelectionController(placer Placer) *SelectionController {
	return &SelectionController{placer: placer}
}

// Click applies a click on inst. Without multi, clicking the sole selected
// instance clears the selection and any other click selects only inst. With
// multi, inst is toggled in the current set.
func (s *SelectionController) Click(inst Instance, multi bool) {
	if !multi {
		if len(s.selected) == 1 && s.selected[0] == inst {
			s.selected = nil
			return
		}
		s.selected = []Instance{inst}
		return
	}
	if i := slices.Index(s.selected, inst); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		if len(s.selected) == 0 {
			s.selected = nil
		}
		return
	}
	s.selected = append(s.selected, inst)
}

// DragStart begins a drag of inst. A drag on an unselected instance replaces
// the selection with that instance alone.
func (s *SelectionController) DragStart(inst Instance) {
	if !s.Contains(inst) {
		s.selected = []Instance{inst}
	}
	s.dragging = true
}

// DragEnd finishes a drag. With a destination the selection is placed and then
// cleared, whether or not placement succeeded. Without one the selection is
// kept and only the drag state is dropped.
func (s *SelectionController) DragEnd(dest *Cell, index int) ([]Instance, error) {
	s.dragging = false
	if dest == nil {
		return nil, nil
	}
	moved := s.Selected()
	s.selected = nil
	if len(moved) == 0 {
		return nil, nil
	}
	return s.placer.Place(moved, dest, index)
}

// Selected returns the selected instances in click order.
func (s *SelectionController) Selected() []Instance {
	return slices.Clone(s.selected)
}

// Contains reports whether inst is selected.
func (s *SelectionController) Contains(inst Instance) bool {
	return slices.Contains(s.selected, inst)
}

// Empty reports whether nothing is selected.
func (s *SelectionController) Empty() bool {
	return len(s.selected) == 0
}

// Dragging reports whether a drag is in progress.
func (s *SelectionController) Dragging() bool {
	return s.dragging
}

// Forget drops every instance of noteID, e.g. after the note was deleted.
func (s *SelectionController) Forget(noteID string) {
	s.selected = slices.DeleteFunc(s.selected, func(i Instance) bool { return i.NoteID == noteID })
	if len(s.selected) == 0 {
		s.selected = nil
	}
}

// reindex rewrites the axis index of every instance through fn. Instances for
// which fn reports false are dropped. It keeps the selection pointing at the
// same headers when headers are inserted or removed.
func (s *SelectionController) reindex(axis Axis, fn func(int) (int, bool)) {
	out := s.selected[:0]
	for _, inst := range s.selected {
		idx := &inst.Row
		if axis == Cols {
			idx = &inst.Col
		}
		v, keep := fn(*idx)
		if !keep {
			continue
		}
		*idx = v
		out = append(out, inst)
	}
	s.selected = out
	if len(s.selected) == 0 {
		s.selected = nil
	}
}

// retarget re-addresses the selected instances of the notes in moved to their
// new cell. Instances that collapse onto the same note and cell are merged.
func (s *SelectionController) retarget(moved []Instance) {
	if len(s.selected) == 0 {
		return
	}
	to := make(map[string]Instance, len(moved))
	for _, inst := range moved {
		to[inst.NoteID] = inst
	}
	out := make([]Instance, 0, len(s.selected))
	for _, inst := range s.selected {
		if next, ok := to[inst.NoteID]; ok {
			inst = next
		}
		if !slices.Contains(out, inst) {
			out = append(out, inst)
		}
	}
	s.selected = out
}

// Clear empties the selection and cancels any drag.
func (s *SelectionController) Clear() {
	s.selected = nil
	s.dragging = false
}

// SelectionState is a serializable view of the controller.
type SelectionState struct {
	State     string     `json:"state"`
	Instances []Instance `json:"instances,omitempty"`
	Dragging  bool       `json:"dragging"`
}

// State returns the current state for observability.
func (s *SelectionController) State() SelectionState {
	st := SelectionState{State: "empty", Dragging: s.dragging}
	if len(s.selected) > 0 {
		st.State = "selected"
		st.Instances = s.Selected()
	}
	return st
}
