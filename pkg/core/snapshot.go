package core

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Snapshot is the persisted form of a board.
type Snapshot struct {
	Rows  []Header        `json:"rows" yaml:"rows"`
	Cols  []Header        `json:"cols" yaml:"cols"`
	Notes map[string]Note `json:"notes" yaml:"notes"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Notes: maps.Clone(s.Notes)}
	if s.Rows != nil {
		out.Rows = make([]Header, len(s.Rows))
		for i, h := range s.Rows {
			out.Rows[i] = h.clone()
		}
	}
	if s.Cols != nil {
		out.Cols = make([]Header, len(s.Cols))
		for i, h := range s.Cols {
			out.Cols[i] = h.clone()
		}
	}
	return out
}

// Validate checks that s can be loaded into a board that requires at least
// minHeaders non-anchor headers per axis. It returns the first problem found
// as a *ValidationError.
func (s Snapshot) Validate(minHeaders int) error {
	if s.Rows == nil {
		return invalid("rows", "missing")
	}
	if s.Cols == nil {
		return invalid("cols", "missing")
	}
	if s.Notes == nil {
		return invalid("notes", "missing")
	}

	ids := make(map[string]struct{})
	for _, axis := range []struct {
		name    string
		headers []Header
	}{{"rows", s.Rows}, {"cols", s.Cols}} {
		if err := validateHeaders(axis.name, axis.headers, minHeaders, ids); err != nil {
			return err
		}
	}

	for key, n := range s.Notes {
		field := fmt.Sprintf("notes[%q]", key)
		switch {
		case n.ID == "":
			return invalid(field, "empty id")
		case n.ID != key:
			return invalid(field, "id %q does not match its key", n.ID)
		case math.IsNaN(n.Order) || math.IsInf(n.Order, 0):
			return invalid(field, "order must be finite")
		}
	}
	return nil
}

func validateHeaders(name string, headers []Header, minHeaders int, ids map[string]struct{}) error {
	if len(headers) == 0 {
		return invalid(name, "missing anchor header")
	}
	if anchor := headers[0]; anchor.Title != "" || len(anchor.Tags) > 0 {
		return invalid(name+"[0]", "anchor header must have an empty title and no tags")
	}
	if n := len(headers) - 1; n < minHeaders {
		return invalid(name, "has %d header(s), need at least %d", n, minHeaders)
	}
	for i, h := range headers {
		field := fmt.Sprintf("%s[%d]", name, i)
		if h.ID == "" {
			return invalid(field, "empty id")
		}
		if _, dup := ids[h.ID]; dup {
			return invalid(field, "duplicate header id %q", h.ID)
		}
		ids[h.ID] = struct{}{}
		if i == 0 {
			continue
		}
		if len(h.Tags) == 0 {
			return invalid(field, "header has no tags")
		}
		if j := slices.IndexFunc(h.Tags, func(t string) bool { return !IsTag(t) }); j >= 0 {
			return invalid(field, "malformed tag %q", h.Tags[j])
		}
		if !sameTags(h.Tags, ExtractTags(h.Title)) {
			return invalid(field, "tags do not match title %q", h.Title)
		}
	}
	return nil
}
