package core

import (
	"fmt"
	"strings"
)

// OrphanPolicy decides what happens to notes that carry a header's tags when
// the header is retitled or removed. The board consults it before committing
// either change; an error rejects the change with nothing mutated.
type OrphanPolicy interface {
	Name() string
	BeforeRetitle(notes *NoteStore, old, updated Header) error
	BeforeRemove(notes *NoteStore, removed Header) error
}

// PolicyByName returns the policy registered under name: "orphan", "block" or "cascade".
func PolicyByName(name string) (OrphanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", LeaveOrphans{}.Name():
		return LeaveOrphans{}, nil
	case BlockReferenced{}.Name():
		return BlockReferenced{}, nil
	case CascadeRetag{}.Name():
		return CascadeRetag{}, nil
	default:
		return nil, fmt.Errorf("unknown orphan policy %q", name)
	}
}

// LeaveOrphans lets notes keep stale tags. They stop matching the changed
// header and surface only in the anchor cell.
type LeaveOrphans struct{}

func (LeaveOrphans) Name() string { return "orphan" }

func (LeaveOrphans) BeforeRetitle(*NoteStore, Header, Header) error { return nil }

func (LeaveOrphans) BeforeRemove(*NoteStore, Header) error { return nil }

// BlockReferenced rejects a retitle that changes the tag set, or a removal,
// while any note still carries all of the header's tags.
type BlockReferenced struct{}

func (BlockReferenced) Name() string { return "block" }

func (BlockReferenced) BeforeRetitle(notes *NoteStore, old, updated Header) error {
	if sameTags(old.Tags, updated.Tags) {
		return nil
	}
	return blockIfReferenced(notes, old, "retitled")
}

func (BlockReferenced) BeforeRemove(notes *NoteStore, removed Header) error {
	return blockIfReferenced(notes, removed, "removed")
}

func blockIfReferenced(notes *NoteStore, h Header, verb string) error {
	n := len(referencing(notes, h.Tags))
	if n == 0 {
		return nil
	}
	return &InvariantViolation{
		Reason: fmt.Sprintf("header %q is referenced by %d note(s) and cannot be %s", h.DisplayTitle(), n, verb),
	}
}

// CascadeRetag rewrites the old tags to the new ones in every note carrying the
// old set, so retitled headers keep their notes. Removal leaves orphans.
type CascadeRetag struct{}

func (CascadeRetag) Name() string { return "cascade" }

func (CascadeRetag) BeforeRetitle(notes *NoteStore, old, updated Header) error {
	stale := minusTags(old.Tags, updated.Tags)
	if len(stale) == 0 {
		return nil
	}
	for _, n := range referencing(notes, old.Tags) {
		text := AppendTags(RemoveTags(n.Text, stale), updated.Tags)
		if err := notes.SetText(n.ID, text); err != nil {
			return err
		}
	}
	return nil
}

func (CascadeRetag) BeforeRemove(*NoteStore, Header) error { return nil }

func referencing(notes *NoteStore, tags []string) []Note {
	var out []Note
	for _, n := range notes.All() {
		if containsAll(n.Tags(), tags) {
			out = append(out, n)
		}
	}
	return out
}
