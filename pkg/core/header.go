package core

import (
	"fmt"
	"slices"
	"strings"
)

// Axis selects the row or column header sequence.
type Axis int

const (
	Rows Axis = iota
	Cols
)

func (a Axis) String() string {
	switch a {
	case Rows:
		return "row"
	case Cols:
		return "column"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// ParseAxis accepts "row", "rows", "col", "cols", "column" or "columns".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "rows", "r":
		return Rows, nil
	case "col", "cols", "column", "columns", "c":
		return Cols, nil
	default:
		return 0, fmt.Errorf("unknown axis %q", s)
	}
}

// Header is a row or column entry. Its tags are derived from the title and
// define which notes belong to the cells along it.
type Header struct {
	ID    string   `json:"id" yaml:"id"`
	Title string   `json:"title" yaml:"title"`
	Tags  []string `json:"tags" yaml:"tags"`
}

func (h Header) clone() Header {
	h.Tags = slices.Clone(h.Tags)
	return h
}

// DisplayTitle returns the title without its tag tokens.
func (h Header) DisplayTitle() string {
	return DisplayText(h.Title)
}

// RegistryConfig configures a HeaderRegistry.
type RegistryConfig struct {
	RowPrefix  string
	ColPrefix  string
	MinHeaders int // minimum number of non-anchor headers per axis
	IDs        IDGenerator
}

// Default tag prefixes for synthesized header tags.
const (
	DefaultRowPrefix = "#row-"
	DefaultColPrefix = "#col-"
)

// HeaderRegistry owns the ordered row and column headers.
// Index 0 of each axis is the anchor: empty title, no tags, never removed.
type HeaderRegistry struct {
	axes       [2][]Header
	prefixes   [2]string
	minHeaders int
	ids        IDGenerator
}

// NewHeaderRegistry creates a registry holding only the two anchor headers.
func NewHeaderRegistry(cfg RegistryConfig) *HeaderRegistry {
	if cfg.IDs == nil {
		cfg.IDs = NewID
	}
	if cfg.RowPrefix == "" {
		cfg.RowPrefix = DefaultRowPrefix
	}
	if cfg.ColPrefix == "" {
		cfg.ColPrefix = DefaultColPrefix
	}
	if cfg.MinHeaders < 0 {
		cfg.MinHeaders = 0
	}
	r := &HeaderRegistry{
		prefixes:   [2]string{cfg.RowPrefix, cfg.ColPrefix},
		minHeaders: cfg.MinHeaders,
		ids:        cfg.IDs,
	}
	for i := range r.axes {
		r.axes[i] = []Header{{ID: cfg.IDs(), Tags: []string{}}}
	}
	return r
}

// MinHeaders returns the configured minimum number of non-anchor headers per axis.
func (r *HeaderRegistry) MinHeaders() int {
	return r.minHeaders
}

func (r *HeaderRegistry) seq(axis Axis) (*[]Header, error) {
	if axis != Rows && axis != Cols {
		return nil, &OutOfRangeError{Axis: axis, Index: -1}
	}
	return &r.axes[axis], nil
}

// Len returns the number of headers on axis, anchor included.
func (r *HeaderRegistry) Len(axis Axis) int {
	s, err := r.seq(axis)
	if err != nil {
		return 0
	}
	return len(*s)
}

// Headers returns a copy of the header sequence of axis.
func (r *HeaderRegistry) Headers(axis Axis) []Header {
	s, err := r.seq(axis)
	if err != nil {
		return nil
	}
	out := make([]Header, len(*s))
	for i, h := range *s {
		out[i] = h.clone()
	}
	return out
}

// Header returns the header at index.
func (r *HeaderRegistry) Header(axis Axis, index int) (Header, error) {
	s, err := r.seq(axis)
	if err != nil {
		return Header{}, err
	}
	if index < 0 || index >= len(*s) {
		return Header{}, &OutOfRangeError{Axis: axis, Index: index, Len: len(*s)}
	}
	return (*s)[index].clone(), nil
}

// IndexOf returns the index of the header with id, or -1.
func (r *HeaderRegistry) IndexOf(axis Axis, id string) int {
	s, err := r.seq(axis)
	if err != nil {
		return -1
	}
	return slices.IndexFunc(*s, func(h Header) bool { return h.ID == id })
}

// DeriveTags derives a title and tag set using the axis' synthesized-tag prefix.
func (r *HeaderRegistry) DeriveTags(axis Axis, title string) (string, []string) {
	prefix := r.prefixes[Rows]
	if axis == Cols {
		prefix = r.prefixes[Cols]
	}
	return DeriveTags(title, prefix, r.ids)
}

// Insert creates a header from title at index. Valid indexes are 1..Len(axis).
func (r *HeaderRegistry) Insert(axis Axis, index int, title string) (Header, error) {
	s, err := r.seq(axis)
	if err != nil {
		return Header{}, err
	}
	if index < 1 || index > len(*s) {
		return Header{}, &OutOfRangeError{Axis: axis, Index: index, Len: len(*s)}
	}
	t, tags := r.DeriveTags(axis, title)
	h := Header{ID: r.ids(), Title: t, Tags: tags}
	*s = slices.Insert(*s, index, h)
	return h.clone(), nil
}

// SetTitle retitles the header at index and replaces its tag set wholesale.
// Notes tagged with the previous tags are not touched.
func (r *HeaderRegistry) SetTitle(axis Axis, index int, title string) (Header, error) {
	h, err := r.prepareTitle(axis, index, title)
	if err != nil {
		return Header{}, err
	}
	r.commitTitle(axis, index, h)
	return h.clone(), nil
}

// prepareTitle computes the retitled header without storing it.
func (r *HeaderRegistry) prepareTitle(axis Axis, index int, title string) (Header, error) {
	h, err := r.Header(axis, index)
	if err != nil {
		return Header{}, err
	}
	if index == 0 {
		return Header{}, &InvariantViolation{Reason: fmt.Sprintf("the anchor %s cannot be retitled", axis)}
	}
	h.Title, h.Tags = r.DeriveTags(axis, title)
	return h, nil
}

func (r *HeaderRegistry) commitTitle(axis Axis, index int, h Header) {
	r.axes[axis][index] = h.clone()
}

// CanRemove reports why the header at index cannot be removed, if it cannot.
func (r *HeaderRegistry) CanRemove(axis Axis, index int) error {
	s, err := r.seq(axis)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*s) {
		return &OutOfRangeError{Axis: axis, Index: index, Len: len(*s)}
	}
	if index == 0 {
		return &InvariantViolation{Reason: fmt.Sprintf("the anchor %s cannot be removed", axis)}
	}
	if len(*s)-1 <= r.minHeaders {
		return &InvariantViolation{
			Reason: fmt.Sprintf("at least %d %s header(s) must remain", r.minHeaders, axis),
		}
	}
	return nil
}

// Remove deletes the header at index.
func (r *HeaderRegistry) Remove(axis Axis, index int) (Header, error) {
	if err := r.CanRemove(axis, index); err != nil {
		return Header{}, err
	}
	s := &r.axes[axis]
	h := (*s)[index]
	*s = slices.Delete(*s, index, index+1)
	return h, nil
}

func (r *HeaderRegistry) replace(rows, cols []Header) {
	for axis, src := range [2][]Header{rows, cols} {
		dst := make([]Header, len(src))
		for i, h := range src {
			dst[i] = h.clone()
			if dst[i].Tags == nil {
				dst[i].Tags = []string{}
			}
		}
		r.axes[axis] = dst
	}
}
