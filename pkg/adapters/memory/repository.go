// Package memory provides an in-process snapshot repository for tests and
// ephemeral boards.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tagrid/pkg/core"
)

type store struct {
	mu       sync.RWMutex
	snapshot *core.Snapshot
	saves    int
	subs     map[*subscriber]struct{}
}

type subscriber struct {
	origin *Repository
	ch     chan core.Event
}

// Repository keeps the snapshot in memory. Handles created with Handle share
// the same storage and observe each other's saves through Watch.
type Repository struct {
	store    *store
	board    string
	readOnly bool
}

// NewRepository creates an empty in-memory repository for board.
func NewRepository(board string) *Repository {
	if board == "" {
		board = "board"
	}
	return &Repository{
		store: &store{subs: make(map[*subscriber]struct{})},
		board: board,
	}
}

// Handle returns another repository over the same storage.
func (r *Repository) Handle() *Repository {
	return &Repository{store: r.store, board: r.board, readOnly: r.readOnly}
}

// ReadOnly returns a handle that rejects saves.
func (r *Repository) ReadOnly() *Repository {
	h := r.Handle()
	h.readOnly = true
	return h
}

func (r *Repository) Initialize(ctx context.Context) error { return nil }

func (r *Repository) Load(ctx context.Context) (*core.Snapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if r.store.snapshot == nil {
		return nil, core.ErrSnapshotNotFound
	}
	snap := r.store.snapshot.Clone()
	return &snap, nil
}

func (r *Repository) Save(ctx context.Context, s core.Snapshot) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	eType := core.EventModify
	if r.store.snapshot == nil {
		eType = core.EventCreate
	}
	snap := s.Clone()
	r.store.snapshot = &snap
	r.store.saves++

	e := core.Event{Type: eType, ID: r.board, Timestamp: time.Now().Unix()}
	for sub := range r.store.subs {
		if sub.origin == r {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			// Slow watchers lose events; the next Load still sees the latest state.
		}
	}
	return nil
}

// Watch reports saves made through other handles.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	sub := &subscriber{origin: r, ch: make(chan core.Event, 16)}
	r.store.mu.Lock()
	r.store.subs[sub] = struct{}{}
	r.store.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		r.store.mu.Lock()
		delete(r.store.subs, sub)
		close(sub.ch)
		r.store.mu.Unlock()
		return nil
	})
	return sub.ch, nil
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Board    string `json:"board"`
	Stored   bool   `json:"stored"`
	Saves    int    `json:"saves"`
	Watchers int    `json:"watchers"`
	ReadOnly bool   `json:"read_only"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return RepositoryState{
		Board:    r.board,
		Stored:   r.store.snapshot != nil,
		Saves:    r.store.saves,
		Watchers: len(r.store.subs),
		ReadOnly: r.readOnly,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "memory"
}

var (
	_ core.Repository              = (*Repository)(nil)
	_ core.Watchable               = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
