package core

import "context"

// Repository defines the contract for persisting board snapshots.
// Adhering to this interface keeps the core independent of the storage
// mechanism (files, Redis, SQLite, bbolt, memory).
type Repository interface {
	// Initialize ensures the underlying storage is ready (directories, schema, buckets).
	Initialize(ctx context.Context) error

	// Load returns the stored snapshot, or ErrSnapshotNotFound if none was saved yet.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, s Snapshot) error
}

// Watchable is implemented by repositories that can report external changes.
type Watchable interface {
	// Watch emits an event whenever the stored snapshot changes outside this process.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (e.g. a commit
// message) to Save.
const ChangeReasonKey contextKey = "change_reason"

// ChangeReason returns the change reason stored in ctx, or fallback.
func ChangeReason(ctx context.Context, fallback string) string {
	if v, ok := ctx.Value(ChangeReasonKey).(string); ok && v != "" {
		return v
	}
	return fallback
}
