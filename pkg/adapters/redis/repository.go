// Package redis stores board snapshots in Redis and announces saves over Pub/Sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aretw0/tagrid/pkg/core"
)

// Config configures the Redis repository.
type Config struct {
	Options  *redis.Options
	Board    string // key namespace, default "board"
	ReadOnly bool
	Logger   *slog.Logger
	// ErrorHandler receives errors from the subscription goroutine.
	ErrorHandler func(error)
}

// Repository persists one board under the tagrid:{board}: namespace.
// It is safe for concurrent use.
type Repository struct {
	rdb      *redis.Client
	board    string
	origin   string
	readOnly bool
	logger   *slog.Logger
	onError  func(error)

	mu           sync.RWMutex
	revision     int64
	watchers     int
	lastSaveTime *time.Time
}

// NewRepository creates a Redis-backed repository.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Options == nil {
		return nil, fmt.Errorf("redis options cannot be nil")
	}
	if cfg.Board == "" {
		cfg.Board = "board"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		rdb:      redis.NewClient(cfg.Options),
		board:    cfg.Board,
		origin:   uuid.NewString(),
		readOnly: cfg.ReadOnly,
		logger:   cfg.Logger,
		onError:  cfg.ErrorHandler,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (r *Repository) Close() error {
	return r.rdb.Close()
}

// Initialize verifies Redis connectivity.
func (r *Repository) Initialize(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// Load reads the stored snapshot.
func (r *Repository) Load(ctx context.Context) (*core.Snapshot, error) {
	n, err := r.rdb.Exists(ctx, RowsKey(r.board)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board from redis: %w", err)
	}
	if n == 0 {
		return nil, core.ErrSnapshotNotFound
	}

	var (
		rowsCmd *redis.StringSliceCmd
		colsCmd *redis.StringSliceCmd
		idsCmd  *redis.StringSliceCmd
		revCmd  *redis.StringCmd
	)
	_, err = r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		rowsCmd = p.LRange(ctx, RowsKey(r.board), 0, -1)
		colsCmd = p.LRange(ctx, ColsKey(r.board), 0, -1)
		idsCmd = p.SMembers(ctx, NoteIDsKey(r.board))
		revCmd = p.Get(ctx, RevisionKey(r.board))
		return nil
	})
	if err != nil && !IsNotFound(err) {
		return nil, fmt.Errorf("failed to read board from redis: %w", err)
	}

	snap := core.Snapshot{Notes: make(map[string]core.Note, len(idsCmd.Val()))}
	if snap.Rows, err = decodeHeaders(rowsCmd.Val()); err != nil {
		return nil, err
	}
	if snap.Cols, err = decodeHeaders(colsCmd.Val()); err != nil {
		return nil, err
	}

	ids := idsCmd.Val()
	noteCmds := make([]*redis.MapStringStringCmd, len(ids))
	if len(ids) > 0 {
		_, err = r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
			for i, id := range ids {
				noteCmds[i] = p.HGetAll(ctx, NoteKey(r.board, id))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read notes from redis: %w", err)
		}
	}
	for i, cmd := range noteCmds {
		note, err := HashToNote(cmd.Val())
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize note %s: %w", ids[i], err)
		}
		snap.Notes[note.ID] = note
	}

	if rev, err := revCmd.Int64(); err == nil {
		r.mu.Lock()
		r.revision = rev
		r.mu.Unlock()
	}
	return &snap, nil
}

// Save replaces the stored snapshot in a single MULTI/EXEC transaction and
// publishes a change message.
func (r *Repository) Save(ctx context.Context, s core.Snapshot) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	rows, err := encodeHeaders(s.Rows)
	if err != nil {
		return err
	}
	cols, err := encodeHeaders(s.Cols)
	if err != nil {
		return err
	}
	stale, err := r.rdb.SMembers(ctx, NoteIDsKey(r.board)).Result()
	if err != nil {
		return fmt.Errorf("failed to read note ids from redis: %w", err)
	}

	var revCmd *redis.IntCmd
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		keys := []string{RowsKey(r.board), ColsKey(r.board), NoteIDsKey(r.board)}
		for _, id := range stale {
			keys = append(keys, NoteKey(r.board, id))
		}
		p.Del(ctx, keys...)
		if len(rows) > 0 {
			p.RPush(ctx, RowsKey(r.board), rows...)
		}
		if len(cols) > 0 {
			p.RPush(ctx, ColsKey(r.board), cols...)
		}
		for id, n := range s.Notes {
			p.HSet(ctx, NoteKey(r.board, id), NoteToHash(n))
			p.SAdd(ctx, NoteIDsKey(r.board), id)
		}
		revCmd = p.Incr(ctx, RevisionKey(r.board))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write board to redis: %w", err)
	}

	now := time.Now()
	r.mu.Lock()
	r.revision = revCmd.Val()
	r.lastSaveTime = &now
	r.mu.Unlock()
	r.logger.Debug("board saved", "board", r.board, "revision", revCmd.Val(), "reason", core.ChangeReason(ctx, "update"))

	msg, err := json.Marshal(changeMessage{Origin: r.origin, Revision: revCmd.Val(), Timestamp: now.Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal change message: %w", err)
	}
	if err := r.rdb.Publish(ctx, EventsChannel(r.board), msg).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Watch subscribes to saves made by other repositories on the same board.
// Events are delivered at most once, as with any Redis Pub/Sub subscriber.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	pubsub := r.rdb.Subscribe(ctx, EventsChannel(r.board))
	// Wait for the subscription confirmation so no save is missed after return.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to board events: %w", err)
	}

	events := make(chan core.Event, 10)
	r.setWatching(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer r.setWatching(-1)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				var change changeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					r.report(fmt.Errorf("failed to unmarshal board event: %w", err))
					continue
				}
				if change.Origin == r.origin {
					continue
				}
				select {
				case events <- core.Event{Type: core.EventModify, ID: r.board, Timestamp: change.Timestamp}:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(r.report))
	return events, nil
}

func (r *Repository) report(err error) {
	if r.onError != nil {
		r.onError(err)
		return
	}
	r.logger.Error("redis watcher error", "error", err)
}

func (r *Repository) setWatching(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers += delta
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Addr     string     `json:"addr"`
	Board    string     `json:"board"`
	Revision int64      `json:"revision"`
	Watchers int        `json:"watchers"`
	ReadOnly bool       `json:"read_only"`
	LastSave *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RepositoryState{
		Addr:     r.rdb.Options().Addr,
		Board:    r.board,
		Revision: r.revision,
		Watchers: r.watchers,
		ReadOnly: r.readOnly,
		LastSave: r.lastSaveTime,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "redis"
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}

var (
	_ core.Repository              = (*Repository)(nil)
	_ core.Watchable               = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
