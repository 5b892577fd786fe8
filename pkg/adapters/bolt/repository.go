// Package bolt stores board snapshots in a bbolt database file.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	bolt "go.etcd.io/bbolt"

	"github.com/aretw0/tagrid/pkg/core"
)

// Layout: boards/{board}/{rows,cols,notes}. Headers are keyed by their
// big-endian position so the bucket cursor yields them in order.
var (
	bucketBoards = []byte("boards")
	bucketRows   = []byte("rows")
	bucketCols   = []byte("cols")
	bucketNotes  = []byte("notes")
	keySavedAt   = []byte("saved_at")
)

// Config configures the bbolt repository.
type Config struct {
	Path     string // database file
	Board    string // default "board"
	ReadOnly bool
	Logger   *slog.Logger
}

// Repository persists boards in a single bbolt file.
type Repository struct {
	db       *bolt.DB
	path     string
	board    []byte
	readOnly bool
	logger   *slog.Logger
}

// NewRepository opens (or creates) the database file.
func NewRepository(cfg Config) (*Repository, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if cfg.Board == "" {
		cfg.Board = "board"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second, ReadOnly: cfg.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	return &Repository{
		db:       db,
		path:     path,
		board:    []byte(cfg.Board),
		readOnly: cfg.ReadOnly,
		logger:   cfg.Logger,
	}, nil
}

// Close releases the database file lock.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Initialize creates the top-level bucket.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.readOnly {
		return nil
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBoards)
		return err
	})
}

// Load reads the board's snapshot.
func (r *Repository) Load(ctx context.Context) (*core.Snapshot, error) {
	var snap *core.Snapshot
	err := r.db.View(func(tx *bolt.Tx) error {
		boards := tx.Bucket(bucketBoards)
		if boards == nil {
			return core.ErrSnapshotNotFound
		}
		b := boards.Bucket(r.board)
		if b == nil {
			return core.ErrSnapshotNotFound
		}

		out := core.Snapshot{Notes: make(map[string]core.Note)}
		var err error
		if out.Rows, err = readHeaders(b.Bucket(bucketRows)); err != nil {
			return err
		}
		if out.Cols, err = readHeaders(b.Bucket(bucketCols)); err != nil {
			return err
		}
		if notes := b.Bucket(bucketNotes); notes != nil {
			err = notes.ForEach(func(k, v []byte) error {
				var n core.Note
				if err := json.Unmarshal(v, &n); err != nil {
					return fmt.Errorf("failed to decode note %s: %w", k, err)
				}
				out.Notes[n.ID] = n
				return nil
			})
			if err != nil {
				return err
			}
		}
		snap = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func readHeaders(b *bolt.Bucket) ([]core.Header, error) {
	out := []core.Header{}
	if b == nil {
		return out, nil
	}
	err := b.ForEach(func(k, v []byte) error {
		var h core.Header
		if err := json.Unmarshal(v, &h); err != nil {
			return fmt.Errorf("failed to decode header at %d: %w", binary.BigEndian.Uint64(k), err)
		}
		out = append(out, h)
		return nil
	})
	return out, err
}

// Save replaces the board's bucket in one read-write transaction.
func (r *Repository) Save(ctx context.Context, s core.Snapshot) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	err := r.db.Update(func(tx *bolt.Tx) error {
		boards, err := tx.CreateBucketIfNotExists(bucketBoards)
		if err != nil {
			return err
		}
		if boards.Bucket(r.board) != nil {
			if err := boards.DeleteBucket(r.board); err != nil {
				return err
			}
		}
		b, err := boards.CreateBucket(r.board)
		if err != nil {
			return err
		}

		if err := writeHeaders(b, bucketRows, s.Rows); err != nil {
			return err
		}
		if err := writeHeaders(b, bucketCols, s.Cols); err != nil {
			return err
		}
		notes, err := b.CreateBucket(bucketNotes)
		if err != nil {
			return err
		}
		for id, n := range s.Notes {
			data, err := json.Marshal(n)
			if err != nil {
				return err
			}
			if err := notes.Put([]byte(id), data); err != nil {
				return err
			}
		}
		stamp, err := time.Now().UTC().MarshalText()
		if err != nil {
			return err
		}
		return b.Put(keySavedAt, stamp)
	})
	if err != nil {
		return fmt.Errorf("failed to save board: %w", err)
	}
	r.logger.Debug("board saved", "board", string(r.board), "notes", len(s.Notes), "reason", core.ChangeReason(ctx, "update"))
	return nil
}

func writeHeaders(parent *bolt.Bucket, name []byte, headers []core.Header) error {
	b, err := parent.CreateBucket(name)
	if err != nil {
		return err
	}
	for i, h := range headers {
		data, err := json.Marshal(h)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, uint64(i))
		if err := b.Put(key, data); err != nil {
			return err
		}
	}
	return nil
}

// Boards lists the board names stored in the file.
func (r *Repository) Boards(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.View(func(tx *bolt.Tx) error {
		boards := tx.Bucket(bucketBoards)
		if boards == nil {
			return nil
		}
		return boards.ForEach(func(k, v []byte) error {
			if v == nil {
				out = append(out, string(k))
			}
			return nil
		})
	})
	return out, err
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path     string     `json:"path"`
	Board    string     `json:"board"`
	ReadOnly bool       `json:"read_only"`
	SavedAt  *time.Time `json:"saved_at,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	st := RepositoryState{Path: r.path, Board: string(r.board), ReadOnly: r.readOnly}
	_ = r.db.View(func(tx *bolt.Tx) error {
		boards := tx.Bucket(bucketBoards)
		if boards == nil {
			return nil
		}
		b := boards.Bucket(r.board)
		if b == nil {
			return nil
		}
		var t time.Time
		if err := t.UnmarshalText(b.Get(keySavedAt)); err == nil {
			st.SavedAt = &t
		}
		return nil
	})
	return st
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "bolt"
}

var (
	_ core.Repository              = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
