// Package sqlite stores board snapshots in a SQLite database.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/aretw0/tagrid/pkg/core"
)

// schema holds several boards side by side, keyed by board name.
const schema = `
CREATE TABLE IF NOT EXISTS headers (
    board TEXT NOT NULL,
    axis TEXT NOT NULL,
    position INTEGER NOT NULL,
    id TEXT NOT NULL,
    title TEXT NOT NULL,
    tags TEXT NOT NULL,
    PRIMARY KEY (board, axis, position)
);

CREATE TABLE IF NOT EXISTS notes (
    board TEXT NOT NULL,
    id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    text TEXT NOT NULL,
    "order" REAL NOT NULL,
    PRIMARY KEY (board, id)
);

CREATE INDEX IF NOT EXISTS idx_notes_order ON notes(board, "order");

-- One row per save, newest last.
CREATE TABLE IF NOT EXISTS saves (
    board TEXT NOT NULL,
    saved_at INTEGER NOT NULL,
    change_reason TEXT
);
`

// Config configures the SQLite repository.
type Config struct {
	DSN      string // file path or ":memory:"
	Board    string // default "board"
	ReadOnly bool
	Logger   *slog.Logger
}

// Repository is the SQLite-backed snapshot store.
type Repository struct {
	mu       sync.RWMutex
	db       *sql.DB
	dsn      string
	board    string
	readOnly bool
	logger   *slog.Logger
}

// NewRepository opens the database. The schema is created by Initialize.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite dsn cannot be empty")
	}
	if cfg.Board == "" {
		cfg.Board = "board"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection of ":memory:" would be a different database.
	db.SetMaxOpenConns(1)
	return &Repository{
		db:       db,
		dsn:      cfg.DSN,
		board:    cfg.Board,
		readOnly: cfg.ReadOnly,
		logger:   cfg.Logger,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Initialize creates the schema.
func (r *Repository) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load reads the board's snapshot.
func (r *Repository) Load(ctx context.Context) (*core.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := core.Snapshot{Rows: []core.Header{}, Cols: []core.Header{}, Notes: map[string]core.Note{}}
	if err := r.loadHeaders(ctx, &snap); err != nil {
		return nil, err
	}
	if len(snap.Rows) == 0 && len(snap.Cols) == 0 {
		return nil, core.ErrSnapshotNotFound
	}
	if err := r.loadNotes(ctx, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *Repository) loadHeaders(ctx context.Context, snap *core.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT axis, id, title, tags FROM headers WHERE board = ? ORDER BY axis, position`, r.board)
	if err != nil {
		return fmt.Errorf("failed to query headers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			axis string
			h    core.Header
			tags string
		)
		if err := rows.Scan(&axis, &h.ID, &h.Title, &tags); err != nil {
			return fmt.Errorf("failed to scan header: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &h.Tags); err != nil {
			return fmt.Errorf("failed to decode tags of header %s: %w", h.ID, err)
		}
		a, err := core.ParseAxis(axis)
		if err != nil {
			return err
		}
		if a == core.Rows {
			snap.Rows = append(snap.Rows, h)
		} else {
			snap.Cols = append(snap.Cols, h)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read headers: %w", err)
	}
	return nil
}

func (r *Repository) loadNotes(ctx context.Context, snap *core.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, text, "order" FROM notes WHERE board = ?`, r.board)
	if err != nil {
		return fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n core.Note
		if err := rows.Scan(&n.ID, &n.CreatedAt, &n.Text, &n.Order); err != nil {
			return fmt.Errorf("failed to scan note: %w", err)
		}
		snap.Notes[n.ID] = n
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read notes: %w", err)
	}
	return nil
}

// Save replaces the board's snapshot in one transaction.
func (r *Repository) Save(ctx context.Context, s core.Snapshot) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM headers WHERE board = ?`, r.board); err != nil {
		return fmt.Errorf("failed to clear headers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE board = ?`, r.board); err != nil {
		return fmt.Errorf("failed to clear notes: %w", err)
	}

	for _, axis := range []core.Axis{core.Rows, core.Cols} {
		headers := s.Rows
		if axis == core.Cols {
			headers = s.Cols
		}
		for i, h := range headers {
			tags, err := json.Marshal(h.Tags)
			if err != nil {
				return fmt.Errorf("failed to encode tags of header %s: %w", h.ID, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO headers (board, axis, position, id, title, tags) VALUES (?, ?, ?, ?, ?, ?)`,
				r.board, axis.String(), i, h.ID, h.Title, string(tags))
			if err != nil {
				return fmt.Errorf("failed to insert header %s: %w", h.ID, err)
			}
		}
	}

	for _, n := range s.Notes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notes (board, id, created_at, text, "order") VALUES (?, ?, ?, ?, ?)`,
			r.board, n.ID, n.CreatedAt, n.Text, n.Order)
		if err != nil {
			return fmt.Errorf("failed to insert note %s: %w", n.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO saves (board, saved_at, change_reason) VALUES (?, ?, ?)`,
		r.board, time.Now().UnixMilli(), core.ChangeReason(ctx, "update"))
	if err != nil {
		return fmt.Errorf("failed to record save: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	r.logger.Debug("board saved", "board", r.board, "notes", len(s.Notes))
	return nil
}

// SaveRecord is one entry of the save log.
type SaveRecord struct {
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
}

// History returns up to limit recorded saves, newest first.
func (r *Repository) History(ctx context.Context, limit int) ([]SaveRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT saved_at, change_reason FROM saves WHERE board = ? ORDER BY rowid DESC LIMIT ?`, r.board, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query saves: %w", err)
	}
	defer rows.Close()

	var out []SaveRecord
	for rows.Next() {
		var (
			ms     int64
			reason sql.NullString
		)
		if err := rows.Scan(&ms, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		out = append(out, SaveRecord{Time: time.UnixMilli(ms), Reason: reason.String})
	}
	return out, rows.Err()
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	DSN      string `json:"dsn"`
	Board    string `json:"board"`
	ReadOnly bool   `json:"read_only"`
	Conns    int    `json:"open_connections"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	return RepositoryState{
		DSN:      r.dsn,
		Board:    r.board,
		ReadOnly: r.readOnly,
		Conns:    r.db.Stats().OpenConnections,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "sqlite"
}

var (
	_ core.Repository              = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
