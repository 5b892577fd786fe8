package fs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tagrid/pkg/core"
	"github.com/aretw0/tagrid/pkg/git"
)

// Repository implements core.Repository on a single snapshot file, optionally
// versioned with Git.
type Repository struct {
	Path       string
	git        *git.Client
	config     Config
	serializer Serializer

	mu            sync.RWMutex
	lastWritten   [sha256.Size]byte
	watcherActive bool
	lastSave      *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string // directory holding the snapshot
	Board     string // snapshot file name without extension, default "board"
	Format    string // "json" (default) or "yaml"
	Strict    bool   // reject unknown fields when parsing
	AutoInit  bool
	Gitless   bool
	MustExist bool
	ReadOnly  bool
	SystemDir string // prefix of the lock file, default ".tagrid"
	Identity  *git.Identity
	Logger    *slog.Logger
	// ErrorHandler receives errors from the watcher goroutine.
	ErrorHandler func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) (*Repository, error) {
	if config.Board == "" {
		config.Board = "board"
	}
	if config.SystemDir == "" {
		config.SystemDir = ".tagrid"
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	serializer, err := SerializerFor(config.Format, config.Strict)
	if err != nil {
		return nil, err
	}
	client := git.NewClient(config.Path, config.SystemDir+".lock", config.Logger)
	client.Identity = config.Identity
	return &Repository{
		Path:       config.Path,
		git:        client,
		config:     config,
		serializer: serializer,
	}, nil
}

// Filename returns the absolute snapshot file path.
func (r *Repository) Filename() string {
	return filepath.Join(r.Path, r.fileBase())
}

func (r *Repository) fileBase() string {
	return r.config.Board + r.serializer.Ext()
}

// Initialize performs the necessary setup for the repository (mkdir, git init).
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("board path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat board path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("board path is not a directory: %s", r.Path)
		}
	} else if !r.config.ReadOnly {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create board directory: %w", err)
		}
	}

	if r.config.Gitless || r.config.ReadOnly {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(fmt.Sprintf("chore: ignore %s.lock", r.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the lock file out of version control.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	ignoreEntry := r.config.SystemDir + ".lock"

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads and parses the snapshot file.
func (r *Repository) Load(ctx context.Context) (*core.Snapshot, error) {
	f, err := os.Open(r.Filename())
	if os.IsNotExist(err) {
		return nil, core.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := r.serializer.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.fileBase(), err)
	}
	return snap, nil
}

// Save writes the snapshot atomically and, unless gitless, commits it.
// The commit message comes from core.ChangeReasonKey in ctx.
func (r *Repository) Save(ctx context.Context, s core.Snapshot) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	data, err := r.serializer.Serialize(s)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	var unlock func()
	if !r.config.Gitless {
		lockCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		unlock, err = r.git.Lock(lockCtx)
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()
	}

	r.mu.Lock()
	r.lastWritten = sha256.Sum256(data)
	r.mu.Unlock()

	if err := writeFileAtomic(r.Filename(), data, 0644); err != nil {
		return err
	}

	now := time.Now()
	r.mu.Lock()
	r.lastSave = &now
	r.mu.Unlock()
	r.config.Logger.Debug("snapshot written", "file", r.Filename(), "bytes", len(data))

	if r.config.Gitless {
		return nil
	}
	if err := r.git.Add(r.fileBase()); err != nil {
		return fmt.Errorf("failed to stage snapshot: %w", err)
	}
	if err := r.git.Commit(core.ChangeReason(ctx, "update "+r.config.Board)); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// ownWrite reports whether data is exactly what this repository last wrote.
func (r *Repository) ownWrite(data []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sha256.Sum256(data) == r.lastWritten
}

// Revision is one saved version of the snapshot.
type Revision struct {
	Hash    string    `json:"hash"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

var errGitless = errors.New("history requires versioning (repository is gitless)")

// History lists up to limit saved versions, newest first.
func (r *Repository) History(ctx context.Context, limit int) ([]Revision, error) {
	if r.config.Gitless {
		return nil, errGitless
	}
	commits, err := r.git.Log(r.fileBase(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	out := make([]Revision, len(commits))
	for i, c := range commits {
		out[i] = Revision(c)
	}
	return out, nil
}

// LoadRevision parses the snapshot as saved at revision rev.
func (r *Repository) LoadRevision(ctx context.Context, rev string) (*core.Snapshot, error) {
	if r.config.Gitless {
		return nil, errGitless
	}
	data, err := r.git.Show(rev, r.fileBase())
	if err != nil {
		return nil, err
	}
	snap, err := r.serializer.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s at %s: %w", r.fileBase(), rev, err)
	}
	return snap, nil
}

var (
	_ core.Repository = (*Repository)(nil)
	_ core.Watchable  = (*Repository)(nil)
)
