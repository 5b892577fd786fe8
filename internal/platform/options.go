package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/tagrid/pkg/core"
	"github.com/aretw0/tagrid/pkg/git"
)

// options holds the internal configuration for a tagrid board service.
type options struct {
	repository core.Repository
	logger     *slog.Logger
	adapter    string
	board      string
	registry   core.RegistryConfig
	policy     core.OrphanPolicy
	clock      func() time.Time
	seedRows   []string
	seedCols   []string
	// config carries adapter-specific settings.
	config map[string]interface{}
}

// Option defines a functional option for configuring tagrid.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:  "fs",
		board:    "board",
		registry: core.RegistryConfig{MinHeaders: core.DefaultMinHeaders},
		config:   make(map[string]interface{}),
	}
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// --- Service wiring ---

// WithLogger sets the logger for the board, service and adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository allows injecting a custom storage adapter (e.g. a mock).
// If provided, the adapter named by WithAdapter is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default), "memory",
// "bolt", "sqlite" or "redis".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithBoardName names the board inside its storage (file stem, key namespace, bucket).
// Defaults to "board".
func WithBoardName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.board = name
		}
	}
}

// WithEventBuffer sets the size of the service's watch event buffer.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithWatcherErrorHandler registers a callback for errors raised while watching
// or reloading in the background.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode: saves return core.ErrReadOnly and
// initialization (mkdir, git init) is skipped.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// --- Board ---

// WithMinHeaders sets the minimum number of non-anchor headers per axis.
func WithMinHeaders(n int) Option {
	return func(o *options) {
		o.registry.MinHeaders = n
	}
}

// WithTagPrefixes sets the prefixes of synthesized row and column tags
// (defaults "#row-" and "#col-"). Empty values keep the default.
func WithTagPrefixes(row, col string) Option {
	return func(o *options) {
		o.registry.RowPrefix = row
		o.registry.ColPrefix = col
	}
}

// WithOrphanPolicy sets what happens to notes when a header they rely on is
// retitled or removed.
func WithOrphanPolicy(p core.OrphanPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithIDGenerator replaces the UUID generator used for ids and synthesized tags.
func WithIDGenerator(gen core.IDGenerator) Option {
	return func(o *options) {
		o.registry.IDs = gen
	}
}

// WithClock replaces the clock used for note creation times.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithSeed sets the header titles of a fresh board.
func WithSeed(rows, cols []string) Option {
	return func(o *options) {
		o.seedRows = rows
		o.seedCols = cols
	}
}

// --- Filesystem adapter ---

// WithFormat selects the snapshot file format: "json" (default) or "yaml".
func WithFormat(format string) Option {
	return func(o *options) {
		o.config["format"] = format
	}
}

// WithStrict rejects unknown fields when parsing snapshot files.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.config["strict"] = strict
	}
}

// WithAutoInit creates the board directory and git repository when missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning enables or disables Git versioning of the snapshot file.
// When not set, versioning follows the presence of a .git directory.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["gitless"] = !enabled
	}
}

// WithGitIdentity sets the committer used for snapshot commits.
func WithGitIdentity(name, email string) Option {
	return func(o *options) {
		o.config["git_identity"] = &git.Identity{Name: name, Email: email}
	}
}

// WithMustExist requires the board directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithSystemDir sets the prefix of the lock file (default ".tagrid").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true) such runs are redirected to a temporary directory.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

func (o *options) flag(key string) bool {
	v, _ := o.config[key].(bool)
	return v
}

func (o *options) str(key string) string {
	v, _ := o.config[key].(string)
	return v
}
