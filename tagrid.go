package tagrid

import (
	"log/slog"
	"time"

	"github.com/aretw0/tagrid/internal/platform"
	"github.com/aretw0/tagrid/pkg/core"
)

// --- Types ---

// Board is a public alias for the core board.
type Board = core.Board

// Service is a public alias for the core service.
type Service = core.Service

// Snapshot is a public alias for the persisted form of a board.
type Snapshot = core.Snapshot

// --- Configuration ---

// Option defines a functional option for configuring a board.
type Option = platform.Option

// FileConfig is the content of a .tagrid.yaml file.
type FileConfig = platform.FileConfig

// SeedConfig lists the header titles of a fresh board in a config file.
type SeedConfig = platform.SeedConfig

// PrefixConfig sets the synthesized tag prefixes in a config file.
type PrefixConfig = platform.PrefixConfig

// ConfigFile is the name of the per-directory configuration file.
const ConfigFile = platform.ConfigFile

// WithLogger sets the logger for the service and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name: fs, memory, bolt, sqlite or redis.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBoardName names the board inside its storage.
func WithBoardName(name string) Option {
	return platform.WithBoardName(name)
}

// WithEventBuffer sets the size of the watch event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithWatcherErrorHandler receives errors from background watchers.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithReadOnly opens the board without ever writing to storage.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMinHeaders sets the minimum number of non-anchor headers per axis.
func WithMinHeaders(n int) Option {
	return platform.WithMinHeaders(n)
}

// WithTagPrefixes sets the prefixes of synthesized row and column tags.
func WithTagPrefixes(row, col string) Option {
	return platform.WithTagPrefixes(row, col)
}

// WithOrphanPolicy sets what happens to notes when their header changes.
func WithOrphanPolicy(p core.OrphanPolicy) Option {
	return platform.WithOrphanPolicy(p)
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(gen core.IDGenerator) Option {
	return platform.WithIDGenerator(gen)
}

// WithClock replaces the clock used for note creation times.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithSeed sets the header titles of a fresh board.
func WithSeed(rows, cols []string) Option {
	return platform.WithSeed(rows, cols)
}

// WithFormat selects the fs snapshot format: json or yaml.
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithStrict makes the fs serializers reject unknown fields.
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithAutoInit enables automatic initialization of the board directory (mkdir and git init).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git versioning of the fs adapter.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithGitIdentity sets the author of snapshot commits.
func WithGitIdentity(name, email string) Option {
	return platform.WithGitIdentity(name, email)
}

// WithMustExist ensures the board directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithSystemDir sets the hidden directory name used for locks (default ".tagrid").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety toggles the dev-run sandbox. Enabled by default.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New opens a board service, loading the stored board or saving a seeded one.
func New(uri string, opts ...Option) (*core.Service, error) {
	return platform.New(uri, opts...)
}

// Init initializes a repository explicitly.
func Init(uri string, opts ...Option) (core.Repository, error) {
	return platform.Init(uri, opts...)
}

// NewBoard builds an unpersisted board from the board-related options.
func NewBoard(opts ...Option) *core.Board {
	return platform.NewBoard(opts...)
}

// LoadConfig reads a .tagrid.yaml file. A missing file yields an empty config.
func LoadConfig(path string) (*FileConfig, error) {
	return platform.LoadConfig(path)
}

// --- Safety & Utils ---

// ResolveBoardPath determines the actual board directory based on safety rules.
func ResolveBoardPath(userPath string, forceTemp bool) string {
	return platform.ResolveBoardPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot recursively looks upwards for a board root indicator.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
