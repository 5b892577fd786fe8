package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/tagrid/pkg/adapters/bolt"
	"github.com/aretw0/tagrid/pkg/adapters/fs"
	"github.com/aretw0/tagrid/pkg/adapters/memory"
	"github.com/aretw0/tagrid/pkg/adapters/redis"
	"github.com/aretw0/tagrid/pkg/adapters/sqlite"
	"github.com/aretw0/tagrid/pkg/core"
	"github.com/aretw0/tagrid/pkg/git"
)

// Adapters lists the storage adapter names accepted by WithAdapter.
var Adapters = []string{"fs", "memory", "bolt", "sqlite", "redis"}

// Init creates and initializes the repository selected by the options.
// The uri argument is adapter-specific: a directory for "fs", a database file
// (or a directory holding tagrid.db) for "bolt" and "sqlite", a redis:// URL
// or host:port for "redis". It is ignored by "memory".
func Init(uri string, opts ...Option) (core.Repository, error) {
	return initRepository(uri, parseOptions(opts))
}

func initRepository(uri string, o *options) (core.Repository, error) {
	if o.repository != nil {
		return o.repository, nil
	}

	var (
		repo core.Repository
		err  error
	)
	switch o.adapter {
	case "fs", "":
		repo, err = initFS(uri, o)
	case "memory":
		repo = memory.NewRepository(o.board)
	case "bolt":
		repo, err = bolt.NewRepository(bolt.Config{
			Path:     dbPath(uri, "tagrid.db"),
			Board:    o.board,
			ReadOnly: o.flag("read_only"),
			Logger:   o.logger,
		})
	case "sqlite":
		repo, err = sqlite.NewRepository(sqlite.Config{
			DSN:      dbPath(uri, "tagrid.sqlite"),
			Board:    o.board,
			ReadOnly: o.flag("read_only"),
			Logger:   o.logger,
		})
	case "redis":
		repo, err = initRedis(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s (valid: %s)", o.adapter, strings.Join(Adapters, ", "))
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// dbPath treats an existing directory (or an empty uri) as the place for a
// default database file.
func dbPath(uri, name string) string {
	if uri == "" {
		return name
	}
	if info, err := os.Stat(uri); err == nil && info.IsDir() {
		return filepath.Join(uri, name)
	}
	return uri
}

func initRedis(uri string, o *options) (core.Repository, error) {
	var redisOpts *goredis.Options
	switch {
	case strings.HasPrefix(uri, "redis://"), strings.HasPrefix(uri, "rediss://"):
		parsed, err := goredis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		redisOpts = parsed
	case uri == "":
		redisOpts = &goredis.Options{Addr: "localhost:6379"}
	default:
		redisOpts = &goredis.Options{Addr: uri}
	}
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	return redis.NewRepository(redis.Config{
		Options:      redisOpts,
		Board:        o.board,
		ReadOnly:     o.flag("read_only"),
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
}

// initFS handles path resolution and git detection for the filesystem adapter.
func initFS(path string, o *options) (core.Repository, error) {
	autoInit := o.flag("auto_init")
	mustExist := o.flag("must_exist")
	readOnly := o.flag("read_only")
	systemDir := o.str("system_dir")
	if systemDir == "" {
		systemDir = ".tagrid"
	}
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	identity, _ := o.config["git_identity"].(*git.Identity)

	devSafety := true
	if v, ok := o.config["dev_safety"].(bool); ok {
		devSafety = v
	}
	bypassSafety := readOnly || !devSafety
	useTemp := o.flag("temp_dir") || (IsDevRun() && !bypassSafety)
	resolved := ResolveBoardPath(path, useTemp)
	if useTemp && resolved != filepath.Clean(path) {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	}

	// Without an explicit choice, versioning follows the directory: an existing
	// .git means git, a fresh auto-initialized board gets git when it is installed.
	gitless, explicit := o.config["gitless"].(bool)
	if !explicit {
		_, statErr := os.Stat(filepath.Join(resolved, ".git"))
		switch {
		case statErr == nil:
			gitless = false
		case autoInit && git.IsInstalled():
			gitless = false
		default:
			gitless = true
			o.logger.Debug("auto-detected gitless mode", "reason", ".git missing")
		}
	}

	return fs.NewRepository(fs.Config{
		Path:         resolved,
		Board:        o.board,
		Format:       o.str("format"),
		Strict:       o.flag("strict"),
		AutoInit:     autoInit,
		Gitless:      gitless,
		MustExist:    mustExist || (!autoInit && !useTemp),
		ReadOnly:     readOnly,
		SystemDir:    systemDir,
		Identity:     identity,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
}
