package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	File          string     `json:"file"`
	SystemDir     string     `json:"system_dir"`
	Gitless       bool       `json:"gitless"`
	ReadOnly      bool       `json:"read_only"`
	Strict        bool       `json:"strict"`
	WatcherActive bool       `json:"watcher_active"`
	LastSave      *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:          r.Path,
		File:          r.fileBase(),
		SystemDir:     r.config.SystemDir,
		Gitless:       r.config.Gitless,
		ReadOnly:      r.config.ReadOnly,
		Strict:        r.config.Strict,
		WatcherActive: r.watcherActive,
		LastSave:      r.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}
