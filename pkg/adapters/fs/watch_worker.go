package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/tagrid/pkg/core"
)

// Watch reports changes made to the snapshot file by other processes.
// Writes made through this repository are not reported.
// The returned channel is closed once ctx is cancelled and the watcher has drained.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: atomic renames replace the file's inode.
	if err := watcher.Add(r.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.Path, err)
	}

	events := make(chan core.Event)
	w := &watchWorker{
		repo:      r,
		events:    events,
		watcher:   watcher,
		debouncer: newDebouncer(50 * time.Millisecond),
	}
	_, statErr := os.Stat(r.Filename())
	w.exists = statErr == nil

	r.setWatcherActive(true)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if r.config.ErrorHandler != nil {
			r.config.ErrorHandler(fmt.Errorf("watcher panic: %w", err))
		} else {
			r.config.Logger.Error("watcher panic", "error", err)
		}
	}))
	return events, nil
}

type watchWorker struct {
	repo      *Repository
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	exists    bool
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	// No timer may fire after the events channel is closed.
	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.process(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.repo.config.Logger.Error("fsnotify error", "error", wErr)
			if w.repo.config.ErrorHandler != nil {
				w.repo.config.ErrorHandler(wErr)
			}
		}
	}
}

// process maps an fsnotify event on the snapshot file to a core.Event.
func (w *watchWorker) process(ctx context.Context, event fsnotify.Event) {
	if isTempFile(event.Name) || filepath.Base(event.Name) != w.repo.fileBase() {
		return
	}
	w.repo.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if _, err := os.Stat(w.repo.Filename()); err == nil {
			// Replaced by rename; the Create for the new file follows.
			return
		}
		w.exists = false
		eType = core.EventDelete
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		data, err := os.ReadFile(w.repo.Filename())
		if err != nil {
			return
		}
		if w.repo.ownWrite(data) {
			w.exists = true
			return
		}
		eType = core.EventModify
		if !w.exists {
			eType = core.EventCreate
		}
		w.exists = true
	default:
		return
	}

	w.send(ctx, core.Event{
		Type:      eType,
		ID:        w.repo.config.Board,
		Timestamp: time.Now().Unix(),
	})
}

func (w *watchWorker) send(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}
