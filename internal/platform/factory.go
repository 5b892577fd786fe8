package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/tagrid/pkg/core"
)

// New opens a board service: it initializes the repository, builds the board
// and loads the stored snapshot (or saves the seeded board when none exists).
//
//	svc, err := tagrid.New("./boards/sprint", tagrid.WithAutoInit(true))
func New(uri string, opts ...Option) (*core.Service, error) {
	o := parseOptions(opts)

	repo, err := initRepository(uri, o)
	if err != nil {
		return nil, err
	}

	bufferSize, _ := o.config["event_buffer"].(int)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	service := core.NewService(repo, NewBoard(opts...), core.ServiceConfig{
		Logger:          o.logger,
		ReadOnly:        o.flag("read_only"),
		EventBufferSize: bufferSize,
		ErrorHandler:    errorHandler,
	})

	if err := service.Open(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to open board %q: %w", o.board, err)
	}
	return service, nil
}

// NewBoard builds a seeded in-memory board from the board-related options.
func NewBoard(opts ...Option) *core.Board {
	o := parseOptions(opts)
	return core.NewBoard(core.BoardConfig{
		Registry: o.registry,
		Policy:   o.policy,
		Clock:    o.clock,
		Logger:   o.logger,
		SeedRows: o.seedRows,
		SeedCols: o.seedCols,
	})
}
