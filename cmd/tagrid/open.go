package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid"
	"github.com/aretw0/tagrid/internal/resolver"
	"github.com/aretw0/tagrid/pkg/core"
)

// session is an opened board plus the repository behind it.
type session struct {
	svc  *core.Service
	repo core.Repository
	root string
}

func (s *session) Close() {
	if c, ok := s.repo.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close repository", "error", err)
		}
	}
}

// update runs fn and saves, recording reason as the change message.
func (s *session) update(reason string, fn func(b *core.Board) error) error {
	ctx := context.WithValue(context.Background(), core.ChangeReasonKey, reason)
	return s.svc.Update(ctx, fn)
}

// noteID resolves a user-typed id prefix against the board's notes.
func noteID(b *core.Board, short string) (string, error) {
	notes := b.Notes()
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	id, err := resolver.Resolve(ids, short)
	var ambiguous *resolver.AmbiguousError
	if errors.As(err, &ambiguous) {
		return "", errors.New(resolver.FormatAmbiguousError(ambiguous))
	}
	return id, err
}

// boardConfig finds the board root from --dir and reads its config file.
func boardConfig() (string, *tagrid.FileConfig, error) {
	root, err := tagrid.FindRoot(boardDir)
	if err != nil {
		return "", nil, fmt.Errorf("no board found from %s (run 'tagrid init' first): %w", boardDir, err)
	}
	cfg, err := tagrid.LoadConfig(filepath.Join(root, tagrid.ConfigFile))
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

// commonOptions turns the config file and the global flags into options.
// Flags win over the file.
func commonOptions(cfg *tagrid.FileConfig) []tagrid.Option {
	opts := append(cfg.Options(), tagrid.WithLogger(slog.Default()))
	if adapter != "" {
		opts = append(opts, tagrid.WithAdapter(adapter))
	}
	if boardName != "" {
		opts = append(opts, tagrid.WithBoardName(boardName))
	}
	if readOnly {
		opts = append(opts, tagrid.WithReadOnly(true))
	}
	return opts
}

// openSession opens the board of the current directory.
func openSession(cmd *cobra.Command, extra ...tagrid.Option) (*session, error) {
	root, cfg, err := boardConfig()
	if err != nil {
		return nil, err
	}
	uri := cfg.Path
	if uri == "" {
		uri = root
	}

	opts := append(commonOptions(cfg), extra...)
	repo, err := tagrid.Init(uri, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	svc, err := tagrid.New(uri, append(opts, tagrid.WithRepository(repo))...)
	if err != nil {
		if c, ok := repo.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	slog.Debug("board opened", "root", root, "uri", uri, "component", svc.ComponentType())
	return &session{svc: svc, repo: repo, root: root}, nil
}

// readOnlyView opens the board for commands that only read it.
func readOnlyView() tagrid.Option {
	return tagrid.WithReadOnly(true)
}
