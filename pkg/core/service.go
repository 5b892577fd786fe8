package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/aretw0/lifecycle"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Logger          *slog.Logger
	ReadOnly        bool
	EventBufferSize int
	// ErrorHandler receives errors from background work such as watch reloads.
	ErrorHandler func(error)
}

// Service couples a Board with a Repository and serializes access to both.
type Service struct {
	mu              sync.RWMutex
	board           *Board
	repo            Repository
	logger          *slog.Logger
	readOnly        bool
	eventBufferSize int
	errorHandler    func(error)
}

// NewService creates a Service around board, persisted through repo.
func NewService(repo Repository, board *Board, cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = 16
	}
	s := &Service{
		board:           board,
		repo:            repo,
		logger:          cfg.Logger,
		readOnly:        cfg.ReadOnly,
		eventBufferSize: cfg.EventBufferSize,
		errorHandler:    cfg.ErrorHandler,
	}
	if s.errorHandler == nil {
		s.errorHandler = func(err error) {
			s.logger.Error("background error", "error", err)
		}
	}
	return s
}

// Open loads the stored board. When nothing was stored yet the seeded board
// is kept and, unless read-only, saved as the first snapshot.
func (s *Service) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.repo.Load(ctx)
	if errors.Is(err, ErrSnapshotNotFound) {
		s.logger.Info("no stored board, starting fresh")
		if s.readOnly {
			return nil
		}
		return s.save(context.WithValue(ctx, ChangeReasonKey, "init board"))
	}
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}
	return s.board.Load(*snap)
}

// Save persists the current board.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return ErrReadOnly
	}
	return s.save(ctx)
}

func (s *Service) save(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.board.Serialize()); err != nil {
		return fmt.Errorf("failed to save board: %w", err)
	}
	return nil
}

// Reload replaces the board with the stored snapshot. It is a no-op when the
// stored snapshot equals the current board.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload board: %w", err)
	}
	if reflect.DeepEqual(*snap, s.board.Serialize()) {
		return nil
	}
	return s.board.Load(*snap)
}

// Update runs fn against the board and saves the result. If fn or the save
// fails, the board is restored to its state before the call, selection and edit
// state included.
func (s *Service) Update(ctx context.Context, fn func(b *Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return ErrReadOnly
	}

	before := s.board.checkpoint()
	if err := fn(s.board); err != nil {
		s.restore(before)
		return err
	}
	if err := s.save(ctx); err != nil {
		s.restore(before)
		return err
	}
	return nil
}

func (s *Service) restore(before checkpoint) {
	s.board.rollback(before)
	s.logger.Debug("board restored after failed update")
}

// View runs fn against the board under a read lock. fn must not mutate it.
func (s *Service) View(fn func(b *Board) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.board)
}

// Board returns the underlying board without locking. Callers that share the
// service between goroutines should use View or Update instead.
func (s *Service) Board() *Board {
	return s.board
}

// Watch observes external changes to the stored board if the repository
// supports it. Every change reloads the board before the event is forwarded.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}
	in, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, s.eventBufferSize)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-in:
				if !ok {
					return nil
				}
				if e.Type != EventDelete {
					if err := s.Reload(ctx); err != nil {
						s.errorHandler(err)
					}
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.errorHandler(fmt.Errorf("watch panic: %w", err))
	}))
	return out, nil
}
