// Package lifecycle bridges board change events into the lifecycle event model.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tagrid/pkg/core"
)

type boardSource struct {
	events <-chan core.Event
	types  map[core.EventType]bool
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits board change events.
// When types is non-empty only events of those types are forwarded.
func NewSource(events <-chan core.Event, types ...core.EventType) lifecycle.Source {
	s := &boardSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	if len(types) > 0 {
		s.types = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	return s
}

func (s *boardSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *boardSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.types != nil && !s.types[e.Type] {
					continue
				}
				// core.Event satisfies lifecycle.Event through String.
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
