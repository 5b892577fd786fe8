package fs

import (
	"sync"
	"time"

	"github.com/aretw0/tagrid/pkg/core"
)

// debouncer coalesces bursts of events for the same ID into one delivery.
// A Create followed by Modify stays a Create; any later Delete wins.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
	wg      sync.WaitGroup
}

type pendingEvent struct {
	event core.Event
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pendingEvent),
	}
}

// add schedules send for e after the debounce delay, merging with any pending event.
func (d *debouncer) add(e core.Event, send func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if p, ok := d.pending[e.ID]; ok {
		p.event = merge(p.event, e)
		p.timer.Reset(d.delay)
		return
	}

	p := &pendingEvent{event: e}
	d.pending[e.ID] = p
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		ev := p.event
		delete(d.pending, e.ID)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			send(ev)
		}
	})
}

func merge(prev, next core.Event) core.Event {
	if prev.Type == core.EventCreate && next.Type == core.EventModify {
		next.Type = core.EventCreate
	}
	return next
}

// stopAndWait drops pending events and waits up to timeout for running callbacks.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for id, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, id)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
