package dispatch

import (
	"context"
	"sync"

	"github.com/hatch-dev/cli/internal/state"
)

// Sink consumes one flushed batch per tick, in enqueue order.
type Sink func(batch []state.Action)

// Dispatcher buffers actions and flushes them once per rendering tick.
//
// Guarantees: actions are never dropped, never reordered relative to each
// other, and an enqueue that races an in-flight flush schedules exactly one
// follow-up flush. Wait blocks until everything enqueued before the call has
// been applied, which the stream runner uses at end-of-stream to order the
// final result after all state updates.
type Dispatcher struct {
	sink  Sink
	sched Scheduler

	mu        sync.Mutex
	pending   []state.Action
	scheduled bool
	enqueued  uint64
	applied   uint64
	flushed   chan struct{} // closed and replaced after every flush
}

// New creates a dispatcher flushing into sink via the given scheduler. A nil
// scheduler falls back to the fixed-interval timer.
func New(sink Sink, sched Scheduler) *Dispatcher {
	if sched == nil {
		sched = NewTimerScheduler()
	}
	return &Dispatcher{
		sink:    sink,
		sched:   sched,
		flushed: make(chan struct{}),
	}
}

// Enqueue appends an action to the pending buffer and schedules a flush for
// the next tick if none is outstanding.
func (d *Dispatcher) Enqueue(action state.Action) {
	d.mu.Lock()
	d.pending = append(d.pending, action)
	d.enqueued++
	schedule := !d.scheduled
	if schedule {
		d.scheduled = true
	}
	d.mu.Unlock()

	if schedule {
		d.sched.Schedule(d.flush)
	}
}

// flush applies every buffered action in arrival order, then wakes waiters.
// The scheduled flag stays set while the sink runs, so an enqueue arriving
// mid-flush never starts a concurrent flusher; the current flusher schedules
// the follow-up itself once the sink returns. Sink calls are therefore
// serialized and batches land in enqueue order.
func (d *Dispatcher) flush() {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()

	if len(batch) > 0 {
		d.sink(batch)
	}

	d.mu.Lock()
	d.applied += uint64(len(batch))
	done := d.flushed
	d.flushed = make(chan struct{})
	reschedule := len(d.pending) > 0
	if !reschedule {
		d.scheduled = false
	}
	d.mu.Unlock()

	close(done)
	if reschedule {
		d.sched.Schedule(d.flush)
	}
}

// Wait blocks until all actions enqueued before the call have been applied.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	target := d.enqueued
	d.mu.Unlock()

	for {
		d.mu.Lock()
		if d.applied >= target {
			d.mu.Unlock()
			return nil
		}
		done := d.flushed
		d.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
