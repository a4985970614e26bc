package dispatch

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hatch-dev/cli/internal/state"
)

// manualScheduler collects flush callbacks so tests control exactly when
// ticks happen.
type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (s *manualScheduler) Schedule(flush func()) {
	s.mu.Lock()
	s.pending = append(s.pending, flush)
	s.mu.Unlock()
}

// tick runs every scheduled flush.
func (s *manualScheduler) tick() {
	s.mu.Lock()
	flushes := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range flushes {
		f()
	}
}

func (s *manualScheduler) scheduledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

type recordingSink struct {
	mu      sync.Mutex
	batches [][]state.Action
}

func (r *recordingSink) sink(batch []state.Action) {
	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.mu.Unlock()
}

func (r *recordingSink) all() [][]state.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}

func TestDispatcherCoalescesIntoOneBatch(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recordingSink{}
	d := New(rec.sink, sched)

	d.Enqueue(state.StartStreaming{ConversationID: "c"})
	for i := 0; i < 49; i++ {
		d.Enqueue(state.AppendText{ConversationID: "c", Content: "x"})
	}

	if got := sched.scheduledCount(); got != 1 {
		t.Fatalf("expected exactly one scheduled flush, got %d", got)
	}

	sched.tick()

	batches := rec.all()
	if len(batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(batches))
	}
	if len(batches[0]) != 50 {
		t.Fatalf("expected 50 actions in batch, got %d", len(batches[0]))
	}
}

func TestDispatcherPreservesOrder(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recordingSink{}
	d := New(rec.sink, sched)

	contents := []string{"one", "two", "three", "four"}
	for _, c := range contents {
		d.Enqueue(state.AppendText{ConversationID: "c", Content: c})
	}
	sched.tick()

	batch := rec.all()[0]
	for i, a := range batch {
		if got := a.(state.AppendText).Content; got != contents[i] {
			t.Errorf("position %d: got %q, want %q", i, got, contents[i])
		}
	}
}

func TestDispatcherEnqueueAfterFlushSchedulesAgain(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recordingSink{}
	d := New(rec.sink, sched)

	d.Enqueue(state.AppendText{ConversationID: "c", Content: "first"})
	sched.tick()

	d.Enqueue(state.AppendText{ConversationID: "c", Content: "second"})
	if got := sched.scheduledCount(); got != 1 {
		t.Fatalf("expected a new flush scheduled after the previous tick, got %d", got)
	}
	sched.tick()

	if got := len(rec.all()); got != 2 {
		t.Errorf("expected two batches, got %d", got)
	}
}

func TestDispatcherEmptyFlushSkipsSink(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recordingSink{}
	d := New(rec.sink, sched)

	d.Enqueue(state.AppendText{ConversationID: "c", Content: "x"})
	sched.tick()
	// Tick again with nothing pending.
	sched.tick()

	if got := len(rec.all()); got != 1 {
		t.Errorf("empty flush must not reach the sink, got %d batches", got)
	}
}

func TestWaitBlocksUntilApplied(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recordingSink{}
	d := New(rec.sink, sched)

	d.Enqueue(state.AppendText{ConversationID: "c", Content: "x"})

	waited := make(chan error, 1)
	go func() {
		waited <- d.Wait(context.Background())
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned before the flush ran")
	case <-time.After(20 * time.Millisecond):
	}

	sched.tick()

	select {
	case err := <-waited:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after flush")
	}
}

func TestWaitReturnsImmediatelyWhenDrained(t *testing.T) {
	d := New(func([]state.Action) {}, &manualScheduler{})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	sched := &manualScheduler{}
	d := New(func([]state.Action) {}, sched)

	d.Enqueue(state.AppendText{ConversationID: "c", Content: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

// TestDispatcherSerializesSinkCalls blocks the first batch inside the sink,
// enqueues another action mid-flush, and verifies the second batch is applied
// strictly after the first rather than by a concurrent flusher.
func TestDispatcherSerializesSinkCalls(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var applied []string
	calls := 0

	sink := func(batch []state.Action) {
		mu.Lock()
		calls++
		stall := calls == 1
		mu.Unlock()
		if stall {
			close(entered)
			<-release
		}
		mu.Lock()
		for _, a := range batch {
			applied = append(applied, a.(state.AppendText).Content)
		}
		mu.Unlock()
	}

	d := New(sink, &TimerScheduler{Interval: time.Millisecond})
	d.Enqueue(state.AppendText{ConversationID: "c", Content: "first"})

	<-entered
	d.Enqueue(state.AppendText{ConversationID: "c", Content: "second"})
	close(release)

	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if want := []string{"first", "second"}; !reflect.DeepEqual(applied, want) {
		t.Fatalf("actions applied out of enqueue order: %v", applied)
	}
}

func TestTimerSchedulerFlushes(t *testing.T) {
	sched := &TimerScheduler{Interval: time.Millisecond}
	rec := &recordingSink{}
	d := New(rec.sink, sched)

	d.Enqueue(state.AppendText{ConversationID: "c", Content: "x"})

	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(rec.all()); got != 1 {
		t.Errorf("expected one batch, got %d", got)
	}
}
