package state

import "sync"

// Store owns a conversation state map and funnels every change through the
// pure reducer. Callers hold a Store explicitly; there is no package-level
// instance. Subscribers receive each new map generation after a batch of
// actions has been applied.
type Store struct {
	mu      sync.RWMutex
	m       Map
	nextSub int
	subs    map[int]func(Map)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		m:    Map{},
		subs: map[int]func(Map){},
	}
}

// Apply runs one action through the reducer.
func (s *Store) Apply(action Action) {
	s.ApplyBatch([]Action{action})
}

// ApplyBatch applies a flushed batch of actions in order, then notifies
// subscribers once with the resulting generation. This is the sink the
// frame-batched dispatcher flushes into.
func (s *Store) ApplyBatch(batch []Action) {
	if len(batch) == 0 {
		return
	}

	s.mu.Lock()
	for _, a := range batch {
		s.m = Reduce(s.m, a)
	}
	snapshot := s.m
	subs := make([]func(Map), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Snapshot returns the current map generation. The map itself is never
// mutated after publication, so reading it without the lock is safe.
func (s *Store) Snapshot() Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m
}

// Get returns the state for one conversation, defaulting to empty.
func (s *Store) Get(conversationID string) StreamState {
	return s.Snapshot().Get(conversationID)
}

// Subscribe registers a callback invoked after each applied batch. The
// returned function cancels the subscription.
func (s *Store) Subscribe(fn func(Map)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
