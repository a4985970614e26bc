package state

import (
	"sync"
	"testing"
)

func TestStoreApplyAndGet(t *testing.T) {
	store := NewStore()

	store.Apply(StartStreaming{ConversationID: conv})
	store.Apply(AppendText{ConversationID: conv, Content: "building"})

	s := store.Get(conv)
	if !s.IsStreaming {
		t.Error("expected streaming")
	}
	if s.StreamingText != "building" {
		t.Errorf("unexpected text: %q", s.StreamingText)
	}
}

func TestStoreBatchNotifiesOnce(t *testing.T) {
	store := NewStore()

	var mu sync.Mutex
	calls := 0
	var last Map
	cancel := store.Subscribe(func(m Map) {
		mu.Lock()
		calls++
		last = m
		mu.Unlock()
	})
	defer cancel()

	store.ApplyBatch([]Action{
		StartStreaming{ConversationID: conv},
		AppendText{ConversationID: conv, Content: "a"},
		AppendText{ConversationID: conv, Content: "b"},
	})

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("expected one notification per batch, got %d", calls)
	}
	if got := last.Get(conv).StreamingText; got != "ab" {
		t.Errorf("subscriber saw %q, want ab", got)
	}
}

func TestStoreEmptyBatchIsNoop(t *testing.T) {
	store := NewStore()

	calls := 0
	cancel := store.Subscribe(func(Map) { calls++ })
	defer cancel()

	store.ApplyBatch(nil)
	if calls != 0 {
		t.Errorf("empty batch must not notify, got %d calls", calls)
	}
}

func TestStoreUnsubscribeStopsNotifications(t *testing.T) {
	store := NewStore()

	calls := 0
	cancel := store.Subscribe(func(Map) { calls++ })
	store.Apply(StartStreaming{ConversationID: conv})
	cancel()
	store.Apply(AppendText{ConversationID: conv, Content: "x"})

	if calls != 1 {
		t.Errorf("expected exactly one notification before cancel, got %d", calls)
	}
}

func TestStoreConcurrentApplies(t *testing.T) {
	store := NewStore()
	store.Apply(StartStreaming{ConversationID: conv})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Apply(AppendText{ConversationID: conv, Content: "x"})
			}
		}()
	}
	wg.Wait()

	if got := len(store.Get(conv).StreamingText); got != 400 {
		t.Errorf("expected 400 appended chars, got %d", got)
	}
}
