package stream

import (
	"reflect"
	"testing"
	"time"

	"github.com/hatch-dev/cli/internal/protocol"
	"github.com/hatch-dev/cli/internal/state"
)

func tagged(ev protocol.Event) protocol.TaggedEvent {
	return protocol.TaggedEvent{Event: ev}
}

func TestAccumulatorTextAndResult(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	acc.Apply(tagged(protocol.TextEvent{Content: "Hello "}))
	actions := acc.Apply(tagged(protocol.TextEvent{Content: "world"}))

	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	append2 := actions[0].(state.AppendText)
	if append2.Content != "world" || append2.ConversationID != "conv-1" {
		t.Errorf("unexpected action: %#v", append2)
	}

	if got := acc.Result().Text; got != "Hello world" {
		t.Errorf("expected accumulated text, got %q", got)
	}
}

func TestAccumulatorTracksResumeCursor(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	acc.Apply(protocol.TaggedEvent{ID: "10", Event: protocol.TextEvent{Content: "a"}})
	acc.Apply(protocol.TaggedEvent{Event: protocol.TextEvent{Content: "b"}})

	if got := acc.LastEventID(); got != "10" {
		t.Errorf("cursor must keep the last non-empty id, got %q", got)
	}

	acc.Apply(protocol.TaggedEvent{ID: "11", Event: protocol.TextEvent{Content: "c"}})
	if got := acc.LastEventID(); got != "11" {
		t.Errorf("cursor must advance, got %q", got)
	}
}

func TestAccumulatorMetaResolvesConversationID(t *testing.T) {
	var gotOld, gotNew string
	acc := NewAccumulator("tmp-123", func(oldID, newID string) {
		gotOld, gotNew = oldID, newID
	})

	actions := acc.Apply(tagged(protocol.MetaEvent{
		ConversationID: "conv-real",
		TurnID:         "t-1",
		Phase:          protocol.PhaseRunning,
	}))

	if len(actions) != 2 {
		t.Fatalf("expected rename + set meta, got %d actions", len(actions))
	}
	rename, ok := actions[0].(state.RenameStream)
	if !ok {
		t.Fatalf("expected RenameStream first, got %T", actions[0])
	}
	if rename.From != "tmp-123" || rename.To != "conv-real" {
		t.Errorf("unexpected rename: %#v", rename)
	}
	meta := actions[1].(state.SetMeta)
	if meta.ConversationID != "conv-real" {
		t.Errorf("meta must be addressed under the resolved id, got %q", meta.ConversationID)
	}

	if gotOld != "tmp-123" || gotNew != "conv-real" {
		t.Errorf("resolve callback got (%q, %q)", gotOld, gotNew)
	}
	if acc.ConversationID() != "conv-real" {
		t.Errorf("accumulator must rekey itself, got %q", acc.ConversationID())
	}

	// Subsequent actions use the resolved id.
	next := acc.Apply(tagged(protocol.TextEvent{Content: "x"}))
	if got := next[0].(state.AppendText).ConversationID; got != "conv-real" {
		t.Errorf("follow-up action addressed under %q", got)
	}
}

func TestAccumulatorMetaSameIDDoesNotRename(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	actions := acc.Apply(tagged(protocol.MetaEvent{ConversationID: "conv-1", Phase: protocol.PhaseRunning}))
	if len(actions) != 1 {
		t.Fatalf("expected only SetMeta, got %d actions", len(actions))
	}
	if _, ok := actions[0].(state.SetMeta); !ok {
		t.Errorf("expected SetMeta, got %T", actions[0])
	}
}

func TestAccumulatorSessionComplete(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	acc.Apply(tagged(protocol.MetaEvent{ConversationID: "conv-1", TurnID: "t-1", Phase: protocol.PhaseRunning}))
	if acc.Completed() {
		t.Error("running phase must not complete the turn")
	}

	acc.Apply(tagged(protocol.MetaEvent{ConversationID: "conv-1", TurnID: "t-1", Phase: protocol.PhaseSessionComplete}))
	if !acc.Completed() {
		t.Error("session_complete must complete the turn")
	}
	if acc.TurnID() != "t-1" {
		t.Errorf("unexpected turn id %q", acc.TurnID())
	}
}

func TestAccumulatorThinkingDuration(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := base
	acc.now = func() time.Time { return current }

	acc.Apply(tagged(protocol.ThinkingStartEvent{}))
	acc.Apply(tagged(protocol.ThinkingContentEvent{Content: "weighing options"}))

	current = base.Add(3 * time.Second)
	actions := acc.Apply(tagged(protocol.ThinkingEndEvent{}))

	end := actions[0].(state.EndThinking)
	if end.DurationSeconds == nil || *end.DurationSeconds != 3 {
		t.Errorf("expected 3s duration, got %v", end.DurationSeconds)
	}

	if got := acc.Result().Thinking; got != "weighing options" {
		t.Errorf("unexpected thinking text: %q", got)
	}
}

func TestAccumulatorThinkingEndWithoutStart(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	actions := acc.Apply(tagged(protocol.ThinkingEndEvent{}))
	end := actions[0].(state.EndThinking)
	if end.DurationSeconds != nil {
		t.Errorf("expected nil duration without a start, got %v", end.DurationSeconds)
	}
}

func TestAccumulatorFileLifecycle(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	acc.Apply(tagged(protocol.FileStartEvent{Path: "src/App.tsx"}))
	acc.Apply(tagged(protocol.FileContentEvent{Content: "export "}))
	acc.Apply(tagged(protocol.FileContentEvent{Content: "default App"}))
	acc.Apply(tagged(protocol.FileEndEvent{}))

	res := acc.Result()
	if len(res.CompletedFiles) != 1 {
		t.Fatalf("expected 1 completed file, got %d", len(res.CompletedFiles))
	}
	file := res.CompletedFiles[0]
	if file.Path != "src/App.tsx" || file.Content != "export default App" || !file.IsComplete {
		t.Errorf("unexpected file: %#v", file)
	}
}

func TestAccumulatorOrphanFileEventsIgnored(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	if actions := acc.Apply(tagged(protocol.FileContentEvent{Content: "orphan"})); actions != nil {
		t.Errorf("content without an open file must be dropped, got %v", actions)
	}
	if actions := acc.Apply(tagged(protocol.FileEndEvent{})); actions != nil {
		t.Errorf("end without an open file must be dropped, got %v", actions)
	}
	if got := len(acc.Result().CompletedFiles); got != 0 {
		t.Errorf("expected no completed files, got %d", got)
	}
}

func TestAccumulatorInstallBatchSemantics(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	acc.Apply(tagged(protocol.InstallContentEvent{Packages: []string{"react"}}))
	acc.Apply(tagged(protocol.InstallContentEvent{Packages: []string{"react", "zustand"}}))

	res := acc.Result()
	if !reflect.DeepEqual(res.InstallingDeps, []string{"react", "zustand"}) {
		t.Errorf("install batch must replace wholesale, got %v", res.InstallingDeps)
	}
	if !res.InstallingDepsTouched {
		t.Error("install activity must mark the result as touched")
	}

	acc.Apply(tagged(protocol.InstallEndEvent{}))
	res = acc.Result()
	if len(res.InstallingDeps) != 0 {
		t.Errorf("install end must clear the batch, got %v", res.InstallingDeps)
	}
	if !res.InstallingDepsTouched {
		t.Error("touched flag must survive the clear")
	}
}

func TestAccumulatorWebSearchDuplicateSuppression(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	payload := []byte(`{"query":"react drag and drop"}`)
	first, _ := protocol.ParseEvent(protocol.EventWebSearch, payload)
	second, _ := protocol.ParseEvent(protocol.EventWebSearch, payload)
	third, _ := protocol.ParseEvent(protocol.EventWebSearch, []byte(`{"query":"zustand persist"}`))

	if actions := acc.Apply(tagged(first)); len(actions) != 1 {
		t.Fatalf("first search must emit, got %d actions", len(actions))
	}
	if actions := acc.Apply(tagged(second)); actions != nil {
		t.Errorf("adjacent duplicate must be suppressed, got %v", actions)
	}
	if actions := acc.Apply(tagged(third)); len(actions) != 1 {
		t.Errorf("distinct search must emit, got %d actions", len(actions))
	}

	if got := len(acc.Result().WebSearches); got != 2 {
		t.Errorf("expected 2 recorded searches, got %d", got)
	}
}

func TestAccumulatorBuildStatusProducesNoActions(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	if actions := acc.Apply(tagged(protocol.BuildStatusEvent{Status: "building"})); actions != nil {
		t.Errorf("BUILD_STATUS must not mutate turn state, got %v", actions)
	}
	if actions := acc.Apply(tagged(protocol.DoneEvent{})); actions != nil {
		t.Errorf("DONE must not mutate turn state, got %v", actions)
	}
}

func TestAccumulatorErrorAndPreview(t *testing.T) {
	acc := NewAccumulator("conv-1", nil)

	acc.Apply(tagged(protocol.PreviewURLEvent{URL: "https://preview.hatch.dev/x"}))
	acc.Apply(tagged(protocol.ErrorEvent{Message: "sandbox crashed"}))

	res := acc.Result()
	if res.PreviewURL != "https://preview.hatch.dev/x" {
		t.Errorf("unexpected preview url: %q", res.PreviewURL)
	}
	if res.Error != "sandbox crashed" {
		t.Errorf("unexpected error: %q", res.Error)
	}
}
