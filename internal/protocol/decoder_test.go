package protocol

import (
	"reflect"
	"testing"
)

func TestFeedDecodesCompleteBlocks(t *testing.T) {
	chunk := []byte("id: 7\nevent: TEXT\ndata: {\"content\":\"Hello\"}\n\n" +
		"event: THINKING_START\ndata: {}\n\n")

	events, rest := Feed(nil, chunk)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if len(rest) != 0 {
		t.Errorf("expected empty remainder, got %q", rest)
	}

	if events[0].ID != "7" {
		t.Errorf("expected event id 7, got %q", events[0].ID)
	}
	text, ok := events[0].Event.(TextEvent)
	if !ok {
		t.Fatalf("expected TextEvent, got %T", events[0].Event)
	}
	if text.Content != "Hello" {
		t.Errorf("expected content Hello, got %q", text.Content)
	}

	if _, ok := events[1].Event.(ThinkingStartEvent); !ok {
		t.Errorf("expected ThinkingStartEvent, got %T", events[1].Event)
	}
}

func TestFeedBuffersPartialBlocks(t *testing.T) {
	first := []byte("event: TEXT\ndata: {\"con")
	second := []byte("tent\":\"split\"}\n\n")

	events, rest := Feed(nil, first)
	if len(events) != 0 {
		t.Fatalf("expected no events from partial block, got %d", len(events))
	}
	if string(rest) != string(first) {
		t.Errorf("remainder should carry the partial block, got %q", rest)
	}

	events, rest = Feed(rest, second)
	if len(events) != 1 {
		t.Fatalf("expected 1 event after completion, got %d", len(events))
	}
	if len(rest) != 0 {
		t.Errorf("expected empty remainder, got %q", rest)
	}
	text := events[0].Event.(TextEvent)
	if text.Content != "split" {
		t.Errorf("expected content split, got %q", text.Content)
	}
}

func TestFeedHandlesCRLFFraming(t *testing.T) {
	chunk := []byte("event: TEXT\r\ndata: {\"content\":\"crlf\"}\r\n\r\n")

	events, rest := Feed(nil, chunk)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if len(rest) != 0 {
		t.Errorf("expected empty remainder, got %q", rest)
	}
	if got := events[0].Event.(TextEvent).Content; got != "crlf" {
		t.Errorf("expected content crlf, got %q", got)
	}
}

func TestFeedSkipsMalformedAndUnknown(t *testing.T) {
	chunk := []byte("event: TEXT\ndata: {not json\n\n" +
		"event: SHINY_NEW_TAG\ndata: {}\n\n" +
		"event: TEXT\ndata: {\"content\":\"ok\"}\n\n")

	events, _ := Feed(nil, chunk)
	if len(events) != 1 {
		t.Fatalf("expected only the valid event, got %d", len(events))
	}
	if got := events[0].Event.(TextEvent).Content; got != "ok" {
		t.Errorf("expected content ok, got %q", got)
	}
}

func TestFeedIgnoresBlocksWithoutTag(t *testing.T) {
	chunk := []byte(": keepalive comment\n\ndata: {\"content\":\"orphan\"}\n\n")

	events, _ := Feed(nil, chunk)
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestParseEventPayloads(t *testing.T) {
	tests := []struct {
		name string
		tag  EventType
		data string
		want Event
	}{
		{
			name: "meta",
			tag:  EventMeta,
			data: `{"conversation_id":"conv-1","turn_id":"t-1","phase":"running"}`,
			want: MetaEvent{ConversationID: "conv-1", TurnID: "t-1", Phase: PhaseRunning},
		},
		{
			name: "file start",
			tag:  EventFileStart,
			data: `{"path":"src/App.tsx"}`,
			want: FileStartEvent{Path: "src/App.tsx"},
		},
		{
			name: "install batch",
			tag:  EventInstallContent,
			data: `{"packages":["react","zustand"]}`,
			want: InstallContentEvent{Packages: []string{"react", "zustand"}},
		},
		{
			name: "metrics",
			tag:  EventMetrics,
			data: `{"input_tokens":120,"output_tokens":900,"duration_ms":5400,"cost_usd":0.0123}`,
			want: MetricsEvent{InputTokens: 120, OutputTokens: 900, DurationMS: 5400, CostUSD: 0.0123},
		},
		{
			name: "preview url",
			tag:  EventPreviewURL,
			data: `{"url":"https://preview.hatch.dev/abc"}`,
			want: PreviewURLEvent{URL: "https://preview.hatch.dev/abc"},
		},
		{
			name: "error",
			tag:  EventError,
			data: `{"message":"model overloaded"}`,
			want: ErrorEvent{Message: "model overloaded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent(tt.tag, []byte(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseEventUnknownTag(t *testing.T) {
	got, err := ParseEvent(EventType("FUTURE_TAG"), []byte(`{"x":1}`))
	if err != nil {
		t.Fatalf("unknown tags must not error: %v", err)
	}
	if got != nil {
		t.Errorf("unknown tags must decode to nil, got %#v", got)
	}
}

func TestParseCommandLegacyStringArgs(t *testing.T) {
	got, err := ParseEvent(EventCommand, []byte(`{"program":"npm","args":"install --save-dev vitest"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmd := got.(CommandEvent)
	if cmd.Program != "npm" {
		t.Errorf("expected program npm, got %q", cmd.Program)
	}
	want := []string{"install", "--save-dev", "vitest"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("expected args %v, got %v", want, cmd.Args)
	}
}

func TestParseCommandArrayArgs(t *testing.T) {
	exit := 0
	got, err := ParseEvent(EventCommand, []byte(`{"program":"npm","args":["run","build"],"exit_code":0}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmd := got.(CommandEvent)
	if !reflect.DeepEqual(cmd.Args, []string{"run", "build"}) {
		t.Errorf("unexpected args: %v", cmd.Args)
	}
	if cmd.ExitCode == nil || *cmd.ExitCode != exit {
		t.Errorf("expected exit code 0, got %v", cmd.ExitCode)
	}
}

func TestMetaSessionComplete(t *testing.T) {
	if (MetaEvent{Phase: PhaseRunning}).SessionComplete() {
		t.Error("running phase must not report session complete")
	}
	if !(MetaEvent{Phase: PhaseSessionComplete}).SessionComplete() {
		t.Error("session_complete phase must report session complete")
	}
}
