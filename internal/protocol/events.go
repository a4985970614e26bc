// Package protocol defines the wire contract for Hatch turn streams.
//
// A turn stream is a long-lived text/event-stream response describing one
// assistant turn in progress: prose, reasoning, generated files, dependency
// installs, shell commands, web searches, metrics, and sandbox/build status.
// Each wire event carries a tag (the SSE event name), a JSON payload, and an
// optional monotonically-useful event id used as the resume cursor after a
// disconnect.
package protocol

import (
	"encoding/json"
	"strconv"
)

// EventType is the wire-level tag discriminating protocol events.
type EventType string

const (
	EventMeta            EventType = "META"
	EventText            EventType = "TEXT"
	EventThinkingStart   EventType = "THINKING_START"
	EventThinkingContent EventType = "THINKING_CONTENT"
	EventThinkingEnd     EventType = "THINKING_END"
	EventFileStart       EventType = "FILE_START"
	EventFileContent     EventType = "FILE_CONTENT"
	EventFileEnd         EventType = "FILE_END"
	EventInstallContent  EventType = "INSTALL_CONTENT"
	EventInstallEnd      EventType = "INSTALL_END"
	EventSandboxStart    EventType = "SANDBOX_START"
	EventSandboxEnd      EventType = "SANDBOX_END"
	EventCommand         EventType = "COMMAND"
	EventWebSearch       EventType = "WEB_SEARCH"
	EventURLScrape       EventType = "URL_SCRAPE"
	EventError           EventType = "ERROR"
	EventMetrics         EventType = "METRICS"
	EventPreviewURL      EventType = "PREVIEW_URL"
	EventBuildStatus     EventType = "BUILD_STATUS"
	EventDone            EventType = "DONE"
)

// Turn phases reported by META events. PhaseSessionComplete marks the turn as
// fully finished and gates replay-on-disconnect.
const (
	PhaseRunning         = "running"
	PhaseSessionComplete = "session_complete"
)

// Event is the closed union of decoded protocol events. Unknown tags are
// skipped by the decoder and never surface as an Event.
type Event interface {
	Type() EventType
}

// MetaEvent carries turn metadata. The backend may resolve a temporary
// conversation id to the real one via the first META of a turn.
type MetaEvent struct {
	ConversationID string `json:"conversation_id"`
	TurnID         string `json:"turn_id"`
	Phase          string `json:"phase"`
}

// Type returns the event type.
func (MetaEvent) Type() EventType { return EventMeta }

// SessionComplete reports whether this META marks the end of the turn.
func (e MetaEvent) SessionComplete() bool { return e.Phase == PhaseSessionComplete }

// TextEvent carries a chunk of assistant prose.
type TextEvent struct {
	Content string `json:"content"`
}

// Type returns the event type.
func (TextEvent) Type() EventType { return EventText }

// ThinkingStartEvent marks the beginning of a reasoning phase.
type ThinkingStartEvent struct{}

// Type returns the event type.
func (ThinkingStartEvent) Type() EventType { return EventThinkingStart }

// ThinkingContentEvent carries a chunk of reasoning text.
type ThinkingContentEvent struct {
	Content string `json:"content"`
}

// Type returns the event type.
func (ThinkingContentEvent) Type() EventType { return EventThinkingContent }

// ThinkingEndEvent marks the end of a reasoning phase.
type ThinkingEndEvent struct{}

// Type returns the event type.
func (ThinkingEndEvent) Type() EventType { return EventThinkingEnd }

// FileStartEvent opens a new generated file at the given path. At most one
// file is open at a time on the wire.
type FileStartEvent struct {
	Path string `json:"path"`
}

// Type returns the event type.
func (FileStartEvent) Type() EventType { return EventFileStart }

// FileContentEvent appends content to the currently-open file.
type FileContentEvent struct {
	Content string `json:"content"`
}

// Type returns the event type.
func (FileContentEvent) Type() EventType { return EventFileContent }

// FileEndEvent closes the currently-open file.
type FileEndEvent struct{}

// Type returns the event type.
func (FileEndEvent) Type() EventType { return EventFileEnd }

// InstallContentEvent replaces the current dependency install batch wholesale.
type InstallContentEvent struct {
	Packages []string `json:"packages"`
}

// Type returns the event type.
func (InstallContentEvent) Type() EventType { return EventInstallContent }

// InstallEndEvent marks the install batch as finished.
type InstallEndEvent struct{}

// Type returns the event type.
func (InstallEndEvent) Type() EventType { return EventInstallEnd }

// SandboxStartEvent marks the sandbox as provisioning/booting.
type SandboxStartEvent struct{}

// Type returns the event type.
func (SandboxStartEvent) Type() EventType { return EventSandboxStart }

// SandboxEndEvent marks the sandbox as ready.
type SandboxEndEvent struct{}

// Type returns the event type.
func (SandboxEndEvent) Type() EventType { return EventSandboxEnd }

// CommandEvent describes the most recent shell command run in the sandbox.
// It replaces any previous command; commands are not accumulated.
type CommandEvent struct {
	Program  string   `json:"program"`
	Args     []string `json:"args,omitempty"`
	Stdout   string   `json:"stdout,omitempty"`
	Stderr   string   `json:"stderr,omitempty"`
	ExitCode *int     `json:"exit_code,omitempty"`
}

// Type returns the event type.
func (CommandEvent) Type() EventType { return EventCommand }

// WebSearchResult is a single hit in a web search.
type WebSearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// WebSearchEvent carries one web search and its results. Raw preserves the
// serialized payload so adjacent structural duplicates can be suppressed.
type WebSearchEvent struct {
	Query   string            `json:"query"`
	Results []WebSearchResult `json:"results,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Type returns the event type.
func (WebSearchEvent) Type() EventType { return EventWebSearch }

// Fingerprint returns the serialized content used for adjacent-duplicate
// suppression. Falls back to re-marshaling when the event was constructed
// in-process rather than decoded from the wire.
func (e WebSearchEvent) Fingerprint() string {
	if len(e.Raw) > 0 {
		return string(e.Raw)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return e.Query + "#" + strconv.Itoa(len(e.Results))
	}
	return string(b)
}

// URLScrapeEvent carries the result of scraping a single URL.
type URLScrapeEvent struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// Type returns the event type.
func (URLScrapeEvent) Type() EventType { return EventURLScrape }

// ErrorEvent sets the turn's error message. It does not terminate the stream.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Type returns the event type.
func (ErrorEvent) Type() EventType { return EventError }

// MetricsEvent replaces the turn's running metrics.
type MetricsEvent struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	DurationMS   int64   `json:"duration_ms"`
	CostUSD      float64 `json:"cost_usd,omitempty"`
}

// Type returns the event type.
func (MetricsEvent) Type() EventType { return EventMetrics }

// PreviewURLEvent replaces the turn's sandbox preview URL.
type PreviewURLEvent struct {
	URL string `json:"url"`
}

// Type returns the event type.
func (PreviewURLEvent) Type() EventType { return EventPreviewURL }

// BuildStatusEvent reports sandbox build progress. It is recognized here for
// exhaustiveness but consumed by the separate build-status stream (see
// internal/buildstatus), not by the turn accumulator.
type BuildStatusEvent struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Type returns the event type.
func (BuildStatusEvent) Type() EventType { return EventBuildStatus }

// DoneEvent marks the end of the build-status stream. Like BuildStatusEvent
// it produces no state mutation in the turn accumulator.
type DoneEvent struct{}

// Type returns the event type.
func (DoneEvent) Type() EventType { return EventDone }
