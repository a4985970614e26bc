// Package state holds the per-conversation stream state and the pure reducer
// that is the only way to change it.
//
// A StreamState is the reconstructed view of one in-progress (or just
// finished) assistant turn. The ConversationStateMap keys StreamStates by
// conversation id so multiple independent turns can be in flight at once.
// There is no ambient global map: callers own a Store (or a raw Map) and
// thread it explicitly.
package state

import "github.com/hatch-dev/cli/internal/protocol"

// File is one generated file, either still being written (in ActiveFiles) or
// finished (in CompletedFiles). A path lives in exactly one of the two lists
// at a time and moves from active to completed exactly once.
type File struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	IsComplete bool   `json:"is_complete"`
}

// StreamState is the reconstructed view of one conversation's turn.
type StreamState struct {
	IsStreaming  bool
	IsThinking   bool
	IsSandboxing bool

	// StreamingText is the prose accumulated so far, append-only within a turn.
	StreamingText string

	ThinkingText            string
	ThinkingDurationSeconds *int

	// ActiveFiles are files currently being written, keyed by path, in
	// arrival order. Content grows in place.
	ActiveFiles []File

	// CompletedFiles hold finished files in their original arrival order.
	CompletedFiles []File

	// InstallingDeps is the current dependency install batch. It is replaced
	// wholesale on each INSTALL_CONTENT and cleared on INSTALL_END.
	InstallingDeps []string

	// Command is the most recent sandbox command. Overwritten, not accumulated.
	Command *protocol.CommandEvent

	WebSearches []protocol.WebSearchEvent
	URLScrape   *protocol.URLScrapeEvent
	Metrics     *protocol.MetricsEvent
	PreviewURL  string
	Error       string
	Meta        *protocol.MetaEvent
}

// Map is the conversation-id → StreamState mapping. Entries are short-lived:
// created when a turn starts, removed once its terminal housekeeping is done.
type Map map[string]*StreamState

// Get returns the state for a conversation, defaulting to an empty
// StreamState when the conversation is unknown. The returned value is a copy;
// mutating it never affects the map.
func (m Map) Get(conversationID string) StreamState {
	if s, ok := m[conversationID]; ok {
		return *s
	}
	return StreamState{}
}

// clone deep-copies a StreamState so reducer branches can mutate freely
// without touching the previous generation.
func (s *StreamState) clone() *StreamState {
	next := *s
	next.ActiveFiles = append([]File(nil), s.ActiveFiles...)
	next.CompletedFiles = append([]File(nil), s.CompletedFiles...)
	next.InstallingDeps = append([]string(nil), s.InstallingDeps...)
	next.WebSearches = append([]protocol.WebSearchEvent(nil), s.WebSearches...)
	return &next
}
