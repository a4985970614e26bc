package state

import "github.com/hatch-dev/cli/internal/protocol"

// ActionKind discriminates reducer actions.
type ActionKind string

const (
	KindRemoveStream      ActionKind = "remove_stream"
	KindStartStreaming    ActionKind = "start_streaming"
	KindStopStreaming     ActionKind = "stop_streaming"
	KindSetError          ActionKind = "set_error"
	KindSetMeta           ActionKind = "set_meta"
	KindAppendText        ActionKind = "append_text"
	KindStartThinking     ActionKind = "start_thinking"
	KindAppendThinking    ActionKind = "append_thinking"
	KindEndThinking       ActionKind = "end_thinking"
	KindStartFile         ActionKind = "start_file"
	KindAppendFileContent ActionKind = "append_file_content"
	KindCompleteFile      ActionKind = "complete_file"
	KindSetInstallingDeps ActionKind = "set_installing_deps"
	KindSetSandboxing     ActionKind = "set_sandboxing"
	KindSetCommand        ActionKind = "set_command"
	KindSetWebSearch      ActionKind = "set_web_search"
	KindSetURLScrape      ActionKind = "set_url_scrape"
	KindSetMetrics        ActionKind = "set_metrics"
	KindSetPreviewURL     ActionKind = "set_preview_url"
	KindRenameStream      ActionKind = "rename_stream"
)

// Action is the closed union of state mutations accepted by Reduce.
type Action interface {
	Kind() ActionKind
}

// RemoveStream drops the conversation's entry from the map.
type RemoveStream struct{ ConversationID string }

// Kind returns the action kind.
func (RemoveStream) Kind() ActionKind { return KindRemoveStream }

// StartStreaming resets the conversation to a fresh streaming StreamState.
type StartStreaming struct{ ConversationID string }

// Kind returns the action kind.
func (StartStreaming) Kind() ActionKind { return KindStartStreaming }

// StopStreaming clears the streaming flag, leaving accumulated state intact.
type StopStreaming struct{ ConversationID string }

// Kind returns the action kind.
func (StopStreaming) Kind() ActionKind { return KindStopStreaming }

// SetError records the turn's error message.
type SetError struct {
	ConversationID string
	Message        string
}

// Kind returns the action kind.
func (SetError) Kind() ActionKind { return KindSetError }

// SetMeta replaces the turn's metadata.
type SetMeta struct {
	ConversationID string
	Meta           protocol.MetaEvent
}

// Kind returns the action kind.
func (SetMeta) Kind() ActionKind { return KindSetMeta }

// AppendText appends a chunk of prose.
type AppendText struct {
	ConversationID string
	Content        string
}

// Kind returns the action kind.
func (AppendText) Kind() ActionKind { return KindAppendText }

// StartThinking marks the reasoning phase as active.
type StartThinking struct{ ConversationID string }

// Kind returns the action kind.
func (StartThinking) Kind() ActionKind { return KindStartThinking }

// AppendThinking appends a chunk of reasoning text.
type AppendThinking struct {
	ConversationID string
	Content        string
}

// Kind returns the action kind.
func (AppendThinking) Kind() ActionKind { return KindAppendThinking }

// EndThinking clears the thinking flag and records the elapsed duration.
// DurationSeconds is nil when no matching THINKING_START was observed.
type EndThinking struct {
	ConversationID  string
	DurationSeconds *int
}

// Kind returns the action kind.
func (EndThinking) Kind() ActionKind { return KindEndThinking }

// StartFile begins a new active file with empty content.
type StartFile struct {
	ConversationID string
	Path           string
}

// Kind returns the action kind.
func (StartFile) Kind() ActionKind { return KindStartFile }

// AppendFileContent grows an active file's content in place, keyed by path.
type AppendFileContent struct {
	ConversationID string
	Path           string
	Content        string
}

// Kind returns the action kind.
func (AppendFileContent) Kind() ActionKind { return KindAppendFileContent }

// CompleteFile moves a file from active to completed. A path that is not
// currently active is a no-op, defensive against duplicate end events.
type CompleteFile struct {
	ConversationID string
	Path           string
}

// Kind returns the action kind.
func (CompleteFile) Kind() ActionKind { return KindCompleteFile }

// SetInstallingDeps replaces the dependency install batch wholesale.
type SetInstallingDeps struct {
	ConversationID string
	Packages       []string
}

// Kind returns the action kind.
func (SetInstallingDeps) Kind() ActionKind { return KindSetInstallingDeps }

// SetSandboxing toggles the sandbox provisioning flag.
type SetSandboxing struct {
	ConversationID string
	Sandboxing     bool
}

// Kind returns the action kind.
func (SetSandboxing) Kind() ActionKind { return KindSetSandboxing }

// SetCommand replaces the most recent sandbox command.
type SetCommand struct {
	ConversationID string
	Command        protocol.CommandEvent
}

// Kind returns the action kind.
func (SetCommand) Kind() ActionKind { return KindSetCommand }

// SetWebSearch appends one web search record.
type SetWebSearch struct {
	ConversationID string
	Search         protocol.WebSearchEvent
}

// Kind returns the action kind.
func (SetWebSearch) Kind() ActionKind { return KindSetWebSearch }

// SetURLScrape replaces the last URL scrape record.
type SetURLScrape struct {
	ConversationID string
	Scrape         protocol.URLScrapeEvent
}

// Kind returns the action kind.
func (SetURLScrape) Kind() ActionKind { return KindSetURLScrape }

// SetMetrics replaces the turn's metrics.
type SetMetrics struct {
	ConversationID string
	Metrics        protocol.MetricsEvent
}

// Kind returns the action kind.
func (SetMetrics) Kind() ActionKind { return KindSetMetrics }

// SetPreviewURL replaces the sandbox preview URL.
type SetPreviewURL struct {
	ConversationID string
	URL            string
}

// Kind returns the action kind.
func (SetPreviewURL) Kind() ActionKind { return KindSetPreviewURL }

// RenameStream moves an entry from a temporary conversation key to the
// backend-resolved one, preserving all accumulated state. Used when a turn
// was opened under a placeholder id before the backend assigned the real one.
type RenameStream struct {
	From string
	To   string
}

// Kind returns the action kind.
func (RenameStream) Kind() ActionKind { return KindRenameStream }
