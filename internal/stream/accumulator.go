// Package stream contains the turn accumulator and the replay coordinator:
// the components that turn a fragile byte stream of protocol events into a
// consistent, incrementally-updated view of an assistant turn.
//
// The accumulator interprets one event at a time into state actions and
// running buffers; the runner drives it over a live stream, batching the
// actions through the dispatcher, and transparently reopens the stream from
// the last observed cursor when it ends before the turn is complete.
package stream

import (
	"time"

	"github.com/hatch-dev/cli/internal/protocol"
	"github.com/hatch-dev/cli/internal/state"
)

// ResolveFunc is called when a META event resolves the conversation id the
// stream was opened with (a temporary/placeholder id) to the real backend id.
// All subsequent actions are addressed under the new id.
type ResolveFunc func(oldID, newID string)

// Accumulator consumes protocol events for one turn, in arrival order, and
// produces state actions plus the running buffers behind the final Result.
type Accumulator struct {
	conversationID string
	onResolve      ResolveFunc
	now            func() time.Time

	lastEventID string
	completed   bool

	meta           *protocol.MetaEvent
	text           string
	thinking       string
	thinkingStart  time.Time
	thinkingOpen   bool
	openFile       *state.File
	completedFiles []state.File
	installing     []string
	installTouched bool
	command        *protocol.CommandEvent
	webSearches    []protocol.WebSearchEvent
	lastSearchKey  string
	metrics        *protocol.MetricsEvent
	previewURL     string
	errMsg         string
}

// NewAccumulator creates an accumulator addressing actions under the given
// conversation id. onResolve may be nil when the caller opened the stream
// with a known-final id.
func NewAccumulator(conversationID string, onResolve ResolveFunc) *Accumulator {
	return &Accumulator{
		conversationID: conversationID,
		onResolve:      onResolve,
		now:            time.Now,
	}
}

// ConversationID returns the id actions are currently addressed under. It
// changes when a META event resolves a placeholder id.
func (a *Accumulator) ConversationID() string { return a.conversationID }

// LastEventID returns the resume cursor: the id of the last event observed.
func (a *Accumulator) LastEventID() string { return a.lastEventID }

// Completed reports whether a META with the session-complete phase arrived.
func (a *Accumulator) Completed() bool { return a.completed }

// TurnID returns the turn identifier from metadata, if any was observed.
func (a *Accumulator) TurnID() string {
	if a.meta == nil {
		return ""
	}
	return a.meta.TurnID
}

// Apply interprets one event into zero or more state actions (at most one
// for every tag except a META that also renames the stream) and updates the
// accumulation buffers.
func (a *Accumulator) Apply(ev protocol.TaggedEvent) []state.Action {
	if ev.ID != "" {
		a.lastEventID = ev.ID
	}

	switch e := ev.Event.(type) {
	case protocol.MetaEvent:
		return a.applyMeta(e)

	case protocol.TextEvent:
		a.text += e.Content
		return a.emit(state.AppendText{ConversationID: a.conversationID, Content: e.Content})

	case protocol.ThinkingStartEvent:
		a.thinkingStart = a.now()
		a.thinkingOpen = true
		return a.emit(state.StartThinking{ConversationID: a.conversationID})

	case protocol.ThinkingContentEvent:
		a.thinking += e.Content
		return a.emit(state.AppendThinking{ConversationID: a.conversationID, Content: e.Content})

	case protocol.ThinkingEndEvent:
		var dur *int
		if a.thinkingOpen {
			seconds := int(a.now().Sub(a.thinkingStart).Seconds())
			dur = &seconds
			a.thinkingOpen = false
		}
		return a.emit(state.EndThinking{ConversationID: a.conversationID, DurationSeconds: dur})

	case protocol.FileStartEvent:
		a.openFile = &state.File{Path: e.Path}
		return a.emit(state.StartFile{ConversationID: a.conversationID, Path: e.Path})

	case protocol.FileContentEvent:
		if a.openFile == nil {
			return nil
		}
		a.openFile.Content += e.Content
		return a.emit(state.AppendFileContent{
			ConversationID: a.conversationID,
			Path:           a.openFile.Path,
			Content:        e.Content,
		})

	case protocol.FileEndEvent:
		if a.openFile == nil {
			// No open file: duplicate or out-of-order end, ignore.
			return nil
		}
		done := *a.openFile
		done.IsComplete = true
		a.completedFiles = append(a.completedFiles, done)
		path := done.Path
		a.openFile = nil
		return a.emit(state.CompleteFile{ConversationID: a.conversationID, Path: path})

	case protocol.InstallContentEvent:
		a.installing = append([]string(nil), e.Packages...)
		a.installTouched = true
		return a.emit(state.SetInstallingDeps{ConversationID: a.conversationID, Packages: e.Packages})

	case protocol.InstallEndEvent:
		a.installing = nil
		a.installTouched = true
		return a.emit(state.SetInstallingDeps{ConversationID: a.conversationID})

	case protocol.SandboxStartEvent:
		return a.emit(state.SetSandboxing{ConversationID: a.conversationID, Sandboxing: true})

	case protocol.SandboxEndEvent:
		return a.emit(state.SetSandboxing{ConversationID: a.conversationID, Sandboxing: false})

	case protocol.CommandEvent:
		cmd := e
		a.command = &cmd
		return a.emit(state.SetCommand{ConversationID: a.conversationID, Command: e})

	case protocol.WebSearchEvent:
		key := e.Fingerprint()
		if key == a.lastSearchKey {
			// Structural duplicate of the immediately preceding search.
			return nil
		}
		a.lastSearchKey = key
		a.webSearches = append(a.webSearches, e)
		return a.emit(state.SetWebSearch{ConversationID: a.conversationID, Search: e})

	case protocol.URLScrapeEvent:
		return a.emit(state.SetURLScrape{ConversationID: a.conversationID, Scrape: e})

	case protocol.ErrorEvent:
		a.errMsg = e.Message
		return a.emit(state.SetError{ConversationID: a.conversationID, Message: e.Message})

	case protocol.MetricsEvent:
		metrics := e
		a.metrics = &metrics
		return a.emit(state.SetMetrics{ConversationID: a.conversationID, Metrics: e})

	case protocol.PreviewURLEvent:
		a.previewURL = e.URL
		return a.emit(state.SetPreviewURL{ConversationID: a.conversationID, URL: e.URL})

	case protocol.BuildStatusEvent, protocol.DoneEvent:
		// Recognized but owned by the build-status stream, no mutation here.
		return nil

	default:
		return nil
	}
}

func (a *Accumulator) applyMeta(e protocol.MetaEvent) []state.Action {
	var actions []state.Action

	if e.ConversationID != "" && e.ConversationID != a.conversationID {
		// Conversation id resolution: rekey the state entry and address all
		// subsequent actions under the backend-assigned id.
		actions = append(actions, state.RenameStream{From: a.conversationID, To: e.ConversationID})
		if a.onResolve != nil {
			a.onResolve(a.conversationID, e.ConversationID)
		}
		a.conversationID = e.ConversationID
	}

	meta := e
	a.meta = &meta
	if e.SessionComplete() {
		a.completed = true
	}

	return append(actions, state.SetMeta{ConversationID: a.conversationID, Meta: e})
}

func (a *Accumulator) emit(action state.Action) []state.Action {
	return []state.Action{action}
}

// Result snapshots the accumulation buffers into the turn's terminal output.
func (a *Accumulator) Result() Result {
	return Result{
		Meta:                  a.meta,
		Text:                  a.text,
		Thinking:              a.thinking,
		CompletedFiles:        append([]state.File(nil), a.completedFiles...),
		InstallingDeps:        append([]string(nil), a.installing...),
		InstallingDepsTouched: a.installTouched,
		Command:               a.command,
		WebSearches:           append([]protocol.WebSearchEvent(nil), a.webSearches...),
		Metrics:               a.metrics,
		PreviewURL:            a.previewURL,
		Error:                 a.errMsg,
	}
}
