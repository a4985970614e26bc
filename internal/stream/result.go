package stream

import (
	"github.com/hatch-dev/cli/internal/protocol"
	"github.com/hatch-dev/cli/internal/state"
)

// Result is the terminal output of one accumulator pass over a turn stream
// (or over the merge of an initial pass and its replay continuation). It is
// what gets persisted as the assistant message and fed back into caches.
type Result struct {
	Meta           *protocol.MetaEvent        `json:"meta,omitempty"`
	Text           string                     `json:"text"`
	Thinking       string                     `json:"thinking,omitempty"`
	CompletedFiles []state.File               `json:"completed_files,omitempty"`
	InstallingDeps []string                   `json:"installing_deps,omitempty"`
	Command        *protocol.CommandEvent     `json:"command,omitempty"`
	WebSearches    []protocol.WebSearchEvent  `json:"web_searches,omitempty"`
	Metrics        *protocol.MetricsEvent     `json:"metrics,omitempty"`
	PreviewURL     string                     `json:"preview_url,omitempty"`
	Error          string                     `json:"error,omitempty"`

	// InstallingDepsTouched distinguishes "no install activity" from
	// "installs happened and ended with an empty list". The merge needs the
	// distinction: a replay segment that touched installs wins wholesale.
	InstallingDepsTouched bool `json:"installing_deps_touched,omitempty"`
}

// Merge combines an initial partial result with the result of its replay
// continuation into one logically continuous turn result.
//
// Text and thinking concatenate (the replay is a continuation, not a
// replacement). Completed files union by path, preferring the complete copy
// so a path never regresses. Installs are wholesale-replaced only if the
// replay segment touched them. Everything else is last-non-empty-wins with
// the replay preferred.
func Merge(initial, replay Result) Result {
	merged := Result{
		Text:     initial.Text + replay.Text,
		Thinking: initial.Thinking + replay.Thinking,
	}

	merged.Meta = initial.Meta
	if replay.Meta != nil {
		merged.Meta = replay.Meta
	}

	merged.CompletedFiles = mergeFiles(initial.CompletedFiles, replay.CompletedFiles)

	if replay.InstallingDepsTouched {
		merged.InstallingDeps = replay.InstallingDeps
	} else {
		merged.InstallingDeps = initial.InstallingDeps
	}
	merged.InstallingDepsTouched = initial.InstallingDepsTouched || replay.InstallingDepsTouched

	merged.Command = initial.Command
	if replay.Command != nil {
		merged.Command = replay.Command
	}

	merged.WebSearches = append(append([]protocol.WebSearchEvent(nil),
		initial.WebSearches...), replay.WebSearches...)

	merged.Metrics = initial.Metrics
	if replay.Metrics != nil {
		merged.Metrics = replay.Metrics
	}

	merged.PreviewURL = initial.PreviewURL
	if replay.PreviewURL != "" {
		merged.PreviewURL = replay.PreviewURL
	}

	merged.Error = initial.Error
	if replay.Error != "" {
		merged.Error = replay.Error
	}

	return merged
}

// mergeFiles unions two completed-file lists by path, keeping initial order
// first. When a path appears in both, the complete copy wins.
func mergeFiles(initial, replay []state.File) []state.File {
	if len(initial) == 0 {
		return append([]state.File(nil), replay...)
	}

	merged := append([]state.File(nil), initial...)
	index := make(map[string]int, len(merged))
	for i, f := range merged {
		index[f.Path] = i
	}

	for _, f := range replay {
		i, seen := index[f.Path]
		if !seen {
			index[f.Path] = len(merged)
			merged = append(merged, f)
			continue
		}
		// Prefer the complete copy; a file should not regress to incomplete.
		if f.IsComplete || !merged[i].IsComplete {
			merged[i] = f
		}
	}

	return merged
}
