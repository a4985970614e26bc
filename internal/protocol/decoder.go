package protocol

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

// TaggedEvent pairs a decoded event with the stream id it arrived under.
// The id is the resume cursor for reopening a disconnected stream; it may be
// empty when the backend did not attach one.
type TaggedEvent struct {
	ID    string
	Event Event
}

// Feed consumes a chunk of raw stream bytes plus the unconsumed remainder of
// previous chunks, and returns all complete events found along with the new
// remainder. It is pure and resumable: the caller carries the remainder
// across reads, so events split across network packets decode correctly.
//
// Framing follows text/event-stream: "id:", "event:" and "data:" fields,
// with a blank line dispatching the pending event. Multi-line data fields
// are joined with newlines. Malformed payloads and unknown tags are skipped
// with a warning; they are never fatal to the stream.
func Feed(buf, chunk []byte) ([]TaggedEvent, []byte) {
	combined := buf
	if len(chunk) > 0 {
		combined = append(append([]byte{}, buf...), chunk...)
	}

	var events []TaggedEvent
	rest := combined

	for {
		sep, width := blockEnd(rest)
		if sep < 0 {
			break
		}
		block := rest[:sep]
		rest = rest[sep+width:]

		ev, ok := decodeBlock(block)
		if ok {
			events = append(events, ev)
		}
	}

	// Copy the remainder so callers never alias a buffer we re-slice next call.
	remainder := append([]byte{}, rest...)
	return events, remainder
}

// blockEnd finds the first blank-line separator ("\n\n" or "\r\n\r\n"),
// returning its offset and width, or (-1, 0) when the block is incomplete.
func blockEnd(b []byte) (int, int) {
	lf := bytes.Index(b, []byte("\n\n"))
	crlf := bytes.Index(b, []byte("\r\n\r\n"))
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf, 4
	default:
		return lf, 2
	}
}

// decodeBlock parses one blank-line-terminated event block.
func decodeBlock(block []byte) (TaggedEvent, bool) {
	var (
		id   string
		tag  string
		data strings.Builder
	)

	for _, line := range strings.Split(string(block), "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "id:"):
			id = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "event:"):
			tag = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteString("\n")
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// Comment lines (":") and retry: are ignored.
	}

	if tag == "" {
		return TaggedEvent{}, false
	}

	ev, err := ParseEvent(EventType(tag), []byte(data.String()))
	if err != nil {
		log.Warn("skipping malformed event payload", "tag", tag, "err", err)
		return TaggedEvent{}, false
	}
	if ev == nil {
		return TaggedEvent{}, false
	}

	return TaggedEvent{ID: id, Event: ev}, true
}

// ParseEvent decodes one event payload by tag. Unknown tags return (nil, nil)
// so a newer backend never breaks an older client.
func ParseEvent(tag EventType, data []byte) (Event, error) {
	switch tag {
	case EventMeta:
		var e MetaEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventText:
		var e TextEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventThinkingStart:
		return ThinkingStartEvent{}, nil
	case EventThinkingContent:
		var e ThinkingContentEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventThinkingEnd:
		return ThinkingEndEvent{}, nil
	case EventFileStart:
		var e FileStartEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventFileContent:
		var e FileContentEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventFileEnd:
		return FileEndEvent{}, nil
	case EventInstallContent:
		var e InstallContentEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventInstallEnd:
		return InstallEndEvent{}, nil
	case EventSandboxStart:
		return SandboxStartEvent{}, nil
	case EventSandboxEnd:
		return SandboxEndEvent{}, nil
	case EventCommand:
		return parseCommand(data)
	case EventWebSearch:
		var e WebSearchEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		e.Raw = append(json.RawMessage{}, data...)
		return e, nil
	case EventURLScrape:
		var e URLScrapeEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventError:
		var e ErrorEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventMetrics:
		var e MetricsEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventPreviewURL:
		var e PreviewURLEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventBuildStatus:
		var e BuildStatusEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventDone:
		return DoneEvent{}, nil
	default:
		log.Debug("ignoring unknown event tag", "tag", tag)
		return nil, nil
	}
}

// parseCommand decodes a COMMAND payload. Older backends sent args as a
// single space-joined string; newer ones send an array. gjson lets us accept
// both without a custom unmarshaler.
func parseCommand(data []byte) (Event, error) {
	var e CommandEvent
	if err := json.Unmarshal(data, &e); err != nil {
		args := gjson.GetBytes(data, "args")
		if args.Type != gjson.String {
			return nil, err
		}
		// Retry with args stripped, then split the legacy string form.
		var legacy struct {
			Program  string `json:"program"`
			Args     string `json:"args"`
			Stdout   string `json:"stdout"`
			Stderr   string `json:"stderr"`
			ExitCode *int   `json:"exit_code"`
		}
		if err2 := json.Unmarshal(data, &legacy); err2 != nil {
			return nil, err
		}
		e = CommandEvent{
			Program:  legacy.Program,
			Stdout:   legacy.Stdout,
			Stderr:   legacy.Stderr,
			ExitCode: legacy.ExitCode,
		}
		if legacy.Args != "" {
			e.Args = strings.Fields(legacy.Args)
		}
	}
	return e, nil
}
