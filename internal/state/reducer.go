package state

import "github.com/charmbracelet/log"

// Reduce applies one action to the conversation state map and returns the
// next generation. It is pure: the input map is never mutated, untouched
// conversations keep their existing *StreamState (structural sharing), and
// only the addressed entry is deep-copied before modification.
func Reduce(m Map, action Action) Map {
	switch a := action.(type) {
	case RemoveStream:
		if _, ok := m[a.ConversationID]; !ok {
			return m
		}
		next := copyMap(m)
		delete(next, a.ConversationID)
		return next

	case StartStreaming:
		next := copyMap(m)
		next[a.ConversationID] = &StreamState{IsStreaming: true}
		return next

	case StopStreaming:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.IsStreaming = false
			s.IsThinking = false
		})

	case SetError:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.Error = a.Message
		})

	case SetMeta:
		return update(m, a.ConversationID, func(s *StreamState) {
			meta := a.Meta
			s.Meta = &meta
		})

	case AppendText:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.StreamingText += a.Content
		})

	case StartThinking:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.IsThinking = true
		})

	case AppendThinking:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.ThinkingText += a.Content
		})

	case EndThinking:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.IsThinking = false
			s.ThinkingDurationSeconds = a.DurationSeconds
		})

	case StartFile:
		return update(m, a.ConversationID, func(s *StreamState) {
			for i := range s.ActiveFiles {
				if s.ActiveFiles[i].Path == a.Path {
					// Restarted file: reset its content in place.
					s.ActiveFiles[i].Content = ""
					return
				}
			}
			s.ActiveFiles = append(s.ActiveFiles, File{Path: a.Path})
		})

	case AppendFileContent:
		return update(m, a.ConversationID, func(s *StreamState) {
			for i := range s.ActiveFiles {
				if s.ActiveFiles[i].Path == a.Path {
					s.ActiveFiles[i].Content += a.Content
					return
				}
			}
			log.Debug("append to unknown active file", "path", a.Path)
		})

	case CompleteFile:
		return update(m, a.ConversationID, func(s *StreamState) {
			for i := range s.ActiveFiles {
				if s.ActiveFiles[i].Path != a.Path {
					continue
				}
				done := s.ActiveFiles[i]
				done.IsComplete = true
				s.ActiveFiles = append(s.ActiveFiles[:i:i], s.ActiveFiles[i+1:]...)
				s.CompletedFiles = append(s.CompletedFiles, done)
				return
			}
			// Unknown path: duplicate or out-of-order end event, keep going.
			log.Debug("complete for inactive file", "path", a.Path)
		})

	case SetInstallingDeps:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.InstallingDeps = append([]string(nil), a.Packages...)
		})

	case SetSandboxing:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.IsSandboxing = a.Sandboxing
		})

	case SetCommand:
		return update(m, a.ConversationID, func(s *StreamState) {
			cmd := a.Command
			s.Command = &cmd
		})

	case SetWebSearch:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.WebSearches = append(s.WebSearches, a.Search)
		})

	case SetURLScrape:
		return update(m, a.ConversationID, func(s *StreamState) {
			scrape := a.Scrape
			s.URLScrape = &scrape
		})

	case SetMetrics:
		return update(m, a.ConversationID, func(s *StreamState) {
			metrics := a.Metrics
			s.Metrics = &metrics
		})

	case SetPreviewURL:
		return update(m, a.ConversationID, func(s *StreamState) {
			s.PreviewURL = a.URL
		})

	case RenameStream:
		entry, ok := m[a.From]
		if !ok || a.From == a.To {
			return m
		}
		next := copyMap(m)
		delete(next, a.From)
		next[a.To] = entry
		return next

	default:
		log.Warn("unknown action", "kind", action.Kind())
		return m
	}
}

// update clones the addressed entry (or starts from an empty StreamState for
// an unknown conversation), applies fn, and returns the next map generation.
func update(m Map, conversationID string, fn func(*StreamState)) Map {
	base := &StreamState{}
	if cur, ok := m[conversationID]; ok {
		base = cur
	}
	entry := base.clone()
	fn(entry)

	next := copyMap(m)
	next[conversationID] = entry
	return next
}

func copyMap(m Map) Map {
	next := make(Map, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	return next
}
