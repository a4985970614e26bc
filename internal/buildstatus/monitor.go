// Package buildstatus monitors the sandbox build stream over WebSocket.
//
// BUILD_STATUS and DONE tags on the turn stream only signal that build
// activity exists; the build itself reports progress on a dedicated
// per-sandbox WebSocket. This monitor consumes that stream so `hatch chat`
// can surface build progress and the moment the preview becomes available.
package buildstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Build statuses reported by the sandbox.
const (
	StatusQueued     = "queued"
	StatusInstalling = "installing"
	StatusBuilding   = "building"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// IsTerminal reports whether a build status is final.
func IsTerminal(status string) bool {
	return status == StatusReady || status == StatusFailed
}

// Message is one update from the build stream.
type Message struct {
	// EventType is "BUILD_STATUS", "DONE" or "ERROR".
	EventType string `json:"event_type,omitempty"`

	// Type carries ping/pong frames.
	Type string `json:"type,omitempty"`

	// Status is the current build status (see constants above).
	Status string `json:"status,omitempty"`

	// Detail is a human-readable progress line (current build step).
	Detail string `json:"detail,omitempty"`

	// PreviewURL is set once the sandbox preview is reachable.
	PreviewURL string `json:"preview_url,omitempty"`

	// ID correlates ping/pong frames.
	ID string `json:"id,omitempty"`

	// Raw preserves the original frame for decoding ERROR payloads.
	Raw []byte `json:"-"`
}

// Monitor consumes one sandbox's build stream.
type Monitor struct {
	conversationID string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	done      chan struct{}

	messages chan Message
	errors   chan error

	pingInterval time.Duration
}

// NewMonitor creates a monitor for one conversation's sandbox.
func NewMonitor(conversationID string) *Monitor {
	return &Monitor{
		conversationID: conversationID,
		done:           make(chan struct{}),
		messages:       make(chan Message, 64),
		errors:         make(chan error, 1),
		pingInterval:   25 * time.Second,
	}
}

// Connect dials the build stream. The URL may use http(s) schemes; they are
// rewritten to ws(s).
func (m *Monitor) Connect(ctx context.Context, wsURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	parsed, err := url.Parse(wsURL)
	if err != nil {
		return fmt.Errorf("invalid build stream URL: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	}

	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.DialContext(ctx, parsed.String(), nil)
	if err != nil {
		return fmt.Errorf("build stream connection failed: %w", err)
	}

	m.conn = conn
	m.connected = true

	go m.readLoop(conn)
	go m.pingLoop()

	return nil
}

// Messages returns the channel of build updates. Closed when the stream ends.
func (m *Monitor) Messages() <-chan Message { return m.messages }

// Errors returns the channel of connection errors.
func (m *Monitor) Errors() <-chan error { return m.errors }

// readLoop reads frames, answers pings, and forwards build updates.
func (m *Monitor) readLoop(conn *websocket.Conn) {
	defer func() {
		m.mu.Lock()
		m.connected = false
		m.mu.Unlock()
		close(m.messages)
	}()

	for {
		select {
		case <-m.done:
			return
		default:
		}

		_, frame, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-m.done:
			case m.errors <- fmt.Errorf("read error: %w", err):
			default:
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			continue
		}
		msg.Raw = frame

		if msg.Type == "ping" {
			m.sendPong(msg.ID)
			continue
		}

		select {
		case <-m.done:
			return
		case m.messages <- msg:
		}
	}
}

// pingLoop keeps the connection alive through idle build phases.
func (m *Monitor) pingLoop() {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			if !m.connected || m.conn == nil {
				m.mu.Unlock()
				return
			}
			ping := map[string]interface{}{
				"type": "ping",
				"id":   fmt.Sprintf("cli-%d", time.Now().UnixNano()),
			}
			if err := m.conn.WriteJSON(ping); err != nil {
				m.mu.Unlock()
				select {
				case m.errors <- fmt.Errorf("ping failed: %w", err):
				default:
				}
				return
			}
			m.mu.Unlock()
		}
	}
}

func (m *Monitor) sendPong(pingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected || m.conn == nil {
		return
	}
	_ = m.conn.WriteJSON(map[string]interface{}{"type": "pong", "id": pingID})
}

// WaitForTerminal blocks until the build reaches a terminal status or the
// stream ends, calling onProgress for intermediate updates.
func (m *Monitor) WaitForTerminal(ctx context.Context, onProgress func(Message)) (*Message, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err := <-m.errors:
			return nil, fmt.Errorf("build stream error: %w", err)

		case msg, ok := <-m.messages:
			if !ok {
				return nil, fmt.Errorf("build stream closed before completion")
			}

			if msg.EventType == "ERROR" {
				var payload struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(msg.Raw, &payload); err == nil && payload.Message != "" {
					return nil, fmt.Errorf("build error: %s", payload.Message)
				}
				return nil, fmt.Errorf("build error")
			}

			if msg.EventType == "DONE" || IsTerminal(msg.Status) {
				return &msg, nil
			}

			if onProgress != nil {
				onProgress(msg)
			}
		}
	}
}

// Close tears the connection down and stops both loops. Safe to call twice.
func (m *Monitor) Close() error {
	m.mu.Lock()
	alreadyClosed := m.closed
	m.closed = true
	m.connected = false
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if !alreadyClosed {
		close(m.done)
	}
	var closeErr error
	if conn != nil {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing"),
		)
		closeErr = conn.Close()
	}
	return closeErr
}
