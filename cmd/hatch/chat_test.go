package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hatch-dev/cli/internal/transport"
)

var upgrader = websocket.Upgrader{}

// buildServer serves one websocket connection that writes the given frames in
// order, then keeps the connection open until the client closes it.
func buildServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

// A failed build must surface as an error the caller maps to the exit code,
// not terminate the process mid-command and skip deferred cleanup.
func TestWaitForBuildFailureReturnsError(t *testing.T) {
	server := buildServer(t, []string{
		`{"event_type":"BUILD_STATUS","status":"failed","detail":"out of disk"}`,
	})
	defer server.Close()

	client := transport.NewClientWithBaseURL("key", server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := waitForBuild(ctx, client, "conv-1", true)
	if !errors.Is(err, errCommandFailed) {
		t.Fatalf("expected errCommandFailed, got %v", err)
	}
}

func TestWaitForBuildReadySucceeds(t *testing.T) {
	server := buildServer(t, []string{
		`{"event_type":"BUILD_STATUS","status":"ready","preview_url":"https://preview.hatch.dev/x"}`,
	})
	defer server.Close()

	client := transport.NewClientWithBaseURL("key", server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := waitForBuild(ctx, client, "conv-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
