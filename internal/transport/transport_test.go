package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/hatch-dev/cli/internal/stream"
)

func TestOpenTurnStreamSendsPromptAndHeaders(t *testing.T) {
	var gotPath, gotAuth, gotAccept, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: TEXT\ndata: {\"content\":\"hi\"}\n\n"))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	body, err := client.OpenTurnStream(context.Background(), "conv-1", stream.OpenOptions{Prompt: "build it"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if !strings.Contains(string(data), "event: TEXT") {
		t.Errorf("expected stream body, got %q", data)
	}

	if gotPath != "/api/v1/conversations/conv-1/turns/stream" {
		t.Errorf("unexpected path: %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("unexpected accept header: %q", gotAccept)
	}
	if got := gjson.Get(gotBody, "prompt").String(); got != "build it" {
		t.Errorf("unexpected prompt in body: %q", gotBody)
	}
	if gjson.Get(gotBody, "resume_from_event_id").Exists() {
		t.Errorf("fresh turn must not carry a resume cursor: %q", gotBody)
	}
}

func TestOpenTurnStreamResumeCursor(t *testing.T) {
	var gotLastEventID, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLastEventID = r.Header.Get("Last-Event-ID")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte("event: DONE\ndata: {}\n\n"))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	body, err := client.OpenTurnStream(context.Background(), "conv-1", stream.OpenOptions{ResumeFromEventID: "42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body.Close()

	if gotLastEventID != "42" {
		t.Errorf("expected Last-Event-ID 42, got %q", gotLastEventID)
	}
	if got := gjson.Get(gotBody, "resume_from_event_id").String(); got != "42" {
		t.Errorf("expected resume cursor in body, got %q", gotBody)
	}
	if gjson.Get(gotBody, "prompt").Exists() {
		t.Errorf("replay must not resend a prompt: %q", gotBody)
	}
}

func TestOpenTurnStreamNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conversation not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	_, err := client.OpenTurnStream(context.Background(), "missing", stream.OpenOptions{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should carry the status code, got %v", err)
	}
	if !strings.Contains(err.Error(), "conversation not found") {
		t.Errorf("error should carry the response detail, got %v", err)
	}
}

func TestValidateAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/me" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"invalid api key"}`))
			return
		}
		w.Write([]byte(`{"email":"dev@hatch.dev","user_id":"u-1"}`))
	}))
	defer server.Close()

	t.Run("valid key", func(t *testing.T) {
		client := NewClientWithBaseURL("good-key", server.URL)
		info, err := client.ValidateAPIKey(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Email != "dev@hatch.dev" || info.UserID != "u-1" {
			t.Errorf("unexpected user info: %#v", info)
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		client := NewClientWithBaseURL("bad-key", server.URL)
		_, err := client.ValidateAPIKey(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", apiErr.StatusCode)
		}
	})
}

func TestBuildStreamURL(t *testing.T) {
	client := NewClientWithBaseURL("k", "https://api.hatch.dev")
	want := "https://api.hatch.dev/api/v1/conversations/conv-1/build/ws"
	if got := client.BuildStreamURL("conv-1"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
