// Package transport opens turn event streams against the Hatch backend.
//
// The backend exposes one streaming endpoint per conversation; opening it
// starts (or, with a resume cursor, replays) an assistant turn and returns a
// text/event-stream body that internal/protocol decodes. Everything above
// the byte stream lives in internal/stream.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/hatch-dev/cli/internal/stream"
)

const (
	// DefaultBaseURL is the production Hatch API base URL.
	DefaultBaseURL = "https://api.hatch.dev"

	// handshakeTimeout bounds the initial connect; the stream itself has no
	// deadline, turns can run for minutes.
	handshakeTimeout = 30 * time.Second
)

// Client opens turn streams over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a transport client against the production backend.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL creates a transport client with a custom base URL,
// used for dev mode and tests.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 0, // streaming connection, no overall deadline
			Transport: &http.Transport{
				ResponseHeaderTimeout: handshakeTimeout,
			},
		},
	}
}

// OpenTurnStream starts or resumes a turn for a conversation and returns the
// event-stream body. The caller owns the body and must close it; cancelling
// ctx aborts in-flight reads.
func (c *Client) OpenTurnStream(ctx context.Context, conversationID string, opts stream.OpenOptions) (io.ReadCloser, error) {
	streamURL := fmt.Sprintf("%s/api/v1/conversations/%s/turns/stream", c.baseURL, conversationID)

	body, err := buildTurnRequest(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build turn request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, streamURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if opts.ResumeFromEventID != "" {
		req.Header.Set("Last-Event-ID", opts.ResumeFromEventID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream connection failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, fmt.Errorf("stream connection failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return resp.Body, nil
}

// buildTurnRequest assembles the JSON request body. sjson keeps optional
// fields out of the payload entirely rather than sending empty strings.
func buildTurnRequest(opts stream.OpenOptions) (string, error) {
	body := "{}"
	var err error

	if opts.Prompt != "" {
		body, err = sjson.Set(body, "prompt", opts.Prompt)
		if err != nil {
			return "", err
		}
	}
	if opts.ResumeFromEventID != "" {
		body, err = sjson.Set(body, "resume_from_event_id", opts.ResumeFromEventID)
		if err != nil {
			return "", err
		}
	}

	return body, nil
}
