package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is a non-200 response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// UserInfo describes the authenticated account.
type UserInfo struct {
	Email  string
	UserID string
}

// ValidateAPIKey checks the API key against the backend and returns the
// account it belongs to.
func (c *Client) ValidateAPIKey(ctx context.Context) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	return &UserInfo{
		Email:  gjson.GetBytes(body, "email").String(),
		UserID: gjson.GetBytes(body, "user_id").String(),
	}, nil
}

// BuildStreamURL returns the WebSocket endpoint for a conversation's sandbox
// build stream.
func (c *Client) BuildStreamURL(conversationID string) string {
	return fmt.Sprintf("%s/api/v1/conversations/%s/build/ws", c.baseURL, conversationID)
}
