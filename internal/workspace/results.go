package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hatch-dev/cli/internal/stream"
	"github.com/hatch-dev/cli/internal/util"
)

// savedResult wraps a turn result with enough context to use it later from a
// separate CLI invocation (export, open).
type savedResult struct {
	ConversationID string        `json:"conversation_id"`
	SavedAt        time.Time     `json:"saved_at"`
	Result         stream.Result `json:"result"`
}

// DefaultResultsDir returns the directory turn results are persisted to.
func DefaultResultsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".hatch", "turns"), nil
}

func resultPath(dir, conversationID string) (string, error) {
	name := util.SanitizeForFilename(conversationID)
	if name == "" {
		return "", fmt.Errorf("invalid conversation id: %q", conversationID)
	}
	return filepath.Join(dir, name+".json"), nil
}

// SaveResult persists the result of a completed turn so `hatch export` and
// `hatch open` can run after the chat session has exited.
func SaveResult(dir, conversationID string, res stream.Result) error {
	p, err := resultPath(dir, conversationID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	data, err := json.MarshalIndent(savedResult{
		ConversationID: conversationID,
		SavedAt:        time.Now().UTC(),
		Result:         res,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal turn result: %w", err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return fmt.Errorf("failed to save turn result: %w", err)
	}
	return nil
}

// LoadResult reads a previously saved turn result.
func LoadResult(dir, conversationID string) (stream.Result, error) {
	p, err := resultPath(dir, conversationID)
	if err != nil {
		return stream.Result{}, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return stream.Result{}, fmt.Errorf("no saved turn for conversation %s", conversationID)
		}
		return stream.Result{}, fmt.Errorf("failed to read turn result: %w", err)
	}

	var saved savedResult
	if err := json.Unmarshal(data, &saved); err != nil {
		return stream.Result{}, fmt.Errorf("failed to parse turn result: %w", err)
	}
	return saved.Result, nil
}

// LatestConversationID returns the conversation whose result was saved most
// recently, or an error when none exist.
func LatestConversationID(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no saved turns")
		}
		return "", fmt.Errorf("failed to read results directory: %w", err)
	}

	var (
		latest   string
		latestAt time.Time
	)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		var saved savedResult
		if err := json.Unmarshal(data, &saved); err != nil {
			continue
		}
		if saved.SavedAt.After(latestAt) {
			latestAt = saved.SavedAt
			latest = saved.ConversationID
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no saved turns")
	}
	return latest, nil
}
