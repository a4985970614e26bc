package workspace

import (
	"testing"
	"time"

	"github.com/hatch-dev/cli/internal/state"
	"github.com/hatch-dev/cli/internal/stream"
)

func TestSaveAndLoadResult(t *testing.T) {
	dir := t.TempDir()

	res := stream.Result{
		Text: "Built a todo app",
		CompletedFiles: []state.File{
			{Path: "src/App.tsx", Content: "app", IsComplete: true},
		},
		PreviewURL: "https://preview.hatch.dev/abc",
	}

	if err := SaveResult(dir, "conv-123", res); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	loaded, err := LoadResult(dir, "conv-123")
	if err != nil {
		t.Fatalf("LoadResult failed: %v", err)
	}
	if loaded.Text != res.Text {
		t.Errorf("Text = %q, want %q", loaded.Text, res.Text)
	}
	if loaded.PreviewURL != res.PreviewURL {
		t.Errorf("PreviewURL = %q, want %q", loaded.PreviewURL, res.PreviewURL)
	}
	if len(loaded.CompletedFiles) != 1 || loaded.CompletedFiles[0].Path != "src/App.tsx" {
		t.Errorf("unexpected files: %+v", loaded.CompletedFiles)
	}
}

func TestLoadResultMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadResult(dir, "conv-missing"); err == nil {
		t.Fatal("expected error for missing result")
	}
}

func TestLatestConversationID(t *testing.T) {
	dir := t.TempDir()

	if _, err := LatestConversationID(dir); err == nil {
		t.Fatal("expected error when no results saved")
	}

	if err := SaveResult(dir, "conv-old", stream.Result{Text: "first"}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := SaveResult(dir, "conv-new", stream.Result{Text: "second"}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	got, err := LatestConversationID(dir)
	if err != nil {
		t.Fatalf("LatestConversationID failed: %v", err)
	}
	if got != "conv-new" {
		t.Errorf("LatestConversationID = %q, want %q", got, "conv-new")
	}
}
