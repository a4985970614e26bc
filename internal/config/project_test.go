// Package config provides project configuration management.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `project:
  id: proj-abc
  name: My App
conversations:
  landing: conv-111
  checkout: conv-222
defaults:
  open_browser: true
  timeout: 300
  export_dir: ./out
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig failed: %v", err)
	}
	if cfg.Project.ID != "proj-abc" || cfg.Project.Name != "My App" {
		t.Errorf("unexpected project: %+v", cfg.Project)
	}
	if cfg.Conversations["landing"] != "conv-111" {
		t.Errorf("conversations = %v", cfg.Conversations)
	}
	if !cfg.Defaults.OpenBrowser || cfg.Defaults.Timeout != 300 || cfg.Defaults.ExportDir != "./out" {
		t.Errorf("unexpected defaults: %+v", cfg.Defaults)
	}
}

func TestLoadProjectConfigInitializesMaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("project:\n  name: Bare\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig failed: %v", err)
	}
	if cfg.Conversations == nil {
		t.Error("Conversations map should be initialized")
	}
}

func TestWriteAndReloadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".hatch", "config.yaml")

	cfg := &ProjectConfig{
		Project: Project{Name: "Round Trip"},
	}
	cfg.SetConversationAlias("main", "conv-999")

	if err := WriteProjectConfig(path, cfg); err != nil {
		t.Fatalf("WriteProjectConfig failed: %v", err)
	}

	loaded, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig failed: %v", err)
	}
	if loaded.Project.Name != "Round Trip" {
		t.Errorf("Project.Name = %q", loaded.Project.Name)
	}
	if loaded.Conversations["main"] != "conv-999" {
		t.Errorf("alias not round-tripped: %v", loaded.Conversations)
	}
}

func TestResolveConversation(t *testing.T) {
	cfg := &ProjectConfig{
		Conversations: map[string]string{"landing": "conv-111"},
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "alias resolves", input: "landing", want: "conv-111"},
		{name: "raw id passes through", input: "conv-555", want: "conv-555"},
		{name: "unknown alias passes through", input: "nope", want: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ResolveConversation(tt.input); got != tt.want {
				t.Errorf("ResolveConversation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".hatch"), 0755); err != nil {
		t.Fatalf("failed to create .hatch dir: %v", err)
	}
	nested := filepath.Join(root, "src", "components")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot failed: %v", err)
	}
	// macOS temp dirs resolve through symlinks, so compare via EvalSymlinks.
	wantResolved, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Errorf("FindProjectRoot = %q, want %q", got, root)
	}
}

func TestFindProjectRootNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindProjectRoot(dir); err == nil {
		t.Fatal("expected error when no .hatch/ directory exists")
	}
}
