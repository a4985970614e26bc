package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hatch-dev/cli/internal/state"
)

func TestExportWritesCompleteFiles(t *testing.T) {
	dir := t.TempDir()

	files := []state.File{
		{Path: "package.json", Content: `{"name":"demo"}`, IsComplete: true},
		{Path: "src/App.tsx", Content: "export default function App() {}", IsComplete: true},
		{Path: "src/partial.ts", Content: "const x =", IsComplete: false},
	}

	summary, err := Export(files, ExportOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(summary.Written) != 2 {
		t.Fatalf("expected 2 files written, got %d: %v", len(summary.Written), summary.Written)
	}

	got, err := os.ReadFile(filepath.Join(dir, "src", "App.tsx"))
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if string(got) != "export default function App() {}" {
		t.Errorf("unexpected content: %q", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "src", "partial.ts")); !os.IsNotExist(err) {
		t.Error("incomplete file should not be exported")
	}
}

func TestExportSkipsDirtyUnlessForced(t *testing.T) {
	dir := t.TempDir()
	files := []state.File{
		{Path: "src/App.tsx", Content: "v2", IsComplete: true},
	}
	dirty := map[string]bool{filepath.FromSlash("src/App.tsx"): true}

	summary, err := Export(files, ExportOptions{Dir: dir, Dirty: dirty})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(summary.Skipped) != 1 || len(summary.Written) != 0 {
		t.Fatalf("expected dirty file skipped, got written=%v skipped=%v", summary.Written, summary.Skipped)
	}

	summary, err = Export(files, ExportOptions{Dir: dir, Dirty: dirty, Force: true})
	if err != nil {
		t.Fatalf("forced Export failed: %v", err)
	}
	if len(summary.Written) != 1 {
		t.Fatalf("expected forced overwrite, got written=%v", summary.Written)
	}
}

func TestExportRejectsUnsafePaths(t *testing.T) {
	dir := t.TempDir()
	files := []state.File{
		{Path: "../escape.txt", Content: "nope", IsComplete: true},
	}
	if _, err := Export(files, ExportOptions{Dir: dir}); err == nil {
		t.Fatal("expected error for path escaping the export directory")
	}
}
