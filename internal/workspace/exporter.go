// Package workspace writes generated app files to the local filesystem and
// tracks which of them the user has modified since the last export.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/hatch-dev/cli/internal/state"
	"github.com/hatch-dev/cli/internal/util"
)

// ExportOptions controls how completed files are written out.
type ExportOptions struct {
	// Dir is the export root. Created if missing.
	Dir string

	// Force overwrites files flagged as locally dirty.
	Force bool

	// Dirty is the set of relative paths the user has edited since the
	// last export. Entries here are skipped unless Force is set.
	Dirty map[string]bool
}

// ExportSummary reports what an export actually did.
type ExportSummary struct {
	Written []string
	Skipped []string
}

// Export writes every complete file to opts.Dir, creating parent directories
// as needed. Incomplete files are never written. Files with unsafe paths are
// rejected with an error rather than silently dropped.
func Export(files []state.File, opts ExportOptions) (ExportSummary, error) {
	var summary ExportSummary

	if opts.Dir == "" {
		return summary, fmt.Errorf("export directory not set")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return summary, fmt.Errorf("failed to create export directory: %w", err)
	}

	for _, f := range files {
		if !f.IsComplete {
			log.Debug("Skipping incomplete file", "path", f.Path)
			continue
		}

		rel, err := util.SafeRelPath(f.Path)
		if err != nil {
			return summary, fmt.Errorf("refusing to export %q: %w", f.Path, err)
		}

		if opts.Dirty[rel] && !opts.Force {
			log.Warn("Skipping locally modified file (use --force to overwrite)", "path", rel)
			summary.Skipped = append(summary.Skipped, rel)
			continue
		}

		dest := filepath.Join(opts.Dir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return summary, fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(dest, []byte(f.Content), 0o644); err != nil {
			return summary, fmt.Errorf("failed to write %s: %w", rel, err)
		}

		log.Debug("Exported file", "path", rel, "bytes", len(f.Content))
		summary.Written = append(summary.Written, rel)
	}

	return summary, nil
}
