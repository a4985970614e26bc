// Package util provides shared utility functions for the CLI.
package util

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// disallowedChars matches anything not in [a-z0-9-_].
	disallowedChars = regexp.MustCompile(`[^a-z0-9\-_]`)
	// multiHyphen collapses consecutive hyphens.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// SanitizeForFilename converts a string to a CLI-safe, filesystem-safe name.
//   - Lowercases
//   - Replaces spaces with hyphens
//   - Strips all characters not in [a-z0-9-_]
//   - Collapses consecutive hyphens
//   - Trims leading/trailing hyphens
//
// Example: "My App (staging)" → "my-app-staging"
func SanitizeForFilename(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	s = disallowedChars.ReplaceAllString(s, "")
	s = multiHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}

// SafeRelPath validates a server-provided file path for writing under a
// local export root. It rejects absolute paths and any path that would
// escape the root via ".." segments, and returns the path cleaned and
// converted to the host separator.
//
// Example: "src/App.tsx" → "src/App.tsx"; "../etc/passwd" → error.
func SafeRelPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty file path")
	}
	// Server paths always use forward slashes.
	cleaned := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if path.IsAbs(cleaned) {
		return "", fmt.Errorf("absolute path not allowed: %s", p)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("path escapes export directory: %s", p)
	}
	return filepath.FromSlash(cleaned), nil
}
