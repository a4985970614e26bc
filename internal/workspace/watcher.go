package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher tracks local edits under an export root so subsequent exports can
// avoid clobbering user changes. It records paths relative to the root.
type Watcher struct {
	root string

	mu    sync.Mutex
	dirty map[string]bool

	fw   *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher starts watching root and all its existing subdirectories.
// Call Close when done.
func NewWatcher(root string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:  root,
		dirty: make(map[string]bool),
		fw:    fw,
		done:  make(chan struct{}),
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			// New directories must be added explicitly; fsnotify does
			// not watch recursively.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.fw.Add(ev.Name); err != nil {
						log.Debug("Failed to watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				w.markDirty(ev.Name)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Debug("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) markDirty(absPath string) {
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	w.mu.Lock()
	w.dirty[rel] = true
	w.mu.Unlock()
	log.Debug("Local modification detected", "path", rel)
}

// Dirty returns a copy of the current dirty set, keyed by path relative to
// the watched root.
func (w *Watcher) Dirty() map[string]bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]bool, len(w.dirty))
	for k, v := range w.dirty {
		out[k] = v
	}
	return out
}

// Reset clears the dirty set, typically right after a successful export.
func (w *Watcher) Reset() {
	w.mu.Lock()
	w.dirty = make(map[string]bool)
	w.mu.Unlock()
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
