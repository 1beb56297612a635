// Package watch reports changes to snippet files on disk.
package watch

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches a directory for changes to .html, .css and .js files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	rootDir  string
	onChange func(filePath string) error
	done     chan struct{}
	stopOnce sync.Once
	debounce time.Duration
	debug    bool
}

// New creates a new file watcher for the given directory and its
// subdirectories. onChange receives the path relative to rootDir.
func New(rootDir string, onChange func(string) error, debug bool) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsWatcher,
		rootDir:  rootDir,
		onChange: onChange,
		done:     make(chan struct{}),
		debounce: DefaultDebounce,
		debug:    debug,
	}

	if err := w.addDirectoryRecursive(rootDir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return w, nil
}

// addDirectoryRecursive adds a directory and all its subdirectories to the watcher.
func (w *Watcher) addDirectoryRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		// Skip hidden dirs like .git
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			return err
		}
		if w.debug {
			log.Printf("[Watch] Added directory: %s", path)
		}
		return nil
	})
}

// IsSnippetFile reports whether the path has a snippet extension.
func IsSnippetFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".css", ".js":
		return true
	}
	return false
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// New directories are watched too
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectoryRecursive(event.Name); err != nil {
						log.Printf("[Watch] Failed to watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !IsSnippetFile(event.Name) {
				continue
			}

			relPath, err := filepath.Rel(w.rootDir, event.Name)
			if err != nil {
				relPath = event.Name
			}
			pending[relPath] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			for relPath := range pending {
				if w.debug {
					log.Printf("[Watch] File changed: %s", relPath)
				}
				if err := w.onChange(relPath); err != nil {
					log.Printf("[Watch] Handler failed for %s: %v", relPath, err)
				}
			}
			clear(pending)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Watch] Error: %v", err)

		case <-w.done:
			timer.Stop()
			return
		}
	}
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
