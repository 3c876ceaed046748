// Package watch re-runs a callback when files matching a doublestar pattern
// change under a root directory.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-ccnut/pkg/logger"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Config controls which events reach the callback.
type Config struct {
	// Pattern is matched against slash-separated paths relative to the root.
	// Empty matches everything.
	Pattern string
	// Ignore lists doublestar patterns that are never reported.
	Ignore      []string
	WatchHidden bool
	Debounce    time.Duration
}

// Watcher watches a directory tree.
type Watcher struct {
	root     string
	config   Config
	onChange func(path string)
	logger   logger.Logger

	fs *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher rooted at root. onChange receives the absolute path
// of each changed file once its events settle.
func New(root string, cfg Config, onChange func(path string), l logger.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		root:     abs,
		config:   cfg,
		onChange: onChange,
		logger:   logger.OrNop(l),
		fs:       fsWatcher,
		pending:  make(map[string]*time.Timer),
	}
	if err := w.addTree(abs); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// Run dispatches events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch:", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.shouldIgnore(event.Name) {
				if err := w.addTree(event.Name); err != nil {
					w.logger.Warn("watch:", err)
				}
			}
			return
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	if w.shouldIgnore(event.Name) || !w.matches(event.Name) {
		return
	}
	w.schedule(event.Name)
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.config.Debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if _, err := os.Stat(path); err != nil {
			return
		}
		w.onChange(path)
	})
}

func (w *Watcher) addTree(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if !entry.IsDir() || w.shouldIgnore(full) {
			continue
		}
		if err := w.addTree(full); err != nil {
			w.logger.Warn("watch:", err)
		}
	}
	return nil
}

func (w *Watcher) matches(path string) bool {
	if w.config.Pattern == "" {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	ok, _ := doublestar.Match(w.config.Pattern, filepath.ToSlash(rel))
	return ok
}

func (w *Watcher) shouldIgnore(path string) bool {
	if !w.config.WatchHidden && strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.config.Ignore {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.fs.Close()
}
