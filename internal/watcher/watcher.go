// Package watcher watches drop folders with fsnotify and reports settled image files.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/fileid"
)

const defaultDebounce = 400 * time.Millisecond

// Handler is called once per settled file.
type Handler func(path string)

// Config configures a Watcher.
type Config struct {
	Directories []string
	Extensions  []string // empty matches every file
	Recursive   bool
	Debounce    time.Duration
}

// Watcher calls its handler for each file created or rewritten under the watched
// directories, once writes to that file have been quiet for the debounce period.
type Watcher struct {
	cfg     Config
	handle  Handler
	logger  *zap.Logger
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]*time.Timer // fileid.PathID -> debounce timer
	done    chan struct{}
	started bool
	once    sync.Once
}

// New creates a watcher. Directories that do not exist are created on Start.
func New(cfg Config, handle Handler, logger *zap.Logger) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dirs := make([]string, 0, len(cfg.Directories))
	for _, d := range cfg.Directories {
		dirs = append(dirs, filepath.Clean(d))
	}
	cfg.Directories = dirs
	return &Watcher{
		cfg:     cfg,
		handle:  handle,
		logger:  logger,
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.cfg.Directories {
		if err := addTree(fsw, dir, w.cfg.Recursive); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.started = true
	w.logger.Info("watching drop folders",
		zap.Strings("directories", w.cfg.Directories),
		zap.Strings("extensions", w.cfg.Extensions),
		zap.Bool("recursive", w.cfg.Recursive),
	)
	go w.run(ctx, fsw)
	return nil
}

func addTree(fsw *fsnotify.Watcher, root string, recursive bool) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.handleNewDirectory(fsw, path)
			return
		}
		if w.Matches(path) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
	}
}

// handleNewDirectory watches a directory created under a recursive root and
// schedules the images already inside it.
func (w *Watcher) handleNewDirectory(fsw *fsnotify.Watcher, dir string) {
	if !w.cfg.Recursive {
		return
	}
	if err := addTree(fsw, dir, true); err != nil {
		w.logger.Warn("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
		return
	}
	w.walk(dir, w.schedule)
}

// Matches reports whether path is a visible file with an accepted extension.
func (w *Watcher) Matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return matchExtension(path, w.cfg.Extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	key := fileid.PathID(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.pending[key]; ok {
		t.Stop()
	}
	w.pending[key] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, key)
		w.mu.Unlock()
		w.handle(path)
	})
}

func (w *Watcher) cancel(path string) {
	key := fileid.PathID(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[key]; ok {
		t.Stop()
		delete(w.pending, key)
	}
}

// SyncExisting reports every matching file already present in the watched directories,
// in lexical order per directory.
func (w *Watcher) SyncExisting() {
	for _, dir := range w.cfg.Directories {
		w.walk(dir, w.handle)
	}
}

func (w *Watcher) walk(root string, visit func(string)) {
	recursive := w.cfg.Recursive
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("watcher walk error", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if w.Matches(path) {
			visit(path)
		}
		return nil
	})
}

// Directories returns the watched directories.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.cfg.Directories...)
}

// Stop stops watching and drops pending events. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for key, t := range w.pending {
		t.Stop()
		delete(w.pending, key)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.once.Do(func() { close(w.done) })
}
