// Package watch keeps the file and line tokens of generated statements
// current while files are edited.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"logsmith/internal/config"
	"logsmith/internal/engine"
	"logsmith/internal/logging"
	"logsmith/internal/syntax"
	"logsmith/internal/utils"
)

// DefaultDebounce is the quiet period after the last write to a file before
// it is corrected.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce  time.Duration
	Overrides config.Overrides
	// OnResult is called after each correction attempt.
	OnResult func(engine.FileResult)
	Logger   *slog.Logger
}

// Watcher runs the correct operation on source files under a root
// directory whenever they change. Work on a single file is serialized.
type Watcher struct {
	engine *engine.Engine
	root   string
	opts   Options
	logger *slog.Logger
	ready  chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
	locks  map[string]*sync.Mutex
	seen   map[string]string
	wg     sync.WaitGroup
}

// New creates a watcher for root.
func New(e *engine.Engine, root string, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		engine: e,
		root:   root,
		opts:   opts,
		logger: logging.Component(opts.Logger, "watch"),
		ready:  make(chan struct{}),
		timers: make(map[string]*time.Timer),
		locks:  make(map[string]*sync.Mutex),
		seen:   make(map[string]string),
	}
}

// Ready is closed once the initial directories are being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done. Pending corrections finish before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	close(w.ready)
	w.logger.Info("watching", "root", w.root)

	defer w.wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(fw, ev.Name); err != nil {
				w.logger.Warn("failed to watch directory", "path", ev.Name, "error", err)
			}
			return
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.forget(ev.Name)
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	if syntax.IsSupportedFile(ev.Name) {
		w.schedule(ev.Name)
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && utils.IsExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// schedule restarts the debounce timer of path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		defer w.wg.Done()
		w.Correct(path)
	})
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	delete(w.seen, path)
}

func (w *Watcher) wait() {
	w.wg.Wait()
}

func (w *Watcher) fileLock(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[path]
	if !ok {
		l = &sync.Mutex{}
		w.locks[path] = l
	}
	return l
}

// Correct updates the statements of one file. Content that was already
// processed, including the watcher's own writes, is skipped. It reports
// whether the file was examined.
func (w *Watcher) Correct(path string) bool {
	l := w.fileLock(path)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Debug("file vanished before correction", "path", path, "error", err)
		return false
	}
	hash := utils.HashContent(string(data))
	w.mu.Lock()
	unchanged := w.seen[path] == hash
	w.mu.Unlock()
	if unchanged {
		return false
	}

	res := w.engine.ProcessFile(path, engine.OpCorrect, engine.FileOptions{Overrides: w.opts.Overrides})
	if res.Err != nil {
		w.logger.Warn("correction failed", "path", path, "error", res.Err)
	} else if res.Edits > 0 {
		w.logger.Info("statements corrected", "path", path, "edits", res.Edits)
		if data, err = os.ReadFile(path); err == nil {
			hash = utils.HashContent(string(data))
		}
	}

	w.mu.Lock()
	w.seen[path] = hash
	w.mu.Unlock()
	if w.opts.OnResult != nil {
		w.opts.OnResult(res)
	}
	return true
}
