package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/quickgen/pkg/parser"
)

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// Debounce groups bursts of changes into one regeneration.
	// Default: 200ms
	Debounce time.Duration
	// OnGenerate is called after every regeneration, from the watcher's
	// timer goroutine.
	OnGenerate func(*Result, error)
}

// Watcher regenerates the knowledge base when source files under the root
// change. Regenerations never overlap.
//
// Usage:
//
//	w, err := NewWatcher(gen, cfg, WatchOptions{}, logger)
//	if err := w.Start(ctx); err != nil { ... }
//	defer w.Stop()
type Watcher struct {
	gen     *Generator
	cfg     Config
	options WatchOptions
	log     *slog.Logger

	watcher *fsnotify.Watcher
	root    string
	outDir  string

	timerMu sync.Mutex
	timer   *time.Timer
	genMu   sync.Mutex

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopChan chan struct{}
	runs     int
}

// NewWatcher creates a watcher for cfg.Dir.
func NewWatcher(gen *Generator, cfg Config, options WatchOptions, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = 200 * time.Millisecond
	}

	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	return &Watcher{
		gen:      gen,
		cfg:      cfg,
		options:  options,
		log:      logger,
		watcher:  fsw,
		root:     root,
		outDir:   cfg.OutputDir(root),
		stopChan: make(chan struct{}),
	}, nil
}

// Start adds watches for the root and every directory below it that is not
// excluded, then processes events in the background until ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.started = true
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.log.Info("knowledge watcher started", "root", w.root, "debounce_ms", w.options.Debounce.Milliseconds())

	go w.eventLoop(ctx)
	return nil
}

// Stop ends event processing and waits for a running regeneration.
// Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	w.mu.Unlock()

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()

	err := w.watcher.Close()

	w.genMu.Lock()
	defer w.genMu.Unlock()
	w.log.Info("knowledge watcher stopped")
	return err
}

// Runs returns how many regenerations have completed.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path, true) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return

		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if isDir(event.Name) {
			if !w.ignored(event.Name, true) {
				if err := w.addTree(event.Name); err != nil {
					w.log.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
				w.schedule()
			}
			return
		}
	}

	if w.ignored(event.Name, false) || !parser.IsSupportedFile(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.log.Debug("source changed", "op", event.Op.String(), "file", event.Name)
		w.schedule()
	}
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.options.Debounce, w.regenerate)
}

func (w *Watcher) regenerate() {
	w.genMu.Lock()
	defer w.genMu.Unlock()

	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	result, err := w.gen.Generate(context.Background(), w.cfg)
	if err != nil {
		w.log.Error("knowledge regeneration failed", "error", err)
	}

	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	if w.options.OnGenerate != nil {
		w.options.OnGenerate(result, err)
	}
}

// ignored reports whether path is the output directory, below it, or
// matched by the discovery excludes.
func (w *Watcher) ignored(path string, dir bool) bool {
	if path == w.outDir {
		return true
	}
	if _, ok := insideRoot(w.outDir, path); ok {
		return true
	}

	rel, ok := insideRoot(w.root, path)
	if !ok {
		return false
	}
	for _, pattern := range w.cfg.Discovery.Exclude {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
		// a directory is excluded when its contents are
		if dir {
			if match, _ := doublestar.Match(pattern, rel+"/x"); match {
				return true
			}
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
