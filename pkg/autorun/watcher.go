package autorun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher watches a drop directory for CSV files and hands settled files
// to a process callback. Files are debounced per path so a file still being
// written is not picked up mid-copy.
type DirWatcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDirWatcher creates a watcher over dir. The logger may be nil, in which
// case the default logger is used.
func NewDirWatcher(dir string, debounce time.Duration, logger *slog.Logger) *DirWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirWatcher{
		dir:      dir,
		debounce: debounce,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// Watch processes files already present in the directory, then blocks
// handling filesystem events until the context is cancelled. Each settled
// CSV file is passed to process exactly once per settle; process errors are
// logged, never fatal.
func (w *DirWatcher) Watch(ctx context.Context, process func(ctx context.Context, path string) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating drop directory %q: %w", w.dir, err)
	}
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.dir, err)
	}

	w.logger.Info("drop watcher started",
		"dir", w.dir,
		"debounce_ms", w.debounce.Milliseconds())

	if err := w.ScanExisting(ctx, process); err != nil {
		return err
	}

	run := func(path string) {
		if err := process(ctx, path); err != nil {
			w.logger.Error("processing dropped file failed", "path", path, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			w.logger.Info("drop watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcess(event) {
				continue
			}
			w.logger.Debug("file event detected", "path", event.Name, "op", event.Op.String())
			w.schedule(event.Name, run)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// ScanExisting processes every CSV file already present in the directory,
// in name order.
func (w *DirWatcher) ScanExisting(ctx context.Context, process func(ctx context.Context, path string) error) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading drop directory %q: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isCSV(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if err := process(ctx, path); err != nil {
			w.logger.Error("processing existing file failed", "path", path, "error", err)
		}
	}
	return nil
}

// schedule arms the per-path debounce timer, restarting it if the file is
// still being written to.
func (w *DirWatcher) schedule(path string, run func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		run(path)
	})
}

func (w *DirWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

func (w *DirWatcher) shouldProcess(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return false
	}
	return isCSV(event.Name)
}

func isCSV(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".csv")
}
