package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const refreshDebounce = 400 * time.Millisecond

// Watcher watches the dataset path and triggers a provider refresh when the
// backing files change. Bursts of write events collapse into one refresh.
type Watcher struct {
	path     string
	provider *Provider
	logger   *zap.Logger

	mu       sync.Mutex
	timer    *time.Timer
	watcher  *fsnotify.Watcher
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the given dataset path (file or directory).
func NewWatcher(path string, provider *Provider, logger *zap.Logger) *Watcher {
	return &Watcher{
		path:     path,
		provider: provider,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	// Watching a single file misses atomic replace (write temp + rename), so
	// watch the containing directory and filter events by path.
	watchDir := w.path
	if info, err := os.Stat(w.path); err == nil && !info.IsDir() {
		watchDir = filepath.Dir(w.path)
	}
	if err := watcher.Add(watchDir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	if w.logger != nil {
		w.logger.Info("watching dataset path", zap.String("path", w.path))
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("dataset watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	if w.logger != nil {
		w.logger.Debug("dataset change event", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(refreshDebounce, func() {
		if err := w.provider.Refresh(); err != nil && w.logger != nil {
			w.logger.Warn("dataset refresh after change failed", zap.Error(err))
		}
	})
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.timer != nil {
			w.timer.Stop()
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}
