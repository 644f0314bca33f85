// Package watch reports settled changes to a fixed set of files.
//
// The parent directory of each file is watched rather than the file itself, so
// editors and deploy tools that replace a file by rename are still seen.
// Bursts of events for one file collapse into a single callback once the file
// has been quiet for the debounce interval.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
)

// DefaultDebounce is used when New is given a non-positive interval.
const DefaultDebounce = 500 * time.Millisecond

// Handler is called with the cleaned path of a file that changed.
type Handler func(ctx context.Context, path string)

// Watcher watches files and calls a Handler after they settle.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	pending  map[string]time.Time
	debounce time.Duration
	handler  Handler
	logger   log.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New creates a watcher for paths. Nothing is watched until Start.
func New(paths []string, debounce time.Duration, handler Handler) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watch: no paths")
	}
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "watch: create watcher")
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}, len(paths)),
		pending:  make(map[string]time.Time),
		debounce: debounce,
		handler:  handler,
		logger:   log.GetLoggerWithName("watch"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, errors.Wrapf(err, "watch: resolve %s", p)
		}
		w.files[abs] = struct{}{}
	}
	return w, nil
}

// Start begins watching. It returns once every directory is registered; events
// are handled on a background goroutine until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := w.watcher.Add(d); err != nil {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return errors.Wrapf(err, "watch: add %s", d)
		}
		w.logger.Debug("Watching directory", log.PathKey, d)
	}

	go w.run(ctx)
	return nil
}

// Stop ends the event loop, waits for it to exit and releases the watcher.
// It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Failed to close watcher", log.ErrorKey, err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.record(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", log.ErrorKey, err)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) record(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Clean(event.Name)
	if _, ok := w.files[name]; !ok {
		return
	}
	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()
	var settled []string

	w.mu.Lock()
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.logger.Info("File changed", log.PathKey, path)
		w.handler(ctx, path)
	}
}
