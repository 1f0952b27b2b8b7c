package file

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/coursewatch/coursewatch/internal/logger"
)

// debounceWindow coalesces the burst of filesystem events editors emit for a
// single save into one reload.
const debounceWindow = 100 * time.Millisecond

// Watcher reloads the config store when its file changes on disk and hands
// the fresh snapshot to the registered callbacks. Serve mode uses it to
// retune the rate limiter without a restart.
type Watcher struct {
	store    *Store
	onReload []func(Config)

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	done    chan struct{}
	stopped bool
}

// NewWatcher creates a watcher over the store's config file. Callbacks run
// sequentially on the watcher goroutine after each successful reload.
func NewWatcher(store *Store, onReload ...func(Config)) *Watcher {
	return &Watcher{
		store:    store,
		onReload: onReload,
	}
}

// Start begins watching. The parent directory is watched rather than the
// file itself so atomic rename-over-save still delivers events.
func (w *Watcher) Start() error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fs.Add(filepath.Dir(w.store.Path())); err != nil {
		fs.Close()
		return err
	}

	w.mu.Lock()
	w.fs = fs
	w.done = make(chan struct{})
	w.stopped = false
	w.mu.Unlock()

	go w.run(fs)
	return nil
}

// Stop ends the watch. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.fs == nil {
		return
	}
	w.stopped = true
	w.fs.Close()
	<-w.done
}

func (w *Watcher) run(fs *fsnotify.Watcher) {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-fs.Events:
			if !ok {
				return
			}
			if event.Name != w.store.Path() {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	if err := w.store.Load(); err != nil {
		logger.Warn("Config reload failed, keeping previous settings: %v", err)
		return
	}

	cfg := w.store.Get()
	logger.Info("Config reloaded from %s", w.store.Path())
	for _, fn := range w.onReload {
		fn(cfg)
	}
}
