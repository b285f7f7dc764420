package confloader

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/tablesync-go/internal/telemetry/logger"
)

// Watcher reports writes to the configuration file so the server can apply
// runtime-adjustable settings, such as the log level, without a restart.
type Watcher struct {
	fs   *fsnotify.Watcher
	path string

	mu       sync.Mutex
	onChange []func()

	done chan struct{}
	log  logger.Logger
}

// NewWatcher watches path. The parent directory is registered rather than
// the file itself, so rename-and-replace saves from editors are still seen.
func NewWatcher(path string, log logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Default()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		fs:   fs,
		path: filepath.Clean(path),
		done: make(chan struct{}),
		log:  log,
	}, nil
}

// OnChange registers a callback to run after each write to the file.
func (w *Watcher) OnChange(fn func()) {
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

// Start dispatches callbacks until Stop is called. It blocks; use
// StartAsync to run it in the background.
func (w *Watcher) Start() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.matches(ev) {
				continue
			}
			w.log.Debug("configuration file changed", "file", ev.Name, "op", ev.Op.String())
			w.notify()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("configuration watch error", "error", err)
		case <-w.done:
			return
		}
	}
}

// StartAsync runs Start in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop ends the watch. The watcher cannot be restarted.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fs.Close()
}

// matches filters directory events down to writes of the watched file.
func (w *Watcher) matches(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	return filepath.Clean(ev.Name) == w.path
}

func (w *Watcher) notify() {
	w.mu.Lock()
	fns := make([]func(), len(w.onChange))
	copy(fns, w.onChange)
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
