package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a [Watcher] waits for a burst of file events
// to settle before reporting a change.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a snapshot file made by other programs.
//
// The directory holding the file is watched rather than the file itself, so
// atomic saves that replace the file through a rename are seen as well.
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger
	changes  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	timer *time.Timer
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the settle time. Non-positive values are ignored.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(l *log.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher starts watching path. The file itself does not need to exist
// yet, but its directory does.
func NewWatcher(path string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		fw:       fw,
		debounce: DefaultDebounce,
		logger:   log.Default(),
		changes:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	return w, nil
}

// Changes delivers one value per settled burst of writes to the file.
// Bursts that arrive while a previous change is still unread are merged.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.fw.Close()
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule()
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "path", w.path, "err", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.notify)
}

func (w *Watcher) notify() {
	select {
	case <-w.stopCh:
		return
	default:
	}
	w.logger.Debug("snapshot changed on disk", "path", w.path)
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// Follow reloads the session from its snapshot file every time w reports a
// change, until ctx is done. Changes that leave the file as the session last
// saved it are skipped, so the session's own saves never undo later edits.
// onReload, if not nil, is called after each reload attempt with its error.
func (s *Session) Follow(ctx context.Context, w *Watcher, onReload func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Changes():
			if !s.ChangedOnDisk() {
				s.logger.Debug("snapshot unchanged since last save", "session", s.id, "path", w.Path())
				continue
			}
			err := s.Reload(ctx)
			if err != nil {
				s.logger.Warn("reload failed", "session", s.id, "err", err)
			}
			if onReload != nil {
				onReload(err)
			}
		}
	}
}
