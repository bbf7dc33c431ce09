// Package watch reports changes to the set of directories directly under the
// projects root, so the project list can be rescanned without polling.
package watch

import (
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long the root must stay quiet before a change is
// reported.
const DefaultDelay = 500 * time.Millisecond

// RootChangedMsg is delivered when entries were created, removed or renamed
// under the root.
type RootChangedMsg struct{}

// Watcher monitors one directory for entry changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	events    chan struct{}
	stop      chan struct{}
	delay     time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New starts watching root.
func New(root string, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsWatcher: fsWatcher,
		events:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
		delay:     DefaultDelay,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := fsWatcher.Add(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	go w.run()
	return w, nil
}

// Events returns the channel that receives change notifications. It is
// closed when the watcher stops.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true

	close(w.stop)
	w.fsWatcher.Close()
}

// Wait returns a command that blocks until the next change and yields
// RootChangedMsg. It yields nil once the watcher has stopped, which ends the
// chain.
func Wait(w *Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.events; !ok {
			return nil
		}
		return RootChangedMsg{}
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) run() {
	defer close(w.events)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.events <- struct{}{}:
			default:
				// A change is already pending.
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("root watch error", "err", err)
		}
	}
}
