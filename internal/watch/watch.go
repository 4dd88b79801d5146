// Package watch notifies callers when a database's backing file is
// modified outside the current process — useful for a long-lived
// reader to detect that another process has written to the same
// container path (fsdb itself never coordinates across processes;
// see the multi-writer non-goal).
package watch

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/J-Cake/fsdb/internal/logging"
)

// Watcher forwards external writes to a backing file as events on a
// channel.
type Watcher struct {
	w      *fsnotify.Watcher
	Events chan struct{}
	logger *slog.Logger
}

// New starts watching path for external writes.
func New(path string, logger *slog.Logger) (*Watcher, error) {
	logger = logging.Default(logger).With("component", "watch")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	watcher := &Watcher{w: w, Events: make(chan struct{}, 1), logger: logger}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) run() {
	defer close(w.Events)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) {
				select {
				case w.Events <- struct{}{}:
				default:
				}
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Close stops watching. The Events channel is closed once the
// underlying watch goroutine drains.
func (w *Watcher) Close() error {
	return w.w.Close()
}
