// Package watch reports changes to the documents directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last file event before the
// directory is re-checked.
const DefaultDebounce = 500 * time.Millisecond

// ChangeDetector decides whether the directory differs from the indexed snapshot.
type ChangeDetector interface {
	HasChanges() bool
}

// Watcher observes a directory and calls back when its documents change.
type Watcher struct {
	dir      string
	detector ChangeDetector
	debounce time.Duration
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period between the last event and the check.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
	}
}

// New creates a watcher over dir.
func New(dir string, detector ChangeDetector, opts ...Option) *Watcher {
	w := &Watcher{dir: dir, detector: detector, debounce: DefaultDebounce, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done. After each burst of file events it asks the
// detector for changes and, if there are any, calls onChange. An error from
// onChange stops the watcher.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching documents", "dir", w.dir)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.logger.Debug("file event", "name", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-timer.C:
			if !w.detector.HasChanges() {
				continue
			}
			if err := onChange(ctx); err != nil {
				return err
			}
		}
	}
}
