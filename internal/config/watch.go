package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// ReloadFunc receives the reloaded configuration, or the error that kept it
// from loading.
type ReloadFunc func(cfg *Config, err error)

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the file must stay quiet before it is reloaded.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(log logr.Logger) WatchOption {
	return func(w *Watcher) {
		w.log = log
	}
}

// Watcher reloads a config file whenever it changes. The directory is
// watched rather than the file so that editors replacing the file through a
// rename are noticed.
type Watcher struct {
	path     string
	fn       ReloadFunc
	debounce time.Duration
	log      logr.Logger

	fsw *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching path. Changes are reported once Run is called.
func NewWatcher(path string, fn ReloadFunc, opts ...WatchOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		fn:       fn,
		debounce: 100 * time.Millisecond,
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", absPath, err)
	}
	w.fsw = fsw
	return w, nil
}

// Run delivers reloads until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = w.fsw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
				w.schedule(ctx)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error(err, "Watching config file failed", "path", w.path)
		}
	}
}

// schedule coalesces bursts of events into one reload.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		cfg, err := Load(w.path)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			w.log.Info("Ignoring invalid config change", "path", w.path, "error", err.Error())
			w.fn(nil, err)
			return
		}
		w.log.V(1).Info("Config reloaded", "path", w.path)
		w.fn(cfg, nil)
	})
}

// Watch watches path until ctx is done, calling fn after every change.
func Watch(ctx context.Context, path string, fn ReloadFunc, opts ...WatchOption) error {
	w, err := NewWatcher(path, fn, opts...)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
