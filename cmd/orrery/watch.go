package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// configWatcher signals when a scene config file is written or replaced.
type configWatcher struct {
	watcher *fsnotify.Watcher
	reloads chan struct{}
	done    chan struct{}
}

// watchConfig watches the directory holding path, since editors often
// replace files rather than write them in place. Presets cannot be watched.
func watchConfig(path string, logger *slog.Logger) (*configWatcher, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("orrery: watch: %s is not a file: %w", path, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("orrery: watch: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("orrery: watch: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("orrery: watch: %w", err)
	}

	w := &configWatcher{
		watcher: watcher,
		reloads: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop(absPath, logger)
	return w, nil
}

func (w *configWatcher) loop(path string, logger *slog.Logger) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("config changed", "path", path, "op", event.Op.String())
			select {
			case w.reloads <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch config", "error", err)
		}
	}
}

// Reloads delivers at most one pending reload at a time.
func (w *configWatcher) Reloads() <-chan struct{} {
	return w.reloads
}

func (w *configWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
