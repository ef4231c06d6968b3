package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses bursts of write events from editors.
const reloadDebounce = 500 * time.Millisecond

// Watch reloads path into store whenever the file changes, until ctx is
// done. The parent directory is watched so editors that replace the file
// by rename are still observed. A file that fails to load or validate is
// logged and the store keeps its previous snapshot.
func Watch(ctx context.Context, path string, store *Store, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go watchLoop(ctx, w, abs, store, logger)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, store *Store, logger *log.Logger) {
	defer w.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("config file changed", "file", event.Name, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() { reload(path, store, logger) })

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Error("config watcher", "err", err)
		}
	}
}

// reload loads path and swaps it into store if it is valid.
func reload(path string, store *Store, logger *log.Logger) {
	f, err := Load(path)
	if err != nil {
		logger.Error("config reload rejected, keeping previous config", "file", path, "err", err)
		return
	}
	if err := store.Replace(f.Snapshot); err != nil {
		logger.Error("config reload rejected, keeping previous config", "file", path, "err", err)
		return
	}
	logger.Info("config reloaded", "file", path, "layers", len(f.Layers))
}
