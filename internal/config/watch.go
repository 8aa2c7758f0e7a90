package config

import (
	"context"
	"fmt"
	log "log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watch reloads the config file at path whenever it changes and hands the
// new value to onChange. Parse failures are logged and the previous value
// stays in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path, envFile string, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// editors replace files by rename, so watch the directory
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	name := filepath.Clean(path)
	var fire <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(watchDebounce)
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("Config watcher error", "err", err)

		case <-fire:
			fire = nil
			cfg, err := Load(path, envFile)
			if err != nil {
				log.Warn("Failed to reload config", "path", path, "err", err)
				continue
			}
			log.Info("Config reloaded", "path", path)
			onChange(cfg)
		}
	}
}
