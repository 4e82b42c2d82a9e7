package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the bursts of write events editors and atomic
// saves produce for a single logical change.
const watchDebounce = 500 * time.Millisecond

// Watch blocks until ctx is canceled, reloading the config file whenever it
// changes and invoking onChange with the freshly loaded config. The parent
// directory is watched rather than the file itself so replace-by-rename
// saves keep working. Reload failures are logged and skipped; the previous
// configuration stays in effect.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close() //nolint:errcheck

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger = logger.With(slog.String("component", "config-watcher"))
	logger.Debug("watching config", slog.String("path", path))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watch error", slog.String("error", err.Error()))

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := Load(path)
			if err != nil {
				logger.Warn("config reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("config reloaded", slog.String("path", path))
			onChange(cfg)
		}
	}
}
