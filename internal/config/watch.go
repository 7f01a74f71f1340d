package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the configuration whenever cfg.File changes and hands each
// valid result to onChange. Invalid edits are logged and skipped. It blocks
// until ctx is done. Without a config file there is nothing to watch.
func Watch(ctx context.Context, cfg *Config, flags *pflag.FlagSet, logger zerolog.Logger, onChange func(*Config)) error {
	if cfg.File == "" {
		<-ctx.Done()
		return nil
	}
	path, err := filepath.Abs(cfg.File)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				next, err := Load(cfg.File, flags)
				if err != nil {
					logger.Warn().Err(err).Str("file", cfg.File).Msg("config reload failed")
					return
				}
				logger.Info().Str("file", cfg.File).Msg("config reloaded")
				onChange(next)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("config watcher error")
		}
	}
}
