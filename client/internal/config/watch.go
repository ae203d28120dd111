package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch reloads the config file at path whenever it changes on disk and calls onChange with
// every successfully loaded config that differs from the previous one. It blocks until ctx is done.
func Watch(ctx context.Context, path string, current *Config, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warnf("failed to close config watcher: %v", err)
		}
	}()

	path = filepath.Clean(path)
	// editors and util.WriteJson replace the file, so the directory is watched
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	last := current
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("config watcher closed unexpectedly")
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(ctx, path)
			if err != nil {
				log.Warnf("ignoring config change: %v", err)
				continue
			}
			if last != nil && reflect.DeepEqual(last, cfg) {
				continue
			}

			log.Infof("config %s changed, applying", path)
			last = cfg
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("config watcher closed unexpectedly")
			}
			log.Warnf("config watcher error: %v", err)
		}
	}
}
