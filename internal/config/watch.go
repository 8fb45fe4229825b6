package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Gbr22/citymux/internal/logger"
)

// Watch reloads the config file whenever it changes and hands the
// result to onChange. The parent directory is watched rather than the
// file itself because editors typically replace the file on save.
// The returned stop function ends the watch.
func Watch(path string, onChange func(*Config)) (func(), error) {
	if path == "" {
		path = DefaultPath()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	go func() {
		log := logger.WithComponent("config")
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					log.Warn().Err(err).Msg("config reload failed, keeping previous")
					continue
				}
				log.Info().Str("path", path).Msg("config reloaded")
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("config watcher error")
			case <-stopCh:
				return
			}
		}
	}()

	return func() {
		close(stopCh)
		watcher.Close()
	}, nil
}
