package config

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the config file at path whenever it changes on disk,
// invoking onReload with the freshly parsed Config. A malformed file
// is logged and skipped; the previous good config remains in effect.
// The returned stop func closes the underlying watcher.
func Watch(path string, log *zap.Logger, onReload func(Config)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					log.Warn("config: reload failed, keeping previous config",
						zap.String("path", path), zap.Error(err))
					continue
				}
				log.Info("config: reloaded", zap.String("path", path))
				onReload(cfg)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config: watcher error", zap.Error(werr))
			}
		}
	}()

	return watcher.Close, nil
}
