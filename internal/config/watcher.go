// This file implements hot reloading of configuration in development.
package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the configuration file and hot reloads it. This is
// primarily used in development environments for faster iteration.
type Watcher struct {
	mu        sync.RWMutex
	config    Config
	callbacks []func(Config)
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher creates a watcher over the file at path. Reloading is only
// enabled in development; in production the watcher is inert and Current
// always returns the initial configuration.
func NewWatcher(initial Config, path string, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		config: initial,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if !initial.IsDevelopment() || path == "" {
		logger.Info("configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.watcher = fsWatcher

	go w.watchLoop(path)

	logger.Info("configuration hot reloading enabled", zap.String("path", path))
	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnReload registers a callback invoked after every successful reload.
func (w *Watcher) OnReload(fn func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	close(w.stopCh)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) watchLoop(path string) {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload(path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(path string) {
	cfg := Default()
	if err := loadFile(&cfg, path); err != nil {
		w.logger.Warn("config reload failed, keeping previous configuration",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("reloaded config invalid, keeping previous configuration",
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.config = cfg
	callbacks := make([]func(Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", zap.String("path", path))
	for _, fn := range callbacks {
		fn(cfg)
	}
}
