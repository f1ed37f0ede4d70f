package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeFunc receives the previous and reloaded configuration.
type ChangeFunc func(prev, next *Config)

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path   string
	logger zerolog.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []ChangeFunc
}

// NewWatcher loads path and prepares to watch it.
func NewWatcher(path string, logger zerolog.Logger) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:    path,
		logger:  logger.With().Str("component", "config").Str("config_path", path).Logger(),
		current: cfg,
	}, nil
}

// Config returns the latest successfully loaded configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers fn to run after every successful reload.
func (w *Watcher) OnChange(fn ChangeFunc) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, fn)
	w.mu.Unlock()
}

// Run watches the file's directory until ctx is done. Editors that replace
// the file by rename are handled by watching the directory.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer fw.Close()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", w.path, err)
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(target), err)
	}
	w.logger.Info().Msg("watching config file")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload(event)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) reload(event fsnotify.Event) {
	next, err := Load(w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("event", event.Op.String()).Msg("config reload failed, keeping previous")
		return
	}
	w.mu.Lock()
	prev := w.current
	w.current = next
	callbacks := append([]ChangeFunc(nil), w.callbacks...)
	w.mu.Unlock()

	w.logger.Info().Str("event", event.Op.String()).Msg("config reloaded")
	for _, fn := range callbacks {
		fn(prev, next)
	}
}
