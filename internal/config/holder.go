package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xlog "github.com/chanmap/chanmap/internal/log"
)

// Holder provides thread-safe access to the current configuration and hot
// reloading from file. A reload either applies a fully valid configuration
// or keeps the old one untouched.
type Holder struct {
	mu      sync.RWMutex
	current Config
	loader  Loader
	logger  zerolog.Logger

	listenerMu sync.RWMutex
	listeners  []chan<- Config
}

// NewHolder wraps an initial configuration and its loader.
func NewHolder(initial Config, loader Loader) *Holder {
	return &Holder{
		current: initial,
		loader:  loader,
		logger:  xlog.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Subscribe registers a channel that receives every successfully applied
// configuration. Delivery is best effort; a full channel is skipped.
func (h *Holder) Subscribe(ch chan<- Config) {
	h.listenerMu.Lock()
	h.listeners = append(h.listeners, ch)
	h.listenerMu.Unlock()
}

// Reload re-reads the configuration file and swaps it in atomically.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str(xlog.FieldEvent, "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).
			Str(xlog.FieldEvent, "config.reload_failed").
			Msg("keeping previous configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	h.current = newCfg
	h.mu.Unlock()

	h.notify(newCfg)
	h.logger.Info().Str(xlog.FieldEvent, "config.reload_success").Msg("configuration reloaded")
	return nil
}

func (h *Holder) notify(cfg Config) {
	h.listenerMu.RLock()
	defer h.listenerMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
		}
	}
}

// Watch observes the config file until ctx is done and reloads on writes.
// Editors replace files rather than writing in place, so the parent
// directory is watched and events are filtered by name. A short debounce
// absorbs rename/chmod bursts.
func (h *Holder) Watch(ctx context.Context) error {
	if h.loader.Path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(h.loader.Path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var debounce *time.Timer
	reload := func() {
		if err := h.Reload(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("hot reload rejected")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Clean(ev.Name), filepath.Clean(h.loader.Path)) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().Err(err).Str(xlog.FieldEvent, "config.watch_error").Msg("config watcher error")
		}
	}
}
