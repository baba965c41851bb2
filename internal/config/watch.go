package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// LiveSite holds the current site texts and can be swapped while serving.
type LiveSite struct {
	p atomic.Pointer[Site]
}

// NewLiveSite returns a holder for s.
func NewLiveSite(s Site) *LiveSite {
	l := &LiveSite{}
	l.Set(s)
	return l
}

// Get returns the current texts.
func (l *LiveSite) Get() Site {
	return *l.p.Load()
}

// Set replaces the texts.
func (l *LiveSite) Set(s Site) {
	l.p.Store(&s)
}

// Watch reloads the file at path whenever it changes and publishes its site
// texts to live. Other settings need a restart. A file that fails to load is
// logged and the previous texts stay. Watch returns when ctx is done.
func Watch(ctx context.Context, path string, live *LiveSite) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing to it.
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching config: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				slog.Warn("config reload failed", "path", abs, "error", err)
				continue
			}
			live.Set(cfg.Site)
			slog.Info("site texts reloaded", "path", abs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
