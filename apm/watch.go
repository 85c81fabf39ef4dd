package apm

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/shogo82148/apm-yasdk-go/apm/apmlog"
)

// WatchConfig applies the "enabled" value of the configuration file at path to t,
// and applies it again every time the file changes.
// It blocks until ctx is canceled.
//
// Spans already started are not affected by a change.
func WatchConfig(ctx context.Context, path string, t *Tracer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("apm: failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory, editors often replace the file instead of writing it.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("apm: failed to watch %q: %w", path, err)
	}

	apply := func() {
		cfg, err := LoadConfig(path)
		if err != nil {
			apmlog.Warnf(ctx, "apm: failed to reload configuration: %v", err)
			return
		}
		if cfg.Enabled != nil {
			apmlog.Debugf(ctx, "apm: set enabled to %t", *cfg.Enabled)
			t.SetEnabled(*cfg.Enabled)
		}
	}
	apply()

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
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				apply()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			apmlog.Warnf(ctx, "apm: watcher error: %v", err)
		}
	}
}
