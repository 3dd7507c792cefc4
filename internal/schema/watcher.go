package schema

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/propforma/underwrite/pkg/form"
)

// WatchFile watches an on-disk document for writes, debounces editor bursts,
// and calls apply with each model that parses cleanly. Parse failures are
// logged and the previous model stays in effect. Blocks until ctx is
// cancelled and returns nil in that case.
func WatchFile(ctx context.Context, log *zap.SugaredLogger, path string, apply func(form.Model)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("schema: resolve watch path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schema: fsnotify: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and an
	// inode-level watch would be lost after the first save.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("schema: add watch: %w", err)
	}

	const debounce = 250 * time.Millisecond
	var timer *time.Timer
	fire := make(chan struct{}, 1)

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("schema watch error", "path", abs, "error", err)
		case <-fire:
			model, err := LoadFile(ctx, abs)
			if err != nil {
				log.Warnw("schema reload failed, keeping previous model", "path", abs, "error", err)
				continue
			}
			log.Infow("schema reloaded", "path", abs, "fields", len(model.Fields))
			apply(model)
		}
	}
}
