package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/terminus-adherence/internal/common/logger"
)

// DefaultSettleDelay groups the burst of write events a single file save produces
const DefaultSettleDelay = 500 * time.Millisecond

// Watch invalidates cache whenever one of paths is written or replaced, then calls
// onChange once the writes settle. The parent directories are watched so that editors
// and exporters saving through a rename are noticed. It runs until ctx is cancelled.
func Watch(ctx context.Context, cache *Cache, paths []string, settle time.Duration, log logger.Logger, onChange func()) error {
	if len(paths) == 0 {
		return fmt.Errorf("no local files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	log.Info("Watching terminus files for changes", "files", len(watched))

	// nil until a change is seen; receiving from it blocks forever
	var settled <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !watched[name] {
				continue
			}

			log.Debug("Terminus file changed", "file", name, "op", event.Op.String())
			cache.Invalidate()
			settled = time.After(settle)

		case <-settled:
			settled = nil
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("File watcher error", "error", err)
		}
	}
}
