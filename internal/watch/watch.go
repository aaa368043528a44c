// Package watch reports snapshot files that changed and then settled.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quickshoe/Replit-Export-sub000/internal/logging"
)

const DefaultSettle = 2 * time.Second

// Watcher monitors a snapshot directory tree. A file is handed to the
// callback once it has seen no writes for Settle.
type Watcher struct {
	Root   string
	Settle time.Duration
	Logger *slog.Logger
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger == nil {
		return logging.Discard()
	}
	return w.Logger
}

// Run blocks until ctx is cancelled. handle is called from Run's
// goroutine, one path at a time.
func (w *Watcher) Run(ctx context.Context, handle func(ctx context.Context, path string)) error {
	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addTree(fsw, w.Root); err != nil {
		return fmt.Errorf("watch %s: %w", w.Root, err)
	}

	tick := max(settle/4, 50*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	// path -> last write seen
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Only track writes and creates
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if event.Op&fsnotify.Create != 0 && !hidden(event.Name) {
					if err := addTree(fsw, event.Name); err != nil {
						w.logger().Warn("watch new directory", "path", event.Name, "err", err)
					}
				}
				continue
			}
			if !isSnapshot(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger().Warn("watcher error", "err", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)
				handle(ctx, path)
			}
		}
	}
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func isSnapshot(path string) bool {
	return filepath.Ext(path) == ".jsonl" && !hidden(path)
}
