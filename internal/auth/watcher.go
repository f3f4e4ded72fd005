package auth

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of filesystem events an editor save or
// atomic rename produces into a single reload.
const reloadDebounce = 250 * time.Millisecond

// WatchRecord watches the durable credential record for out-of-band edits
// (the user pasting fresh tokens into the file while the server runs) and
// hot-reloads the Store when it changes. Blocks until ctx is canceled.
//
// The parent directory is watched rather than the file: atomic
// write-to-temp-then-rename replaces the inode, which would silently detach
// a file-level watch. The Store's own persists also land here — reloading
// after them is a harmless no-op since the file matches memory.
func WatchRecord(ctx context.Context, store *Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("auth: creating credential watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(store.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("auth: watching %s: %w", dir, err)
	}

	logger.Info("watching credential record", slog.String("path", store.Path()))

	var debounce *time.Timer

	reloadCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Name != store.Path() {
				continue
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}

			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			})

		case <-reloadCh:
			if _, err := store.Reload(); err != nil {
				logger.Warn("credential record changed but reload failed",
					slog.String("error", err.Error()),
				)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("credential watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
